// Package ui is the Bubble Tea front end of the catalog: a scrolling table
// that loads further pages as the selection nears the end, a create form, a
// delete confirmation dialog and transient notifications.
package ui
