package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Sternrassler/space-catalog/pkg/catalog"
)

type column struct {
	title string
	width int
	right bool
	value func(catalog.SpaceObject) string
}

var columns = []column{
	{"ID", 6, true, func(o catalog.SpaceObject) string { return o.ID }},
	{"Name", 22, false, func(o catalog.SpaceObject) string { return o.Name }},
	{"Type", 14, false, func(o catalog.SpaceObject) string { return o.Type }},
	{"Mass (kg)", 13, true, func(o catalog.SpaceObject) string { return catalog.FormatScientific(o.Mass) }},
	{"Diameter (km)", 14, true, func(o catalog.SpaceObject) string { return catalog.FormatScientific(o.Diameter) }},
	{"Distance (ly)", 14, true, func(o catalog.SpaceObject) string { return catalog.FormatScientific(o.Distance) }},
	{"Year", 5, true, func(o catalog.SpaceObject) string { return strconv.Itoa(o.DiscoveryYear) }},
	{"Habitable", 14, false, func(o catalog.SpaceObject) string { return catalog.HabitabilityLabel(o.IsHabitable) }},
}

// renderMain draws the header, notifications, table and footer.
func (m Model) renderMain() string {
	s := m.styles
	lines := []string{m.renderHeader()}
	lines = append(lines, m.renderToasts()...)
	lines = append(lines, s.TableHeader.Render(renderRow(func(c column) string { return c.title })))

	h := m.listHeight()
	switch {
	case len(m.items) == 0 && m.state.Loading:
		lines = append(lines, m.spinner.View()+" "+s.MutedText.Render("Loading space objects..."))
	case len(m.items) == 0 && m.state.Err != nil:
		lines = append(lines, s.DangerText.Render("Could not load space objects: "+m.state.Err.Error()))
		lines = append(lines, s.MutedText.Render("Press r to retry."))
	case len(m.items) == 0:
		lines = append(lines, s.MutedText.Render("No space objects yet. Press n to add one."))
	default:
		end := min(m.offset+h, len(m.items))
		for i := m.offset; i < end; i++ {
			obj := m.items[i]
			row := renderRow(func(c column) string { return c.value(obj) })
			if i == m.selected {
				row = s.Selected.Render(row)
			}
			lines = append(lines, row)
		}
		if end == len(m.items) {
			if tail := m.renderTail(); tail != "" {
				lines = append(lines, tail)
			}
		}
	}

	body := lipgloss.JoinVertical(lipgloss.Left, lines...)
	if m.height > 0 {
		body = lipgloss.NewStyle().Height(m.height - 2).Render(body)
	}

	footer := m.renderStatus()
	if m.showHelp {
		m.help.ShowAll = true
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, footer, s.Footer.Render(m.help.View(m.keys)))
}

func (m Model) renderHeader() string {
	s := m.styles
	count := fmt.Sprintf("%d loaded", len(m.items))
	if m.state.TotalCount > 0 {
		count = fmt.Sprintf("%d of %d", len(m.items), m.state.TotalCount)
	}
	title := s.AccentText.Bold(true).Render("Space Catalog")
	return s.Header.Width(max(m.width, 0)).Render(title + "  " + s.MutedText.Render(count))
}

// renderTail is the row below the last loaded object.
func (m Model) renderTail() string {
	s := m.styles
	switch {
	case m.state.FetchingNext:
		return m.spinner.View() + " " + s.MutedText.Render("Loading more...")
	case m.state.Err != nil:
		return s.WarningText.Render("Could not load more: " + m.state.Err.Error())
	case !m.state.HasMore:
		return s.FaintText.Render("End of catalog")
	}
	return ""
}

// renderStatus shows the selected object's description.
func (m Model) renderStatus() string {
	if m.deleting {
		return m.spinner.View() + " " + m.styles.MutedText.Render("Deleting...")
	}
	obj, ok := m.selectedObject()
	if !ok {
		return ""
	}
	return m.styles.Footer.Render(truncate(obj.Name+": "+obj.Description, max(m.width-2, 20)))
}

func renderRow(cell func(column) string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = pad(truncate(cell(c), c.width), c.width, c.right)
	}
	return strings.Join(parts, " ")
}

// truncate shortens s to width cells, ending in an ellipsis when cut.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-1 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func pad(s string, width int, right bool) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}
