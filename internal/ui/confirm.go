package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// handleConfirmKey processes keyboard input while a delete awaits
// confirmation.
func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Yes), key.Matches(msg, m.keys.Confirm):
		m.mode = modeList
		m.pending = nil
		m.deleting = true
		return m, confirmDeleteCmd(m.ctx, m.mutations)

	case key.Matches(msg, m.keys.No), key.Matches(msg, m.keys.Escape):
		m.mutations.CancelDelete()
		m.mode = modeList
		m.pending = nil
		return m, nil
	}
	return m, nil
}

func (m Model) renderConfirm() string {
	s := m.styles
	name := "this object"
	if m.pending != nil {
		name = fmt.Sprintf("%q (id %s)", m.pending.Name, m.pending.ID)
	}

	body := s.DangerText.Render("Delete space object") + "\n\n" +
		s.Text.Render("Delete "+name+"?") + "\n" +
		s.MutedText.Render("This cannot be undone.") + "\n\n" +
		s.FaintText.Render("y / enter delete • n / esc cancel")

	return m.overlay(s.DangerModal.Render(body))
}
