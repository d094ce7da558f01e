package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sternrassler/space-catalog/pkg/notify"
)

type toast struct {
	id int
	n  notify.Notification
}

// drainNotices moves queued notifications onto the screen and schedules
// their removal.
func (m *Model) drainNotices() tea.Cmd {
	if m.notices == nil {
		return nil
	}

	var cmds []tea.Cmd
	for _, n := range m.notices.Drain() {
		m.toastSeq++
		m.toasts = append(m.toasts, toast{id: m.toastSeq, n: n})
		cmds = append(cmds, expireToastCmd(m.toastSeq, m.toastTTL))
	}
	if len(cmds) == 0 {
		return nil
	}
	m.clampSelection()
	return tea.Batch(cmds...)
}

func (m *Model) dropToast(id int) {
	for i, t := range m.toasts {
		if t.id == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

func (m Model) renderToasts() []string {
	lines := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		switch t.n.Level {
		case notify.LevelError:
			lines = append(lines, m.styles.DangerText.Render("✗ "+t.n.Message))
		case notify.LevelSuccess:
			lines = append(lines, m.styles.SuccessText.Render("✓ "+t.n.Message))
		default:
			lines = append(lines, m.styles.MutedText.Render("• "+t.n.Message))
		}
	}
	return lines
}
