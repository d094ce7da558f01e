package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Sternrassler/space-catalog/pkg/catalog"
)

type formField struct {
	name  string
	label string
	input textinput.Model
}

// createForm collects the text of a new space object.
type createForm struct {
	fields     []formField
	focus      int
	errs       *catalog.ValidationError
	failure    string
	submitting bool
}

func newCreateForm(s Styles) *createForm {
	defs := []struct {
		name, label, placeholder string
		limit                    int
	}{
		{catalog.FieldName, "Name", "Kepler-22b", 64},
		{catalog.FieldType, "Type", "Exoplanet", 32},
		{catalog.FieldMass, "Mass (kg)", "5.972e24", 32},
		{catalog.FieldDiameter, "Diameter (km)", "12742", 32},
		{catalog.FieldDistance, "Distance (ly)", "600", 32},
		{catalog.FieldDiscoveryYear, "Discovery year", "2011", 4},
		{catalog.FieldIsHabitable, "Habitable", "yes / no", 5},
		{catalog.FieldDescription, "Description", "At least ten characters", 256},
	}

	f := &createForm{}
	for _, def := range defs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = def.placeholder
		ti.CharLimit = def.limit
		ti.Width = 36
		ti.PlaceholderStyle = s.FaintText
		ti.TextStyle = s.Text
		f.fields = append(f.fields, formField{name: def.name, label: def.label, input: ti})
	}
	return f
}

// values returns the raw input keyed by field name.
func (f *createForm) values() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, fld := range f.fields {
		out[fld.name] = fld.input.Value()
	}
	return out
}

func (f *createForm) focusCmd() tea.Cmd {
	for i := range f.fields {
		f.fields[i].input.Blur()
	}
	return f.fields[f.focus].input.Focus()
}

func (f *createForm) move(delta int) tea.Cmd {
	n := len(f.fields)
	f.focus = ((f.focus+delta)%n + n) % n
	return f.focusCmd()
}

func (f *createForm) onLastField() bool {
	return f.focus == len(f.fields)-1
}

func (f *createForm) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

// handleFormKey processes keyboard input while the create form is open.
func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f == nil {
		m.mode = modeList
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		m.form = nil
		m.mode = modeList
		return m, nil

	case key.Matches(msg, m.keys.Tab), msg.Type == tea.KeyDown:
		return m, f.move(1)

	case key.Matches(msg, m.keys.ShiftTab), msg.Type == tea.KeyUp:
		return m, f.move(-1)

	case key.Matches(msg, m.keys.Submit):
		return m.submitForm()

	case key.Matches(msg, m.keys.Confirm):
		if f.onLastField() {
			return m.submitForm()
		}
		return m, f.move(1)
	}

	return m, f.updateInput(msg)
}

// submitForm validates the input locally and sends it when valid.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	if f.submitting {
		return m, nil
	}

	draft, err := catalog.ParseDraft(f.values(), m.now())
	f.failure = ""
	if err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			f.errs = verr
		}
		return m, nil
	}

	f.errs = nil
	f.submitting = true
	return m, createCmd(m.ctx, m.mutations, draft)
}

func (m Model) renderForm() string {
	f := m.form
	s := m.styles

	var b strings.Builder
	b.WriteString(s.AccentText.Bold(true).Render("New space object"))
	b.WriteString("\n\n")

	for i, fld := range f.fields {
		label := s.MutedText.Width(16).Render(fld.label)
		if i == f.focus {
			label = s.AccentText.Width(16).Render(fld.label)
		}
		b.WriteString(label)
		b.WriteString(fld.input.View())
		b.WriteString("\n")

		if f.errs != nil {
			if msg, ok := f.errs.Message(fld.name); ok {
				b.WriteString(strings.Repeat(" ", 16))
				b.WriteString(s.DangerText.Render(msg))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	switch {
	case f.submitting:
		b.WriteString(m.spinner.View() + " " + s.MutedText.Render("Saving..."))
	case f.failure != "":
		b.WriteString(s.DangerText.Render(f.failure))
	default:
		b.WriteString(s.FaintText.Render("tab next • enter on last field or ctrl+s save • esc cancel"))
	}

	return m.overlay(s.Modal.Render(b.String()))
}

// overlay centers content on the screen.
func (m Model) overlay(content string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
