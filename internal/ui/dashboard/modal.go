// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nyawara2025/dubaibankcases/internal/incident"
	"github.com/nyawara2025/dubaibankcases/internal/ui/styles"
)

const (
	modalTitle = iota
	modalSeverity
	modalStatus
	modalSubmit
	modalFieldCount
)

// createForm is the new-incident modal.
type createForm struct {
	title    textinput.Model
	severity int
	status   int
	focus    int
	busy     bool
}

func newCreateForm() createForm {
	title := textinput.New()
	title.Placeholder = "Incident Title"
	title.CharLimit = 200
	title.Prompt = ""
	title.Focus()
	return createForm{title: title}
}

func (f createForm) report() incident.Report {
	return incident.Report{
		Title:    f.title.Value(),
		Severity: string(incident.Severities[f.severity]),
		Status:   incident.Statuses[f.status],
	}
}

func (f *createForm) move(d int) tea.Cmd {
	f.focus = ((f.focus+d)%modalFieldCount + modalFieldCount) % modalFieldCount
	if f.focus == modalTitle {
		return f.title.Focus()
	}
	f.title.Blur()
	return nil
}

// cycle moves the focused selector by d.
func (f *createForm) cycle(d int) {
	switch f.focus {
	case modalSeverity:
		n := len(incident.Severities)
		f.severity = ((f.severity+d)%n + n) % n
	case modalStatus:
		n := len(incident.Statuses)
		f.status = ((f.status+d)%n + n) % n
	}
}

func (f createForm) update(msg tea.Msg) (createForm, tea.Cmd) {
	if f.focus != modalTitle {
		return f, nil
	}
	var cmd tea.Cmd
	f.title, cmd = f.title.Update(msg)
	return f, cmd
}

func (f createForm) view(theme *styles.Theme, errMsg string) string {
	var b strings.Builder
	b.WriteString(theme.ModalTitle.Render("SUBMIT INTEL"))
	b.WriteString("\n")

	b.WriteString(theme.FieldLabel.Render("Title"))
	b.WriteString("\n> " + f.title.View() + "\n\n")

	b.WriteString(theme.FieldLabel.Render("Severity"))
	b.WriteString("\n")
	sev := make([]string, len(incident.Severities))
	for i, s := range incident.Severities {
		sev[i] = string(s)
	}
	b.WriteString(renderChoices(theme, sev, f.severity, f.focus == modalSeverity))
	b.WriteString("\n\n")

	b.WriteString(theme.FieldLabel.Render("Status"))
	b.WriteString("\n")
	b.WriteString(renderChoices(theme, incident.Statuses, f.status, f.focus == modalStatus))
	b.WriteString("\n\n")

	switch {
	case f.busy:
		b.WriteString(theme.ButtonBusy.Render("BROADCASTING..."))
	case f.focus == modalSubmit:
		b.WriteString(theme.ButtonFocused.Render("BROADCAST ALERT"))
	default:
		b.WriteString(theme.Button.Render("BROADCAST ALERT"))
	}

	if errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.RenderError(errMsg))
	}
	b.WriteString("\n\n")
	b.WriteString(theme.KeyHint.Render("tab fields • ←/→ choose • enter submit • esc close"))
	return theme.Modal.Render(b.String())
}

func renderChoices(theme *styles.Theme, options []string, selected int, focused bool) string {
	parts := make([]string, len(options))
	for i, opt := range options {
		switch {
		case i == selected && focused:
			parts[i] = theme.ChoiceFocused.Render(opt)
		case i == selected:
			parts[i] = theme.ChoiceActive.Render(opt)
		default:
			parts[i] = theme.Choice.Render(opt)
		}
	}
	return strings.Join(parts, " ")
}
