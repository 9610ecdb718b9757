// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nyawara2025/dubaibankcases/internal/backend"
	"github.com/nyawara2025/dubaibankcases/internal/ui/styles"
)

const (
	fieldUsername = iota
	fieldPassword
	fieldOTP
	fieldLoginButton
	loginFieldCount
)

// loginForm is the operator sign-in form.
type loginForm struct {
	inputs []textinput.Model
	focus  int
	busy   bool // submitted, result not yet received
}

func newLoginForm() loginForm {
	user := textinput.New()
	user.Placeholder = "Operator ID"
	user.CharLimit = 64
	user.Prompt = ""

	pass := textinput.New()
	pass.Placeholder = "Access Key"
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '*'
	pass.CharLimit = 128
	pass.Prompt = ""

	otp := textinput.New()
	otp.Placeholder = "One-time code (optional)"
	otp.CharLimit = 8
	otp.Prompt = ""

	f := loginForm{inputs: []textinput.Model{user, pass, otp}}
	f.inputs[fieldUsername].Focus()
	return f
}

func (f loginForm) credentials() backend.Credentials {
	return backend.Credentials{
		Username: strings.TrimSpace(f.inputs[fieldUsername].Value()),
		Password: f.inputs[fieldPassword].Value(),
		OTP:      strings.TrimSpace(f.inputs[fieldOTP].Value()),
	}
}

func (f *loginForm) move(d int) tea.Cmd {
	f.focus = ((f.focus+d)%loginFieldCount + loginFieldCount) % loginFieldCount
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.focus {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

// reset clears the secrets and keeps the username.
func (f *loginForm) reset() {
	f.inputs[fieldPassword].SetValue("")
	f.inputs[fieldOTP].SetValue("")
}

func (f loginForm) update(msg tea.Msg) (loginForm, tea.Cmd) {
	if f.focus >= len(f.inputs) {
		return f, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f loginForm) view(theme *styles.Theme, busy bool, errMsg string, width int) string {
	var b strings.Builder
	b.WriteString(theme.LoginTitle.Render("SOC COMMAND // Security Portal Login"))
	b.WriteString("\n")

	labels := []string{"Operator ID", "Access Key", "One-time Code"}
	for i, in := range f.inputs {
		b.WriteString(theme.FieldLabel.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString("> " + in.View())
		b.WriteString("\n\n")
	}

	var button string
	switch {
	case busy:
		button = theme.ButtonBusy.Render("AUTHENTICATING...")
	case f.focus == fieldLoginButton:
		button = theme.ButtonFocused.Render("ACCESS TERMINAL")
	default:
		button = theme.Button.Render("ACCESS TERMINAL")
	}
	b.WriteString(button)

	if errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.RenderError(errMsg))
	}

	box := theme.LoginBox.Render(b.String())
	if width > 0 {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
	}
	return box
}
