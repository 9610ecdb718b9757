// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"

	"github.com/nyawara2025/dubaibankcases/internal/chat"
	"github.com/nyawara2025/dubaibankcases/internal/ui/styles"
)

// chatPane renders the secure chat history and input line.
type chatPane struct {
	viewport viewport.Model
	input    textinput.Model

	markdown bool
	renderer *glamour.TermRenderer
	rendered int // width the renderer was built for
	dark     bool
}

func newChatPane(markdown, dark bool) chatPane {
	in := textinput.New()
	in.Placeholder = "Enter command..."
	in.CharLimit = 2000
	in.Prompt = "> "
	return chatPane{
		viewport: viewport.New(60, 10),
		input:    in,
		markdown: markdown,
		dark:     dark,
	}
}

func (p *chatPane) setSize(width, height int) {
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}
	p.viewport.Width = width
	p.viewport.Height = height
	p.input.Width = width - 4
}

// bubbleWidth is the text width inside a chat bubble.
func (p *chatPane) bubbleWidth() int {
	w := p.viewport.Width*3/4 - 4
	if w < 16 {
		w = 16
	}
	return w
}

// renderBank renders a Command Center reply, through glamour when enabled.
func (p *chatPane) renderBank(text string) string {
	width := p.bubbleWidth()
	if p.markdown {
		if p.renderer == nil || p.rendered != width {
			style := "light"
			if p.dark {
				style = "dark"
			}
			r, err := glamour.NewTermRenderer(
				glamour.WithStandardStyle(style),
				glamour.WithWordWrap(width),
			)
			if err == nil {
				p.renderer = r
				p.rendered = width
			}
		}
		if p.renderer != nil {
			if out, err := p.renderer.Render(text); err == nil {
				return strings.Trim(out, "\n")
			}
		}
	}
	return wordwrap.String(text, width)
}

// refresh re-renders history and scrolls to the newest message.
func (p *chatPane) refresh(theme *styles.Theme, history []chat.Message, sending bool) {
	var b strings.Builder
	if len(history) == 0 {
		b.WriteString(theme.Muted.Render("Secure channel open. Messages are relayed to the Command Center."))
	}
	for i, msg := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.renderMessage(theme, msg))
	}
	if sending {
		b.WriteString("\n")
		b.WriteString(theme.Muted.Render("..."))
	}
	p.viewport.SetContent(b.String())
	p.viewport.GotoBottom()
}

func (p *chatPane) renderMessage(theme *styles.Theme, msg chat.Message) string {
	stamp := theme.KeyHint.Render(msg.Timestamp.Format("15:04"))
	if msg.Sender == chat.SenderUser {
		body := theme.UserBubble.Render(wordwrap.String(msg.Text, p.bubbleWidth()))
		line := body + " " + stamp
		pad := p.viewport.Width - widthOf(line)
		if pad > 0 {
			line = indent(line, pad)
		}
		return line
	}
	return theme.BankBubble.Render(p.renderBank(msg.Text)) + " " + stamp
}

func (p chatPane) view(theme *styles.Theme) string {
	return p.viewport.View() + "\n" + theme.ChatInput.Render(p.input.View())
}
