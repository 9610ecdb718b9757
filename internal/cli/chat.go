// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/nyawara2025/dubaibankcases/internal/chat"
	"github.com/nyawara2025/dubaibankcases/internal/config"
	"github.com/nyawara2025/dubaibankcases/internal/shell"
)

// lineReader yields one line of operator input per call.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close()
}

// linerInput reads with line editing and persistent history.
type linerInput struct {
	line        *liner.State
	historyFile string
}

func newLinerInput() *linerInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	in := &linerInput{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(in.historyFile); err == nil {
		_, _ = in.line.ReadHistory(f)
		f.Close()
	}
	return in
}

func (c *linerInput) ReadLine(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with 0600 permissions and restores the terminal.
func (c *linerInput) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// scannerInput reads plain lines, for piped input.
type scannerInput struct {
	sc *bufio.Scanner
}

func (s scannerInput) ReadLine(string) (string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.sc.Text(), nil
}

func (scannerInput) Close() {}

func (a *app) newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the secure channel to the Command Center",
		Long: `Open the secure channel to the Command Center.

Interactive commands:
  /history   Show the conversation so far
  /help      Show this help
  /quit      Leave the channel (Ctrl+D also works)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			sess, ok := rt.Store().Restore()
			if !ok {
				return errNotSignedIn
			}

			var in lineReader
			if a.stdin == os.Stdin && isTerminal(os.Stdin) {
				in = newLinerInput()
			} else {
				in = scannerInput{sc: bufio.NewScanner(a.stdin)}
			}
			defer in.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("Secure channel open for %s. /quit to leave.", sess.User.Name)))
			return chatLoop(cmd.Context(), rt.Shell, in, out)
		},
	}
}

func chatLoop(ctx context.Context, sh *shell.Shell, in lineReader, out io.Writer) error {
	for {
		line, err := in.ReadLine(promptStyle.Render("> "))
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		switch strings.TrimSpace(line) {
		case "":
			continue
		case "/quit", "/q", "/exit":
			return nil
		case "/help", "/h":
			fmt.Fprintln(out, infoStyle.Render("/history  /help  /quit"))
			continue
		case "/history":
			printHistory(out, sh.Snapshot().Chat)
			continue
		}

		task, ok := sh.SendChat(ctx, line)
		if !ok {
			fmt.Fprintln(out, warningStyle.Render("Message not sent."))
			continue
		}
		reply, err := task.Wait(ctx)
		var sendErr *chat.SendError
		switch {
		case errors.As(err, &sendErr):
			fmt.Fprintln(out, warningStyle.Render(sendErr.Fallback.Text))
		case err != nil:
			return err
		default:
			fmt.Fprintln(out, bankStyle.Render("Command Center: ")+reply.Text)
		}
	}
}

func printHistory(out io.Writer, history []chat.Message) {
	for _, m := range history {
		who := "you"
		if m.Sender == chat.SenderBank {
			who = "Command Center"
		}
		fmt.Fprintf(out, "[%s] %s: %s\n", m.Timestamp.Format("15:04:05"), who, m.Text)
	}
}
