// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nyawara2025/dubaibankcases/internal/backend"
	"github.com/nyawara2025/dubaibankcases/internal/session"
)

// errNotSignedIn is returned by commands that need a persisted session.
var errNotSignedIn = errors.New("not signed in; run 'socdash login' first")

// WhoamiData is the --json payload of whoami and login.
type WhoamiData struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Store string `json:"store"`
}

func (a *app) newLoginCmd() *cobra.Command {
	var (
		username      string
		otp           string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		Example: `  socdash login --user alice
  echo "$KEY" | socdash login --user alice --password-stdin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(a.stdin)
			interactive := !passwordStdin && a.stdin == os.Stdin && isTerminal(os.Stdin)

			if username == "" && interactive {
				fmt.Fprint(cmd.ErrOrStderr(), "Operator ID: ")
				line, err := in.ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("failed to read operator ID: %w", err)
				}
				username = strings.TrimSpace(line)
			}
			password, err := a.readSecret(cmd, in, interactive)
			if err != nil {
				return err
			}

			rt, err := a.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			return outputJSON(cmd.OutOrStdout(), a.jsonOutput, "login", func() (any, error) {
				task, err := rt.SubmitLogin(cmd.Context(), backend.Credentials{Username: username, Password: password, OTP: otp})
				if err != nil {
					return nil, err
				}
				sess, _ := rt.Store().Current()
				data := WhoamiData{ID: sess.User.ID, Name: sess.User.Name, Role: sess.User.Role, Store: rt.Store().StorePath()}
				if a.jsonOutput {
					return data, nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Signed in as %s (%s)", data.Name, data.Role)))
				if list, err := task.Wait(cmd.Context()); err == nil {
					fmt.Fprintln(cmd.OutOrStdout(), infoStyle.Render(fmt.Sprintf("%d incidents on the feed", len(list))))
				}
				return data, nil
			})
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "", "operator ID")
	cmd.Flags().StringVar(&otp, "otp", "", "one-time code, when the account requires one")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the access key from stdin")
	return cmd
}

// readSecret reads the access key without echo on a terminal, or as one
// line from stdin otherwise.
func (a *app) readSecret(cmd *cobra.Command, in *bufio.Reader, interactive bool) (string, error) {
	if interactive {
		fmt.Fprint(cmd.ErrOrStderr(), "Access Key: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read access key: %w", err)
		}
		return string(b), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read access key: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			return outputJSON(cmd.OutOrStdout(), a.jsonOutput, "logout", func() (any, error) {
				if err := rt.Logout(); err != nil {
					return nil, err
				}
				if !a.jsonOutput {
					fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				}
				return map[string]bool{"signed_out": true}, nil
			})
		},
	}
}

func (a *app) newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			return outputJSON(cmd.OutOrStdout(), a.jsonOutput, "whoami", func() (any, error) {
				sess, ok := rt.Store().Restore()
				if !ok {
					return nil, errNotSignedIn
				}
				data := WhoamiData{ID: sess.User.ID, Name: sess.User.Name, Role: sess.User.Role, Store: rt.Store().StorePath()}
				if !a.jsonOutput {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", data.Name, roleLabel(sess.User))
				}
				return data, nil
			})
		},
	}
}

func roleLabel(u session.User) string {
	if u.Role == "" {
		return "no role"
	}
	if u.IsViewer() {
		return u.Role + ", read-only"
	}
	return u.Role
}
