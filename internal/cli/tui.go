// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nyawara2025/dubaibankcases/internal/config"
	"github.com/nyawara2025/dubaibankcases/internal/storage"
	"github.com/nyawara2025/dubaibankcases/internal/ui/dashboard"
	"github.com/nyawara2025/dubaibankcases/internal/ui/styles"
)

// errNoTerminal is returned when the dashboard is started without a TTY.
var errNoTerminal = errors.New("the dashboard needs an interactive terminal; use a subcommand such as 'socdash incidents' instead")

func (a *app) runTUI(cmd *cobra.Command) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errNoTerminal
	}

	rt, err := a.openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	events := a.watchSession(ctx, rt.Store().StorePath())

	m := dashboard.New(rt.Shell, dashboard.Options{
		Theme:           styles.NewTheme(a.cfg.UI.Theme),
		RefreshInterval: time.Duration(a.cfg.UI.RefreshIntervalSecs) * time.Second,
		RenderMarkdown:  a.cfg.UI.RenderMarkdown,
		SessionEvents:   events,
		Logger:          a.log(),
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("dashboard exited: %w", err)
	}
	return nil
}

// watchSession forwards changes to the persisted session file. It returns
// nil when watching is disabled or the store has no file.
func (a *app) watchSession(ctx context.Context, path string) <-chan struct{} {
	if !a.cfg.Session.Watch || path == "" || a.cfg.Session.Store == config.StoreMemory {
		return nil
	}
	events := make(chan struct{}, 1)
	err := storage.Watch(ctx, path, storage.DefaultDebounce, a.log(), func() {
		select {
		case events <- struct{}{}:
		default:
		}
	})
	if err != nil {
		a.log().Warn("session watch disabled", "path", path, "error", err)
		return nil
	}
	return events
}
