// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nyawara2025/dubaibankcases/internal/incident"
	"github.com/nyawara2025/dubaibankcases/internal/logging"
	"github.com/nyawara2025/dubaibankcases/internal/nav"
	"github.com/nyawara2025/dubaibankcases/internal/session"
	"github.com/nyawara2025/dubaibankcases/internal/shell"
	"github.com/nyawara2025/dubaibankcases/internal/tasks"
	"github.com/nyawara2025/dubaibankcases/internal/ui/styles"
)

// Options configures the dashboard model.
type Options struct {
	Theme *styles.Theme

	// RefreshInterval refetches incidents periodically. Zero disables it.
	RefreshInterval time.Duration

	// RenderMarkdown renders Command Center replies with glamour.
	RenderMarkdown bool

	// SessionEvents receives a value when the persisted session changes on
	// disk. May be nil.
	SessionEvents <-chan struct{}

	Logger *slog.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	sh     *shell.Shell
	theme  *styles.Theme
	keys   KeyMap
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	refreshEvery  time.Duration
	sessionEvents <-chan struct{}

	width, height int

	login   loginForm
	create  createForm
	chat    chatPane
	scroll  int
	notice  string
	mounted bool
}

// New creates the model around an assembled shell.
func New(sh *shell.Shell, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ThemeAuto)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		sh:            sh,
		theme:         theme,
		keys:          DefaultKeyMap(),
		log:           logging.OrDiscard(opts.Logger).With("component", "tui"),
		ctx:           ctx,
		cancel:        cancel,
		refreshEvery:  opts.RefreshInterval,
		sessionEvents: opts.SessionEvents,
		login:         newLoginForm(),
		create:        newCreateForm(),
		chat:          newChatPane(opts.RenderMarkdown, theme.IsDark),
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init restores the persisted session and starts the background watchers.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.mountCmd(), m.watchChat(), m.watchSession(), m.scheduleRefresh()}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case LoginResultMsg:
		if errors.Is(msg.Err, session.ErrLoginInFlight) {
			return m, nil
		}
		m.login.busy = false
		m.login.reset()
		if msg.Err != nil {
			return m, nil
		}
		m.scroll = 0
		return m, m.waitFetch(msg.Fetch)

	case IncidentsLoadedMsg:
		if msg.Err != nil && !errors.Is(msg.Err, tasks.ErrStale) {
			m.log.Warn("incident refresh failed", "error", msg.Err)
		}
		return m, nil

	case IncidentSubmittedMsg:
		m.create.busy = false
		if msg.Err != nil {
			return m, nil
		}
		m.create = newCreateForm()
		m.notice = "Alert broadcast."
		return m, m.waitFetch(msg.Fetch)

	case ChatChangedMsg:
		snap := m.sh.Snapshot()
		m.chat.refresh(m.theme, snap.Chat, snap.ChatSending)
		return m, m.watchChat()

	case SessionChangedMsg:
		task, _ := m.sh.Revalidate(m.ctx)
		return m, tea.Batch(m.waitFetch(task), m.watchSession())

	case RefreshTickMsg:
		var cmd tea.Cmd
		if task, err := m.sh.Refresh(m.ctx); err == nil {
			cmd = m.waitFetch(task)
		}
		return m, tea.Batch(cmd, m.scheduleRefresh())
	}
	return m, nil
}

// View renders the current screen.
func (m Model) View() string {
	snap := m.sh.Snapshot()
	if snap.View != shell.ViewDashboard {
		body := m.login.view(m.theme, m.login.busy || snap.Authenticating, snap.LoginError, m.width)
		return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), "", body)
	}

	compact := m.theme.GetLayoutMode() == styles.LayoutNarrow
	sidebar := renderSidebar(m.theme, snap, compact)
	mainWidth := m.width - widthOf(sidebar) - 2
	if mainWidth < 30 {
		mainWidth = 30
	}

	var main string
	switch {
	case snap.CreateOpen:
		main = m.create.view(m.theme, snap.CreateError)
	case snap.Tab == nav.TabIncidents:
		main = m.scrolled(renderIncidents(m.theme, snap, mainWidth))
	case snap.Tab == nav.TabChat:
		main = m.chat.view(m.theme)
	default:
		main = renderPlaceholder(m.theme, snap.Tab, mainWidth)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, "  ", main)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderStatusBar(snap))
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	const (
		headerHeight = 1
		statusHeight = 1
		inputHeight  = 2
		sidebarWidth = 28
	)
	m.chat.setSize(m.width-sidebarWidth, m.height-headerHeight-statusHeight-inputHeight)
	snap := m.sh.Snapshot()
	m.chat.refresh(m.theme, snap.Chat, snap.ChatSending)
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		return m, tea.Quit
	}

	snap := m.sh.Snapshot()
	if snap.View != shell.ViewDashboard {
		return m.handleLoginKey(msg, snap)
	}
	if key.Matches(msg, m.keys.Logout) {
		return m.logout()
	}
	if snap.CreateOpen {
		return m.handleModalKey(msg)
	}
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.NextTab):
		return m.switchTab(m.sh.NextTab())
	case key.Matches(msg, m.keys.PrevTab):
		return m.switchTab(m.sh.PrevTab())
	}

	if snap.Tab == nav.TabChat {
		return m.handleChatKey(msg, snap)
	}

	switch {
	case key.Matches(msg, m.keys.NewIncident):
		if err := m.sh.OpenCreate(); err != nil {
			m.notice = "Viewers cannot log incidents."
			return m, nil
		}
		m.create = newCreateForm()
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		task, err := m.sh.Refresh(m.ctx)
		if err != nil {
			return m, nil
		}
		return m, m.waitFetch(task)
	case key.Matches(msg, m.keys.ScrollUp):
		if m.scroll > 0 {
			m.scroll--
		}
	case key.Matches(msg, m.keys.ScrollDown):
		m.scroll++
	}

	if tab, ok := tabForDigit(msg.String()); ok {
		return m.switchTab(tab)
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg, snap shell.Snapshot) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextField):
		return m, m.login.move(1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.login.move(-1)
	case key.Matches(msg, m.keys.Submit):
		if m.login.busy || snap.Authenticating {
			return m, nil
		}
		m.login.busy = true
		return m, m.loginCmd()
	}
	var cmd tea.Cmd
	m.login, cmd = m.login.update(msg)
	return m, cmd
}

func (m Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.create.busy {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.sh.CloseCreate()
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		return m, m.create.move(1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.create.move(-1)
	case key.Matches(msg, m.keys.Submit):
		m.create.busy = true
		return m, m.submitCmd(m.create.report())
	case m.create.focus != modalTitle && key.Matches(msg, m.keys.Left):
		m.create.cycle(-1)
		return m, nil
	case m.create.focus != modalTitle && key.Matches(msg, m.keys.Right):
		m.create.cycle(1)
		return m, nil
	}
	var cmd tea.Cmd
	m.create, cmd = m.create.update(msg)
	return m, cmd
}

func (m Model) handleChatKey(msg tea.KeyMsg, snap shell.Snapshot) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "pgup":
		m.chat.viewport.HalfViewUp()
		return m, nil
	case "pgdown":
		m.chat.viewport.HalfViewDown()
		return m, nil
	}
	if key.Matches(msg, m.keys.Submit) {
		text := m.chat.input.Value()
		if _, ok := m.sh.SendChat(m.ctx, text); ok {
			m.chat.input.SetValue("")
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.chat.input, cmd = m.chat.input.Update(msg)
	m.sh.SetDraft(m.chat.input.Value())
	return m, cmd
}

func (m Model) switchTab(t nav.Tab) (tea.Model, tea.Cmd) {
	m.sh.SetTab(t)
	m.scroll = 0
	if t == nav.TabChat {
		return m, m.chat.input.Focus()
	}
	m.chat.input.Blur()
	return m, nil
}

func (m Model) logout() (tea.Model, tea.Cmd) {
	if err := m.sh.Logout(); err != nil {
		m.log.Warn("logout failed", "error", err)
	}
	m.login = newLoginForm()
	m.create = newCreateForm()
	m.chat.input.SetValue("")
	m.chat.input.Blur()
	m.chat.refresh(m.theme, nil, false)
	m.scroll = 0
	m.notice = ""
	return m, nil
}

func tabForDigit(s string) (nav.Tab, bool) {
	tabs := nav.Tabs()
	if len(s) == 1 && s[0] >= '1' && int(s[0]-'1') < len(tabs) {
		return tabs[s[0]-'1'].Tab, true
	}
	return "", false
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) mountCmd() tea.Cmd {
	return func() tea.Msg {
		task, ok := m.sh.Mount(m.ctx)
		if !ok {
			return nil
		}
		return LoginResultMsg{Fetch: task}
	}
}

func (m Model) loginCmd() tea.Cmd {
	creds := m.login.credentials()
	return func() tea.Msg {
		task, err := m.sh.SubmitLogin(m.ctx, creds)
		return LoginResultMsg{Fetch: task, Err: err}
	}
}

func (m Model) submitCmd(report incident.Report) tea.Cmd {
	return func() tea.Msg {
		task, err := m.sh.SubmitIncident(m.ctx, report)
		return IncidentSubmittedMsg{Fetch: task, Err: err}
	}
}

func (m Model) waitFetch(task *tasks.Task[[]incident.Incident]) tea.Cmd {
	if task == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		list, err := task.Wait(ctx)
		return IncidentsLoadedMsg{Count: len(list), Err: err}
	}
}

func (m Model) watchChat() tea.Cmd {
	ch := m.sh.ChatChanged()
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-ch:
			return ChatChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) watchSession() tea.Cmd {
	if m.sessionEvents == nil {
		return nil
	}
	ch := m.sessionEvents
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			return SessionChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) scheduleRefresh() tea.Cmd {
	if m.refreshEvery <= 0 {
		return nil
	}
	return tea.Tick(m.refreshEvery, func(time.Time) tea.Msg { return RefreshTickMsg{} })
}

// =============================================================================
// VIEW HELPERS
// =============================================================================

func (m Model) renderHeader() string {
	title := "SOC COMMAND"
	if m.width > 0 {
		return m.theme.Header.Width(m.width).Render(title)
	}
	return m.theme.Header.Render(title)
}

func (m Model) renderStatusBar(snap shell.Snapshot) string {
	hints := []string{}
	for _, b := range m.keys.ShortHelp() {
		if b.Help().Desc == "log incident" && !snap.CanCreate {
			continue
		}
		hints = append(hints, m.theme.KeyHintKey.Render(b.Help().Key)+" "+m.theme.KeyHint.Render(b.Help().Desc))
	}
	line := strings.Join(hints, "  ")
	if m.notice != "" {
		line = m.theme.StatHealthy.Render(m.notice) + "  " + line
	}
	if m.width > 0 {
		return m.theme.StatusBar.Width(m.width).Render(line)
	}
	return m.theme.StatusBar.Render(line)
}

// scrolled drops the first m.scroll lines so long incident lists can be
// paged through.
func (m Model) scrolled(s string) string {
	if m.scroll == 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	start := m.scroll
	if start >= len(lines) {
		start = len(lines) - 1
	}
	return strings.Join(lines[start:], "\n")
}
