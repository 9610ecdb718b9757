// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nyawara2025/dubaibankcases/internal/backend"
	"github.com/nyawara2025/dubaibankcases/internal/chat"
	"github.com/nyawara2025/dubaibankcases/internal/incident"
	"github.com/nyawara2025/dubaibankcases/internal/logging"
	"github.com/nyawara2025/dubaibankcases/internal/nav"
	"github.com/nyawara2025/dubaibankcases/internal/session"
	"github.com/nyawara2025/dubaibankcases/internal/tasks"
)

// Errors returned by Shell operations.
var (
	// ErrForbidden is returned when a viewer tries to file an incident.
	ErrForbidden = errors.New("viewers cannot create incidents")

	// ErrNotAuthenticated is returned by protected operations without a session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrMissingCredentials is returned when username or password is blank.
	ErrMissingCredentials = errors.New("username and password are required")
)

// MsgMissingCredentials is shown on the login form for blank fields.
const MsgMissingCredentials = "Operator ID and access key are required."

// View is the top-level screen.
type View int

const (
	ViewLogin View = iota
	ViewDashboard
)

func (v View) String() string {
	if v == ViewDashboard {
		return "dashboard"
	}
	return "login"
}

// Snapshot is everything a front end renders. Protected fields are zero
// unless View is ViewDashboard.
type Snapshot struct {
	View           View
	Authenticating bool
	LoginError     string

	User      session.User
	Tab       nav.Tab
	CanCreate bool

	Incidents []incident.Incident
	Loading   bool
	Stats     incident.Stats
	FetchErr  error

	Chat        []chat.Message
	ChatSending bool
	ChatDraft   string

	CreateOpen  bool
	CreateError string
}

// Shell is the protected application shell.
type Shell struct {
	store *session.Store
	repo  *incident.Repository
	chat  *chat.Session
	nav   *nav.Controller
	log   *slog.Logger

	mu          sync.Mutex
	loginErr    string
	createOpen  bool
	createErr   string
	lastSession uint64
	logins      int
}

// New composes a Shell from its parts.
func New(store *session.Store, repo *incident.Repository, cs *chat.Session, nc *nav.Controller, log *slog.Logger) *Shell {
	if nc == nil {
		nc = nav.New()
	}
	return &Shell{
		store: store,
		repo:  repo,
		chat:  cs,
		nav:   nc,
		log:   logging.OrDiscard(log).With("component", "shell"),
	}
}

// IdentityFrom returns a chat.IdentityFunc reading the store's current user.
func IdentityFrom(store *session.Store) chat.IdentityFunc {
	return func() (string, string) {
		sess, ok := store.Current()
		if !ok {
			return "", ""
		}
		return sess.User.Name, sess.User.Role
	}
}

// Mount restores the persisted session. When one is found the incident
// fetch is started and its task returned.
func (s *Shell) Mount(ctx context.Context) (*tasks.Task[[]incident.Incident], bool) {
	sess, ok := s.store.Restore()
	if !ok {
		s.log.Debug("no persisted session")
		return nil, false
	}
	s.rememberSession()
	s.log.Info("session restored", "user", sess.User.Name, "role", sess.User.Role)
	return s.repo.Fetch(ctx), true
}

// SubmitLogin authenticates and starts the incident fetch. It blocks for
// the duration of the login call. On failure the user-facing message is
// recorded for the login form and returned as the error.
func (s *Shell) SubmitLogin(ctx context.Context, creds backend.Credentials) (*tasks.Task[[]incident.Incident], error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		s.setLoginErr(MsgMissingCredentials)
		return nil, ErrMissingCredentials
	}
	creds.Username = strings.TrimSpace(creds.Username)
	creds.OTP = strings.TrimSpace(creds.OTP)

	s.mu.Lock()
	s.loginErr = ""
	s.logins++
	s.mu.Unlock()

	_, err := s.store.Login(ctx, creds)

	s.mu.Lock()
	s.logins--
	if err == nil {
		s.lastSession = s.store.Epoch()
	}
	s.mu.Unlock()

	if err != nil {
		var authErr *session.AuthError
		switch {
		case errors.As(err, &authErr):
			s.setLoginErr(authErr.Message)
		case errors.Is(err, session.ErrLoginInFlight), errors.Is(err, tasks.ErrStale):
		default:
			s.setLoginErr(err.Error())
		}
		return nil, err
	}

	// A previous session's late results must not land in this one.
	s.repo.Reset()
	s.chat.Reset()
	s.nav.Reset()
	return s.repo.Fetch(ctx), nil
}

// Logout ends the session and returns to the login view. Outstanding fetch
// and chat results are discarded.
func (s *Shell) Logout() error {
	err := s.store.Logout()
	s.teardown()
	if err != nil {
		s.log.Warn("logout could not clear persisted session", "error", err)
	}
	return err
}

func (s *Shell) teardown() {
	s.repo.Reset()
	s.chat.Reset()
	s.nav.Reset()
	s.mu.Lock()
	s.createOpen = false
	s.createErr = ""
	s.lastSession = s.store.Epoch()
	s.mu.Unlock()
}

// Revalidate re-reads the persisted session after an external change, such
// as another socdash process logging in or out. A changed session resets
// the dashboard; a newly adopted one starts a fetch. Changes are ignored
// while a login of this shell is in progress.
func (s *Shell) Revalidate(ctx context.Context) (*tasks.Task[[]incident.Incident], bool) {
	active := s.store.Revalidate()

	s.mu.Lock()
	changed := s.logins == 0 && s.lastSession != s.store.Epoch()
	s.mu.Unlock()
	if !changed {
		return nil, active
	}

	s.teardown()
	if !active {
		s.log.Info("session ended externally")
		return nil, false
	}
	return s.repo.Fetch(ctx), true
}

// Refresh refetches incidents.
func (s *Shell) Refresh(ctx context.Context) (*tasks.Task[[]incident.Incident], error) {
	if !s.authenticated() {
		return nil, ErrNotAuthenticated
	}
	return s.repo.Fetch(ctx), nil
}

// CanCreateIncident reports whether the current user may file incidents.
// Only viewers are refused.
func (s *Shell) CanCreateIncident() bool {
	sess, ok := s.store.Current()
	return ok && !sess.User.IsViewer()
}

// OpenCreate opens the new-incident modal.
func (s *Shell) OpenCreate() error {
	if err := s.checkCreate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.createOpen = true
	s.createErr = ""
	s.mu.Unlock()
	return nil
}

// CloseCreate closes the new-incident modal.
func (s *Shell) CloseCreate() {
	s.mu.Lock()
	s.createOpen = false
	s.createErr = ""
	s.mu.Unlock()
}

// SubmitIncident files report, closes the modal and refetches. It blocks
// for the duration of the create call. On failure the modal stays open with
// the error recorded.
func (s *Shell) SubmitIncident(ctx context.Context, report incident.Report) (*tasks.Task[[]incident.Incident], error) {
	if err := s.checkCreate(); err != nil {
		return nil, err
	}
	started := s.store.Epoch()

	if err := s.repo.Submit(ctx, report); err != nil {
		s.setCreateErr(err.Error())
		return nil, err
	}
	if !s.store.IsCurrent(started) {
		return nil, tasks.ErrStale
	}

	s.CloseCreate()
	return s.repo.Fetch(ctx), nil
}

func (s *Shell) checkCreate() error {
	sess, ok := s.store.Current()
	if !ok {
		return ErrNotAuthenticated
	}
	if sess.User.IsViewer() {
		return ErrForbidden
	}
	return nil
}

// SetTab selects a panel. Unknown tabs panic.
func (s *Shell) SetTab(t nav.Tab) { s.nav.SetActive(t) }

// NextTab selects the following panel.
func (s *Shell) NextTab() nav.Tab { return s.nav.Next() }

// PrevTab selects the preceding panel.
func (s *Shell) PrevTab() nav.Tab { return s.nav.Prev() }

// SetDraft replaces the chat input buffer.
func (s *Shell) SetDraft(text string) { s.chat.SetDraft(text) }

// SendChat sends text on the chat pane. It reports false when the send was
// refused (blank text, a send outstanding, or no session).
func (s *Shell) SendChat(ctx context.Context, text string) (*tasks.Task[chat.Message], bool) {
	if !s.authenticated() {
		return nil, false
	}
	return s.chat.Send(ctx, text)
}

// ChatChanged signals chat history changes.
func (s *Shell) ChatChanged() <-chan struct{} { return s.chat.Changed() }

// Store exposes the session store for front ends that need its path.
func (s *Shell) Store() *session.Store { return s.store }

// Snapshot returns the state to render.
func (s *Shell) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		View:           ViewLogin,
		Authenticating: s.store.State() == session.StateAuthenticating,
		LoginError:     s.loginErr,
	}
	createOpen, createErr := s.createOpen, s.createErr
	s.mu.Unlock()

	sess, ok := s.store.Current()
	if !ok {
		return snap
	}

	rs := s.repo.Snapshot()
	snap.View = ViewDashboard
	snap.LoginError = ""
	snap.User = sess.User
	snap.Tab = s.nav.Active()
	snap.CanCreate = !sess.User.IsViewer()
	snap.Incidents = rs.Incidents
	snap.Loading = rs.Loading
	snap.Stats = rs.Stats
	snap.FetchErr = rs.Err
	snap.Chat = s.chat.History()
	snap.ChatSending = s.chat.Sending()
	snap.ChatDraft = s.chat.Draft()
	snap.CreateOpen = createOpen && snap.CanCreate
	snap.CreateError = createErr
	return snap
}

func (s *Shell) authenticated() bool {
	_, ok := s.store.Current()
	return ok
}

func (s *Shell) rememberSession() {
	s.mu.Lock()
	s.lastSession = s.store.Epoch()
	s.mu.Unlock()
}

func (s *Shell) setLoginErr(msg string) {
	s.mu.Lock()
	s.loginErr = msg
	s.mu.Unlock()
}

func (s *Shell) setCreateErr(msg string) {
	s.mu.Lock()
	s.createErr = msg
	s.mu.Unlock()
}

// String describes the shell state for logs.
func (s Snapshot) String() string {
	if s.View != ViewDashboard {
		return fmt.Sprintf("login(authenticating=%t)", s.Authenticating)
	}
	return fmt.Sprintf("dashboard(user=%s role=%s tab=%s incidents=%d)", s.User.Name, s.User.Role, s.Tab, len(s.Incidents))
}
