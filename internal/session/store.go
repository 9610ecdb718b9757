// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nyawara2025/dubaibankcases/internal/backend"
	"github.com/nyawara2025/dubaibankcases/internal/logging"
	"github.com/nyawara2025/dubaibankcases/internal/storage"
	"github.com/nyawara2025/dubaibankcases/internal/tasks"
)

// Persisted keys.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Well-known roles.
const (
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// User identifies the authenticated principal.
type User struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// IsViewer reports whether the user has the read-only viewer role.
func (u User) IsViewer() bool {
	return strings.EqualFold(strings.TrimSpace(u.Role), RoleViewer)
}

// Session is an authenticated token plus its user.
type Session struct {
	Token string
	User  User
}

// State is the session lifecycle state.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "Unauthenticated"
	case StateAuthenticating:
		return "Authenticating"
	case StateAuthenticated:
		return "Authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Authenticator is the part of the backend the Store needs.
type Authenticator interface {
	Login(ctx context.Context, creds backend.Credentials) (*backend.LoginResponse, error)
	SetToken(token string)
}

// Store acquires, persists and discards the session. Safe for concurrent use.
type Store struct {
	kv   storage.KV
	auth Authenticator
	log  *slog.Logger

	epoch tasks.Epoch

	mu            sync.Mutex
	state         State
	current       *Session
	loginInFlight bool
}

// NewStore creates a Store. The session starts unauthenticated; call Restore
// to pick up a persisted session.
func NewStore(kv storage.KV, auth Authenticator, log *slog.Logger) *Store {
	return &Store{
		kv:   kv,
		auth: auth,
		log:  logging.OrDiscard(log).With("component", "session"),
	}
}

// =============================================================================
// RESTORE
// =============================================================================

// Restore loads the persisted session. When either key is missing or the
// user record does not parse, both keys are cleared and false is returned.
func (s *Store) Restore() (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.readPersisted()
	if !ok {
		s.dropLocked()
		return nil, false
	}
	s.adoptLocked(sess)
	return copySession(sess), true
}

// readPersisted returns the stored session, clearing the keys when they are
// inconsistent.
func (s *Store) readPersisted() (*Session, bool) {
	token, okToken, errToken := s.kv.Get(KeyToken)
	rawUser, okUser, errUser := s.kv.Get(KeyUser)

	if errToken != nil || errUser != nil {
		s.log.Warn("persisted session unreadable", "error", errors.Join(errToken, errUser))
		s.clearPersisted()
		return nil, false
	}
	if !okToken && !okUser {
		return nil, false
	}
	if !okToken || !okUser || isAbsentLiteral(token) || isAbsentLiteral(rawUser) {
		s.log.Info("persisted session incomplete, clearing")
		s.clearPersisted()
		return nil, false
	}

	user, err := decodeUser(rawUser)
	if err != nil {
		s.log.Info("persisted user record malformed, clearing", "error", err)
		s.clearPersisted()
		return nil, false
	}
	return &Session{Token: token, User: user}, true
}

func (s *Store) clearPersisted() {
	if err := s.kv.Delete(KeyToken, KeyUser); err != nil {
		s.log.Warn("failed to clear persisted session", "error", err)
	}
}

// isAbsentLiteral catches values written by clients that stringified a
// missing value.
func isAbsentLiteral(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "undefined", "null":
		return true
	}
	return false
}

func decodeUser(raw string) (User, error) {
	var rec backend.UserRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return User{}, err
	}
	return User{ID: rec.ID.String(), Name: rec.Name, Role: rec.Role}, nil
}

// =============================================================================
// LOGIN / LOGOUT
// =============================================================================

// Login authenticates against the backend. Only one login may be
// outstanding; a concurrent call returns ErrLoginInFlight without a network
// call. On success both keys are persisted, the backend token is set and the
// epoch advances. If Logout ran while the call was outstanding, the result
// is discarded and tasks.ErrStale is returned.
func (s *Store) Login(ctx context.Context, creds backend.Credentials) (*Session, error) {
	s.mu.Lock()
	if s.loginInFlight {
		s.mu.Unlock()
		return nil, ErrLoginInFlight
	}
	s.loginInFlight = true
	prev := s.state
	s.state = StateAuthenticating
	started := s.epoch.Current()
	s.mu.Unlock()

	resp, err := s.auth.Login(ctx, creds)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginInFlight = false

	if !s.epoch.IsCurrent(started) {
		s.log.Info("login result discarded", "user", creds.Username)
		return nil, tasks.ErrStale
	}

	if err != nil {
		s.state = prev
		authErr := classifyLoginError(err)
		s.log.Warn("login failed", "user", creds.Username, "kind", authErr.Kind.Error(), "error", err)
		return nil, authErr
	}
	if resp == nil || strings.TrimSpace(resp.Token) == "" {
		s.state = prev
		s.log.Warn("login response without token", "user", creds.Username)
		return nil, &AuthError{Kind: ErrInvalidResponse, Message: MsgInvalidResponse}
	}

	sess := &Session{Token: resp.Token, User: userFromResponse(resp, creds.Username)}
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		s.state = prev
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.kv.SetAll(map[string]string{KeyToken: sess.Token, KeyUser: string(userJSON)}); err != nil {
		s.state = prev
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.adoptLocked(sess)
	s.epoch.Advance()
	s.log.Info("login succeeded", "user", sess.User.Name, "role", sess.User.Role)
	return copySession(sess), nil
}

func classifyLoginError(err error) *AuthError {
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr):
		msg := apiErr.Message
		if msg == "" {
			msg = MsgAccessDenied
		}
		return &AuthError{Kind: ErrAccessDenied, Message: msg, Err: err}
	case errors.Is(err, backend.ErrMalformedResponse):
		return &AuthError{Kind: ErrInvalidResponse, Message: MsgInvalidResponse, Err: err}
	default:
		return &AuthError{Kind: ErrUnreachable, Message: MsgUnreachable, Err: err}
	}
}

// userFromResponse builds the user from {user} when present, otherwise from
// the submitted username and any top-level name/role.
func userFromResponse(resp *backend.LoginResponse, username string) User {
	if resp.User != nil {
		u := User{ID: resp.User.ID.String(), Name: resp.User.Name, Role: resp.User.Role}
		if u.Name == "" {
			u.Name = username
		}
		return u
	}
	name := resp.Name
	if name == "" {
		name = username
	}
	return User{Name: name, Role: resp.Role}
}

// Logout clears both keys and the backend token and advances the epoch.
// In-memory state is cleared even when the store cannot be written.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.kv.Delete(KeyToken, KeyUser)
	s.dropLocked()
	s.epoch.Advance()
	if err != nil {
		return fmt.Errorf("failed to clear persisted session: %w", err)
	}
	s.log.Info("logged out")
	return nil
}

// Revalidate re-reads the persisted keys after an external change.
// A vanished or corrupted session ends the in-memory one; a session written
// by another process is adopted. It returns whether a session is active.
func (s *Store) Revalidate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateAuthenticating {
		return false
	}

	sess, ok := s.readPersisted()
	switch {
	case !ok && s.state == StateAuthenticated:
		s.log.Info("persisted session removed externally, logging out")
		s.dropLocked()
		s.epoch.Advance()
		return false
	case !ok:
		return false
	case s.current != nil && s.current.Token == sess.Token:
		return true
	default:
		s.log.Info("adopting externally persisted session", "user", sess.User.Name)
		s.adoptLocked(sess)
		s.epoch.Advance()
		return true
	}
}

func (s *Store) adoptLocked(sess *Session) {
	s.current = sess
	s.state = StateAuthenticated
	s.auth.SetToken(sess.Token)
}

func (s *Store) dropLocked() {
	s.current = nil
	s.state = StateUnauthenticated
	s.auth.SetToken("")
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Current returns a copy of the active session.
func (s *Store) Current() (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, false
	}
	return copySession(s.current), true
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Epoch returns the current session generation.
func (s *Store) Epoch() uint64 {
	return s.epoch.Current()
}

// IsCurrent reports whether epoch is still the current session generation.
func (s *Store) IsCurrent(epoch uint64) bool {
	return s.epoch.IsCurrent(epoch)
}

// StorePath returns the backing location of the persisted session.
func (s *Store) StorePath() string {
	return s.kv.Path()
}

func copySession(s *Session) *Session {
	c := *s
	return &c
}
