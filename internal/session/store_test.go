// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nyawara2025/dubaibankcases/internal/backend"
	"github.com/nyawara2025/dubaibankcases/internal/storage"
	"github.com/nyawara2025/dubaibankcases/internal/tasks"
)

// fakeAuth answers Login from a canned response and records tokens.
type fakeAuth struct {
	mu    sync.Mutex
	resp  *backend.LoginResponse
	err   error
	calls atomic.Int32
	token string

	// gate, when set, blocks Login until closed.
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeAuth) Login(ctx context.Context, creds backend.Credentials) (*backend.LoginResponse, error) {
	f.calls.Add(1)
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	return f.resp, f.err
}

func (f *fakeAuth) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeAuth) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

var alice = backend.Credentials{Username: "alice", Password: "x"}

func aliceResponse() *backend.LoginResponse {
	return &backend.LoginResponse{Token: "tok1", User: &backend.UserRecord{Name: "alice", Role: "operator"}}
}

func TestLogin_Success(t *testing.T) {
	kv := storage.NewMemory()
	auth := &fakeAuth{resp: aliceResponse()}
	store := NewStore(kv, auth, nil)
	before := store.Epoch()

	sess, err := store.Login(context.Background(), alice)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token != "tok1" {
		t.Errorf("token = %q, want tok1", sess.Token)
	}
	if sess.User != (User{Name: "alice", Role: "operator"}) {
		t.Errorf("user = %+v", sess.User)
	}
	if store.State() != StateAuthenticated {
		t.Errorf("state = %s", store.State())
	}
	if auth.Token() != "tok1" {
		t.Errorf("client token = %q", auth.Token())
	}
	if store.Epoch() == before {
		t.Error("epoch did not advance")
	}

	if token, ok, _ := kv.Get(KeyToken); !ok || token != "tok1" {
		t.Errorf("persisted token = %q, %v", token, ok)
	}
	userJSON, ok, _ := kv.Get(KeyUser)
	if !ok {
		t.Fatal("user not persisted")
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(userJSON), &got); err != nil {
		t.Fatalf("persisted user %q: %v", userJSON, err)
	}
	if want := map[string]any{"name": "alice", "role": "operator"}; !reflect.DeepEqual(got, want) {
		t.Errorf("persisted user = %v, want %v", got, want)
	}
}

func TestLogin_SynthesizesUserFromTopLevelFields(t *testing.T) {
	auth := &fakeAuth{resp: &backend.LoginResponse{Token: "t2", Role: "viewer"}}
	store := NewStore(storage.NewMemory(), auth, nil)

	sess, err := store.Login(context.Background(), backend.Credentials{Username: "bob", Password: "p"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.User.Name != "bob" || sess.User.Role != "viewer" || !sess.User.IsViewer() {
		t.Errorf("user = %+v, want bob/viewer", sess.User)
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name    string
		resp    *backend.LoginResponse
		err     error
		kind    error
		message string
	}{
		{
			name:    "rejected with message",
			err:     &backend.APIError{Status: 401, Message: "Invalid credentials"},
			kind:    ErrAccessDenied,
			message: "Invalid credentials",
		},
		{
			name:    "rejected without message",
			err:     &backend.APIError{Status: 403},
			kind:    ErrAccessDenied,
			message: MsgAccessDenied,
		},
		{
			name:    "network failure",
			err:     &backend.NetworkError{Op: "login", Err: errors.New("connection refused")},
			kind:    ErrUnreachable,
			message: MsgUnreachable,
		},
		{
			name:    "success without token",
			resp:    &backend.LoginResponse{Status: "success", Role: "admin"},
			kind:    ErrInvalidResponse,
			message: MsgInvalidResponse,
		},
		{
			name:    "malformed body",
			err:     backend.ErrMalformedResponse,
			kind:    ErrInvalidResponse,
			message: MsgInvalidResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemory()
			store := NewStore(kv, &fakeAuth{resp: tt.resp, err: tt.err}, nil)

			sess, err := store.Login(context.Background(), alice)
			if sess != nil {
				t.Errorf("session = %+v, want nil", sess)
			}
			if !errors.Is(err, tt.kind) {
				t.Fatalf("err = %v, want %v", err, tt.kind)
			}

			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("err = %T, want *AuthError", err)
			}
			if authErr.Message != tt.message {
				t.Errorf("message = %q, want %q", authErr.Message, tt.message)
			}

			if store.State() != StateUnauthenticated {
				t.Errorf("state = %s", store.State())
			}
			if _, ok, _ := kv.Get(KeyToken); ok {
				t.Error("token persisted on failure")
			}
		})
	}
}

func TestLogin_AccessDeniedAndUnreachableAreDistinct(t *testing.T) {
	denied := classifyLoginError(&backend.APIError{Status: 401})
	unreachable := classifyLoginError(&backend.NetworkError{Op: "login", Err: errors.New("timeout")})
	if denied.Message == unreachable.Message {
		t.Errorf("both failures show %q", denied.Message)
	}
	if errors.Is(denied, ErrUnreachable) || errors.Is(unreachable, ErrAccessDenied) {
		t.Error("failure kinds overlap")
	}
}

func TestLogin_SingleFlight(t *testing.T) {
	auth := &fakeAuth{resp: aliceResponse(), gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	store := NewStore(storage.NewMemory(), auth, nil)

	done := make(chan error, 1)
	go func() {
		_, err := store.Login(context.Background(), alice)
		done <- err
	}()
	<-auth.entered
	if store.State() != StateAuthenticating {
		t.Errorf("state = %s, want Authenticating", store.State())
	}

	if _, err := store.Login(context.Background(), alice); !errors.Is(err, ErrLoginInFlight) {
		t.Errorf("second Login err = %v, want ErrLoginInFlight", err)
	}
	if n := auth.calls.Load(); n != 1 {
		t.Errorf("backend calls = %d, want 1", n)
	}

	close(auth.gate)
	if err := <-done; err != nil {
		t.Fatalf("first Login: %v", err)
	}
	if store.State() != StateAuthenticated {
		t.Errorf("state = %s", store.State())
	}
}

func TestLogin_DiscardedAfterLogout(t *testing.T) {
	kv := storage.NewMemory()
	auth := &fakeAuth{resp: aliceResponse(), gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	store := NewStore(kv, auth, nil)

	done := make(chan error, 1)
	go func() {
		_, err := store.Login(context.Background(), alice)
		done <- err
	}()
	<-auth.entered
	if err := store.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	close(auth.gate)

	if err := <-done; !errors.Is(err, tasks.ErrStale) {
		t.Errorf("Login err = %v, want ErrStale", err)
	}
	if store.State() != StateUnauthenticated {
		t.Errorf("state = %s", store.State())
	}
	if _, ok, _ := kv.Get(KeyToken); ok {
		t.Error("late login persisted a token")
	}
	if tok := auth.Token(); tok != "" {
		t.Errorf("client token = %q, want empty", tok)
	}
}

func TestLogout(t *testing.T) {
	kv := storage.NewMemory()
	auth := &fakeAuth{resp: aliceResponse()}
	store := NewStore(kv, auth, nil)
	if _, err := store.Login(context.Background(), alice); err != nil {
		t.Fatalf("Login: %v", err)
	}
	epoch := store.Epoch()

	if err := store.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if store.State() != StateUnauthenticated {
		t.Errorf("state = %s", store.State())
	}
	if store.IsCurrent(epoch) {
		t.Error("epoch still current after Logout")
	}
	if _, ok := store.Current(); ok {
		t.Error("session still current")
	}
	if tok := auth.Token(); tok != "" {
		t.Errorf("client token = %q, want empty", tok)
	}
	for _, k := range []string{KeyToken, KeyUser} {
		if _, ok, _ := kv.Get(k); ok {
			t.Errorf("%s still persisted", k)
		}
	}
}

func TestRestore(t *testing.T) {
	tests := []struct {
		name   string
		pairs  map[string]string
		wantOK bool
	}{
		{"both keys", map[string]string{KeyToken: "tok1", KeyUser: `{"name":"alice","role":"operator"}`}, true},
		{"numeric user id", map[string]string{KeyToken: "tok1", KeyUser: `{"id":7,"name":"alice","role":"operator"}`}, true},
		{"nothing stored", map[string]string{}, false},
		{"token only", map[string]string{KeyToken: "tok1"}, false},
		{"user only", map[string]string{KeyUser: `{"name":"alice"}`}, false},
		{"user malformed", map[string]string{KeyToken: "tok1", KeyUser: `{name:`}, false},
		{"user undefined", map[string]string{KeyToken: "tok1", KeyUser: "undefined"}, false},
		{"token null", map[string]string{KeyToken: "null", KeyUser: `{"name":"alice"}`}, false},
		{"user is array", map[string]string{KeyToken: "tok1", KeyUser: `[1,2]`}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemory()
			if err := kv.SetAll(tt.pairs); err != nil {
				t.Fatal(err)
			}
			auth := &fakeAuth{}
			store := NewStore(kv, auth, nil)

			sess, ok := store.Restore()
			if ok != tt.wantOK {
				t.Fatalf("Restore ok = %v, want %v", ok, tt.wantOK)
			}
			if tt.wantOK {
				if sess.Token != "tok1" || sess.User.Name != "alice" {
					t.Errorf("session = %+v", sess)
				}
				if store.State() != StateAuthenticated {
					t.Errorf("state = %s", store.State())
				}
				if auth.Token() != "tok1" {
					t.Errorf("client token = %q", auth.Token())
				}
				return
			}
			if sess != nil {
				t.Errorf("session = %+v, want nil", sess)
			}
			if store.State() != StateUnauthenticated {
				t.Errorf("state = %s", store.State())
			}
			for _, k := range []string{KeyToken, KeyUser} {
				if _, ok, _ := kv.Get(k); ok {
					t.Errorf("%s not cleared", k)
				}
			}
		})
	}
}

func TestRestore_FileStoreSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	kv1, err := storage.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(kv1, &fakeAuth{resp: aliceResponse()}, nil).Login(context.Background(), alice); err != nil {
		t.Fatalf("Login: %v", err)
	}

	kv2, err := storage.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	sess, ok := NewStore(kv2, &fakeAuth{}, nil).Restore()
	if !ok {
		t.Fatal("session not restored from file")
	}
	if sess.Token != "tok1" || sess.User.Role != "operator" {
		t.Errorf("session = %+v", sess)
	}
}

func TestRevalidate(t *testing.T) {
	kv := storage.NewMemory()
	auth := &fakeAuth{resp: aliceResponse()}
	store := NewStore(kv, auth, nil)
	if _, err := store.Login(context.Background(), alice); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if !store.Revalidate() {
		t.Error("unchanged store dropped the session")
	}

	epoch := store.Epoch()
	if err := kv.Delete(KeyToken); err != nil {
		t.Fatal(err)
	}
	if store.Revalidate() {
		t.Error("removed token still active")
	}
	if store.State() != StateUnauthenticated {
		t.Errorf("state = %s", store.State())
	}
	if store.IsCurrent(epoch) {
		t.Error("epoch still current after external logout")
	}
	if _, ok, _ := kv.Get(KeyUser); ok {
		t.Error("orphaned user key not cleared")
	}

	if err := kv.SetAll(map[string]string{KeyToken: "tok9", KeyUser: `{"name":"carol","role":"viewer"}`}); err != nil {
		t.Fatal(err)
	}
	if !store.Revalidate() {
		t.Fatal("session written elsewhere not adopted")
	}
	sess, ok := store.Current()
	if !ok || sess.User.Name != "carol" {
		t.Errorf("current = %+v, %v; want carol", sess, ok)
	}
	if auth.Token() != "tok9" {
		t.Errorf("client token = %q, want tok9", auth.Token())
	}
}

func TestCurrentReturnsCopy(t *testing.T) {
	store := NewStore(storage.NewMemory(), &fakeAuth{resp: aliceResponse()}, nil)
	if _, err := store.Login(context.Background(), alice); err != nil {
		t.Fatalf("Login: %v", err)
	}

	s1, _ := store.Current()
	s1.User.Role = "viewer"
	if s2, _ := store.Current(); s2.User.Role != "operator" {
		t.Errorf("role = %q, mutation leaked into the store", s2.User.Role)
	}
}

func TestStateString(t *testing.T) {
	if got := StateAuthenticating.String(); got != "Authenticating" {
		t.Errorf("String() = %q", got)
	}
	if got := State(9).String(); got != "State(9)" {
		t.Errorf("String() = %q", got)
	}
}
