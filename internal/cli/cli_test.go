// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSOC struct {
	mu        sync.Mutex
	incidents []map[string]any
}

func (s *fakeSOC) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bank/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		switch {
		case creds["username"] == "alice" && creds["password"] == "pw":
			writeJSON(w, http.StatusOK, map[string]any{"token": "tok1", "user": map[string]any{"id": "u1", "name": "alice", "role": "operator"}})
		case creds["username"] == "victor" && creds["password"] == "pw":
			writeJSON(w, http.StatusOK, map[string]any{"token": "tok2", "user": map[string]any{"name": "victor", "role": "viewer"}})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "ACCESS DENIED"})
		}
	})
	mux.HandleFunc("/bank/incidents", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, s.incidents)
	})
	mux.HandleFunc("/bank/log-incident", func(w http.ResponseWriter, r *http.Request) {
		var rep map[string]any
		_ = json.NewDecoder(r.Body).Decode(&rep)
		s.mu.Lock()
		defer s.mu.Unlock()
		rep["id"] = len(s.incidents) + 1
		s.incidents = append(s.incidents, rep)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	mux.HandleFunc("/bank/chat", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"reply": "Roger that."})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// env points socdash at a temp home and a fake service.
func env(t *testing.T) (*fakeSOC, string) {
	t.Helper()
	soc := &fakeSOC{incidents: []map[string]any{
		{"id": 1, "title": "Wire fraud", "severity": "Critical", "status": "Open"},
		{"id": 2, "title": "Phishing", "severity": "Low", "status": "Resolved"},
	}}
	srv := httptest.NewServer(soc.handler())
	t.Cleanup(srv.Close)

	home := t.TempDir()
	t.Setenv("SOCDASH_HOME", home)
	t.Setenv("SOCDASH_BASE_URL", srv.URL)
	return soc, home
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func decode(t *testing.T, out string) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestVersionJSON(t *testing.T) {
	env(t)
	out, err := run(t, "", "version", "--json")
	require.NoError(t, err)

	resp := decode(t, out)
	assert.True(t, resp.Success)
	assert.Equal(t, "version", resp.Command)
	assert.Equal(t, Version, resp.Data.(map[string]any)["version"])
}

func TestLoginWhoamiLogout(t *testing.T) {
	_, home := env(t)

	out, err := run(t, "pw\n", "login", "-u", "alice", "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as alice (operator)")
	assert.Contains(t, out, "2 incidents on the feed")
	assert.FileExists(t, filepath.Join(home, "session.json"))

	out, err = run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "alice (operator)")

	_, err = run(t, "", "logout")
	require.NoError(t, err)

	_, err = run(t, "", "whoami")
	assert.ErrorIs(t, err, errNotSignedIn)
}

func TestLoginRejected(t *testing.T) {
	env(t)
	_, err := run(t, "wrong\n", "login", "-u", "alice", "--password-stdin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS DENIED")

	_, err = run(t, "", "whoami")
	assert.ErrorIs(t, err, errNotSignedIn)
}

func TestLoginRequiresFields(t *testing.T) {
	env(t)
	_, err := run(t, "\n", "login", "-u", "alice", "--password-stdin")
	require.Error(t, err)
}

func TestIncidentsJSON(t *testing.T) {
	env(t)
	_, err := run(t, "pw\n", "login", "-u", "alice", "--password-stdin")
	require.NoError(t, err)

	out, err := run(t, "", "incidents", "--json")
	require.NoError(t, err)
	resp := decode(t, out)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	stats := data["stats"].(map[string]any)
	assert.EqualValues(t, 2, stats["active"])
	assert.EqualValues(t, 1, stats["critical"])
	assert.Len(t, data["incidents"], 2)
}

func TestIncidentsRequiresSession(t *testing.T) {
	env(t)
	out, err := run(t, "", "ls", "--json")
	assert.ErrorIs(t, err, errNotSignedIn)
	resp := decode(t, out)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
}

func TestReport(t *testing.T) {
	soc, _ := env(t)
	_, err := run(t, "pw\n", "login", "-u", "alice", "--password-stdin")
	require.NoError(t, err)

	out, err := run(t, "", "report", "--title", "  Ransomware on FS01 ", "--severity", "critical")
	require.NoError(t, err)
	assert.Contains(t, out, "Alert broadcast: Ransomware on FS01")
	assert.Contains(t, out, "3 incidents on the feed")

	soc.mu.Lock()
	last := soc.incidents[len(soc.incidents)-1]
	soc.mu.Unlock()
	assert.Equal(t, "Ransomware on FS01", last["title"])
	assert.Equal(t, "Critical", last["severity"])
	assert.Equal(t, "Open", last["status"])
}

func TestReportViewerForbidden(t *testing.T) {
	soc, _ := env(t)
	_, err := run(t, "pw\n", "login", "-u", "victor", "--password-stdin")
	require.NoError(t, err)

	_, err = run(t, "", "report", "--title", "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")

	soc.mu.Lock()
	defer soc.mu.Unlock()
	assert.Len(t, soc.incidents, 2)
}

func TestChatPiped(t *testing.T) {
	env(t)
	_, err := run(t, "pw\n", "login", "-u", "alice", "--password-stdin")
	require.NoError(t, err)

	out, err := run(t, "status report\n\n/history\n/quit\nignored\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Secure channel open for alice")
	assert.Contains(t, out, "Roger that.")
	assert.Contains(t, out, "you: status report")
	assert.NotContains(t, out, "ignored")
}

func TestChatRequiresSession(t *testing.T) {
	env(t)
	_, err := run(t, "hi\n", "chat")
	assert.ErrorIs(t, err, errNotSignedIn)
}

func TestConfigCommands(t *testing.T) {
	_, home := env(t)

	out, err := run(t, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.toml"), strings.TrimSpace(out))

	_, err = run(t, "", "config", "init")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(home, "config.toml"))
	require.NoError(t, err)

	_, err = run(t, "", "config", "init")
	assert.Error(t, err)

	_, err = run(t, "", "config", "set", "ui.theme", "light")
	require.NoError(t, err)
	out, err = run(t, "", "config", "get", "ui.theme")
	require.NoError(t, err)
	assert.Equal(t, "light", strings.TrimSpace(out))

	_, err = run(t, "", "config", "get", "ui.nope")
	assert.Error(t, err)
}
