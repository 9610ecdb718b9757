// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package incident

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nyawara2025/dubaibankcases/internal/backend"
	"github.com/nyawara2025/dubaibankcases/internal/tasks"
)

type listResult struct {
	raw json.RawMessage
	err error
}

// fakeSource answers each ListIncidents call from its own channel so tests
// control completion order.
type fakeSource struct {
	mu      sync.Mutex
	pending []chan listResult
	created []backend.IncidentReport
	calls   chan struct{}
	err     error
}

func newFakeSource() *fakeSource {
	return &fakeSource{calls: make(chan struct{}, 16)}
}

func (f *fakeSource) ListIncidents(ctx context.Context) (json.RawMessage, error) {
	ch := make(chan listResult, 1)
	f.mu.Lock()
	f.pending = append(f.pending, ch)
	f.mu.Unlock()
	f.calls <- struct{}{}
	res := <-ch
	return res.raw, res.err
}

func (f *fakeSource) CreateIncident(ctx context.Context, r backend.IncidentReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, r)
	return nil
}

// answer resolves the i-th ListIncidents call.
func (f *fakeSource) answer(i int, raw string, err error) {
	f.mu.Lock()
	ch := f.pending[i]
	f.mu.Unlock()
	ch <- listResult{raw: json.RawMessage(raw), err: err}
}

func waitCalls(t *testing.T, f *fakeSource, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.calls:
		case <-time.After(2 * time.Second):
			t.Fatal("ListIncidents was not called")
		}
	}
}

func wait[T any](t *testing.T, task *tasks.Task[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return task.Wait(ctx)
}

func ids(list []Incident) []string {
	out := make([]string, len(list))
	for i, inc := range list {
		out[i] = inc.ID.String()
	}
	return out
}

func TestFetch_Success(t *testing.T) {
	src := newFakeSource()
	repo := NewRepository(src, nil)

	task := repo.Fetch(context.Background())
	waitCalls(t, src, 1)
	if !repo.Snapshot().Loading {
		t.Error("expected loading while the fetch is outstanding")
	}

	src.answer(0, `[{"id":"1","title":"Breach","severity":"Critical","status":"Open"}]`, nil)
	list, err := wait(t, task)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d, want 1", len(list))
	}

	snap := repo.Snapshot()
	if snap.Loading {
		t.Error("still loading after the fetch settled")
	}
	if snap.Stats != (Stats{Active: 1, Critical: 1}) {
		t.Errorf("stats = %+v", snap.Stats)
	}
	if snap.LastFetch.IsZero() {
		t.Error("LastFetch not set")
	}
	if snap.Err != nil {
		t.Errorf("Err = %v, want nil", snap.Err)
	}
}

func TestFetch_FailureKeepsPriorCollection(t *testing.T) {
	src := newFakeSource()
	repo := NewRepository(src, nil)

	first := repo.Fetch(context.Background())
	waitCalls(t, src, 1)
	src.answer(0, `[{"id":"1"},{"id":"2"}]`, nil)
	if _, err := wait(t, first); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	second := repo.Fetch(context.Background())
	waitCalls(t, src, 1)
	src.answer(1, ``, &backend.NetworkError{Op: "list incidents", Err: errors.New("timeout")})
	_, err := wait(t, second)

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if !errors.Is(err, backend.ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}

	snap := repo.Snapshot()
	if len(snap.Incidents) != 2 {
		t.Errorf("kept %d incidents, want 2", len(snap.Incidents))
	}
	if snap.Loading {
		t.Error("loading did not end on failure")
	}
	if snap.Err == nil {
		t.Error("Err not recorded")
	}
}

func TestFetch_OlderFailureAfterNewerSuccess(t *testing.T) {
	src := newFakeSource()
	repo := NewRepository(src, nil)

	older := repo.Fetch(context.Background())
	waitCalls(t, src, 1)
	newer := repo.Fetch(context.Background())
	waitCalls(t, src, 1)

	src.answer(1, `[{"id":"new"}]`, nil)
	if _, err := wait(t, newer); err != nil {
		t.Fatalf("newer fetch: %v", err)
	}

	src.answer(0, ``, &backend.NetworkError{Op: "list incidents", Err: errors.New("reset by peer")})
	if _, err := wait(t, older); err == nil {
		t.Fatal("older fetch: expected its own error")
	}

	snap := repo.Snapshot()
	if snap.Err != nil {
		t.Errorf("Err = %v, want nil after the newer success", snap.Err)
	}
	if got := ids(snap.Incidents); len(got) != 1 || got[0] != "new" {
		t.Errorf("incidents = %q, want [new]", got)
	}
	if snap.Loading {
		t.Error("still loading")
	}
}

func TestFetch_MalformedNormalizesToEmpty(t *testing.T) {
	src := newFakeSource()
	repo := NewRepository(src, nil)

	task := repo.Fetch(context.Background())
	waitCalls(t, src, 1)
	src.answer(0, `{{{`, nil)
	list, err := wait(t, task)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("len = %d, want 0", len(list))
	}
	if repo.Snapshot().Incidents == nil {
		t.Error("snapshot incidents is nil")
	}
}

func TestFetch_LatestIssuedWins(t *testing.T) {
	src := newFakeSource()
	repo := NewRepository(src, nil)

	older := repo.Fetch(context.Background())
	waitCalls(t, src, 1)
	newer := repo.Fetch(context.Background())
	waitCalls(t, src, 1)

	src.answer(1, `[{"id":"new"}]`, nil)
	if _, err := wait(t, newer); err != nil {
		t.Fatalf("newer fetch: %v", err)
	}
	if !repo.Snapshot().Loading {
		t.Error("expected loading while the older fetch is outstanding")
	}

	src.answer(0, `[{"id":"old"}]`, nil)
	oldList, err := wait(t, older)
	if err != nil {
		t.Fatalf("older fetch: %v", err)
	}
	if got := ids(oldList); len(got) != 1 || got[0] != "old" {
		t.Errorf("older task result = %q, want [old]", got)
	}

	snap := repo.Snapshot()
	if got := ids(snap.Incidents); len(got) != 1 || got[0] != "new" {
		t.Errorf("incidents = %q, want [new]", got)
	}
	if snap.Loading {
		t.Error("still loading")
	}
}

func TestFetch_DiscardedAfterReset(t *testing.T) {
	src := newFakeSource()
	repo := NewRepository(src, nil)

	stale := repo.Fetch(context.Background())
	waitCalls(t, src, 1)
	repo.Reset()
	if repo.Loading() {
		t.Error("loading after Reset")
	}

	fresh := repo.Fetch(context.Background())
	waitCalls(t, src, 1)

	src.answer(0, `[{"id":"leaked"}]`, nil)
	if _, err := wait(t, stale); !errors.Is(err, tasks.ErrStale) {
		t.Errorf("stale fetch err = %v, want ErrStale", err)
	}
	if n := len(repo.Snapshot().Incidents); n != 0 {
		t.Errorf("stale fetch applied %d incidents", n)
	}
	if !repo.Snapshot().Loading {
		t.Error("stale result ended the new epoch's loading")
	}

	src.answer(1, `[{"id":"ok"}]`, nil)
	if _, err := wait(t, fresh); err != nil {
		t.Fatalf("fresh fetch: %v", err)
	}
	if n := len(repo.Snapshot().Incidents); n != 1 {
		t.Errorf("len = %d, want 1", n)
	}
}

func TestSubmit(t *testing.T) {
	src := newFakeSource()
	repo := NewRepository(src, nil)

	err := repo.Submit(context.Background(), Report{Title: " Phishing wave ", Severity: "high", Status: "Open"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(src.created) != 1 {
		t.Fatalf("created %d reports, want 1", len(src.created))
	}
	want := backend.IncidentReport{Title: "Phishing wave", Severity: "High", Status: "Open"}
	if src.created[0] != want {
		t.Errorf("report = %+v, want %+v", src.created[0], want)
	}
	if n := len(repo.Snapshot().Incidents); n != 0 {
		t.Errorf("submission appended %d incidents locally", n)
	}
}

func TestSubmit_InvalidNeverReachesBackend(t *testing.T) {
	src := newFakeSource()
	repo := NewRepository(src, nil)

	err := repo.Submit(context.Background(), Report{Title: "", Severity: "High", Status: "Open"})
	if !errors.Is(err, ErrInvalidReport) {
		t.Errorf("err = %v, want ErrInvalidReport", err)
	}
	if len(src.created) != 0 {
		t.Error("invalid report reached the backend")
	}
}

func TestSubmit_BackendError(t *testing.T) {
	src := newFakeSource()
	src.err = &backend.APIError{Status: 500}
	repo := NewRepository(src, nil)

	err := repo.Submit(context.Background(), Report{Title: "x", Severity: "Low", Status: "Open"})
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		t.Errorf("err = %v, want *APIError", err)
	}
}
