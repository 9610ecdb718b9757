// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package incident

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nyawara2025/dubaibankcases/internal/backend"
	"github.com/nyawara2025/dubaibankcases/internal/logging"
	"github.com/nyawara2025/dubaibankcases/internal/tasks"
)

// Source is the part of the backend the Repository needs.
type Source interface {
	ListIncidents(ctx context.Context) (json.RawMessage, error)
	CreateIncident(ctx context.Context, report backend.IncidentReport) error
}

// FetchError is a failed incident listing. The prior collection is kept.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("incident fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Snapshot is a consistent copy of the repository state.
type Snapshot struct {
	Incidents []Incident
	Loading   bool
	Stats     Stats
	Err       error
	LastFetch time.Time
}

// Repository caches the latest successful incident listing.
type Repository struct {
	src Source
	log *slog.Logger

	epoch tasks.Epoch

	mu        sync.Mutex
	incidents []Incident
	inflight  int
	issued    uint64
	applied   uint64
	lastErr   error
	lastFetch time.Time
}

// NewRepository creates an empty repository.
func NewRepository(src Source, log *slog.Logger) *Repository {
	return &Repository{
		src:       src,
		log:       logging.OrDiscard(log).With("component", "incident"),
		incidents: []Incident{},
	}
}

// Fetch starts a listing and returns its task. Loading is reported until
// every outstanding fetch of the current epoch has settled. When several
// fetches overlap, the collection ends up holding the most recently issued
// one that succeeded, and an older failure never overrides a newer success.
// A fetch that outlives Reset is discarded with tasks.ErrStale and changes
// nothing.
func (r *Repository) Fetch(ctx context.Context) *tasks.Task[[]Incident] {
	r.mu.Lock()
	r.issued++
	seq := r.issued
	r.inflight++
	t := tasks.New[[]Incident]("fetch incidents", r.epoch.Current())
	r.mu.Unlock()

	go func() {
		raw, err := r.src.ListIncidents(ctx)

		r.mu.Lock()
		defer r.mu.Unlock()

		if !r.epoch.IsCurrent(t.Epoch) {
			r.log.Debug("discarding stale incident fetch", "task", t.ID)
			t.Discard()
			return
		}
		r.inflight--

		if err != nil {
			fe := &FetchError{Err: err}
			if seq > r.applied {
				r.lastErr = fe
			}
			r.log.Error("incident fetch failed", "task", t.ID, "error", err, "kept", len(r.incidents))
			t.Fail(fe)
			return
		}

		list := Normalize(raw)
		if seq > r.applied {
			r.applied = seq
			r.incidents = list
			r.lastErr = nil
			r.lastFetch = time.Now()
		}
		r.log.Debug("incidents fetched", "task", t.ID, "count", len(list), "duration", t.Duration())
		t.Complete(cloneIncidents(list))
	}()

	return t
}

// Submit validates and files a new report. The collection is not updated;
// callers refetch.
func (r *Repository) Submit(ctx context.Context, report Report) error {
	if err := report.Validate(); err != nil {
		return err
	}
	n := report.Normalized()
	if err := r.src.CreateIncident(ctx, backend.IncidentReport{Title: n.Title, Severity: n.Severity, Status: n.Status}); err != nil {
		r.log.Warn("incident submission failed", "error", err)
		return fmt.Errorf("failed to submit incident: %w", err)
	}
	r.log.Info("incident submitted", "severity", n.Severity, "status", n.Status)
	return nil
}

// Snapshot returns a copy of the current state.
func (r *Repository) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := cloneIncidents(r.incidents)
	return Snapshot{
		Incidents: list,
		Loading:   r.inflight > 0,
		Stats:     DeriveStats(list),
		Err:       r.lastErr,
		LastFetch: r.lastFetch,
	}
}

// Loading reports whether a fetch of the current epoch is outstanding.
func (r *Repository) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight > 0
}

// Reset empties the collection and ends the epoch so outstanding fetches are
// discarded.
func (r *Repository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch.Advance()
	r.incidents = []Incident{}
	r.inflight = 0
	r.applied = r.issued
	r.lastErr = nil
	r.lastFetch = time.Time{}
}

func cloneIncidents(in []Incident) []Incident {
	out := make([]Incident, len(in))
	copy(out, in)
	return out
}
