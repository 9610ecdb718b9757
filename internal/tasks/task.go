// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrStale reports that a task's result was dropped because the epoch it was
// started in has ended (logout, teardown).
var ErrStale = errors.New("stale result discarded")

// =============================================================================
// TASK STATUS
// =============================================================================

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusRunning indicates the operation has not settled yet
	TaskStatusRunning TaskStatus = "Running"

	// TaskStatusComplete indicates the operation produced a value
	TaskStatusComplete TaskStatus = "Complete"

	// TaskStatusFailed indicates the operation returned an error
	TaskStatusFailed TaskStatus = "Failed"

	// TaskStatusDiscarded indicates the result arrived after its epoch ended
	TaskStatusDiscarded TaskStatus = "Discarded"
)

// String returns the string representation of the task status.
func (s TaskStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status can no longer change.
func (s TaskStatus) IsTerminal() bool {
	return s != TaskStatusRunning
}

// =============================================================================
// TASK STRUCTURE
// =============================================================================

// Task is a single-assignment future for one asynchronous operation.
// Exactly one of Complete, Fail or Discard takes effect; later calls are
// ignored and report false.
type Task[T any] struct {
	// ID is a unique identifier for this task
	ID string

	// Description is a human-readable description of the operation
	Description string

	// Epoch is the generation the task was started in
	Epoch uint64

	// StartTime is when the task was created
	StartTime time.Time

	mu      sync.RWMutex
	status  TaskStatus
	value   T
	err     error
	endTime time.Time
	done    chan struct{}
}

// New creates a running task tagged with epoch.
func New[T any](description string, epoch uint64) *Task[T] {
	return &Task[T]{
		ID:          uuid.New().String(),
		Description: description,
		Epoch:       epoch,
		StartTime:   time.Now(),
		status:      TaskStatusRunning,
		done:        make(chan struct{}),
	}
}

// =============================================================================
// SETTLEMENT
// =============================================================================

// Complete settles the task with a value.
func (t *Task[T]) Complete(v T) bool {
	return t.settle(TaskStatusComplete, v, nil)
}

// Fail settles the task with an error.
func (t *Task[T]) Fail(err error) bool {
	var zero T
	if err == nil {
		err = errors.New("task failed")
	}
	return t.settle(TaskStatusFailed, zero, err)
}

// Discard settles the task as stale. Waiters receive ErrStale.
func (t *Task[T]) Discard() bool {
	var zero T
	return t.settle(TaskStatusDiscarded, zero, ErrStale)
}

func (t *Task[T]) settle(status TaskStatus, v T, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != TaskStatusRunning {
		return false
	}
	t.status = status
	t.value = v
	t.err = err
	t.endTime = time.Now()
	close(t.done)
	return true
}

// =============================================================================
// OBSERVATION
// =============================================================================

// Done is closed once the task settles.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task settles or ctx ends.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the settled value and error. While running it returns the
// zero value and a nil error; check Status first.
func (t *Task[T]) Result() (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.value, t.err
}

// Status returns the current status (thread-safe).
func (t *Task[T]) Status() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Duration returns how long the task ran, or has been running.
func (t *Task[T]) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.endTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.endTime.Sub(t.StartTime)
}
