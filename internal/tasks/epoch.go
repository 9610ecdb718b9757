// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import "sync/atomic"

// Epoch is a monotonically increasing generation counter. Work started in one
// epoch must not mutate state once the epoch has been advanced.
// The zero value is ready to use.
type Epoch struct {
	n atomic.Uint64
}

// Current returns the current generation.
func (e *Epoch) Current() uint64 {
	return e.n.Load()
}

// Advance ends the current generation and returns the new one.
func (e *Epoch) Advance() uint64 {
	return e.n.Add(1)
}

// IsCurrent reports whether v is still the current generation.
func (e *Epoch) IsCurrent(v uint64) bool {
	return e.n.Load() == v
}
