// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
)

// KV is a small durable string map.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)

	// SetAll writes every pair in one atomic step.
	SetAll(pairs map[string]string) error

	// Delete removes the keys in one atomic step. Missing keys are ignored.
	Delete(keys ...string) error

	// Path returns the backing location, or "" for memory stores.
	Path() string

	Close() error
}

// Store kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store is closed")

// ErrUnknownKind is returned by Open for an unsupported store kind.
var ErrUnknownKind = errors.New("storage: unknown store kind")

// Open opens the store of the given kind at path.
func Open(kind, path string) (KV, error) {
	switch kind {
	case KindFile, "":
		return OpenFile(path)
	case KindSQLite:
		return OpenSQLite(path)
	case KindMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
