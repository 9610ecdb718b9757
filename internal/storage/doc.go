// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the durable key/value store that holds the
// dashboard's persisted session.
//
// # Key Types
//
//   - KV: the store interface (Get, SetAll, Delete)
//   - FileStore: one JSON object file, replaced atomically on every write
//   - SQLiteStore: a kv table in a modernc.org/sqlite database
//   - MemoryStore: process-local, for tests
//
// Multi-key writes and deletes are atomic in every backend: either all
// pairs change or none do.
//
// # Usage
//
//	kv, err := storage.Open(storage.KindFile, "/home/op/.socdash/session.json")
//	if err != nil {
//	    return err
//	}
//	defer kv.Close()
//	err = kv.SetAll(map[string]string{"token": tok, "user": userJSON})
//
// # Watching
//
// Watch reports changes made to a store by other processes, so a logout in
// one terminal ends the session in every running dashboard.
package storage
