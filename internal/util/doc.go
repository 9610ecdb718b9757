// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across socdash.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync and rename
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth: display-width truncation for terminal columns
//   - IsBlank: whitespace-only check used by form and chat input
//
// # Usage
//
//	// Persist both session keys in one step
//	err := util.AtomicWriteFile(path, data, 0600)
//
//	// Fit an incident title into a table column
//	title := util.TruncateWidth(inc.Title, 40)
package util
