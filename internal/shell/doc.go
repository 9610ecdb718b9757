// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shell composes the session store, incident repository, chat
// session and navigation controller into the protected dashboard.
//
// The Shell has no rendering of its own. Front ends (the Bubble Tea
// dashboard, the CLI) call its operations and draw from Snapshot.
//
// # Lifecycle
//
//	sh := shell.New(store, repo, chat, nav, logger)
//	if task, ok := sh.Mount(ctx); ok {
//	    _, _ = task.Wait(ctx) // incidents loaded
//	}
//	snap := sh.Snapshot()
//	if snap.View == shell.ViewLogin { ... }
package shell
