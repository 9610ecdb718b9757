// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks provides the futures and generation counters used by every
// asynchronous operation in the dashboard.
//
// # Key Types
//
//   - Task: single-assignment future (Running -> Complete | Failed | Discarded)
//   - Epoch: generation counter advanced on logout and teardown
//   - ErrStale: error carried by discarded tasks
//
// # Usage
//
// Start work tagged with the current epoch and settle it from the worker:
//
//	var epoch tasks.Epoch
//	t := tasks.New[[]Incident]("list incidents", epoch.Current())
//	go func() {
//	    list, err := client.List(ctx)
//	    switch {
//	    case !epoch.IsCurrent(t.Epoch):
//	        t.Discard()
//	    case err != nil:
//	        t.Fail(err)
//	    default:
//	        t.Complete(list)
//	    }
//	}()
//
// Wait for it:
//
//	incidents, err := t.Wait(ctx)
//	if errors.Is(err, tasks.ErrStale) {
//	    // the session ended while the call was in flight
//	}
package tasks
