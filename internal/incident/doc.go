// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package incident holds the incident collection shown on the dashboard.
//
// The Repository fetches the list from the backend, normalizes whatever
// shape comes back into a slice, and keeps the last good collection when a
// fetch fails. Results from a fetch started before Reset are discarded.
//
// # Usage
//
//	repo := incident.NewRepository(client, logger)
//	task := repo.Fetch(ctx)
//	incidents, err := task.Wait(ctx)
//	stats := incident.DeriveStats(incidents)
package incident
