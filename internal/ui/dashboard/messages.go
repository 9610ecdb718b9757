// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"github.com/nyawara2025/dubaibankcases/internal/incident"
	"github.com/nyawara2025/dubaibankcases/internal/tasks"
)

// LoginResultMsg reports a finished login attempt.
type LoginResultMsg struct {
	Fetch *tasks.Task[[]incident.Incident]
	Err   error
}

// IncidentsLoadedMsg reports a settled incident fetch.
type IncidentsLoadedMsg struct {
	Count int
	Err   error
}

// IncidentSubmittedMsg reports a settled incident submission.
type IncidentSubmittedMsg struct {
	Fetch *tasks.Task[[]incident.Incident]
	Err   error
}

// ChatChangedMsg signals the chat history changed.
type ChatChangedMsg struct{}

// SessionChangedMsg signals the persisted session was modified outside this
// process.
type SessionChangedMsg struct{}

// RefreshTickMsg triggers the periodic incident refresh.
type RefreshTickMsg struct{}
