// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dashboard is the Bubble Tea front end for the SOC dashboard.
//
// The Model owns no domain state. Every frame is drawn from a
// shell.Snapshot, and every user action is forwarded to the shell. Network
// calls run inside tea.Cmds and report back as messages.
//
// # Screens
//
//   - Login: operator ID, access key and optional one-time code
//   - Dashboard: sidebar tabs, then one of the incident list, the secure
//     chat pane, or the maintenance notice for tabs that are not built yet
//   - Create modal: title, severity and status for a new incident
//
// # Usage
//
//	m := dashboard.New(rt.Shell, dashboard.Options{Theme: theme})
//	p := tea.NewProgram(m, tea.WithAltScreen())
//	_, err := p.Run()
package dashboard
