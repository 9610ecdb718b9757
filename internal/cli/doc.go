// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the socdash command tree.
//
// Running socdash with no subcommand opens the dashboard TUI. The
// subcommands drive the same shell without a UI, which makes them usable
// from scripts:
//
//	socdash login --user alice        # prompts for the access key
//	socdash whoami
//	socdash incidents --json
//	socdash report --title "Phishing wave" --severity high --status Open
//	socdash chat                      # line-oriented secure chat
//	socdash logout
//	socdash config show|path|init|get|set
//	socdash version
//
// Every command shares the session persisted under the config directory, so
// a login from the CLI is picked up by a running dashboard and vice versa.
package cli
