// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for socdash.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendConfig: Webhook service location, endpoints, timeout, rate limit
//   - SessionConfig: Where the token and user record are persisted
//   - LogConfig: Rotating log file settings
//   - UIConfig: Theme, refresh interval, markdown rendering
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (SOCDASH_*)
//   - ~/.socdash/config.toml
//   - ~/.socdash/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	timeout := cfg.Backend.Timeout()
package config
