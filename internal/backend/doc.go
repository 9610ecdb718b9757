// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend is the HTTP client for the SOC webhook service.
//
// It exposes the four remote operations the dashboard depends on: login,
// incident listing, incident creation and chat. Every request carries a
// fresh X-Request-ID, is bounded by a fixed timeout and passes through a
// token-bucket rate limiter.
//
// # Errors
//
//   - *APIError: the service answered with a non-2xx status
//   - *NetworkError: the call could not complete (connection, timeout);
//     errors.Is(err, ErrNetwork) reports true
//   - ErrMalformedResponse: a 2xx body that is not valid JSON
//
// # Usage
//
//	c := backend.NewFromConfig(cfg.Backend, logger)
//	resp, err := c.Login(ctx, backend.Credentials{Username: "alice", Password: "x"})
//	c.SetToken(resp.Token)
//	raw, err := c.ListIncidents(ctx)
package backend
