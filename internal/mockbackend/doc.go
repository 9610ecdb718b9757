// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mockbackend is a local stand-in for the SOC webhook service.
//
// It serves the four routes socdash calls (login, list incidents, log
// incident, chat) from a SQL database, sqlite by default or MySQL, seeded
// from a YAML file. Logins check bcrypt password hashes and, for accounts
// with a TOTP secret, a one-time code. Tokens are HS256 JWTs.
//
// Roles are reported to the client but not enforced: a viewer token may log
// incidents. The dashboard is the only place the role is checked.
//
// # Usage
//
//	cfg, _ := mockbackend.LoadConfig("socmock.yaml")
//	store, _ := mockbackend.OpenStore(cfg.Database)
//	_ = store.Seed(ctx, cfg)
//	srv := mockbackend.New(cfg, store, logger)
//	_ = srv.Run(ctx)
package mockbackend
