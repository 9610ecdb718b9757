// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the operator's authenticated session.
//
// The Store acquires a session through the backend login operation, persists
// the token and user record to a storage.KV under the keys "token" and
// "user", restores it on startup and discards it on logout. The two keys are
// always written and cleared together; a store holding only one of them, or
// an unparseable user record, is treated as logged out and wiped.
//
// # State Machine
//
//	Unauthenticated --Login--> Authenticating --ok--> Authenticated
//	                                 |--fail--> (previous state)
//	Authenticated --Logout--> Unauthenticated
//
// # Usage
//
//	store := session.NewStore(kv, client, logger)
//	if s, ok := store.Restore(); ok {
//	    fmt.Println("welcome back", s.User.Name)
//	}
//	s, err := store.Login(ctx, backend.Credentials{Username: "alice", Password: pw})
//	var authErr *session.AuthError
//	if errors.As(err, &authErr) {
//	    fmt.Println(authErr.Message)
//	}
package session
