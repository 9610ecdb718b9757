// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "errors"

// Login failure kinds. Compare with errors.Is.
var (
	// ErrAccessDenied indicates the service rejected the credentials.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidResponse indicates a success response without a token.
	ErrInvalidResponse = errors.New("invalid server response")

	// ErrUnreachable indicates the login call could not complete.
	ErrUnreachable = errors.New("server unreachable")
)

// ErrLoginInFlight is returned when Login is called while another login is
// outstanding.
var ErrLoginInFlight = errors.New("login already in progress")

// User-facing login messages.
const (
	MsgAccessDenied    = "ACCESS DENIED"
	MsgInvalidResponse = "Invalid server response. Contact SOC Admin."
	MsgUnreachable     = "SERVER UNREACHABLE"
)

// AuthError is a failed login. Message is safe to show on the login form.
type AuthError struct {
	Kind    error
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return e.Message
}

// Is matches the failure kind.
func (e *AuthError) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying cause.
func (e *AuthError) Unwrap() error {
	return e.Err
}
