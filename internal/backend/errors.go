// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNetwork matches every *NetworkError.
var ErrNetwork = errors.New("network error")

// ErrMalformedResponse indicates a 2xx body that could not be decoded.
var ErrMalformedResponse = errors.New("malformed response")

// APIError represents a non-2xx response from the service.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// NetworkError wraps a transport failure or timeout.
type NetworkError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error { return e.Err }

// Is reports true for ErrNetwork.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// errorBody is the error payload shape; either field may carry the message.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// handleErrorResponse converts a non-2xx response into an *APIError.
// The message comes from the body's message or error field; an unparseable
// body leaves it empty so callers can substitute their own default.
func handleErrorResponse(statusCode int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		msg := strings.TrimSpace(eb.Message)
		if msg == "" {
			msg = strings.TrimSpace(eb.Error)
		}
		return &APIError{Status: statusCode, Message: msg}
	}
	return &APIError{Status: statusCode}
}
