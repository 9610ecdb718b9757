// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	OTP      string `json:"otp,omitempty"`
}

// UserRecord is the user object returned by the login operation.
type UserRecord struct {
	ID   FlexString `json:"id,omitempty"`
	Name string     `json:"name"`
	Role string     `json:"role"`
}

// LoginResponse covers every login response shape the service produces:
// {token, user}, {token, name, role} and the tokenless {status, role}.
type LoginResponse struct {
	Token  string      `json:"token"`
	User   *UserRecord `json:"user,omitempty"`
	Name   string      `json:"name,omitempty"`
	Role   string      `json:"role,omitempty"`
	Status string      `json:"status,omitempty"`
}

// IncidentReport is the create-incident request body.
type IncidentReport struct {
	Title    string `json:"title"`
	Severity string `json:"severity"`
	Status   string `json:"status"`
}

// ChatRequest is the chat request body.
type ChatRequest struct {
	Event     string `json:"event"`
	User      string `json:"user"`
	Message   string `json:"message"`
	Role      string `json:"role"`
	Timestamp string `json:"timestamp"`
}

// ChatReply is the chat response body. Reply is empty when the service sent
// no reply text.
type ChatReply struct {
	Reply string `json:"reply"`
}

// FlexString decodes a JSON string or number into a string.
// null decodes to "".
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*f = FlexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the underlying string.
func (f FlexString) String() string { return string(f) }
