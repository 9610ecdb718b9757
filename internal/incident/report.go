// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package incident

import (
	"errors"
	"fmt"
	"strings"
)

// Statuses offered when filing a report. Any non-empty status is accepted.
var Statuses = []string{"Open", "Investigating", "Contained", "Resolved"}

// ErrInvalidReport is matched by every report validation failure.
var ErrInvalidReport = errors.New("invalid incident report")

// ReportError names the field that failed validation.
type ReportError struct {
	Field   string
	Message string
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is matches ErrInvalidReport.
func (e *ReportError) Is(target error) bool { return target == ErrInvalidReport }

// Report is a new incident filed from the dashboard.
type Report struct {
	Title    string `json:"title"`
	Severity string `json:"severity"`
	Status   string `json:"status"`
}

// Normalized returns the report with trimmed fields and a canonical severity.
func (r Report) Normalized() Report {
	sev, _ := ParseSeverity(r.Severity)
	return Report{
		Title:    strings.TrimSpace(r.Title),
		Severity: string(sev),
		Status:   strings.TrimSpace(r.Status),
	}
}

// Validate checks required fields and that severity is a known level.
func (r Report) Validate() error {
	n := r.Normalized()
	if n.Title == "" {
		return &ReportError{Field: "title", Message: "required"}
	}
	if !Severity(n.Severity).IsKnown() {
		return &ReportError{Field: "severity", Message: fmt.Sprintf("must be one of Low, Medium, High, Critical (got %q)", r.Severity)}
	}
	if n.Status == "" {
		return &ReportError{Field: "status", Message: "required"}
	}
	return nil
}
