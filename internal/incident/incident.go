// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package incident

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nyawara2025/dubaibankcases/internal/backend"
)

// Severity is an incident severity level.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Severities lists the known levels from least to most severe.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// ParseSeverity normalizes s case-insensitively to a known level. Unknown
// values are returned verbatim with ok == false.
func ParseSeverity(s string) (Severity, bool) {
	trimmed := strings.TrimSpace(s)
	candidate := Severity(cases.Title(language.Und).String(strings.ToLower(trimmed)))
	for _, known := range Severities {
		if candidate == known {
			return known, true
		}
	}
	return Severity(s), false
}

// IsKnown reports whether s is one of the four levels.
func (s Severity) IsKnown() bool {
	for _, known := range Severities {
		if s == known {
			return true
		}
	}
	return false
}

// text decodes any JSON value into a string: strings as is, null as "",
// and numbers, booleans, objects and arrays as their literal JSON text.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
	default:
		*t = text(data)
	}
	return nil
}

// Incident is one security incident as reported by the backend. Fields are
// kept as received; severity in particular is never normalized.
type Incident struct {
	ID        backend.FlexString `json:"id"`
	Title     string             `json:"title"`
	Severity  Severity           `json:"severity"`
	Status    string             `json:"status"`
	CreatedAt string             `json:"created_at,omitempty"`
}

// UnmarshalJSON accepts any JSON type for every field so that one odd value
// never drops the incident.
func (i *Incident) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID        text `json:"id"`
		Title     text `json:"title"`
		Severity  text `json:"severity"`
		Status    text `json:"status"`
		CreatedAt text `json:"created_at"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*i = Incident{
		ID:        backend.FlexString(wire.ID),
		Title:     string(wire.Title),
		Severity:  Severity(wire.Severity),
		Status:    string(wire.Status),
		CreatedAt: string(wire.CreatedAt),
	}
	return nil
}

// Created parses CreatedAt. Numeric values are epoch milliseconds. ok is false
// when the field is missing or not a recognised timestamp.
func (i Incident) Created() (time.Time, bool) {
	if i.CreatedAt == "" {
		return time.Time{}, false
	}
	if ms, err := strconv.ParseFloat(i.CreatedAt, 64); err == nil {
		if math.IsNaN(ms) || math.IsInf(ms, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, i.CreatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize converts a list payload into a slice. An array is used as is
// (elements that are not objects are skipped), a single object becomes a
// one-element slice, and null, empty or malformed input yields an empty
// slice. The result is never nil.
func Normalize(raw json.RawMessage) []Incident {
	out := []Incident{}
	data := bytes.TrimSpace(raw)
	if len(data) == 0 {
		return out
	}

	switch data[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return out
		}
		for _, e := range elems {
			if inc, ok := decodeObject(e); ok {
				out = append(out, inc)
			}
		}
	case '{':
		if inc, ok := decodeObject(data); ok {
			out = append(out, inc)
		}
	}
	return out
}

func decodeObject(raw json.RawMessage) (Incident, bool) {
	data := bytes.TrimSpace(raw)
	if len(data) == 0 || data[0] != '{' {
		return Incident{}, false
	}
	var inc Incident
	if err := json.Unmarshal(data, &inc); err != nil {
		return Incident{}, false
	}
	return inc, true
}

// Stats are the dashboard counters.
type Stats struct {
	Active   int `json:"active"`
	Critical int `json:"critical"`
}

// DeriveStats counts all incidents as active and those whose severity is
// exactly "Critical" as critical.
func DeriveStats(incidents []Incident) Stats {
	st := Stats{Active: len(incidents)}
	for _, inc := range incidents {
		if inc.Severity == SeverityCritical {
			st.Critical++
		}
	}
	return st
}
