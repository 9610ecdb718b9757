// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nyawara2025/dubaibankcases/internal/incident"
)

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Cyan - Brand color, active tab, operator messages
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// CyanDeep - Darker cyan for backgrounds
var CyanDeep = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#164E63"}

// Emerald - Healthy states, shield status
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Purple - Command Center replies
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Errors, critical incidents
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// RoseDeep - Critical badge background
var RoseDeep = lipgloss.AdaptiveColor{Light: "#BE123C", Dark: "#881337"}

// Orange - High severity
var Orange = lipgloss.AdaptiveColor{Light: "#EA580C", Dark: "#FB923C"}

// Amber - Medium severity, maintenance notices
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Sky - Low severity
var Sky = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}

// =============================================================================
// SURFACE AND TEXT
// =============================================================================

var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#0F172A"}
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#020617"}
var SurfaceBright = lipgloss.AdaptiveColor{Light: "#FAFAFA", Dark: "#1E293B"}
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#334155"}

var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E2E8F0"}
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#94A3B8"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#64748B"}
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#0F172A"}

// =============================================================================
// SEVERITY
// =============================================================================

// SeverityIndicators are ASCII markers shown next to the severity name so the
// level reads without color.
var SeverityIndicators = map[incident.Severity]string{
	incident.SeverityCritical: "[!!]",
	incident.SeverityHigh:     "[! ]",
	incident.SeverityMedium:   "[~ ]",
	incident.SeverityLow:      "[. ]",
}

// SeverityColor returns the color for a severity. Unknown levels are muted.
func SeverityColor(s incident.Severity) lipgloss.AdaptiveColor {
	switch s {
	case incident.SeverityCritical:
		return Rose
	case incident.SeverityHigh:
		return Orange
	case incident.SeverityMedium:
		return Amber
	case incident.SeverityLow:
		return Sky
	default:
		return TextMuted
	}
}

// SeverityIndicator returns the ASCII marker for a severity.
func SeverityIndicator(s incident.Severity) string {
	if ind, ok := SeverityIndicators[s]; ok {
		return ind
	}
	return "[? ]"
}

// RenderSeverity renders a severity with its marker in its color.
func RenderSeverity(s incident.Severity) string {
	label := string(s)
	if label == "" {
		label = "Unknown"
	}
	style := lipgloss.NewStyle().Foreground(SeverityColor(s)).Bold(s == incident.SeverityCritical)
	return style.Render(SeverityIndicator(s) + " " + label)
}

// RenderError renders an error line with an [X] marker.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).Render("[X] " + message)
}
