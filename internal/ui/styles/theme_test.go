// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/nyawara2025/dubaibankcases/internal/incident"
)

func TestNewThemeExplicit(t *testing.T) {
	if !NewTheme(ThemeDark).IsDark {
		t.Error("dark theme should report IsDark")
	}
	if NewTheme(ThemeLight).IsDark {
		t.Error("light theme should not report IsDark")
	}
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewTheme(ThemeDark)

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"LoginBox", theme.LoginBox},
		{"Sidebar", theme.Sidebar},
		{"TabActive", theme.TabActive},
		{"StatCard", theme.StatCard},
		{"Placeholder", theme.Placeholder},
		{"UserBubble", theme.UserBubble},
		{"BankBubble", theme.BankBubble},
		{"Modal", theme.Modal},
	}
	for _, s := range styles {
		if !strings.Contains(s.style.Render("test"), "test") {
			t.Errorf("%s style lost its content", s.name)
		}
	}
}

func TestLayoutMode(t *testing.T) {
	theme := NewTheme(ThemeDark)
	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{79, LayoutNarrow},
		{80, LayoutWide},
		{200, LayoutWide},
	}
	for _, tt := range tests {
		theme.SetSize(tt.width, 30)
		if got := theme.GetLayoutMode(); got != tt.want {
			t.Errorf("width %d: GetLayoutMode() = %v, want %v", tt.width, got, tt.want)
		}
	}
}

func TestSeverityIndicator(t *testing.T) {
	tests := []struct {
		sev  incident.Severity
		want string
	}{
		{incident.SeverityCritical, "[!!]"},
		{incident.SeverityHigh, "[! ]"},
		{incident.SeverityMedium, "[~ ]"},
		{incident.SeverityLow, "[. ]"},
		{incident.Severity("Severe"), "[? ]"},
	}
	for _, tt := range tests {
		if got := SeverityIndicator(tt.sev); got != tt.want {
			t.Errorf("SeverityIndicator(%q) = %q, want %q", tt.sev, got, tt.want)
		}
	}
}

func TestRenderSeverityKeepsLabel(t *testing.T) {
	out := RenderSeverity(incident.SeverityCritical)
	if !strings.Contains(out, "Critical") || !strings.Contains(out, "[!!]") {
		t.Errorf("RenderSeverity(Critical) = %q", out)
	}
	if out := RenderSeverity(""); !strings.Contains(out, "Unknown") {
		t.Errorf("RenderSeverity(\"\") = %q", out)
	}
	if SeverityColor(incident.Severity("Severe")) != TextMuted {
		t.Error("unknown severity should be muted")
	}
}
