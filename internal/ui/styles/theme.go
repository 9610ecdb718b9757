// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by NewTheme.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeAuto  = "auto"
)

// Theme holds all the styled components for the dashboard.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Chrome
	App        lipgloss.Style
	Header     lipgloss.Style
	Brand      lipgloss.Style
	Subtle     lipgloss.Style
	Muted      lipgloss.Style
	ErrorText  lipgloss.Style
	StatusBar  lipgloss.Style
	KeyHint    lipgloss.Style
	KeyHintKey lipgloss.Style

	// Login
	LoginBox      lipgloss.Style
	LoginTitle    lipgloss.Style
	FieldLabel    lipgloss.Style
	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	ButtonBusy    lipgloss.Style

	// Sidebar
	Sidebar   lipgloss.Style
	Tab       lipgloss.Style
	TabActive lipgloss.Style
	UserBadge lipgloss.Style

	// Incidents
	StatCard      lipgloss.Style
	StatLabel     lipgloss.Style
	StatValue     lipgloss.Style
	StatCritical  lipgloss.Style
	StatHealthy   lipgloss.Style
	IncidentRow   lipgloss.Style
	IncidentTitle lipgloss.Style
	IncidentMeta  lipgloss.Style
	Placeholder   lipgloss.Style

	// Chat
	UserBubble lipgloss.Style
	BankBubble lipgloss.Style
	ChatInput  lipgloss.Style

	// Modal
	Modal         lipgloss.Style
	ModalTitle    lipgloss.Style
	Choice        lipgloss.Style
	ChoiceActive  lipgloss.Style
	ChoiceFocused lipgloss.Style
}

// NewTheme creates a theme. name is dark, light or auto; auto keeps the
// terminal's detected background.
func NewTheme(name string) *Theme {
	profile := termenv.ColorProfile()
	isDark := termenv.HasDarkBackground()
	switch name {
	case ThemeDark:
		isDark = true
	case ThemeLight:
		isDark = false
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{IsDark: isDark, ColorProfile: profile}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle()

	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		Padding(0, 1)

	t.Brand = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.Subtle = lipgloss.NewStyle().Foreground(TextSecondary)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.ErrorText = lipgloss.NewStyle().Foreground(Rose).Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.KeyHint = lipgloss.NewStyle().Foreground(TextMuted)
	t.KeyHintKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	// Login
	t.LoginBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(1, 3).
		Width(48)
	t.LoginTitle = lipgloss.NewStyle().Bold(true).Foreground(Cyan).MarginBottom(1)
	t.FieldLabel = lipgloss.NewStyle().Foreground(TextSecondary)
	t.Button = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SurfaceBright).
		Padding(0, 2)
	t.ButtonFocused = t.Button.
		Foreground(TextInverse).
		Background(Cyan).
		Bold(true)
	t.ButtonBusy = t.Button.
		Foreground(TextMuted).
		Italic(true)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(0, 1).
		Width(24)
	t.Tab = lipgloss.NewStyle().Foreground(TextSecondary).PaddingLeft(2)
	t.TabActive = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(Cyan).
		PaddingLeft(1)
	t.UserBadge = lipgloss.NewStyle().Foreground(TextMuted).MarginTop(1)

	// Incidents
	t.StatCard = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 2).
		Width(20)
	t.StatLabel = lipgloss.NewStyle().Foreground(TextSecondary)
	t.StatValue = lipgloss.NewStyle().Foreground(TextPrimary).Bold(true)
	t.StatCritical = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.StatHealthy = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.IncidentRow = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay)
	t.IncidentTitle = lipgloss.NewStyle().Foreground(TextPrimary).Bold(true)
	t.IncidentMeta = lipgloss.NewStyle().Foreground(TextMuted)
	t.Placeholder = lipgloss.NewStyle().
		Foreground(Amber).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Amber).
		Padding(1, 4).
		Align(lipgloss.Center)

	// Chat
	t.UserBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(0, 1)
	t.BankBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)
	t.ChatInput = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay)

	// Modal
	t.Modal = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Cyan).
		Padding(1, 2).
		Width(56)
	t.ModalTitle = lipgloss.NewStyle().Bold(true).Foreground(Cyan).MarginBottom(1)
	t.Choice = lipgloss.NewStyle().Foreground(TextSecondary).Padding(0, 1)
	t.ChoiceActive = lipgloss.NewStyle().Foreground(TextInverse).Background(Cyan).Padding(0, 1)
	t.ChoiceFocused = t.ChoiceActive.Bold(true).Underline(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 80 columns, sidebar collapsed
	LayoutWide
)

// GetLayoutMode returns the layout mode for the current width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 80 {
		return LayoutNarrow
	}
	return LayoutWide
}
