// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the socdash dashboard.

All colors use Lip Gloss AdaptiveColor so the same palette works on dark and
light terminals.

# Color System (colors.go)

  - Cyan - Brand color, active tab, operator chat bubbles
  - Purple - Command Center chat bubbles
  - Emerald - Healthy states
  - Rose, Orange, Amber, Sky - Critical, High, Medium and Low severity

Severity is never shown by color alone: RenderSeverity prefixes an ASCII
marker ([!!], [! ], [~ ], [. ]).

# Theme (theme.go)

NewTheme takes the configured theme name (dark, light or auto) and builds
every lipgloss.Style the dashboard uses. GetLayoutMode collapses the sidebar
on narrow terminals.

	theme := styles.NewTheme(cfg.UI.Theme)
	theme.SetSize(msg.Width, msg.Height)
*/
package styles
