// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nyawara2025/dubaibankcases/internal/incident"
	"github.com/nyawara2025/dubaibankcases/internal/nav"
	"github.com/nyawara2025/dubaibankcases/internal/shell"
	"github.com/nyawara2025/dubaibankcases/internal/ui/styles"
	"github.com/nyawara2025/dubaibankcases/internal/util"
)

// Fixed dashboard texts.
const (
	TextLoading     = "Decrypting Secure Feed..."
	TextEmpty       = "No security breaches detected..."
	TextOffline     = "OFFLINE"
	TextLive        = "Live"
	ShieldStatus    = "98%"
	maintenanceText = "The %s module is currently under maintenance"
)

// MaintenanceText returns the placeholder line for a tab that is not built.
func MaintenanceText(t nav.Tab) string {
	return fmt.Sprintf(maintenanceText, string(t))
}

func widthOf(s string) int { return lipgloss.Width(s) }

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = pad + lines[i]
	}
	return strings.Join(lines, "\n")
}

func renderSidebar(theme *styles.Theme, snap shell.Snapshot, compact bool) string {
	var b strings.Builder
	b.WriteString(theme.Brand.Render("SOC COMMAND"))
	b.WriteString("\n\n")
	for i, info := range nav.Tabs() {
		label := info.Label
		if compact {
			label = fmt.Sprintf("%d", i+1)
		}
		if info.Tab == snap.Tab {
			b.WriteString(theme.TabActive.Render(label))
		} else {
			b.WriteString(theme.Tab.Render(label))
		}
		b.WriteString("\n")
	}
	if !compact {
		b.WriteString(theme.UserBadge.Render(fmt.Sprintf("%s\n%s", snap.User.Name, strings.ToUpper(snap.User.Role))))
	}
	style := theme.Sidebar
	if compact {
		style = style.Width(6)
	}
	return style.Render(b.String())
}

func renderStatCard(theme *styles.Theme, label, value string, valueStyle lipgloss.Style) string {
	return theme.StatCard.Render(theme.StatLabel.Render(strings.ToUpper(label)) + "\n" + valueStyle.Render(value))
}

func renderIncidents(theme *styles.Theme, snap shell.Snapshot, width int) string {
	var b strings.Builder

	header := theme.IncidentTitle.Render("SECURITY INCIDENTS")
	sub := theme.Subtle.Render(fmt.Sprintf("%s • ACTIVE COMMAND SESSION", snap.User.Name))
	b.WriteString(header + "\n" + sub + "\n\n")

	critical := theme.StatValue
	if snap.Stats.Critical > 0 {
		critical = theme.StatCritical
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		renderStatCard(theme, "Active Alerts", fmt.Sprint(snap.Stats.Active), theme.StatValue),
		renderStatCard(theme, "Critical", fmt.Sprint(snap.Stats.Critical), critical),
		renderStatCard(theme, "Shield Status", ShieldStatus, theme.StatHealthy),
	)
	b.WriteString(cards + "\n\n")

	switch {
	case snap.Loading:
		b.WriteString(theme.Muted.Render(TextLoading))
	case len(snap.Incidents) == 0:
		b.WriteString(theme.Muted.Render(TextEmpty))
	default:
		for _, inc := range snap.Incidents {
			b.WriteString(renderIncidentRow(theme, inc, width))
			b.WriteString("\n")
		}
	}
	if snap.FetchErr != nil {
		b.WriteString("\n")
		b.WriteString(theme.ErrorText.Render("Feed sync failed; showing last known incidents."))
	}
	return b.String()
}

func renderIncidentRow(theme *styles.Theme, inc incident.Incident, width int) string {
	when := TextLive
	if t, ok := inc.Created(); ok {
		when = t.Local().Format("15:04:05")
	}
	titleWidth := width - 30
	if titleWidth < 12 {
		titleWidth = 12
	}
	left := theme.IncidentTitle.Render(util.TruncateWidth(inc.Title, titleWidth)) + "\n" +
		theme.IncidentMeta.Render(when+" • Local Terminal")
	right := styles.RenderSeverity(inc.Severity) + "  " + theme.Subtle.Render(strings.ToUpper(inc.Status))
	gap := width - widthOf(left) - widthOf(right)
	if gap < 2 {
		gap = 2
	}
	return theme.IncidentRow.Render(lipgloss.JoinHorizontal(lipgloss.Top, left, strings.Repeat(" ", gap), right))
}

func renderPlaceholder(theme *styles.Theme, t nav.Tab, width int) string {
	box := theme.Placeholder.Render(TextOffline + "\n\n" + MaintenanceText(t))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, box)
}
