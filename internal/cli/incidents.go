// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nyawara2025/dubaibankcases/internal/incident"
	"github.com/nyawara2025/dubaibankcases/internal/shell"
	"github.com/nyawara2025/dubaibankcases/internal/ui/styles"
	"github.com/nyawara2025/dubaibankcases/internal/util"
)

// IncidentsData is the --json payload of incidents.
type IncidentsData struct {
	Incidents []incident.Incident `json:"incidents"`
	Stats     incident.Stats      `json:"stats"`
}

func (a *app) newIncidentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "incidents",
		Aliases: []string{"ls"},
		Short:   "List incidents from the secure feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			return outputJSON(cmd.OutOrStdout(), a.jsonOutput, "incidents", func() (any, error) {
				task, ok := rt.Mount(cmd.Context())
				if !ok {
					return nil, errNotSignedIn
				}
				list, err := task.Wait(cmd.Context())
				if err != nil {
					return nil, err
				}
				data := IncidentsData{Incidents: list, Stats: incident.DeriveStats(list)}
				if !a.jsonOutput {
					printIncidents(cmd.OutOrStdout(), data)
				}
				return data, nil
			})
		},
	}
}

func printIncidents(w io.Writer, data IncidentsData) {
	fmt.Fprintf(w, "Active Alerts: %d   Critical: %d\n\n", data.Stats.Active, data.Stats.Critical)
	if len(data.Incidents) == 0 {
		fmt.Fprintln(w, infoStyle.Render("No security breaches detected..."))
		return
	}
	for _, inc := range data.Incidents {
		when := "Live"
		if t, ok := inc.Created(); ok {
			when = t.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			util.PadWidth(styles.SeverityIndicator(inc.Severity)+" "+string(inc.Severity), 14),
			util.PadWidth(util.TruncateWidth(inc.Title, 48), 48),
			util.PadWidth(strings.ToUpper(inc.Status), 14),
			when,
		)
	}
}

func (a *app) newReportCmd() *cobra.Command {
	var report incident.Report
	cmd := &cobra.Command{
		Use:   "report",
		Short: "File a new incident",
		Example: `  socdash report --title "Phishing wave" --severity high
  socdash report --title "Ransomware on FS01" --severity Critical --status Investigating`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			return outputJSON(cmd.OutOrStdout(), a.jsonOutput, "report", func() (any, error) {
				if _, ok := rt.Store().Restore(); !ok {
					return nil, errNotSignedIn
				}
				task, err := rt.SubmitIncident(cmd.Context(), report)
				if errors.Is(err, shell.ErrForbidden) {
					return nil, fmt.Errorf("%w: your role is read-only", err)
				}
				if err != nil {
					return nil, err
				}
				list, err := task.Wait(cmd.Context())
				if err != nil {
					a.log().Warn("refetch after report failed", "error", err)
				}
				n := report.Normalized()
				if !a.jsonOutput {
					fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Alert broadcast: ")+n.Title)
					if err == nil {
						fmt.Fprintln(cmd.OutOrStdout(), infoStyle.Render(fmt.Sprintf("%d incidents on the feed", len(list))))
					}
				}
				return n, nil
			})
		},
	}
	cmd.Flags().StringVarP(&report.Title, "title", "t", "", "incident title (required)")
	cmd.Flags().StringVarP(&report.Severity, "severity", "s", string(incident.SeverityMedium), "Low, Medium, High or Critical")
	cmd.Flags().StringVar(&report.Status, "status", incident.Statuses[0], "initial status")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}
