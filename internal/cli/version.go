// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// VersionData is the --json payload of version.
type VersionData struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			data := VersionData{
				Version:   Version,
				Commit:    GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
				Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
			}
			return outputJSON(cmd.OutOrStdout(), a.jsonOutput, "version", func() (any, error) {
				if !a.jsonOutput {
					fmt.Fprintf(cmd.OutOrStdout(), "socdash %s (%s, built %s) %s %s\n",
						data.Version, data.Commit, data.BuildDate, data.GoVersion, data.Platform)
				}
				return data, nil
			})
		},
	}
}
