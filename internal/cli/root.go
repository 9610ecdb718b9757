// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/nyawara2025/dubaibankcases/internal/config"
	"github.com/nyawara2025/dubaibankcases/internal/logging"
	"github.com/nyawara2025/dubaibankcases/internal/shell"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// app carries per-invocation state shared by every subcommand.
type app struct {
	cfgFile    string
	jsonOutput bool
	verbose    bool

	cfg    *config.Config
	logger *logging.Logger

	// stdin is the command's input, set from cmd.InOrStdin during setup.
	stdin io.Reader
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "socdash",
		Short: "SOC Command - terminal dashboard for security incidents",
		Long: `socdash is a terminal client for the SOC incident service.

Quick Start:
  socdash                      # Open the dashboard
  socdash login --user alice   # Sign in from the command line
  socdash incidents            # List incidents
  socdash chat                 # Talk to the Command Center

Configuration lives in ~/.socdash/config.toml (override with SOCDASH_HOME).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default ~/.socdash/config.toml)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format (machine-readable)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		a.newLoginCmd(),
		a.newLogoutCmd(),
		a.newWhoamiCmd(),
		a.newIncidentsCmd(),
		a.newReportCmd(),
		a.newChatCmd(),
		a.newConfigCmd(),
		newVersionCmd(a),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		if !jsonRequested(root) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

func jsonRequested(root *cobra.Command) bool {
	f := root.PersistentFlags().Lookup("json")
	return f != nil && f.Value.String() == "true"
}

// setup loads configuration and opens the logger.
func (a *app) setup(cmd *cobra.Command) error {
	a.stdin = cmd.InOrStdin()

	var (
		cfg *config.Config
		err error
	)
	if a.cfgFile != "" {
		cfg, err = config.LoadFromPath(a.cfgFile)
		if err != nil {
			return err
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return err
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (using defaults)\n", err)
		}
	}
	a.cfg = cfg

	logPath, err := cfg.LogPath()
	if err != nil {
		logPath = ""
	}
	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	a.logger, err = logging.New(logging.Options{
		Level:      level,
		File:       logPath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Console:    a.verbose,
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: logging disabled: %v\n", err)
		a.logger = &logging.Logger{Logger: logging.Discard()}
	}
	a.logger.Debug("command start", "cmd", cmd.CommandPath(), "go", runtime.Version())
	return nil
}

func (a *app) log() *slog.Logger {
	if a.logger == nil {
		return logging.Discard()
	}
	return a.logger.Logger
}

// openRuntime wires the shell from the loaded config. Callers must Close it.
func (a *app) openRuntime() (*shell.Runtime, error) {
	return shell.Open(a.cfg, a.log())
}
