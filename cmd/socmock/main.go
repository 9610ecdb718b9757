// socmock - local stand-in for the SOC webhook service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/nyawara2025/dubaibankcases/internal/logging"
	"github.com/nyawara2025/dubaibankcases/internal/mockbackend"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile  string
		addr     string
		logLevel string
	)
	cmd := &cobra.Command{
		Use:   "socmock",
		Short: "Serve a local stand-in for the SOC webhook service",
		Long: `socmock serves the login, incident and chat routes socdash talks to.

Point socdash at it with:
  SOCDASH_BASE_URL=http://localhost:8088 socdash`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := mockbackend.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			log := logging.NewWriter(os.Stderr, logLevel)
			gin.SetMode(gin.ReleaseMode)

			store, err := mockbackend.OpenStore(cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := store.Seed(ctx, cfg); err != nil {
				return err
			}
			return mockbackend.New(cfg, store, log).Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	return cmd
}
