// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Grove CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grove",
		Short: "Grove - a community tree-planting game core",
		Long: `Grove is the state-coordination core of a community tree-planting
game: it resolves planting triggers, purchases, and per-community rules
against an in-memory cache backed by PostgreSQL.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())

	return cmd
}
