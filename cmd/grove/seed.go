// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package main

import (
	"errors"
	"os"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/grovebot/grove/internal/engine"
	"github.com/grovebot/grove/internal/game"
	"github.com/grovebot/grove/internal/store"
)

// NewSeedCmd creates the seed subcommand, which provisions a community row
// ahead of its first chat event.
func NewSeedCmd() *cobra.Command {
	var (
		databaseURL string
		prefix      string
		cooldown    int64
	)

	cmd := &cobra.Command{
		Use:   "seed <community-id>",
		Short: "Provision a community with default settings",
		Long: `Insert a community row with default settings so prefix and cooldown
can be configured before the first chat event arrives. Existing
communities are left untouched except for the requested overrides.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			communityID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return oops.Code("CONFIG_INVALID").Errorf("community id must be an integer, got %q", args[0])
			}
			return runSeed(cmd, databaseURL, communityID, prefix, cooldown)
		},
	}

	cmd.Flags().StringVar(&databaseURL, "database-url", "",
		"PostgreSQL connection string (defaults to DATABASE_URL)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "command prefix override")
	cmd.Flags().Int64Var(&cooldown, "cooldown", -1, "plant cooldown override in seconds")

	return cmd
}

func runSeed(cmd *cobra.Command, databaseURL string, communityID int64, prefix string, cooldown int64) error {
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database URL is required: set --database-url or DATABASE_URL")
	}
	if prefix != "" && (len(prefix) > engine.MaxPrefixLen) {
		return oops.Code("CONFIG_INVALID").
			Errorf("prefix must be 1-%d characters", engine.MaxPrefixLen)
	}
	if cooldown > game.MaxPlantCooldown {
		return oops.Code("CONFIG_INVALID").
			Errorf("cooldown must be between 0 and %d seconds", game.MaxPlantCooldown)
	}

	ctx := cmd.Context()
	pool, err := store.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	pg := store.NewPostgres(pool)

	rec, err := pg.LoadCommunity(ctx, communityID)
	if errors.Is(err, store.ErrNotFound) {
		rec, err = pg.InsertDefaultCommunity(ctx, communityID)
		if err == nil {
			cmd.Printf("Created community %d\n", communityID)
		}
	}
	if err != nil {
		return err
	}

	if prefix != "" && prefix != rec.Prefix {
		if err := pg.UpdateCommunityPrefix(ctx, communityID, prefix); err != nil {
			return err
		}
		cmd.Printf("Prefix set to %q\n", prefix)
		rec.Prefix = prefix
	}
	if cooldown >= 0 && cooldown != rec.PlantCooldown {
		if err := pg.UpdateCommunityCooldown(ctx, communityID, cooldown); err != nil {
			return err
		}
		cmd.Printf("Cooldown set to %d seconds\n", cooldown)
		rec.PlantCooldown = cooldown
	}

	cmd.Printf("Community %d: prefix %q, cooldown %d seconds\n",
		communityID, rec.Prefix, rec.PlantCooldown)
	return nil
}
