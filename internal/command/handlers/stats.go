// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package handlers

import (
	"context"

	"github.com/grovebot/grove/internal/command"
	"github.com/grovebot/grove/internal/game"
	"github.com/grovebot/grove/internal/store"
)

// StatsHandler shows planted-count breakdowns.
// Usage: stats [channel|me]
func StatsHandler(ctx context.Context, exec *command.Execution) error {
	scope := store.StatsScope{CommunityID: exec.CommunityID}
	heading := "Community forest:"
	switch exec.Args {
	case "":
	case "channel":
		scope.ChannelID = exec.ChannelID
		heading = "This channel's forest:"
	case "me":
		scope.ActorID = exec.ActorID
		heading = "Your forest:"
	default:
		return command.ErrInvalidArgs("stats", "stats [channel|me]")
	}

	counts, err := exec.Services.Engine.PlantedStats(ctx, scope)
	if err != nil {
		return command.GameError("Statistics are unavailable right now.", err)
	}
	if len(counts) == 0 {
		writeOutput(ctx, exec, "stats", "Nothing has been planted here yet.")
		return nil
	}

	writeOutput(ctx, exec, "stats", heading)
	var total int64
	for _, row := range counts {
		writeOutputf(ctx, exec, "stats", "  %s %-15s %6d (%.2f%%)\n",
			speciesLabel(row.SpeciesID), speciesName(row.SpeciesID), row.Count, row.Percent)
		total += row.Count
	}
	writeOutputf(ctx, exec, "stats", "Total: %d trees\n", total)
	return nil
}

// LeaderboardHandler shows the community's top planters.
// Usage: leaderboard
func LeaderboardHandler(ctx context.Context, exec *command.Execution) error {
	ranks, err := exec.Services.Engine.TopPlanters(ctx, store.StatsScope{CommunityID: exec.CommunityID})
	if err != nil {
		return command.GameError("The leaderboard is unavailable right now.", err)
	}
	if len(ranks) == 0 {
		writeOutput(ctx, exec, "leaderboard", "Nothing has been planted here yet.")
		return nil
	}

	writeOutput(ctx, exec, "leaderboard", "Top planters:")
	for i, r := range ranks {
		writeOutputf(ctx, exec, "leaderboard", "  %d. <@%d> %d trees (%.2f%%), favorite %s in <#%d>\n",
			i+1, r.ActorID, r.Count, r.Percent, speciesName(r.FavoriteSpecies), r.FavoriteChannel)
	}

	biggest, err := exec.Services.Engine.BiggestChannel(ctx, exec.CommunityID)
	if err != nil {
		return command.GameError("The leaderboard is unavailable right now.", err)
	}
	if biggest != nil {
		writeOutputf(ctx, exec, "leaderboard", "Biggest forest: <#%d> with %d trees\n", biggest.ChannelID, biggest.Count)
	}
	return nil
}

func speciesLabel(id int16) string {
	if s, ok := game.DefaultCatalog().Get(id); ok {
		return s.Emoji
	}
	return "?"
}

func speciesName(id int16) string {
	if s, ok := game.DefaultCatalog().Get(id); ok {
		return s.Name
	}
	return "unknown"
}
