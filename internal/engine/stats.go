// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package engine

import (
	"context"

	"github.com/grovebot/grove/internal/store"
)

// PlantedStats returns the scope's planted totals by species, largest
// first, with percentages of the scope total.
func (e *Engine) PlantedStats(ctx context.Context, scope store.StatsScope) ([]store.SpeciesCount, error) {
	return e.store.PlantedStats(ctx, scope)
}

// TopPlanters returns the scope's leaderboard.
func (e *Engine) TopPlanters(ctx context.Context, scope store.StatsScope) ([]store.PlanterRank, error) {
	return e.store.TopPlanters(ctx, scope)
}

// BiggestChannel returns the community's most-planted channel, or
// store.ErrNotFound when nothing was planted yet.
func (e *Engine) BiggestChannel(ctx context.Context, communityID int64) (*store.ChannelCount, error) {
	return e.store.BiggestChannel(ctx, communityID)
}
