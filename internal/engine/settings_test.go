// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovebot/grove/internal/game"
	"github.com/grovebot/grove/internal/store"
)

func TestSetPrefix(t *testing.T) {
	st := store.NewMemory()
	e := newTestEngine(t, st)
	ctx := context.Background()

	t.Run("valid prefix persists", func(t *testing.T) {
		require.NoError(t, e.SetPrefix(ctx, 100, "g!"))

		prefix, err := e.Prefix(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, "g!", prefix)

		rec, err := st.LoadCommunity(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, "g!", rec.Prefix)
	})

	t.Run("rejects empty", func(t *testing.T) {
		assert.Error(t, e.SetPrefix(ctx, 100, ""))
	})

	t.Run("rejects overlong", func(t *testing.T) {
		assert.Error(t, e.SetPrefix(ctx, 100, "0123456789!"))
	})

	t.Run("store failure leaves cache untouched", func(t *testing.T) {
		st.Fail = map[string]error{"UpdateCommunityPrefix": assert.AnError}
		defer func() { st.Fail = nil }()

		require.Error(t, e.SetPrefix(ctx, 100, "x-"))
		prefix, err := e.Prefix(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, "g!", prefix)
	})
}

func TestSetCooldown(t *testing.T) {
	st := store.NewMemory()
	e := newTestEngine(t, st)
	ctx := context.Background()

	tests := []struct {
		name    string
		seconds int64
		wantErr bool
	}{
		{"zero disables", 0, false},
		{"ten minutes", 600, false},
		{"upper bound", 28800, false},
		{"negative", -1, true},
		{"above upper bound", 28801, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.SetCooldown(ctx, 100, tt.seconds)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			rec, err := st.LoadCommunity(ctx, 100)
			require.NoError(t, err)
			assert.Equal(t, tt.seconds, rec.PlantCooldown)
		})
	}
}

func TestSetRule_CommandGating(t *testing.T) {
	e := newTestEngine(t, store.NewMemory())
	ctx := context.Background()

	allowed, err := e.CommandAllowed(ctx, 100, 555)
	require.NoError(t, err)
	assert.True(t, allowed, "commands default to allowed everywhere")

	// Community-wide deny flips the default for every channel.
	require.NoError(t, e.SetRule(ctx, 100, game.CapCommand, game.ScopeCommunity, game.Deny))
	allowed, err = e.CommandAllowed(ctx, 100, 555)
	require.NoError(t, err)
	assert.False(t, allowed)

	// A channel override punches through the community default.
	require.NoError(t, e.SetRule(ctx, 100, game.CapCommand, 555, game.Allow))
	allowed, err = e.CommandAllowed(ctx, 100, 555)
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, err = e.CommandAllowed(ctx, 100, 666)
	require.NoError(t, err)
	assert.False(t, allowed, "other channels keep the community default")

	// Inherit drops the override so the channel follows the community again.
	require.NoError(t, e.SetRule(ctx, 100, game.CapCommand, 555, game.Inherit))
	allowed, err = e.CommandAllowed(ctx, 100, 555)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestSetRule_SurvivesReload(t *testing.T) {
	st := store.NewMemory()
	e := newTestEngine(t, st)
	ctx := context.Background()

	require.NoError(t, e.SetRule(ctx, 100, game.CapGrowth, 555, game.Deny))
	require.NoError(t, e.SetRule(ctx, 100, game.CapCommand, game.ScopeCommunity, game.Deny))

	// A second engine sharing the store rebuilds the same rule tables.
	e2 := newTestEngine(t, st)

	res, err := e2.HandlePlant(ctx, Message{CommunityID: 100, ChannelID: 555, ActorID: 42, Content: "🌲"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDenied, res.Outcome)

	allowed, err := e2.CommandAllowed(ctx, 100, 666)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCommunitySettings(t *testing.T) {
	e := newTestEngine(t, store.NewMemory())
	ctx := context.Background()

	require.NoError(t, e.SetPrefix(ctx, 100, "g-"))
	require.NoError(t, e.SetCooldown(ctx, 100, 900))
	require.NoError(t, e.SetRule(ctx, 100, game.CapGrowth, 555, game.Deny))

	s, err := e.CommunitySettings(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "g-", s.Prefix)
	assert.Equal(t, int64(900), s.PlantCooldown)
	allowed, ok := s.GrowthOverrides[555]
	require.True(t, ok)
	assert.False(t, allowed)
	assert.Empty(t, s.CommandOverrides)
}

func TestMemberState(t *testing.T) {
	e := newTestEngine(t, store.NewMemory())
	ctx := context.Background()

	// Fetching state for a new member seeds the default grants.
	overview, err := e.MemberState(ctx, 100, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), overview.Coins)
	require.Len(t, overview.Storage, 5)

	want := map[string]int64{
		"Evergreen Tree": game.QtyUnlimited,
		"Deciduous Tree": 50,
		"Palm Tree":      30,
		"Cactus":         20,
		"Bamboo":         10,
	}
	for _, slot := range overview.Storage {
		assert.Equal(t, game.ItemSeedling, slot.Class)
		assert.Equal(t, want[slot.Species.Name], slot.Amount, slot.Species.Name)
	}
}
