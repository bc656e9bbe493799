// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_MemberLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	_, err := s.LoadMember(ctx, 100, 42)
	require.ErrorIs(t, err, ErrNotFound)

	created, err := s.InsertDefaultMember(ctx, 100, 42)
	require.NoError(t, err)
	assert.True(t, created.Created)

	again, err := s.InsertDefaultMember(ctx, 100, 42)
	require.NoError(t, err)
	assert.False(t, again.Created, "second insert converges on existing row")
	assert.Equal(t, created.ID, again.ID)
}

func TestMemory_SettlePurchase(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	member, err := s.InsertDefaultMember(ctx, 100, 42)
	require.NoError(t, err)
	require.NoError(t, s.AdjustBalance(ctx, member.ID, 30))

	t.Run("insufficient funds leaves nothing written", func(t *testing.T) {
		err := s.SettlePurchase(ctx, PurchaseSettlement{MemberID: member.ID, SpeciesID: 5, Cost: 50, Quantity: 10})
		require.ErrorIs(t, err, ErrInsufficientFunds)

		rec, err := s.LoadMember(ctx, 100, 42)
		require.NoError(t, err)
		assert.Equal(t, int64(30), rec.Coins)
	})

	t.Run("settles debit and pallet credit together", func(t *testing.T) {
		err := s.SettlePurchase(ctx, PurchaseSettlement{MemberID: member.ID, SpeciesID: 4, Cost: 25, Quantity: 20})
		require.NoError(t, err)

		rec, err := s.LoadMember(ctx, 100, 42)
		require.NoError(t, err)
		assert.Equal(t, int64(5), rec.Coins)

		rows, err := s.LoadStorage(ctx, member.ID)
		require.NoError(t, err)
		assert.Equal(t, []StorageRow{{Class: 1, SpeciesID: 4, Amount: 20}}, rows)
	})
}

func TestMemory_SettlePlant(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	member, err := s.InsertDefaultMember(ctx, 100, 42)
	require.NoError(t, err)
	require.NoError(t, s.SeedStorage(ctx, member.ID, []StorageRow{{Class: 2, SpeciesID: 4, Amount: 2}}))

	err = s.SettlePlant(ctx, PlantSettlement{
		MemberID:        member.ID,
		SpeciesID:       4,
		ActorID:         42,
		ChannelID:       555,
		CommunityID:     100,
		ConsumeSeedling: true,
		Reward:          2,
	})
	require.NoError(t, err)

	rows, err := s.LoadStorage(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, []StorageRow{{Class: 2, SpeciesID: 4, Amount: 1}}, rows)

	rec, err := s.LoadMember(ctx, 100, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Coins)
}

func TestMemory_Stats(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.UpsertPlantCount(ctx, 1, 42, 555, 100, 30))
	require.NoError(t, s.UpsertPlantCount(ctx, 4, 42, 555, 100, 10))
	require.NoError(t, s.UpsertPlantCount(ctx, 1, 43, 666, 100, 60))
	require.NoError(t, s.UpsertPlantCount(ctx, 1, 99, 777, 200, 1000))

	t.Run("community breakdown", func(t *testing.T) {
		counts, err := s.PlantedStats(ctx, StatsScope{CommunityID: 100})
		require.NoError(t, err)
		require.Len(t, counts, 2)
		assert.Equal(t, SpeciesCount{SpeciesID: 1, Count: 90, Percent: 90}, counts[0])
		assert.Equal(t, SpeciesCount{SpeciesID: 4, Count: 10, Percent: 10}, counts[1])
	})

	t.Run("channel scope filters", func(t *testing.T) {
		counts, err := s.PlantedStats(ctx, StatsScope{CommunityID: 100, ChannelID: 555})
		require.NoError(t, err)
		require.Len(t, counts, 2)
		assert.Equal(t, int64(30), counts[0].Count)
	})

	t.Run("leaderboard ranks by total with favorite row", func(t *testing.T) {
		ranks, err := s.TopPlanters(ctx, StatsScope{CommunityID: 100})
		require.NoError(t, err)
		require.Len(t, ranks, 2)
		assert.Equal(t, int64(43), ranks[0].ActorID)
		assert.Equal(t, int64(60), ranks[0].Count)
		assert.Equal(t, int16(1), ranks[1].FavoriteSpecies)
		assert.Equal(t, int64(555), ranks[1].FavoriteChannel)
	})

	t.Run("biggest channel", func(t *testing.T) {
		got, err := s.BiggestChannel(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, &ChannelCount{ChannelID: 666, Count: 60}, got)

		_, err = s.BiggestChannel(ctx, 999)
		require.ErrorIs(t, err, ErrNotFound)
	})
}
