// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

// Package store provides the persistent-store contract consumed by the
// core, plus its PostgreSQL and in-memory implementations.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrInsufficientFunds is returned by SettlePurchase when the guarded
// balance debit would go negative.
var ErrInsufficientFunds = errors.New("insufficient funds")

// CommunityRecord is a community's persisted configuration row.
type CommunityRecord struct {
	ID            int64
	Prefix        string
	PlantCooldown int64
}

// MemberRecord is a member's persisted row. Created reports that the row
// was inserted by this call, i.e. the member's first-ever appearance.
type MemberRecord struct {
	ID          int64
	CommunityID int64
	ActorID     int64
	Coins       int64
	Created     bool
}

// StorageRow is one item slot of a member's storage.
type StorageRow struct {
	Class     int16
	SpeciesID int16
	Amount    int64
}

// RuleRow is one persisted rule table entry. Scope zero is the
// community-wide default.
type RuleRow struct {
	Scope   int64
	Allowed bool
}

// PlantSettlement groups the durable writes of one successful plant.
type PlantSettlement struct {
	MemberID    int64
	SpeciesID   int16
	ActorID     int64
	ChannelID   int64
	CommunityID int64

	// ConsumeSeedling is false for unlimited storage slots, which are
	// never decremented.
	ConsumeSeedling bool
	// Reward is the coin credit; zero skips the balance write.
	Reward int64
}

// PurchaseSettlement groups the durable writes of one confirmed purchase.
type PurchaseSettlement struct {
	MemberID  int64
	SpeciesID int16
	Cost      int64
	Quantity  int64
}

// StatsScope selects the aggregation window for planted-count queries.
// ChannelID zero means community-wide; ActorID zero means all actors.
type StatsScope struct {
	CommunityID int64
	ChannelID   int64
	ActorID     int64
	Limit       int
}

// SpeciesCount is one row of a planted-count breakdown.
type SpeciesCount struct {
	SpeciesID int16
	Count     int64
	Percent   float64
}

// PlanterRank is one leaderboard row.
type PlanterRank struct {
	ActorID         int64
	Count           int64
	Percent         float64
	FavoriteSpecies int16
	FavoriteChannel int64
}

// ChannelCount is the planted total of one channel.
type ChannelCount struct {
	ChannelID int64
	Count     int64
}

// Store is the persistent-store contract consumed by the core. All calls
// are suspension points; implementations must be safe for concurrent use
// and tolerant of the narrow races described in the cache design
// (idempotent upserts, guarded decrements).
type Store interface {
	// LoadCommunity returns a community row, or ErrNotFound.
	LoadCommunity(ctx context.Context, id int64) (*CommunityRecord, error)
	// InsertDefaultCommunity inserts a default row for an unseen community.
	// Racing inserts converge on the same logical row.
	InsertDefaultCommunity(ctx context.Context, id int64) (*CommunityRecord, error)
	// UpdateCommunityPrefix persists a prefix change.
	UpdateCommunityPrefix(ctx context.Context, id int64, prefix string) error
	// UpdateCommunityCooldown persists a plant cooldown change.
	UpdateCommunityCooldown(ctx context.Context, id int64, seconds int64) error

	// LoadMember returns a member row, or ErrNotFound.
	LoadMember(ctx context.Context, communityID, actorID int64) (*MemberRecord, error)
	// InsertDefaultMember inserts a default row for an unseen member.
	// Racing inserts converge on the same logical row; only the call that
	// actually inserted reports Created.
	InsertDefaultMember(ctx context.Context, communityID, actorID int64) (*MemberRecord, error)
	// LoadStorage returns every storage slot of a member.
	LoadStorage(ctx context.Context, memberID int64) ([]StorageRow, error)
	// SeedStorage inserts the default grants of a newly created member.
	SeedStorage(ctx context.Context, memberID int64, rows []StorageRow) error

	// LoadRules returns the persisted rule rows for one capability,
	// ordered by scope ascending so the global default comes first.
	LoadRules(ctx context.Context, communityID int64, capability int16) ([]RuleRow, error)
	// UpsertRule inserts or replaces one rule row.
	UpsertRule(ctx context.Context, communityID int64, capability int16, scope int64, allowed bool) error
	// DeleteRule removes one rule row (the inherit mutation).
	DeleteRule(ctx context.Context, communityID int64, capability int16, scope int64) error

	// AdjustStorage applies a delta to one storage slot, creating it if
	// absent. With guardNonNegative, decrements only apply while the
	// stored amount is positive.
	AdjustStorage(ctx context.Context, memberID int64, class, speciesID int16, delta int64, guardNonNegative bool) error
	// AdjustBalance applies a delta to a member's coin balance.
	AdjustBalance(ctx context.Context, memberID int64, delta int64) error
	// UpsertPlantCount increments the aggregate planted counter keyed by
	// (species, actor, channel, community).
	UpsertPlantCount(ctx context.Context, speciesID int16, actorID, channelID, communityID, delta int64) error

	// SettlePlant applies one plant's guarded storage decrement, planted
	// count upsert, and optional coin credit in a single transaction.
	SettlePlant(ctx context.Context, s PlantSettlement) error
	// SettlePurchase applies one purchase's guarded balance debit and
	// storage credit in a single transaction. Returns
	// ErrInsufficientFunds without mutation if the debit would go
	// negative.
	SettlePurchase(ctx context.Context, s PurchaseSettlement) error

	// PlantedStats returns a planted-count breakdown by species.
	PlantedStats(ctx context.Context, scope StatsScope) ([]SpeciesCount, error)
	// TopPlanters returns the leaderboard for the scope.
	TopPlanters(ctx context.Context, scope StatsScope) ([]PlanterRank, error)
	// BiggestChannel returns the channel with the highest planted total,
	// or ErrNotFound if nothing was planted yet.
	BiggestChannel(ctx context.Context, communityID int64) (*ChannelCount, error)
}
