// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package engine

import (
	"context"
	"sort"

	"github.com/samber/oops"

	"github.com/grovebot/grove/internal/cache"
	"github.com/grovebot/grove/internal/game"
)

// MaxPrefixLen bounds configurable command prefixes.
const MaxPrefixLen = 10

// Settings is a point-in-time copy of a community's configuration, safe to
// render without holding any lock.
type Settings struct {
	Prefix           string
	PlantCooldown    int64
	GrowthGlobal     bool
	GrowthOverrides  map[int64]bool
	CommandGlobal    bool
	CommandOverrides map[int64]bool
}

// CommunitySettings returns a copy of the community's configuration.
func (e *Engine) CommunitySettings(ctx context.Context, communityID int64) (Settings, error) {
	if _, err := e.communities.FetchOrCreate(ctx, communityID); err != nil {
		return Settings{}, err
	}

	var s Settings
	e.communities.View(communityID, func(c *cache.Community) {
		s.Prefix = c.Prefix
		s.PlantCooldown = c.PlantCooldown
		s.GrowthGlobal = c.GrowthRules.Global
		s.GrowthOverrides = copyOverrides(c.GrowthRules.Channels)
		s.CommandGlobal = c.CommandRules.Global
		s.CommandOverrides = copyOverrides(c.CommandRules.Channels)
	})
	return s, nil
}

func copyOverrides(src map[int64]bool) map[int64]bool {
	dst := make(map[int64]bool, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// SetPrefix validates and persists a new command prefix, then applies it
// to the cached aggregate.
func (e *Engine) SetPrefix(ctx context.Context, communityID int64, prefix string) error {
	if prefix == "" || len(prefix) > MaxPrefixLen {
		return oops.Code("INVALID_PREFIX").
			With("prefix", prefix).
			Errorf("prefix must be 1-%d characters", MaxPrefixLen)
	}

	if _, err := e.communities.FetchOrCreate(ctx, communityID); err != nil {
		return err
	}
	if err := e.store.UpdateCommunityPrefix(ctx, communityID, prefix); err != nil {
		return err
	}
	e.communities.Mutate(communityID, func(c *cache.Community) {
		c.Prefix = prefix
	})
	return nil
}

// SetCooldown validates and persists a new plant cooldown, then applies it
// to the cached aggregate.
func (e *Engine) SetCooldown(ctx context.Context, communityID int64, seconds int64) error {
	if !game.ValidCooldown(seconds) {
		return oops.Code("INVALID_COOLDOWN").
			With("seconds", seconds).
			Errorf("cooldown must be between %d and %d seconds", game.MinPlantCooldown, game.MaxPlantCooldown)
	}

	if _, err := e.communities.FetchOrCreate(ctx, communityID); err != nil {
		return err
	}
	if err := e.store.UpdateCommunityCooldown(ctx, communityID, seconds); err != nil {
		return err
	}
	e.communities.Mutate(communityID, func(c *cache.Community) {
		c.PlantCooldown = seconds
	})
	return nil
}

// SetRule applies a rule mutation: the durable write first, then the
// matching in-memory change. Community scope updates the global default
// row; channel scope upserts an override, or deletes it for Inherit.
func (e *Engine) SetRule(ctx context.Context, communityID int64, capability game.Capability, scope int64, a game.Allowance) error {
	if capability != game.CapGrowth && capability != game.CapCommand {
		return oops.Code("INVALID_CAPABILITY").With("capability", capability).Errorf("unknown capability")
	}

	if _, err := e.communities.FetchOrCreate(ctx, communityID); err != nil {
		return err
	}

	var err error
	switch {
	case scope == game.ScopeCommunity:
		allowed := a != game.Deny
		err = e.store.UpsertRule(ctx, communityID, int16(capability), game.ScopeCommunity, allowed)
	case a == game.Inherit:
		err = e.store.DeleteRule(ctx, communityID, int16(capability), scope)
	default:
		err = e.store.UpsertRule(ctx, communityID, int16(capability), scope, a == game.Allow)
	}
	if err != nil {
		return err
	}

	e.communities.Mutate(communityID, func(c *cache.Community) {
		c.Rules(capability).Set(scope, a)
	})
	return nil
}

// CommandAllowed reports whether commands may run in the channel.
func (e *Engine) CommandAllowed(ctx context.Context, communityID, channelID int64) (bool, error) {
	if _, err := e.communities.FetchOrCreate(ctx, communityID); err != nil {
		return false, err
	}
	allowed := false
	e.communities.View(communityID, func(c *cache.Community) {
		allowed = c.CommandRules.Check(channelID)
	})
	return allowed, nil
}

// Prefix returns the community's command prefix.
func (e *Engine) Prefix(ctx context.Context, communityID int64) (string, error) {
	if _, err := e.communities.FetchOrCreate(ctx, communityID); err != nil {
		return "", err
	}
	prefix := game.DefaultPrefix
	e.communities.View(communityID, func(c *cache.Community) {
		prefix = c.Prefix
	})
	return prefix, nil
}

// StorageSlot is one rendered line of a member's storage.
type StorageSlot struct {
	Species game.Species
	Class   game.ItemClass
	Amount  int64
}

// MemberOverview is a point-in-time copy of a member's economic state.
type MemberOverview struct {
	Coins   int64
	Storage []StorageSlot
}

// MemberState returns a copy of the member's balance and storage, loading
// and default-seeding the member on first use. Slots are ordered by class
// then species for stable rendering.
func (e *Engine) MemberState(ctx context.Context, communityID, actorID int64) (MemberOverview, error) {
	community, err := e.communities.FetchOrCreate(ctx, communityID)
	if err != nil {
		return MemberOverview{}, err
	}
	if _, err := e.member(ctx, community, actorID); err != nil {
		return MemberOverview{}, err
	}

	var out MemberOverview
	community.Members.View(actorID, func(m *game.Member) {
		out.Coins = m.Coins
		for key, amount := range m.Storage {
			species, ok := community.Catalog.Get(key.SpeciesID)
			if !ok || amount == 0 {
				continue
			}
			out.Storage = append(out.Storage, StorageSlot{
				Species: species,
				Class:   key.Class,
				Amount:  amount,
			})
		}
	})
	sort.Slice(out.Storage, func(i, j int) bool {
		if out.Storage[i].Class != out.Storage[j].Class {
			return out.Storage[i].Class < out.Storage[j].Class
		}
		return out.Storage[i].Species.ID < out.Storage[j].Species.ID
	})
	return out, nil
}
