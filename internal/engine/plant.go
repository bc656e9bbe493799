// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/grovebot/grove/internal/cache"
	"github.com/grovebot/grove/internal/cooldown"
	"github.com/grovebot/grove/internal/game"
	"github.com/grovebot/grove/internal/store"
	"github.com/grovebot/grove/internal/trigger"
)

// Message is an inbound chat message, reduced to what resolution needs.
type Message struct {
	CommunityID int64
	ChannelID   int64
	ActorID     int64
	Content     string
}

// PlantResult reports a resolved plant trigger.
type PlantResult struct {
	Outcome Outcome
	Species game.Species
	// Remaining is the seedling count left after a successful plant,
	// game.QtyUnlimited for unlimited slots.
	Remaining int64
	// Reward is the coins credited on success.
	Reward int64
}

// HandlePlant resolves a message as a plant trigger: emoji classification,
// growth rule check, member fetch, cooldown gate, seedling consumption,
// then one durable settlement. Non-triggering messages resolve to
// OutcomeIgnored cheaply, before any store round trip for known
// communities.
func (e *Engine) HandlePlant(ctx context.Context, msg Message) (PlantResult, error) {
	tok := trigger.Classify(msg.Content)
	if tok.Kind == trigger.KindNone {
		return PlantResult{Outcome: OutcomeIgnored}, nil
	}

	ctx, span := e.tracer.Start(ctx, "engine.HandlePlant")
	defer span.End()
	start := time.Now()
	defer func() { PlantDuration.Observe(time.Since(start).Seconds()) }()

	community, err := e.communities.FetchOrCreate(ctx, msg.CommunityID)
	if err != nil {
		return e.plantFailed(msg, err)
	}

	var species game.Species
	var ok bool
	if tok.Kind == trigger.KindCustom {
		species, ok = community.Catalog.ByCustomName(tok.Literal)
	} else {
		species, ok = community.Catalog.ByEmoji(tok.Literal)
	}
	if !ok {
		return PlantResult{Outcome: OutcomeIgnored}, nil
	}
	span.SetAttributes(attribute.String("species", species.Name))

	var allowed bool
	var cooldownSecs int64
	e.communities.View(msg.CommunityID, func(c *cache.Community) {
		allowed = c.GrowthRules.Check(msg.ChannelID)
		cooldownSecs = c.PlantCooldown
	})
	if !allowed {
		PlantOutcomes.WithLabelValues(OutcomeDenied.String()).Inc()
		return PlantResult{Outcome: OutcomeDenied, Species: species}, nil
	}

	if _, err := e.member(ctx, community, msg.ActorID); err != nil {
		return e.plantFailed(msg, err)
	}

	key := cooldown.Key{CommunityID: msg.CommunityID, ActorID: msg.ActorID}
	if !e.cooldowns.CheckAndTouch(key, time.Now(), time.Duration(cooldownSecs)*time.Second) {
		PlantOutcomes.WithLabelValues(OutcomeCooldownActive.String()).Inc()
		return PlantResult{Outcome: OutcomeCooldownActive, Species: species}, nil
	}

	var memberID int64
	consumed := false
	remaining := int64(0)
	community.Members.Mutate(msg.ActorID, func(m *game.Member) {
		memberID = m.ID
		consumed = m.Consume(game.ItemSeedling, species.ID)
		if consumed {
			remaining = m.Quantity(game.ItemKey{Class: game.ItemSeedling, SpeciesID: species.ID})
			if species.Reward > 0 {
				m.Coins += species.Reward
			}
		}
	})
	if !consumed {
		PlantOutcomes.WithLabelValues(OutcomeMissingMaterial.String()).Inc()
		return PlantResult{Outcome: OutcomeMissingMaterial, Species: species}, nil
	}

	err = e.store.SettlePlant(ctx, store.PlantSettlement{
		MemberID:        memberID,
		SpeciesID:       species.ID,
		ActorID:         msg.ActorID,
		ChannelID:       msg.ChannelID,
		CommunityID:     msg.CommunityID,
		ConsumeSeedling: remaining != game.QtyUnlimited,
		Reward:          species.Reward,
	})
	if err != nil {
		// Undo the cached consumption so a retry costs nothing extra.
		community.Members.Mutate(msg.ActorID, func(m *game.Member) {
			if remaining != game.QtyUnlimited {
				m.Grant(game.ItemSeedling, species.ID, 1)
			}
			if species.Reward > 0 {
				m.Coins -= species.Reward
			}
		})
		return e.plantFailed(msg, err)
	}

	PlantOutcomes.WithLabelValues(OutcomePlanted.String()).Inc()
	return PlantResult{
		Outcome:   OutcomePlanted,
		Species:   species,
		Remaining: remaining,
		Reward:    species.Reward,
	}, nil
}

func (e *Engine) plantFailed(msg Message, err error) (PlantResult, error) {
	PlantOutcomes.WithLabelValues(OutcomeDataUnavailable.String()).Inc()
	e.log.Error("plant resolution failed",
		"community_id", msg.CommunityID,
		"channel_id", msg.ChannelID,
		"actor_id", msg.ActorID,
		"error", err)
	return PlantResult{Outcome: OutcomeDataUnavailable}, err
}
