// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

// Package engine is the action resolver: it turns inbound chat events into
// rule checks, cached-aggregate mutations, and durable store writes.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/grovebot/grove/internal/cache"
	"github.com/grovebot/grove/internal/cooldown"
	"github.com/grovebot/grove/internal/game"
	"github.com/grovebot/grove/internal/store"
	"github.com/grovebot/grove/internal/workflow"
)

// Config configures an Engine.
type Config struct {
	Store store.Store

	// PurchaseTimeout overrides the pending-purchase window. Zero keeps
	// workflow.DefaultTimeout.
	PurchaseTimeout time.Duration

	// Cooldown configures the tracker's housekeeping.
	Cooldown cooldown.TrackerConfig

	// Registry receives cache, cooldown, and engine metrics when non-nil.
	Registry prometheus.Registerer

	Logger *slog.Logger

	// OnPurchaseTimeout is invoked after a pending purchase times out, so
	// the transport can notify the buyer. Runs outside engine locks.
	OnPurchaseTimeout func(id ulid.ULID, buyerID int64)
}

// Engine owns the in-memory game state of every active community and
// coordinates it with the persistent store. One Engine per process; it is
// the unique writer of cached state.
type Engine struct {
	store       store.Store
	communities *cache.Communities
	cooldowns   *cooldown.Tracker
	purchases   *workflow.Manager
	log         *slog.Logger
	tracer      trace.Tracer
}

// New creates an Engine. Call Close to stop its background goroutines.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	e := &Engine{
		store:  cfg.Store,
		log:    log,
		tracer: otel.Tracer("grove/engine"),
	}

	if cfg.Registry != nil {
		e.communities = cache.NewCommunitiesWithRegistry(e.loadCommunity, e.loadMember, cfg.Registry)
		e.cooldowns = cooldown.NewTrackerWithRegistry(cfg.Cooldown, cfg.Registry)
	} else {
		e.communities = cache.NewCommunities(e.loadCommunity, e.loadMember)
		e.cooldowns = cooldown.NewTracker(cfg.Cooldown)
	}

	opts := []workflow.Option{
		workflow.WithTimeoutHook(func(id ulid.ULID, buyerID int64) {
			PurchaseOutcomes.WithLabelValues(workflow.StateTimedOut.String()).Inc()
			log.Info("purchase timed out", "purchase_id", id.String(), "buyer_id", buyerID)
			if cfg.OnPurchaseTimeout != nil {
				cfg.OnPurchaseTimeout(id, buyerID)
			}
		}),
	}
	if cfg.PurchaseTimeout > 0 {
		opts = append(opts, workflow.WithTimeout(cfg.PurchaseTimeout))
	}
	e.purchases = workflow.NewManager(opts...)

	return e
}

// Close stops background goroutines: pending purchase timers and the
// cooldown sweeper.
func (e *Engine) Close() {
	e.purchases.Close()
	e.cooldowns.Close()
}

// Community returns the cached community aggregate, loading it on first use.
func (e *Engine) Community(ctx context.Context, id int64) (*cache.Community, error) {
	return e.communities.FetchOrCreate(ctx, id)
}

// SweepCaches evicts communities idle longer than maxAge and returns how
// many were removed. A maxAge of zero disables eviction.
func (e *Engine) SweepCaches(now time.Time, maxAge time.Duration) int {
	return e.communities.Sweep(now, maxAge)
}

// loadCommunity assembles a community aggregate from the store, creating
// the default row on first-ever sight and applying persisted rule rows.
func (e *Engine) loadCommunity(ctx context.Context, id int64) (*game.Community, error) {
	rec, err := e.store.LoadCommunity(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		rec, err = e.store.InsertDefaultCommunity(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	c := game.NewCommunity(rec.ID)
	c.Prefix = rec.Prefix
	c.PlantCooldown = rec.PlantCooldown

	for _, capability := range []game.Capability{game.CapGrowth, game.CapCommand} {
		rows, err := e.store.LoadRules(ctx, id, int16(capability))
		if err != nil {
			return nil, err
		}
		rules := c.Rules(capability)
		for _, row := range rows {
			if row.Scope == game.ScopeCommunity {
				rules.Global = row.Allowed
			} else {
				rules.Channels[row.Scope] = row.Allowed
			}
		}
	}

	return c, nil
}

// loadMember assembles a member aggregate from the store, creating the
// default row on first-ever sight. Default seedling grants for new members
// are applied later, under the member cache's write section.
func (e *Engine) loadMember(ctx context.Context, communityID, actorID int64) (*game.Member, error) {
	rec, err := e.store.LoadMember(ctx, communityID, actorID)
	if errors.Is(err, store.ErrNotFound) {
		rec, err = e.store.InsertDefaultMember(ctx, communityID, actorID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := e.store.LoadStorage(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	storage := make(map[game.ItemKey]int64, len(rows))
	for _, row := range rows {
		storage[game.ItemKey{Class: game.ItemClass(row.Class), SpeciesID: row.SpeciesID}] = row.Amount
	}

	return game.NewMember(rec.ID, rec.CommunityID, rec.ActorID, rec.Coins, storage, rec.Created), nil
}

// member returns the cached member, loading and default-seeding it on
// first use.
func (e *Engine) member(ctx context.Context, community *cache.Community, actorID int64) (*game.Member, error) {
	m, err := community.Members.FetchOrCreate(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := e.seedIfNew(ctx, community, actorID); err != nil {
		return nil, err
	}
	return m, nil
}

// seedIfNew grants a first-ever member each species' default seedlings,
// durably first, then in memory under the write section. The member stays
// new until the durable write lands, so a failed seed is retried on the
// next action; the upsert makes the retry idempotent.
func (e *Engine) seedIfNew(ctx context.Context, community *cache.Community, actorID int64) error {
	var memberID int64
	isNew := false
	community.Members.View(actorID, func(m *game.Member) {
		isNew = m.IsNew()
		memberID = m.ID
	})
	if !isNew {
		return nil
	}

	var seedRows []store.StorageRow
	for _, sp := range community.Catalog.All() {
		if sp.DefaultQty == 0 {
			continue
		}
		seedRows = append(seedRows, store.StorageRow{
			Class:     int16(game.ItemSeedling),
			SpeciesID: sp.ID,
			Amount:    sp.DefaultQty,
		})
	}

	if err := e.store.SeedStorage(ctx, memberID, seedRows); err != nil {
		e.log.Error("seeding default storage failed", "member_id", memberID, "error", err)
		return err
	}

	community.Members.Mutate(actorID, func(m *game.Member) {
		if !m.IsNew() {
			return
		}
		for _, row := range seedRows {
			m.Grant(game.ItemClass(row.Class), row.SpeciesID, row.Amount)
		}
		m.MarkSeeded()
	})
	return nil
}
