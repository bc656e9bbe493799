// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

// Package cache is the two-tier lazy entity cache: community aggregates
// keyed by community id, each owning a nested member cache keyed by actor
// id. Entries are loaded from the persistent store on first use and served
// from memory afterwards; this process is the unique in-memory owner of a
// community's state.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/grovebot/grove/internal/game"
)

// CommunityLoader fetches a community aggregate from the persistent store,
// inserting a default row on first-ever sight. Must be idempotent by
// construction, like MemberLoader.
type CommunityLoader func(ctx context.Context, id int64) (*game.Community, error)

// Community is a cached community aggregate together with its owned member
// cache.
type Community struct {
	*game.Community
	Members *Members

	// lastAccess is the Unix nanosecond timestamp of the last cache hit,
	// updated without the write lock so reads stay shared.
	lastAccess atomic.Int64
}

func (c *Community) touch() {
	c.lastAccess.Store(time.Now().UnixNano())
}

// Communities is the outer tier of the entity cache. Safe for concurrent
// use: lookups take the shared section, inserts and sweeps the exclusive
// one. Store round trips never run under either.
type Communities struct {
	load       CommunityLoader
	memberLoad MemberLoader

	mu      sync.RWMutex
	entries map[int64]*Community

	// Metrics gauge for cached community count (nil if no registry provided)
	sizeGauge prometheus.Gauge
}

// NewCommunities creates the outer cache tier.
func NewCommunities(load CommunityLoader, memberLoad MemberLoader) *Communities {
	return newCommunities(load, memberLoad, nil)
}

// NewCommunitiesWithRegistry creates the outer cache tier and registers a
// size gauge with the provided Prometheus registry.
func NewCommunitiesWithRegistry(load CommunityLoader, memberLoad MemberLoader, reg prometheus.Registerer) *Communities {
	return newCommunities(load, memberLoad, reg)
}

func newCommunities(load CommunityLoader, memberLoad MemberLoader, reg prometheus.Registerer) *Communities {
	c := &Communities{
		load:       load,
		memberLoad: memberLoad,
		entries:    make(map[int64]*Community),
	}
	if reg != nil {
		c.sizeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grove_cache_communities",
			Help: "Current number of cached community aggregates",
		})
		reg.MustRegister(c.sizeGauge)
	}
	return c
}

// Get returns the cached community, if present.
func (c *Communities) Get(id int64) (*Community, bool) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		entry.touch()
	}
	return entry, ok
}

// FetchOrCreate returns the cached community, loading it from the store on
// first use. Between "not found" and "insert" another handler may populate
// the key; presence is re-checked before insert and the already-cached
// value's identity wins.
func (c *Communities) FetchOrCreate(ctx context.Context, id int64) (*Community, error) {
	if entry, ok := c.Get(id); ok {
		return entry, nil
	}

	loaded, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}

	entry := &Community{
		Community: loaded,
		Members:   newMembers(id, c.memberLoad),
	}
	entry.touch()

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.entries[id]; ok {
		return cached, nil
	}
	c.entries[id] = entry
	if c.sizeGauge != nil {
		c.sizeGauge.Set(float64(len(c.entries)))
	}
	return entry, nil
}

// Mutate runs fn on the cached community under the write section. It is
// the single mutation entry point for community configuration; fn must only
// touch memory, never the store. Returns false if the id is not cached.
func (c *Communities) Mutate(id int64, fn func(*Community)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[id]
	if !ok {
		return false
	}
	fn(entry)
	return true
}

// View runs fn on the cached community under the shared section, for reads
// that must be consistent with concurrent Mutate calls. Returns false if
// the id is not cached.
func (c *Communities) View(id int64, fn func(*Community)) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[id]
	if !ok {
		return false
	}
	fn(entry)
	return true
}

// Len returns the number of cached communities.
func (c *Communities) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep evicts communities idle since before now-maxAge and returns how
// many were removed. All state is written through to the store at mutation
// time, so eviction only costs a reload. A maxAge of zero disables
// eviction and sweeps nothing, preserving the cache-forever behavior.
func (c *Communities) Sweep(now time.Time, maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}

	threshold := now.Add(-maxAge).UnixNano()

	c.mu.Lock()
	defer c.mu.Unlock()
	evicted := 0
	for id, entry := range c.entries {
		if entry.lastAccess.Load() < threshold {
			delete(c.entries, id)
			evicted++
		}
	}
	if c.sizeGauge != nil {
		c.sizeGauge.Set(float64(len(c.entries)))
	}
	return evicted
}
