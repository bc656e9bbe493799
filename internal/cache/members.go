// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package cache

import (
	"context"
	"sync"

	"github.com/grovebot/grove/internal/game"
)

// MemberLoader fetches a member aggregate from the persistent store,
// inserting a default row on first-ever sight. The load must be idempotent:
// loading the same (community, actor) pair twice converges to the same
// logical row.
type MemberLoader func(ctx context.Context, communityID, actorID int64) (*game.Member, error)

// Members is the per-community member cache: the inner tier of the entity
// cache, owned by exactly one community entry. Safe for concurrent use.
type Members struct {
	communityID int64
	load        MemberLoader

	mu      sync.RWMutex
	entries map[int64]*game.Member
}

func newMembers(communityID int64, load MemberLoader) *Members {
	return &Members{
		communityID: communityID,
		load:        load,
		entries:     make(map[int64]*game.Member),
	}
}

// Get returns the cached member for the actor, if present.
func (m *Members) Get(actorID int64) (*game.Member, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	member, ok := m.entries[actorID]
	return member, ok
}

// FetchOrCreate returns the cached member, loading it from the store on
// first use. The store round trip runs outside the lock; presence is
// re-checked before insert and a concurrently cached value wins, so a
// mutation derived from the discarded load can never leak in.
func (m *Members) FetchOrCreate(ctx context.Context, actorID int64) (*game.Member, error) {
	if member, ok := m.Get(actorID); ok {
		return member, nil
	}

	loaded, err := m.load(ctx, m.communityID, actorID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, ok := m.entries[actorID]; ok {
		return cached, nil
	}
	m.entries[actorID] = loaded
	return loaded, nil
}

// Mutate runs fn on the cached member under the write section. It is the
// single mutation entry point for member state; fn must only touch memory,
// never the store. Returns false if the actor is not cached.
func (m *Members) Mutate(actorID int64, fn func(*game.Member)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.entries[actorID]
	if !ok {
		return false
	}
	fn(member)
	return true
}

// View runs fn on the cached member under the shared section. Returns
// false if the actor is not cached.
func (m *Members) View(actorID int64, fn func(*game.Member)) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	member, ok := m.entries[actorID]
	if !ok {
		return false
	}
	fn(member)
	return true
}

// Len returns the number of cached members.
func (m *Members) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
