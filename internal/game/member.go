// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package game

// Member is one actor's economic state within a community: coin balance and
// item storage. Access is serialized by the owning member cache; Member
// itself is not safe for unsynchronized concurrent use.
type Member struct {
	// ID is the internal store identifier, unique per (community, actor).
	ID int64
	// CommunityID and ActorID are the external chat identifiers.
	CommunityID int64
	ActorID     int64

	// Coins is the member's balance. Resolver-approved debits never drive
	// it negative.
	Coins int64

	// Storage maps item slots to quantities. QtyUnlimited never depletes;
	// finite quantities never drop below zero.
	Storage map[ItemKey]int64

	newlyCreated bool
}

// NewMember builds a member aggregate from loaded state. newlyCreated marks
// a first-ever appearance in the store, which entitles the member to the
// catalog's default seedling grants.
func NewMember(id, communityID, actorID, coins int64, storage map[ItemKey]int64, newlyCreated bool) *Member {
	if storage == nil {
		storage = make(map[ItemKey]int64)
	}
	return &Member{
		ID:           id,
		CommunityID:  communityID,
		ActorID:      actorID,
		Coins:        coins,
		Storage:      storage,
		newlyCreated: newlyCreated,
	}
}

// IsNew reports whether this is the member's first-ever appearance.
func (m *Member) IsNew() bool {
	return m.newlyCreated
}

// MarkSeeded clears the first-appearance flag after default grants are applied.
func (m *Member) MarkSeeded() {
	m.newlyCreated = false
}

// Quantity returns the stored amount for the given slot, zero if absent.
func (m *Member) Quantity(key ItemKey) int64 {
	return m.Storage[key]
}

// Grant adds qty to a storage slot and returns the new amount. Granting to
// an unlimited slot leaves it unlimited.
func (m *Member) Grant(class ItemClass, speciesID int16, qty int64) int64 {
	key := ItemKey{Class: class, SpeciesID: speciesID}
	current := m.Storage[key]
	if current == QtyUnlimited || qty == QtyUnlimited {
		m.Storage[key] = QtyUnlimited
		return QtyUnlimited
	}
	m.Storage[key] = current + qty
	return current + qty
}

// Consume decrements a storage slot by one. It returns false without
// mutating when the slot is absent or empty. Unlimited slots always succeed
// and are never decremented.
func (m *Member) Consume(class ItemClass, speciesID int16) bool {
	key := ItemKey{Class: class, SpeciesID: speciesID}
	amount, ok := m.Storage[key]
	if !ok || amount == 0 {
		return false
	}
	if amount == QtyUnlimited {
		return true
	}
	m.Storage[key] = amount - 1
	return true
}
