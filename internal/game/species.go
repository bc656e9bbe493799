// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

// Package game contains the core domain types: communities, members,
// the species catalog, and per-channel rule tables.
package game

import (
	"sort"
	"strings"
)

// ItemClass identifies the kind of item held in member storage.
type ItemClass int16

const (
	// ItemPallet is a purchased pallet of seedlings.
	ItemPallet ItemClass = 1
	// ItemSeedling is a plantable seedling.
	ItemSeedling ItemClass = 2
)

func (c ItemClass) String() string {
	switch c {
	case ItemPallet:
		return "pallet"
	case ItemSeedling:
		return "seedling"
	default:
		return "unknown"
	}
}

// ItemKey identifies one storage slot: an item class plus a species.
type ItemKey struct {
	Class     ItemClass
	SpeciesID int16
}

// QtyUnlimited marks a storage quantity that never depletes.
const QtyUnlimited int64 = -1

// Species is one plantable tree kind in a community's catalog.
type Species struct {
	ID    int16
	Emoji string
	Name  string

	// PalletCost is the coin cost of one pallet. Zero disables purchase.
	PalletCost int64
	// DefaultQty is the seedling quantity granted to new members.
	// QtyUnlimited grants an inexhaustible supply; zero grants nothing.
	DefaultQty int64
	// Reward is the coin credit per planted tree. Zero disables the credit.
	Reward int64
}

// Purchasable reports whether the species can be bought in the shop.
func (s Species) Purchasable() bool {
	return s.PalletCost > 0
}

// Catalog is the fixed set of species a community plants and sells,
// indexed by id and by trigger emoji.
type Catalog struct {
	species map[int16]Species
	byEmoji map[string]int16
}

// NewCatalog builds a catalog from the given species.
func NewCatalog(species ...Species) *Catalog {
	c := &Catalog{
		species: make(map[int16]Species, len(species)),
		byEmoji: make(map[string]int16, len(species)),
	}
	for _, s := range species {
		c.species[s.ID] = s
		c.byEmoji[s.Emoji] = s.ID
	}
	return c
}

// DefaultCatalog returns the built-in species set.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Species{ID: 1, Emoji: "\U0001F332", Name: "Evergreen Tree", PalletCost: 0, DefaultQty: QtyUnlimited, Reward: 1},
		Species{ID: 2, Emoji: "\U0001F333", Name: "Deciduous Tree", PalletCost: 12, DefaultQty: 50, Reward: 1},
		Species{ID: 3, Emoji: "\U0001F334", Name: "Palm Tree", PalletCost: 15, DefaultQty: 30, Reward: 1},
		Species{ID: 4, Emoji: "\U0001F335", Name: "Cactus", PalletCost: 25, DefaultQty: 20, Reward: 2},
		Species{ID: 5, Emoji: "\U0001F38D", Name: "Bamboo", PalletCost: 50, DefaultQty: 10, Reward: 3},
	)
}

// Get returns the species with the given id.
func (c *Catalog) Get(id int16) (Species, bool) {
	s, ok := c.species[id]
	return s, ok
}

// ByEmoji returns the species triggered by the given glyph.
func (c *Catalog) ByEmoji(emoji string) (Species, bool) {
	id, ok := c.byEmoji[emoji]
	if !ok {
		return Species{}, false
	}
	return c.species[id], true
}

// ByCustomName returns the species triggered by a platform custom emoji,
// matched by name with underscores read as spaces ("deciduous_tree").
func (c *Catalog) ByCustomName(name string) (Species, bool) {
	want := strings.ReplaceAll(name, "_", " ")
	for _, s := range c.species {
		if strings.EqualFold(s.Name, want) {
			return s, true
		}
	}
	return Species{}, false
}

// All returns every species ordered by id.
func (c *Catalog) All() []Species {
	out := make([]Species, 0, len(c.species))
	for _, s := range c.species {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PurchasableSpecies returns the species sold in the shop, ordered by id.
func (c *Catalog) PurchasableSpecies() []Species {
	out := make([]Species, 0, len(c.species))
	for _, s := range c.species {
		if s.Purchasable() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
