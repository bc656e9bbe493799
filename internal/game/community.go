// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package game

// Cooldown bounds for the plant action, in seconds.
const (
	MinPlantCooldown int64 = 0
	MaxPlantCooldown int64 = 28800
)

// DefaultPrefix is the command prefix assigned to unseen communities.
const DefaultPrefix = "f-"

// Community is one chat server's configuration aggregate: command prefix,
// plant cooldown, the rule tables for both capabilities, and the species
// catalog. The member population is owned by the entity cache, not here;
// ownership stays strictly hierarchical.
type Community struct {
	// ID is the external chat identifier.
	ID int64

	Prefix string
	// PlantCooldown is the per-member delay between plants, in seconds.
	// Zero disables the limiter.
	PlantCooldown int64

	// GrowthRules gates planting per channel; CommandRules gates commands.
	GrowthRules  *Rules
	CommandRules *Rules

	Catalog *Catalog
}

// NewCommunity builds a community aggregate with the built-in catalog and
// permissive rule tables, suitable for a first-ever appearance.
func NewCommunity(id int64) *Community {
	return &Community{
		ID:           id,
		Prefix:       DefaultPrefix,
		GrowthRules:  NewRules(),
		CommandRules: NewRules(),
		Catalog:      DefaultCatalog(),
	}
}

// Rules returns the rule table for the given capability, nil if unknown.
func (c *Community) Rules(capability Capability) *Rules {
	switch capability {
	case CapGrowth:
		return c.GrowthRules
	case CapCommand:
		return c.CommandRules
	default:
		return nil
	}
}

// ValidCooldown reports whether seconds is an acceptable plant cooldown.
func ValidCooldown(seconds int64) bool {
	return seconds >= MinPlantCooldown && seconds <= MaxPlantCooldown
}
