// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package game

// Capability is a gateable action class.
type Capability int16

const (
	// CapGrowth gates planting triggers.
	CapGrowth Capability = 1
	// CapCommand gates command execution.
	CapCommand Capability = 2
)

func (c Capability) String() string {
	switch c {
	case CapGrowth:
		return "growth"
	case CapCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Allowance is the value of a rule mutation.
type Allowance int

const (
	// Deny forbids the capability in the given scope.
	Deny Allowance = iota
	// Allow permits the capability in the given scope.
	Allow
	// Inherit removes a channel override so the global default applies.
	// Setting the community scope to Inherit resets the default to allowed.
	Inherit
)

// ScopeCommunity addresses the community-wide default instead of a channel.
const ScopeCommunity int64 = 0

// Rules is a per-capability boolean override table: a global default plus
// per-channel overrides. It holds no store reference; callers pair every
// mutation with the matching durable write.
type Rules struct {
	Global   bool
	Channels map[int64]bool
}

// NewRules returns a rule table that allows everything.
func NewRules() *Rules {
	return &Rules{Global: true, Channels: make(map[int64]bool)}
}

// Check returns the channel's override if one exists, else the global
// default. It is total: there is no error path.
func (r *Rules) Check(channelID int64) bool {
	if allowed, ok := r.Channels[channelID]; ok {
		return allowed
	}
	return r.Global
}

// Set applies a rule mutation. Community scope changes the global default;
// a channel scope with Allow or Deny inserts or replaces that channel's
// override, and Inherit deletes it.
func (r *Rules) Set(scope int64, a Allowance) {
	if scope == ScopeCommunity {
		switch a {
		case Allow, Inherit:
			r.Global = true
		case Deny:
			r.Global = false
		}
		return
	}
	switch a {
	case Inherit:
		delete(r.Channels, scope)
	case Allow:
		r.Channels[scope] = true
	case Deny:
		r.Channels[scope] = false
	}
}

// Overrides returns the channel ids whose override differs from the global
// default, for settings summaries.
func (r *Rules) Overrides() []int64 {
	var out []int64
	for ch, allowed := range r.Channels {
		if allowed != r.Global {
			out = append(out, ch)
		}
	}
	return out
}
