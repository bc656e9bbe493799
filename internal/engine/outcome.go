// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package engine

// Outcome names the result of resolving a plant trigger.
type Outcome int

const (
	// OutcomeIgnored means the message is not a plant trigger for this
	// community. Not an error; most messages end here.
	OutcomeIgnored Outcome = iota
	// OutcomePlanted means the plant succeeded and settled durably.
	OutcomePlanted
	// OutcomeMissingMaterial means the member has no seedling of the
	// triggering species.
	OutcomeMissingMaterial
	// OutcomeDenied means the growth rules forbid planting in the channel.
	OutcomeDenied
	// OutcomeCooldownActive means the member planted too recently.
	OutcomeCooldownActive
	// OutcomeDataUnavailable means a store round trip failed.
	OutcomeDataUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomePlanted:
		return "planted"
	case OutcomeMissingMaterial:
		return "missing_material"
	case OutcomeDenied:
		return "denied"
	case OutcomeCooldownActive:
		return "cooldown_active"
	case OutcomeDataUnavailable:
		return "data_unavailable"
	default:
		return "unknown"
	}
}
