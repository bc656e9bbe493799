// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package handlers

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/grovebot/grove/internal/command"
	"github.com/grovebot/grove/internal/game"
)

// SettingsHandler shows the community's configuration overview.
// Usage: settings
func SettingsHandler(ctx context.Context, exec *command.Execution) error {
	s, err := exec.Services.Engine.CommunitySettings(ctx, exec.CommunityID)
	if err != nil {
		return command.GameError("Settings are unavailable right now.", err)
	}

	writeOutput(ctx, exec, "settings", "Community settings:")
	writeOutputf(ctx, exec, "settings", "  Prefix:         %s\n", s.Prefix)
	if s.PlantCooldown == 0 {
		writeOutput(ctx, exec, "settings", "  Plant cooldown: off")
	} else {
		writeOutputf(ctx, exec, "settings", "  Plant cooldown: %ds\n", s.PlantCooldown)
	}
	writeOutputf(ctx, exec, "settings", "  Planting:       %s\n", renderRules(s.GrowthGlobal, s.GrowthOverrides))
	writeOutputf(ctx, exec, "settings", "  Commands:       %s\n", renderRules(s.CommandGlobal, s.CommandOverrides))
	return nil
}

// renderRules formats a rule table as the global default plus channel
// exceptions, ordered by channel id for stable output.
func renderRules(global bool, overrides map[int64]bool) string {
	var b strings.Builder
	if global {
		b.WriteString("allowed")
	} else {
		b.WriteString("denied")
	}

	channels := make([]int64, 0, len(overrides))
	for ch := range overrides {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })

	for _, ch := range channels {
		b.WriteString(", channel ")
		b.WriteString(strconv.FormatInt(ch, 10))
		if overrides[ch] {
			b.WriteString(": allowed")
		} else {
			b.WriteString(": denied")
		}
	}
	return b.String()
}

// PrefixHandler echoes the command prefix, or changes it for managers.
// Usage: prefix [new-prefix]
func PrefixHandler(ctx context.Context, exec *command.Execution) error {
	if exec.Args == "" {
		prefix, err := exec.Services.Engine.Prefix(ctx, exec.CommunityID)
		if err != nil {
			return command.GameError("The prefix is unavailable right now.", err)
		}
		writeOutputf(ctx, exec, "prefix", "The command prefix is %q.\n", prefix)
		return nil
	}

	if !exec.ManageCommunity {
		return command.ErrManageOnly("prefix")
	}

	newPrefix := strings.TrimSpace(exec.Args)
	if err := exec.Services.Engine.SetPrefix(ctx, exec.CommunityID, newPrefix); err != nil {
		return command.GameError("That prefix is not usable. Pick 1 to 10 characters.", err)
	}
	writeOutputf(ctx, exec, "prefix", "Command prefix changed to %q.\n", newPrefix)
	return nil
}

// CooldownHandler shows or changes the plant cooldown.
// Usage: cooldown [seconds]
func CooldownHandler(ctx context.Context, exec *command.Execution) error {
	if exec.Args == "" {
		s, err := exec.Services.Engine.CommunitySettings(ctx, exec.CommunityID)
		if err != nil {
			return command.GameError("Settings are unavailable right now.", err)
		}
		if s.PlantCooldown == 0 {
			writeOutput(ctx, exec, "cooldown", "Planting has no cooldown.")
		} else {
			writeOutputf(ctx, exec, "cooldown", "Planting cooldown is %d seconds.\n", s.PlantCooldown)
		}
		return nil
	}

	seconds, err := strconv.ParseInt(strings.TrimSpace(exec.Args), 10, 64)
	if err != nil {
		return command.ErrInvalidArgs("cooldown", "cooldown [seconds]")
	}
	if err := exec.Services.Engine.SetCooldown(ctx, exec.CommunityID, seconds); err != nil {
		return command.GameError("Cooldown must be between 0 and 28800 seconds.", err)
	}
	if seconds == 0 {
		writeOutput(ctx, exec, "cooldown", "Planting cooldown disabled.")
	} else {
		writeOutputf(ctx, exec, "cooldown", "Planting cooldown set to %d seconds.\n", seconds)
	}
	return nil
}

const rulesUsage = "rules <growth|command> <community|channel-id> <allow|deny|inherit>"

// RulesHandler changes a capability rule.
// Usage: rules <growth|command> <community|channel-id> <allow|deny|inherit>
func RulesHandler(ctx context.Context, exec *command.Execution) error {
	fields := strings.Fields(exec.Args)
	if len(fields) != 3 {
		return command.ErrInvalidArgs("rules", rulesUsage)
	}

	var capability game.Capability
	switch fields[0] {
	case "growth":
		capability = game.CapGrowth
	case "command":
		capability = game.CapCommand
	default:
		return command.ErrInvalidArgs("rules", rulesUsage)
	}

	scope := game.ScopeCommunity
	if fields[1] != "community" {
		var err error
		scope, err = strconv.ParseInt(fields[1], 10, 64)
		if err != nil || scope <= 0 {
			return command.ErrInvalidArgs("rules", rulesUsage)
		}
	}

	var allowance game.Allowance
	switch fields[2] {
	case "allow":
		allowance = game.Allow
	case "deny":
		allowance = game.Deny
	case "inherit":
		allowance = game.Inherit
	default:
		return command.ErrInvalidArgs("rules", rulesUsage)
	}

	if err := exec.Services.Engine.SetRule(ctx, exec.CommunityID, capability, scope, allowance); err != nil {
		return command.GameError("The rule could not be saved. Try again.", err)
	}
	writeOutputf(ctx, exec, "rules", "Rule updated: %s %s %s.\n", fields[0], fields[1], fields[2])
	return nil
}
