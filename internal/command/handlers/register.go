// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package handlers

import (
	"github.com/grovebot/grove/internal/command"
)

// RegisterAll registers the built-in command handlers with the registry.
// Panics if any registration fails (indicates a programming error).
func RegisterAll(reg *command.Registry) {
	mustRegister := func(entry command.Entry) {
		if err := reg.Register(entry); err != nil {
			panic("failed to register command " + entry.Name + ": " + err.Error())
		}
	}

	// Meta commands
	mustRegister(command.Entry{
		Name:    "help",
		Handler: HelpHandler,
		Help:    "List commands or show usage for one",
		Usage:   "help [command]",
	})
	mustRegister(command.Entry{
		Name:    "ping",
		Handler: PingHandler,
		Help:    "Check that the grove is listening",
		Usage:   "ping",
	})

	// Member commands
	mustRegister(command.Entry{
		Name:    "storage",
		Aliases: []string{"inventory"},
		Handler: StorageHandler,
		Help:    "Show your balance, pallets, and seedlings",
		Usage:   "storage",
	})
	mustRegister(command.Entry{
		Name:    "shop",
		Handler: ShopHandler,
		Help:    "Browse pallets or start a purchase",
		Usage:   "shop [species]",
	})
	mustRegister(command.Entry{
		Name:    "confirm",
		Handler: ConfirmHandler,
		Help:    "Confirm a pending purchase",
		Usage:   "confirm <purchase-id>",
	})
	mustRegister(command.Entry{
		Name:    "cancel",
		Handler: CancelHandler,
		Help:    "Cancel a pending purchase",
		Usage:   "cancel <purchase-id>",
	})

	// Statistics commands
	mustRegister(command.Entry{
		Name:    "stats",
		Aliases: []string{"forest"},
		Handler: StatsHandler,
		Help:    "Show planted trees by species",
		Usage:   "stats [channel|me]",
	})
	mustRegister(command.Entry{
		Name:    "leaderboard",
		Aliases: []string{"top"},
		Handler: LeaderboardHandler,
		Help:    "Show the top planters",
		Usage:   "leaderboard",
	})

	// Settings commands
	mustRegister(command.Entry{
		Name:    "settings",
		Handler: SettingsHandler,
		Help:    "Show the community configuration",
		Usage:   "settings",
	})
	mustRegister(command.Entry{
		Name:    "prefix",
		Handler: PrefixHandler,
		Help:    "Show or change the command prefix",
		Usage:   "prefix [new-prefix]",
	})
	mustRegister(command.Entry{
		Name:       "cooldown",
		Handler:    CooldownHandler,
		ManageOnly: true,
		Help:       "Show or change the plant cooldown",
		Usage:      "cooldown [seconds]",
	})
	mustRegister(command.Entry{
		Name:       "rules",
		Handler:    RulesHandler,
		ManageOnly: true,
		Help:       "Allow or deny planting and commands per channel",
		Usage:      "rules <growth|command> <community|channel-id> <allow|deny|inherit>",
	})
}
