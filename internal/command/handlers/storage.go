// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package handlers

import (
	"context"
	"strconv"

	"github.com/grovebot/grove/internal/command"
	"github.com/grovebot/grove/internal/engine"
	"github.com/grovebot/grove/internal/game"
)

// StorageHandler displays the member's coin balance, pallets, and
// seedlings.
// Usage: storage
func StorageHandler(ctx context.Context, exec *command.Execution) error {
	overview, err := exec.Services.Engine.MemberState(ctx, exec.CommunityID, exec.ActorID)
	if err != nil {
		return command.GameError("Your storage is unavailable right now.", err)
	}

	writeOutputf(ctx, exec, "storage", "Balance: %d coins\n", overview.Coins)

	pallets := slotsOfClass(overview.Storage, game.ItemPallet)
	seedlings := slotsOfClass(overview.Storage, game.ItemSeedling)

	writeOutput(ctx, exec, "storage", "Pallets:")
	if len(pallets) == 0 {
		writeOutput(ctx, exec, "storage", "  none")
	}
	for _, slot := range pallets {
		writeOutputf(ctx, exec, "storage", "  %s %-15s %s\n", slot.Species.Emoji, slot.Species.Name, formatAmount(slot.Amount))
	}

	writeOutput(ctx, exec, "storage", "Seedlings:")
	if len(seedlings) == 0 {
		writeOutput(ctx, exec, "storage", "  none")
	}
	for _, slot := range seedlings {
		writeOutputf(ctx, exec, "storage", "  %s %-15s %s\n", slot.Species.Emoji, slot.Species.Name, formatAmount(slot.Amount))
	}
	return nil
}

func slotsOfClass(slots []engine.StorageSlot, class game.ItemClass) []engine.StorageSlot {
	out := make([]engine.StorageSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.Class == class {
			out = append(out, slot)
		}
	}
	return out
}

// formatAmount renders a storage quantity, with the unlimited marker for
// inexhaustible slots.
func formatAmount(amount int64) string {
	if amount == game.QtyUnlimited {
		return "∞"
	}
	return strconv.FormatInt(amount, 10)
}
