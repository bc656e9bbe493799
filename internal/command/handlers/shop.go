// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/grovebot/grove/internal/command"
	"github.com/grovebot/grove/internal/engine"
	"github.com/grovebot/grove/internal/game"
	"github.com/grovebot/grove/internal/workflow"
)

// ShopHandler lists the purchasable species, or starts a purchase when a
// species is named.
// Usage: shop [species]
func ShopHandler(ctx context.Context, exec *command.Execution) error {
	if exec.Args == "" {
		return shopList(ctx, exec)
	}
	return shopBuy(ctx, exec)
}

func shopList(ctx context.Context, exec *command.Execution) error {
	overview, err := exec.Services.Engine.MemberState(ctx, exec.CommunityID, exec.ActorID)
	if err != nil {
		return command.GameError("The shop is unavailable right now.", err)
	}

	writeOutput(ctx, exec, "shop", "Pallets for sale:")
	for _, s := range game.DefaultCatalog().PurchasableSpecies() {
		writeOutputf(ctx, exec, "shop", "  %s %-15s %3d coins for %d seedlings\n",
			s.Emoji, s.Name, s.PalletCost, s.DefaultQty)
	}
	writeOutputf(ctx, exec, "shop", "Your balance: %d coins\n", overview.Coins)
	return nil
}

func shopBuy(ctx context.Context, exec *command.Execution) error {
	species, ok := findSpecies(exec.Args)
	if !ok {
		return command.ErrInvalidArgs("shop", "shop [species]")
	}

	ticket, err := exec.Services.Engine.BeginPurchase(ctx, engine.PurchaseRequest{
		CommunityID: exec.CommunityID,
		ActorID:     exec.ActorID,
		SpeciesID:   species.ID,
	})
	switch {
	case errors.Is(err, engine.ErrNotPurchasable):
		return command.GameError("That species is not for sale.", err)
	case errors.Is(err, engine.ErrCannotAfford):
		return command.GameError("You cannot afford that pallet.", err)
	case err != nil:
		return command.GameError("The shop is unavailable right now.", err)
	}

	writeOutputf(ctx, exec, "shop", "Purchase %s: one %s %s pallet for %d coins (balance %d).\n",
		ticket.ID, ticket.Species.Emoji, ticket.Species.Name, ticket.Cost, ticket.Balance)
	writeOutputf(ctx, exec, "shop", "Reply 'confirm %s' or 'cancel %s' within 45 seconds.\n", ticket.ID, ticket.ID)
	return nil
}

// findSpecies resolves a shop argument to a species by id, emoji, or
// case-insensitive name.
func findSpecies(arg string) (game.Species, bool) {
	arg = strings.TrimSpace(arg)
	catalog := game.DefaultCatalog()

	if id, err := strconv.ParseInt(arg, 10, 16); err == nil {
		return catalog.Get(int16(id))
	}
	if s, ok := catalog.ByEmoji(arg); ok {
		return s, true
	}
	for _, s := range catalog.All() {
		if strings.EqualFold(s.Name, arg) {
			return s, true
		}
	}
	return game.Species{}, false
}

// ConfirmHandler confirms a pending purchase.
// Usage: confirm <purchase-id>
func ConfirmHandler(ctx context.Context, exec *command.Execution) error {
	return signalPurchase(ctx, exec, "confirm", workflow.SignalConfirm)
}

// CancelHandler cancels a pending purchase.
// Usage: cancel <purchase-id>
func CancelHandler(ctx context.Context, exec *command.Execution) error {
	return signalPurchase(ctx, exec, "cancel", workflow.SignalCancel)
}

func signalPurchase(ctx context.Context, exec *command.Execution, cmd string, sig workflow.Signal) error {
	id, err := ulid.Parse(strings.TrimSpace(exec.Args))
	if err != nil {
		return command.ErrInvalidArgs(cmd, cmd+" <purchase-id>")
	}

	res, err := exec.Services.Engine.SignalPurchase(ctx, id, exec.ActorID, sig)
	if err != nil {
		if errors.Is(err, workflow.ErrUnknownPurchase) {
			return command.GameError("No such pending purchase. It may have expired.", err)
		}
		return command.GameError("The purchase could not be completed. Try again.", err)
	}

	switch res.State {
	case workflow.StateConfirmed:
		writeOutput(ctx, exec, cmd, "Purchase complete. The pallet is in your storage.")
	case workflow.StateCancelled:
		if res.Reason == workflow.ReasonInsufficientFunds {
			writeOutput(ctx, exec, cmd, "Purchase cancelled: your balance no longer covers it.")
		} else {
			writeOutput(ctx, exec, cmd, "Purchase cancelled.")
		}
	case workflow.StatePending:
		// Signal from someone other than the buyer; say nothing.
	}
	return nil
}
