// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package engine

import (
	"context"
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/grovebot/grove/internal/cache"
	"github.com/grovebot/grove/internal/game"
	"github.com/grovebot/grove/internal/store"
	"github.com/grovebot/grove/internal/workflow"
)

// ErrNotPurchasable signals a species with no pallet price.
var ErrNotPurchasable = errors.New("species is not purchasable")

// ErrCannotAfford signals a buyer whose balance is below the cost at the
// time the purchase starts. The balance is re-checked at confirm time.
var ErrCannotAfford = errors.New("balance below cost")

// PurchaseRequest starts a pallet purchase.
type PurchaseRequest struct {
	CommunityID int64
	ActorID     int64
	SpeciesID   int16
}

// PurchaseTicket describes a pending purchase for presentation. A
// confirmed purchase credits exactly one pallet of the species.
type PurchaseTicket struct {
	ID      ulid.ULID
	Species game.Species
	Cost    int64
	Balance int64
}

// BeginPurchase validates the request and registers a pending purchase.
// The buyer then confirms or cancels via SignalPurchase, or the workflow
// times out. The affordability check here is advisory; the binding check
// happens against the live balance at confirm time.
func (e *Engine) BeginPurchase(ctx context.Context, req PurchaseRequest) (PurchaseTicket, error) {
	community, err := e.communities.FetchOrCreate(ctx, req.CommunityID)
	if err != nil {
		return PurchaseTicket{}, err
	}

	species, ok := community.Catalog.Get(req.SpeciesID)
	if !ok || !species.Purchasable() {
		return PurchaseTicket{}, oops.Code("SPECIES_NOT_PURCHASABLE").
			With("species_id", req.SpeciesID).
			Wrap(ErrNotPurchasable)
	}

	if _, err := e.member(ctx, community, req.ActorID); err != nil {
		return PurchaseTicket{}, err
	}

	var balance int64
	community.Members.View(req.ActorID, func(m *game.Member) { balance = m.Coins })
	if balance < species.PalletCost {
		return PurchaseTicket{}, oops.Code("CANNOT_AFFORD").
			With("balance", balance).
			With("cost", species.PalletCost).
			Wrap(ErrCannotAfford)
	}

	confirm := func(cctx context.Context) error {
		return e.settlePurchase(cctx, community, req.ActorID, species)
	}

	id, err := e.purchases.Begin(req.ActorID, confirm)
	if err != nil {
		return PurchaseTicket{}, err
	}

	return PurchaseTicket{
		ID:      id,
		Species: species,
		Cost:    species.PalletCost,
		Balance: balance,
	}, nil
}

// settlePurchase is the confirm-time settlement: live balance re-check,
// one durable transaction debiting the cost and crediting one pallet,
// then the in-memory mutation. The store's guarded debit is
// authoritative; a balance that moved since BeginPurchase cancels the
// purchase instead of overdrawing.
func (e *Engine) settlePurchase(ctx context.Context, community *cache.Community, actorID int64, species game.Species) error {
	var memberID, balance int64
	community.Members.View(actorID, func(m *game.Member) {
		memberID = m.ID
		balance = m.Coins
	})
	if balance < species.PalletCost {
		return workflow.ErrInsufficientFunds
	}

	err := e.store.SettlePurchase(ctx, store.PurchaseSettlement{
		MemberID:  memberID,
		SpeciesID: species.ID,
		Cost:      species.PalletCost,
		Quantity:  1,
	})
	if errors.Is(err, store.ErrInsufficientFunds) {
		return workflow.ErrInsufficientFunds
	}
	if err != nil {
		return err
	}

	community.Members.Mutate(actorID, func(m *game.Member) {
		m.Coins -= species.PalletCost
		m.Grant(game.ItemPallet, species.ID, 1)
	})
	return nil
}

// SignalPurchase delivers a buyer's confirm or cancel.
func (e *Engine) SignalPurchase(ctx context.Context, id ulid.ULID, actorID int64, sig workflow.Signal) (workflow.Result, error) {
	res, err := e.purchases.Signal(ctx, id, actorID, sig)
	if err != nil {
		return res, err
	}
	if res.State != workflow.StatePending {
		PurchaseOutcomes.WithLabelValues(res.State.String()).Inc()
	}
	return res, nil
}

// PendingPurchases returns the number of purchases awaiting a signal.
func (e *Engine) PendingPurchases() int {
	return e.purchases.Pending()
}
