// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/grovebot/grove/internal/game"
)

type memberKey struct {
	communityID int64
	actorID     int64
}

type slotKey struct {
	class     int16
	speciesID int16
}

type ruleKey struct {
	communityID int64
	capability  int16
	scope       int64
}

type plantKey struct {
	speciesID int16
	actorID   int64
	channelID int64
}

type plantRow struct {
	communityID int64
	count       int64
}

// Memory is an in-memory Store for testing.
type Memory struct {
	mu           sync.Mutex
	nextMemberID int64
	communities  map[int64]*CommunityRecord
	members      map[int64]*MemberRecord
	memberIdx    map[memberKey]int64
	storage      map[int64]map[slotKey]int64
	rules        map[ruleKey]bool
	planted      map[plantKey]*plantRow

	// Fail injects an error for the named operation ("LoadMember",
	// "SettlePlant", ...). Nil map means every operation succeeds.
	Fail map[string]error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		communities: make(map[int64]*CommunityRecord),
		members:     make(map[int64]*MemberRecord),
		memberIdx:   make(map[memberKey]int64),
		storage:     make(map[int64]map[slotKey]int64),
		rules:       make(map[ruleKey]bool),
		planted:     make(map[plantKey]*plantRow),
	}
}

func (s *Memory) failErr(op string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail[op]
}

// LoadCommunity returns a community row, or ErrNotFound.
func (s *Memory) LoadCommunity(_ context.Context, id int64) (*CommunityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("LoadCommunity"); err != nil {
		return nil, err
	}
	rec, ok := s.communities[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// InsertDefaultCommunity inserts a default row; an existing row wins.
func (s *Memory) InsertDefaultCommunity(_ context.Context, id int64) (*CommunityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("InsertDefaultCommunity"); err != nil {
		return nil, err
	}
	if rec, ok := s.communities[id]; ok {
		cp := *rec
		return &cp, nil
	}
	rec := &CommunityRecord{ID: id, Prefix: game.DefaultPrefix}
	s.communities[id] = rec
	cp := *rec
	return &cp, nil
}

// UpdateCommunityPrefix persists a prefix change.
func (s *Memory) UpdateCommunityPrefix(_ context.Context, id int64, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("UpdateCommunityPrefix"); err != nil {
		return err
	}
	rec, ok := s.communities[id]
	if !ok {
		return ErrNotFound
	}
	rec.Prefix = prefix
	return nil
}

// UpdateCommunityCooldown persists a plant cooldown change.
func (s *Memory) UpdateCommunityCooldown(_ context.Context, id int64, seconds int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("UpdateCommunityCooldown"); err != nil {
		return err
	}
	rec, ok := s.communities[id]
	if !ok {
		return ErrNotFound
	}
	rec.PlantCooldown = seconds
	return nil
}

// LoadMember returns a member row, or ErrNotFound.
func (s *Memory) LoadMember(_ context.Context, communityID, actorID int64) (*MemberRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("LoadMember"); err != nil {
		return nil, err
	}
	id, ok := s.memberIdx[memberKey{communityID, actorID}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.members[id]
	return &cp, nil
}

// InsertDefaultMember inserts a default row; an existing row wins with
// Created false.
func (s *Memory) InsertDefaultMember(_ context.Context, communityID, actorID int64) (*MemberRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("InsertDefaultMember"); err != nil {
		return nil, err
	}
	key := memberKey{communityID, actorID}
	if id, ok := s.memberIdx[key]; ok {
		cp := *s.members[id]
		return &cp, nil
	}
	s.nextMemberID++
	rec := &MemberRecord{
		ID:          s.nextMemberID,
		CommunityID: communityID,
		ActorID:     actorID,
	}
	s.members[rec.ID] = rec
	s.memberIdx[key] = rec.ID
	cp := *rec
	cp.Created = true
	return &cp, nil
}

// LoadStorage returns every storage slot of a member.
func (s *Memory) LoadStorage(_ context.Context, memberID int64) ([]StorageRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("LoadStorage"); err != nil {
		return nil, err
	}
	slots := s.storage[memberID]
	out := make([]StorageRow, 0, len(slots))
	for k, amount := range slots {
		out = append(out, StorageRow{Class: k.class, SpeciesID: k.speciesID, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		return out[i].SpeciesID < out[j].SpeciesID
	})
	return out, nil
}

// SeedStorage writes the default grants of a newly created member.
func (s *Memory) SeedStorage(_ context.Context, memberID int64, rows []StorageRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("SeedStorage"); err != nil {
		return err
	}
	slots := s.slotsLocked(memberID)
	for _, r := range rows {
		slots[slotKey{r.Class, r.SpeciesID}] = r.Amount
	}
	return nil
}

func (s *Memory) slotsLocked(memberID int64) map[slotKey]int64 {
	slots, ok := s.storage[memberID]
	if !ok {
		slots = make(map[slotKey]int64)
		s.storage[memberID] = slots
	}
	return slots
}

// LoadRules returns the persisted rule rows for one capability.
func (s *Memory) LoadRules(_ context.Context, communityID int64, capability int16) ([]RuleRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("LoadRules"); err != nil {
		return nil, err
	}
	var out []RuleRow
	for k, allowed := range s.rules {
		if k.communityID == communityID && k.capability == capability {
			out = append(out, RuleRow{Scope: k.scope, Allowed: allowed})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Scope < out[j].Scope })
	return out, nil
}

// UpsertRule inserts or replaces one rule row.
func (s *Memory) UpsertRule(_ context.Context, communityID int64, capability int16, scope int64, allowed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("UpsertRule"); err != nil {
		return err
	}
	s.rules[ruleKey{communityID, capability, scope}] = allowed
	return nil
}

// DeleteRule removes one rule row.
func (s *Memory) DeleteRule(_ context.Context, communityID int64, capability int16, scope int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("DeleteRule"); err != nil {
		return err
	}
	delete(s.rules, ruleKey{communityID, capability, scope})
	return nil
}

// AdjustStorage applies a delta to one storage slot.
func (s *Memory) AdjustStorage(_ context.Context, memberID int64, class, speciesID int16, delta int64, guardNonNegative bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("AdjustStorage"); err != nil {
		return err
	}
	slots := s.slotsLocked(memberID)
	key := slotKey{class, speciesID}
	if guardNonNegative && delta < 0 && slots[key] < -delta {
		return nil
	}
	slots[key] += delta
	return nil
}

// AdjustBalance applies a delta to a member's coin balance.
func (s *Memory) AdjustBalance(_ context.Context, memberID int64, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("AdjustBalance"); err != nil {
		return err
	}
	if rec, ok := s.members[memberID]; ok {
		rec.Coins += delta
	}
	return nil
}

// UpsertPlantCount increments the aggregate planted counter.
func (s *Memory) UpsertPlantCount(_ context.Context, speciesID int16, actorID, channelID, communityID, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("UpsertPlantCount"); err != nil {
		return err
	}
	s.plantLocked(speciesID, actorID, channelID, communityID, delta)
	return nil
}

func (s *Memory) plantLocked(speciesID int16, actorID, channelID, communityID, delta int64) {
	key := plantKey{speciesID, actorID, channelID}
	row, ok := s.planted[key]
	if !ok {
		row = &plantRow{communityID: communityID}
		s.planted[key] = row
	}
	row.count += delta
}

// SettlePlant applies one plant's durable writes atomically.
func (s *Memory) SettlePlant(_ context.Context, settle PlantSettlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("SettlePlant"); err != nil {
		return err
	}
	if settle.ConsumeSeedling {
		slots := s.slotsLocked(settle.MemberID)
		key := slotKey{2, settle.SpeciesID}
		if slots[key] > 0 {
			slots[key]--
		}
	}
	s.plantLocked(settle.SpeciesID, settle.ActorID, settle.ChannelID, settle.CommunityID, 1)
	if settle.Reward > 0 {
		if rec, ok := s.members[settle.MemberID]; ok {
			rec.Coins += settle.Reward
		}
	}
	return nil
}

// SettlePurchase applies one purchase's durable writes atomically, or
// returns ErrInsufficientFunds without any write.
func (s *Memory) SettlePurchase(_ context.Context, settle PurchaseSettlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("SettlePurchase"); err != nil {
		return err
	}
	rec, ok := s.members[settle.MemberID]
	if !ok || rec.Coins < settle.Cost {
		return ErrInsufficientFunds
	}
	rec.Coins -= settle.Cost
	slots := s.slotsLocked(settle.MemberID)
	slots[slotKey{1, settle.SpeciesID}] += settle.Quantity
	return nil
}

// PlantedStats returns a planted-count breakdown by species for the scope.
func (s *Memory) PlantedStats(_ context.Context, scope StatsScope) ([]SpeciesCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("PlantedStats"); err != nil {
		return nil, err
	}
	var total int64
	bySpecies := make(map[int16]int64)
	for k, row := range s.planted {
		if !scopeMatches(scope, k, row) {
			continue
		}
		total += row.count
		bySpecies[k.speciesID] += row.count
	}
	out := make([]SpeciesCount, 0, len(bySpecies))
	for id, count := range bySpecies {
		out = append(out, SpeciesCount{SpeciesID: id, Count: count, Percent: percentOf(count, total)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return clampLimit(out, scope.Limit), nil
}

// TopPlanters returns the scope's leaderboard.
func (s *Memory) TopPlanters(_ context.Context, scope StatsScope) ([]PlanterRank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("TopPlanters"); err != nil {
		return nil, err
	}
	var total int64
	type agg struct {
		planted    int64
		top        int64
		favSpecies int16
		favChannel int64
	}
	byActor := make(map[int64]*agg)
	for k, row := range s.planted {
		if !scopeMatches(scope, k, row) {
			continue
		}
		total += row.count
		a, ok := byActor[k.actorID]
		if !ok {
			a = &agg{}
			byActor[k.actorID] = a
		}
		a.planted += row.count
		if row.count > a.top {
			a.top = row.count
			a.favSpecies = k.speciesID
			a.favChannel = k.channelID
		}
	}
	out := make([]PlanterRank, 0, len(byActor))
	for actorID, a := range byActor {
		out = append(out, PlanterRank{
			ActorID:         actorID,
			Count:           a.planted,
			Percent:         percentOf(a.planted, total),
			FavoriteSpecies: a.favSpecies,
			FavoriteChannel: a.favChannel,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return clampLimit(out, scope.Limit), nil
}

// BiggestChannel returns the channel with the highest planted total.
func (s *Memory) BiggestChannel(_ context.Context, communityID int64) (*ChannelCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failErr("BiggestChannel"); err != nil {
		return nil, err
	}
	byChannel := make(map[int64]int64)
	for k, row := range s.planted {
		if row.communityID == communityID {
			byChannel[k.channelID] += row.count
		}
	}
	if len(byChannel) == 0 {
		return nil, ErrNotFound
	}
	best := &ChannelCount{}
	for channelID, count := range byChannel {
		if count > best.Count {
			best.ChannelID = channelID
			best.Count = count
		}
	}
	return best, nil
}

func scopeMatches(scope StatsScope, k plantKey, row *plantRow) bool {
	if row.communityID != scope.CommunityID {
		return false
	}
	if scope.ChannelID != 0 && k.channelID != scope.ChannelID {
		return false
	}
	if scope.ActorID != 0 && k.actorID != scope.ActorID {
		return false
	}
	return true
}

func percentOf(count, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*10000) / 100
}

func clampLimit[T any](items []T, limit int) []T {
	if limit <= 0 {
		limit = defaultStatsLimit
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
