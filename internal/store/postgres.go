// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package store

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// poolIface is the subset of pgxpool.Pool the store needs. pgxmock's pool
// interface satisfies it, so unit tests run without a database.
type poolIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres implements Store using PostgreSQL.
type Postgres struct {
	pool poolIface
}

// NewPostgres creates a PostgreSQL-backed store.
func NewPostgres(pool poolIface) *Postgres {
	return &Postgres{pool: pool}
}

// LoadCommunity returns a community row, or ErrNotFound.
func (p *Postgres) LoadCommunity(ctx context.Context, id int64) (*CommunityRecord, error) {
	rec := &CommunityRecord{}
	err := p.pool.QueryRow(ctx, `
		SELECT id, prefix, plant_cooldown FROM communities WHERE id = $1
	`, id).Scan(&rec.ID, &rec.Prefix, &rec.PlantCooldown)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("COMMUNITY_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("COMMUNITY_LOAD_FAILED").With("id", id).Wrap(err)
	}
	return rec, nil
}

// InsertDefaultCommunity inserts a default row for an unseen community.
// A concurrent insert of the same id converges on the existing row.
func (p *Postgres) InsertDefaultCommunity(ctx context.Context, id int64) (*CommunityRecord, error) {
	rec := &CommunityRecord{}
	err := p.pool.QueryRow(ctx, `
		INSERT INTO communities (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING
		RETURNING id, prefix, plant_cooldown
	`, id).Scan(&rec.ID, &rec.Prefix, &rec.PlantCooldown)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict: someone inserted first. Their row is the truth.
		return p.LoadCommunity(ctx, id)
	}
	if err != nil {
		return nil, oops.Code("COMMUNITY_INSERT_FAILED").With("id", id).Wrap(err)
	}
	return rec, nil
}

// UpdateCommunityPrefix persists a prefix change.
func (p *Postgres) UpdateCommunityPrefix(ctx context.Context, id int64, prefix string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE communities SET prefix = $2 WHERE id = $1`, id, prefix)
	if err != nil {
		return oops.Code("COMMUNITY_UPDATE_FAILED").With("id", id).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("COMMUNITY_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	return nil
}

// UpdateCommunityCooldown persists a plant cooldown change.
func (p *Postgres) UpdateCommunityCooldown(ctx context.Context, id int64, seconds int64) error {
	tag, err := p.pool.Exec(ctx, `UPDATE communities SET plant_cooldown = $2 WHERE id = $1`, id, seconds)
	if err != nil {
		return oops.Code("COMMUNITY_UPDATE_FAILED").With("id", id).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("COMMUNITY_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	return nil
}

// LoadMember returns a member row, or ErrNotFound.
func (p *Postgres) LoadMember(ctx context.Context, communityID, actorID int64) (*MemberRecord, error) {
	rec := &MemberRecord{}
	err := p.pool.QueryRow(ctx, `
		SELECT id, community_id, actor_id, coins FROM members
		WHERE community_id = $1 AND actor_id = $2
	`, communityID, actorID).Scan(&rec.ID, &rec.CommunityID, &rec.ActorID, &rec.Coins)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("MEMBER_NOT_FOUND").
			With("community_id", communityID).
			With("actor_id", actorID).
			Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("MEMBER_LOAD_FAILED").
			With("community_id", communityID).
			With("actor_id", actorID).
			Wrap(err)
	}
	return rec, nil
}

// InsertDefaultMember inserts a default row for an unseen member. A unique
// violation means a concurrent handler inserted first; that row wins and
// Created stays false.
func (p *Postgres) InsertDefaultMember(ctx context.Context, communityID, actorID int64) (*MemberRecord, error) {
	rec := &MemberRecord{Created: true}
	err := p.pool.QueryRow(ctx, `
		INSERT INTO members (community_id, actor_id) VALUES ($1, $2)
		RETURNING id, community_id, actor_id, coins
	`, communityID, actorID).Scan(&rec.ID, &rec.CommunityID, &rec.ActorID, &rec.Coins)
	if isUniqueViolation(err) {
		return p.LoadMember(ctx, communityID, actorID)
	}
	if err != nil {
		return nil, oops.Code("MEMBER_INSERT_FAILED").
			With("community_id", communityID).
			With("actor_id", actorID).
			Wrap(err)
	}
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// LoadStorage returns every storage slot of a member.
func (p *Postgres) LoadStorage(ctx context.Context, memberID int64) ([]StorageRow, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT item_class, species_id, amount FROM storage WHERE member_id = $1
	`, memberID)
	if err != nil {
		return nil, oops.Code("STORAGE_LOAD_FAILED").With("member_id", memberID).Wrap(err)
	}
	defer rows.Close()

	var out []StorageRow
	for rows.Next() {
		var r StorageRow
		if err := rows.Scan(&r.Class, &r.SpeciesID, &r.Amount); err != nil {
			return nil, oops.Code("STORAGE_SCAN_FAILED").With("member_id", memberID).Wrap(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("STORAGE_LOAD_FAILED").With("member_id", memberID).Wrap(err)
	}
	return out, nil
}

// SeedStorage inserts the default grants of a newly created member. The
// upsert keeps concurrent seeding of the same member idempotent at the
// row level.
func (p *Postgres) SeedStorage(ctx context.Context, memberID int64, rows []StorageRow) error {
	for _, r := range rows {
		_, err := p.pool.Exec(ctx, `
			INSERT INTO storage (member_id, item_class, species_id, amount)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (member_id, item_class, species_id) DO UPDATE SET amount = EXCLUDED.amount
		`, memberID, r.Class, r.SpeciesID, r.Amount)
		if err != nil {
			return oops.Code("STORAGE_SEED_FAILED").
				With("member_id", memberID).
				With("species_id", r.SpeciesID).
				Wrap(err)
		}
	}
	return nil
}

// LoadRules returns the persisted rule rows for one capability.
func (p *Postgres) LoadRules(ctx context.Context, communityID int64, capability int16) ([]RuleRow, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT scope, allowed FROM rules
		WHERE community_id = $1 AND capability = $2
		ORDER BY scope ASC
	`, communityID, capability)
	if err != nil {
		return nil, oops.Code("RULES_LOAD_FAILED").
			With("community_id", communityID).
			With("capability", capability).
			Wrap(err)
	}
	defer rows.Close()

	var out []RuleRow
	for rows.Next() {
		var r RuleRow
		if err := rows.Scan(&r.Scope, &r.Allowed); err != nil {
			return nil, oops.Code("RULES_SCAN_FAILED").With("community_id", communityID).Wrap(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("RULES_LOAD_FAILED").With("community_id", communityID).Wrap(err)
	}
	return out, nil
}

// UpsertRule inserts or replaces one rule row.
func (p *Postgres) UpsertRule(ctx context.Context, communityID int64, capability int16, scope int64, allowed bool) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO rules (community_id, capability, scope, allowed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (community_id, capability, scope) DO UPDATE SET allowed = EXCLUDED.allowed
	`, communityID, capability, scope, allowed)
	if err != nil {
		return oops.Code("RULE_UPSERT_FAILED").
			With("community_id", communityID).
			With("capability", capability).
			With("scope", scope).
			Wrap(err)
	}
	return nil
}

// DeleteRule removes one rule row.
func (p *Postgres) DeleteRule(ctx context.Context, communityID int64, capability int16, scope int64) error {
	_, err := p.pool.Exec(ctx, `
		DELETE FROM rules WHERE community_id = $1 AND capability = $2 AND scope = $3
	`, communityID, capability, scope)
	if err != nil {
		return oops.Code("RULE_DELETE_FAILED").
			With("community_id", communityID).
			With("capability", capability).
			With("scope", scope).
			Wrap(err)
	}
	return nil
}

// AdjustStorage applies a delta to one storage slot. Negative deltas with
// guardNonNegative set only land when the slot holds enough.
func (p *Postgres) AdjustStorage(ctx context.Context, memberID int64, class, speciesID int16, delta int64, guardNonNegative bool) error {
	var err error
	if guardNonNegative && delta < 0 {
		_, err = p.pool.Exec(ctx, `
			UPDATE storage SET amount = amount + $4
			WHERE member_id = $1 AND item_class = $2 AND species_id = $3 AND amount >= -$4
		`, memberID, class, speciesID, delta)
	} else {
		_, err = p.pool.Exec(ctx, `
			INSERT INTO storage (member_id, item_class, species_id, amount)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (member_id, item_class, species_id) DO UPDATE SET amount = storage.amount + $4
		`, memberID, class, speciesID, delta)
	}
	if err != nil {
		return oops.Code("STORAGE_ADJUST_FAILED").
			With("member_id", memberID).
			With("species_id", speciesID).
			With("delta", delta).
			Wrap(err)
	}
	return nil
}

// AdjustBalance applies a delta to a member's coin balance.
func (p *Postgres) AdjustBalance(ctx context.Context, memberID int64, delta int64) error {
	_, err := p.pool.Exec(ctx, `UPDATE members SET coins = coins + $2 WHERE id = $1`, memberID, delta)
	if err != nil {
		return oops.Code("BALANCE_ADJUST_FAILED").
			With("member_id", memberID).
			With("delta", delta).
			Wrap(err)
	}
	return nil
}

// UpsertPlantCount increments the aggregate planted counter.
func (p *Postgres) UpsertPlantCount(ctx context.Context, speciesID int16, actorID, channelID, communityID, delta int64) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO planted (species_id, actor_id, channel_id, community_id, count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (species_id, actor_id, channel_id) DO UPDATE SET count = planted.count + $5
	`, speciesID, actorID, channelID, communityID, delta)
	if err != nil {
		return oops.Code("PLANT_COUNT_FAILED").
			With("species_id", speciesID).
			With("actor_id", actorID).
			With("channel_id", channelID).
			Wrap(err)
	}
	return nil
}

// SettlePlant applies one plant's durable writes in a single transaction.
func (p *Postgres) SettlePlant(ctx context.Context, s PlantSettlement) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if s.ConsumeSeedling {
		// Guarded so concurrent decrements of the same slot never take
		// it below zero.
		_, err = tx.Exec(ctx, `
			UPDATE storage SET amount = amount - 1
			WHERE member_id = $1 AND item_class = $2 AND species_id = $3 AND amount > 0
		`, s.MemberID, int16(2), s.SpeciesID)
		if err != nil {
			return oops.Code("PLANT_SETTLE_FAILED").With("member_id", s.MemberID).Wrap(err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO planted (species_id, actor_id, channel_id, community_id, count)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (species_id, actor_id, channel_id) DO UPDATE SET count = planted.count + 1
	`, s.SpeciesID, s.ActorID, s.ChannelID, s.CommunityID)
	if err != nil {
		return oops.Code("PLANT_SETTLE_FAILED").With("member_id", s.MemberID).Wrap(err)
	}

	if s.Reward > 0 {
		_, err = tx.Exec(ctx, `UPDATE members SET coins = coins + $2 WHERE id = $1`, s.MemberID, s.Reward)
		if err != nil {
			return oops.Code("PLANT_SETTLE_FAILED").With("member_id", s.MemberID).Wrap(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// SettlePurchase applies one purchase's durable writes in a single
// transaction. The debit is guarded; ErrInsufficientFunds reports a
// balance that changed since the resolver's check.
func (p *Postgres) SettlePurchase(ctx context.Context, s PurchaseSettlement) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return oops.Code("TX_BEGIN_FAILED").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `
		UPDATE members SET coins = coins - $2 WHERE id = $1 AND coins >= $2
	`, s.MemberID, s.Cost)
	if err != nil {
		return oops.Code("PURCHASE_SETTLE_FAILED").With("member_id", s.MemberID).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("PURCHASE_INSUFFICIENT").With("member_id", s.MemberID).Wrap(ErrInsufficientFunds)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO storage (member_id, item_class, species_id, amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (member_id, item_class, species_id) DO UPDATE SET amount = storage.amount + $4
	`, s.MemberID, int16(1), s.SpeciesID, s.Quantity)
	if err != nil {
		return oops.Code("PURCHASE_SETTLE_FAILED").With("member_id", s.MemberID).Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("TX_COMMIT_FAILED").Wrap(err)
	}
	return nil
}

// PlantedStats returns a planted-count breakdown by species for the scope.
func (p *Postgres) PlantedStats(ctx context.Context, scope StatsScope) ([]SpeciesCount, error) {
	where, args := scopeClause(scope)
	limit := scope.Limit
	if limit <= 0 {
		limit = defaultStatsLimit
	}
	args = append(args, limit)

	query := `
		WITH total AS (SELECT SUM(count) AS total FROM planted WHERE ` + where + `)
		SELECT species_id, SUM(count) AS planted,
			ROUND(SUM(count)::numeric / (SELECT total FROM total) * 10000) / 100 AS percent
		FROM planted WHERE ` + where + `
		GROUP BY species_id
		ORDER BY planted DESC
		LIMIT $` + strconv.Itoa(len(args))

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, oops.Code("STATS_QUERY_FAILED").With("community_id", scope.CommunityID).Wrap(err)
	}
	defer rows.Close()

	var out []SpeciesCount
	for rows.Next() {
		var c SpeciesCount
		if err := rows.Scan(&c.SpeciesID, &c.Count, &c.Percent); err != nil {
			return nil, oops.Code("STATS_SCAN_FAILED").With("community_id", scope.CommunityID).Wrap(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("STATS_QUERY_FAILED").With("community_id", scope.CommunityID).Wrap(err)
	}
	return out, nil
}

// TopPlanters returns the scope's leaderboard: actors ranked by planted
// total, with their single biggest count row as the favorite.
func (p *Postgres) TopPlanters(ctx context.Context, scope StatsScope) ([]PlanterRank, error) {
	where, args := scopeClause(scope)
	limit := scope.Limit
	if limit <= 0 {
		limit = defaultStatsLimit
	}
	args = append(args, limit)

	query := `
		WITH total AS (SELECT SUM(count) AS total FROM planted WHERE ` + where + `)
		SELECT a.actor_id, b.planted,
			ROUND(b.planted::numeric / (SELECT total FROM total) * 10000) / 100 AS percent,
			a.species_id AS fav_species, a.channel_id AS fav_channel
		FROM planted a
		INNER JOIN (
			SELECT actor_id, MAX(count) AS top, SUM(count) AS planted
			FROM planted WHERE ` + where + ` GROUP BY actor_id
		) b ON a.actor_id = b.actor_id AND a.count = b.top AND ` + where + `
		ORDER BY b.planted DESC
		LIMIT $` + strconv.Itoa(len(args))

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, oops.Code("LEADERBOARD_QUERY_FAILED").With("community_id", scope.CommunityID).Wrap(err)
	}
	defer rows.Close()

	var out []PlanterRank
	for rows.Next() {
		var r PlanterRank
		if err := rows.Scan(&r.ActorID, &r.Count, &r.Percent, &r.FavoriteSpecies, &r.FavoriteChannel); err != nil {
			return nil, oops.Code("LEADERBOARD_SCAN_FAILED").With("community_id", scope.CommunityID).Wrap(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("LEADERBOARD_QUERY_FAILED").With("community_id", scope.CommunityID).Wrap(err)
	}
	return out, nil
}

// BiggestChannel returns the channel with the highest planted total.
func (p *Postgres) BiggestChannel(ctx context.Context, communityID int64) (*ChannelCount, error) {
	rec := &ChannelCount{}
	err := p.pool.QueryRow(ctx, `
		SELECT channel_id, SUM(count) AS planted FROM planted
		WHERE community_id = $1
		GROUP BY channel_id
		ORDER BY planted DESC
		LIMIT 1
	`, communityID).Scan(&rec.ChannelID, &rec.Count)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("NO_PLANTED_ROWS").With("community_id", communityID).Wrap(ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("STATS_QUERY_FAILED").With("community_id", communityID).Wrap(err)
	}
	return rec, nil
}

const defaultStatsLimit = 5

// scopeClause builds the planted-table filter for a stats scope. Fragments
// are fixed strings; only values travel as query arguments.
func scopeClause(scope StatsScope) (string, []any) {
	where := "community_id = $1"
	args := []any{scope.CommunityID}
	if scope.ChannelID != 0 {
		args = append(args, scope.ChannelID)
		where += " AND channel_id = $" + strconv.Itoa(len(args))
	}
	if scope.ActorID != 0 {
		args = append(args, scope.ActorID)
		where += " AND actor_id = $" + strconv.Itoa(len(args))
	}
	return where, args
}
