// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/grovebot/grove/internal/store"
)

// setupPostgresContainer starts a migrated PostgreSQL container.
func setupPostgresContainer() (*store.Postgres, func(), error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("grove_test"),
		postgres.WithUsername("grove"),
		postgres.WithPassword("grove"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		return nil, nil, err
	}
	_ = migrator.Close()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return store.NewPostgres(pool), cleanup, nil
}

var _ = Describe("Postgres", func() {
	var s *store.Postgres
	var cleanup func()

	BeforeEach(func() {
		var err error
		s, cleanup, err = setupPostgresContainer()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanup()
	})

	Describe("community lifecycle", func() {
		It("creates defaults and persists settings", func() {
			ctx := context.Background()

			_, err := s.LoadCommunity(ctx, 100)
			Expect(err).To(MatchError(store.ErrNotFound))

			rec, err := s.InsertDefaultCommunity(ctx, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Prefix).To(Equal("f-"))
			Expect(rec.PlantCooldown).To(BeZero())

			Expect(s.UpdateCommunityPrefix(ctx, 100, "g!")).To(Succeed())
			Expect(s.UpdateCommunityCooldown(ctx, 100, 600)).To(Succeed())

			rec, err = s.LoadCommunity(ctx, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.Prefix).To(Equal("g!"))
			Expect(rec.PlantCooldown).To(Equal(int64(600)))
		})
	})

	Describe("member lifecycle", func() {
		It("creates, seeds, and settles a plant", func() {
			ctx := context.Background()

			_, err := s.InsertDefaultCommunity(ctx, 100)
			Expect(err).NotTo(HaveOccurred())

			member, err := s.InsertDefaultMember(ctx, 100, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(member.Created).To(BeTrue())

			Expect(s.SeedStorage(ctx, member.ID, []store.StorageRow{
				{Class: 2, SpeciesID: 1, Amount: -1},
				{Class: 2, SpeciesID: 2, Amount: 50},
			})).To(Succeed())

			Expect(s.SettlePlant(ctx, store.PlantSettlement{
				MemberID:        member.ID,
				SpeciesID:       2,
				ActorID:         42,
				ChannelID:       555,
				CommunityID:     100,
				ConsumeSeedling: true,
				Reward:          1,
			})).To(Succeed())

			rows, err := s.LoadStorage(ctx, member.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(ContainElement(store.StorageRow{Class: 2, SpeciesID: 2, Amount: 49}))

			reloaded, err := s.LoadMember(ctx, 100, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(reloaded.Coins).To(Equal(int64(1)))

			counts, err := s.PlantedStats(ctx, store.StatsScope{CommunityID: 100})
			Expect(err).NotTo(HaveOccurred())
			Expect(counts).To(HaveLen(1))
			Expect(counts[0].Count).To(Equal(int64(1)))
		})

		It("rolls a purchase back when the balance is short", func() {
			ctx := context.Background()

			_, err := s.InsertDefaultCommunity(ctx, 100)
			Expect(err).NotTo(HaveOccurred())
			member, err := s.InsertDefaultMember(ctx, 100, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.AdjustBalance(ctx, member.ID, 10)).To(Succeed())

			err = s.SettlePurchase(ctx, store.PurchaseSettlement{
				MemberID:  member.ID,
				SpeciesID: 4,
				Cost:      25,
				Quantity:  20,
			})
			Expect(err).To(MatchError(store.ErrInsufficientFunds))

			rows, err := s.LoadStorage(ctx, member.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(BeEmpty())
		})
	})

	Describe("rules", func() {
		It("round-trips rule rows", func() {
			ctx := context.Background()

			_, err := s.InsertDefaultCommunity(ctx, 100)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.UpsertRule(ctx, 100, 1, 0, false)).To(Succeed())
			Expect(s.UpsertRule(ctx, 100, 1, 555, true)).To(Succeed())

			rows, err := s.LoadRules(ctx, 100, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(Equal([]store.RuleRow{
				{Scope: 0, Allowed: false},
				{Scope: 555, Allowed: true},
			}))

			Expect(s.DeleteRule(ctx, 100, 1, 555)).To(Succeed())
			rows, err = s.LoadRules(ctx, 100, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
		})
	})
})
