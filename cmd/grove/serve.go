// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/grovebot/grove/internal/command"
	"github.com/grovebot/grove/internal/command/handlers"
	"github.com/grovebot/grove/internal/engine"
	"github.com/grovebot/grove/internal/logging"
	"github.com/grovebot/grove/internal/observability"
	"github.com/grovebot/grove/internal/store"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the game core",
		Long: `Start the game core: connect to PostgreSQL, warm the command
registry, and expose metrics and health probes. Chat transports attach
to the running engine and dispatcher to deliver events.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	registerServeFlags(cmd.Flags())
	return cmd
}

func runServe(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetDefault("grove", version, cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting grove core",
		"metrics_addr", cfg.MetricsAddr,
		"log_format", cfg.LogFormat,
	)

	if cfg.AutoMigrate {
		if err := migrateUp(cfg.DatabaseURL); err != nil {
			return err
		}
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	slog.Info("connected to database")

	var ready atomic.Bool

	var obs *observability.Server
	var obsErrCh <-chan error
	if cfg.MetricsAddr != "" {
		obs = observability.NewServer(cfg.MetricsAddr, ready.Load)
		obsErrCh, err = obs.Start()
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if stopErr := obs.Stop(shutdownCtx); stopErr != nil {
				slog.Error("observability server shutdown failed", "error", stopErr)
			}
		}()
	}

	engineCfg := engine.Config{
		Store:           store.NewPostgres(pool),
		PurchaseTimeout: cfg.PurchaseTimeout,
		OnPurchaseTimeout: func(id ulid.ULID, buyerID int64) {
			slog.Info("purchase expired unanswered", "purchase_id", id.String(), "buyer_id", buyerID)
		},
	}
	if obs != nil {
		engineCfg.Registry = obs.Registry()
		engine.RegisterMetrics(obs.Registry())
		command.RegisterMetrics(obs.Registry())
	}

	core := engine.New(engineCfg)
	defer core.Close()

	registry := command.NewRegistry()
	handlers.RegisterAll(registry)

	var limiter *command.RateLimiter
	limiterCfg := command.RateLimiterConfig{
		BurstCapacity: cfg.RateLimitBurst,
		SustainedRate: cfg.RateLimitRate,
	}
	if obs != nil {
		limiter = command.NewRateLimiterWithRegistry(limiterCfg, obs.Registry())
	} else {
		limiter = command.NewRateLimiter(limiterCfg)
	}
	defer limiter.Close()

	dispatcher, err := command.NewDispatcher(registry, command.WithRateLimiter(limiter))
	if err != nil {
		return err
	}
	_ = dispatcher // transports attach here to route inbound messages

	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		sweepCaches(ctx, core, cfg.CacheSweepInterval, cfg.CacheMaxAge)
	}()

	ready.Store(true)
	slog.Info("grove core ready")

	select {
	case <-ctx.Done():
		slog.Info("shutting down", "reason", context.Cause(ctx))
	case obsErr, ok := <-obsErrCh:
		if ok && obsErr != nil {
			ready.Store(false)
			<-sweepDone
			return oops.Code("OBSERVABILITY_FAILED").Wrap(obsErr)
		}
	}

	ready.Store(false)
	<-sweepDone
	return nil
}

// sweepCaches periodically evicts idle communities until ctx is done.
func sweepCaches(ctx context.Context, core *engine.Engine, interval, maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if evicted := core.SweepCaches(now, maxAge); evicted > 0 {
				slog.Debug("swept idle communities", "evicted", evicted)
			}
		}
	}
}

// migrateUp applies pending migrations, tolerating an already-current
// schema.
func migrateUp(databaseURL string) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Error("migrator close failed", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return err
	}
	slog.Info("database schema current")
	return nil
}
