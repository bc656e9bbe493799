// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package main

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default values for serve configuration.
const (
	defaultMetricsAddr        = "127.0.0.1:9100"
	defaultLogFormat          = "json"
	defaultLogLevel           = "info"
	defaultCacheSweepInterval = 10 * time.Minute
)

// Config holds the serve configuration, merged from flag defaults, an
// optional YAML file, and explicitly set flags (highest precedence).
type Config struct {
	DatabaseURL string `koanf:"database-url"`
	MetricsAddr string `koanf:"metrics-addr"`
	LogFormat   string `koanf:"log-format"`
	LogLevel    string `koanf:"log-level"`
	AutoMigrate bool   `koanf:"auto-migrate"`

	// PurchaseTimeout overrides the pending-purchase window; zero keeps
	// the built-in default.
	PurchaseTimeout time.Duration `koanf:"purchase-timeout"`

	// CacheSweepInterval is how often idle communities are swept.
	CacheSweepInterval time.Duration `koanf:"cache-sweep-interval"`
	// CacheMaxAge evicts communities idle longer than this; zero disables
	// eviction.
	CacheMaxAge time.Duration `koanf:"cache-max-age"`

	// RateLimitBurst and RateLimitRate tune per-actor command limiting.
	// Zero values keep the command package defaults.
	RateLimitBurst int     `koanf:"rate-limit-burst"`
	RateLimitRate  float64 `koanf:"rate-limit-rate"`
}

// LoadConfig merges configuration sources: an optional YAML file, then
// command-line flags (set flags override the file; unset flags supply
// defaults for keys the file omits). An empty database URL falls back to
// the DATABASE_URL environment variable.
func LoadConfig(flags *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	return cfg, nil
}

// Validate checks that the configuration is usable for serving.
func (cfg *Config) Validate() error {
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database-url (or DATABASE_URL) is required")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").Errorf("log-format must be 'json' or 'text', got %q", cfg.LogFormat)
	}
	if cfg.PurchaseTimeout < 0 {
		return oops.Code("CONFIG_INVALID").Errorf("purchase-timeout must not be negative")
	}
	if cfg.CacheSweepInterval <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("cache-sweep-interval must be positive")
	}
	if cfg.CacheMaxAge < 0 {
		return oops.Code("CONFIG_INVALID").Errorf("cache-max-age must not be negative")
	}
	return nil
}

// registerServeFlags declares the serve flags whose defaults seed the
// config when neither the file nor the command line sets them.
func registerServeFlags(flags *pflag.FlagSet) {
	flags.String("database-url", "", "PostgreSQL connection URL (default: $DATABASE_URL)")
	flags.String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	flags.String("log-format", defaultLogFormat, "log format (json or text)")
	flags.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.Bool("auto-migrate", false, "run pending migrations on startup")
	flags.Duration("purchase-timeout", 0, "pending purchase window (0 = built-in default)")
	flags.Duration("cache-sweep-interval", defaultCacheSweepInterval, "idle community sweep interval")
	flags.Duration("cache-max-age", 0, "evict communities idle longer than this (0 = never)")
	flags.Int("rate-limit-burst", 0, "command burst capacity per actor (0 = default)")
	flags.Float64("rate-limit-rate", 0, "sustained commands per second per actor (0 = default)")
}
