// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package command

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Default rate limiting values.
const (
	// DefaultBurstCapacity is the maximum number of commands an actor can
	// execute in a burst before rate limiting kicks in.
	DefaultBurstCapacity = 10

	// DefaultSustainedRate is the number of commands per second allowed as
	// sustained rate (token refill rate).
	DefaultSustainedRate = 2.0

	// MinBurstCapacity ensures burst capacity is at least 1.
	MinBurstCapacity = 1

	// MinSustainedRate ensures sustained rate is at least 0.1 tokens/second.
	MinSustainedRate = 0.1

	// DefaultCleanupInterval is the interval at which the background
	// goroutine runs to clean up stale actor buckets.
	DefaultCleanupInterval = 5 * time.Minute

	// DefaultActorMaxAge is the maximum idle age for an actor bucket before
	// cleanup removes it.
	DefaultActorMaxAge = time.Hour
)

// RateLimiterConfig configures the rate limiter. Zero values select the
// package defaults.
type RateLimiterConfig struct {
	BurstCapacity   int
	SustainedRate   float64
	CleanupInterval time.Duration
	ActorMaxAge     time.Duration
}

// actorKey identifies a bucket. The same person in two communities carries
// two independent budgets.
type actorKey struct {
	CommunityID int64
	ActorID     int64
}

// bucket tracks token-bucket state for a single actor.
type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// RateLimiter implements per-actor command rate limiting using a token
// bucket algorithm. It is safe for concurrent use.
//
// The RateLimiter runs a background goroutine to periodically clean up
// stale buckets. Call Close to stop the goroutine.
type RateLimiter struct {
	mu            sync.Mutex
	actors        map[actorKey]*bucket
	burstCapacity int
	sustainedRate float64 // tokens per second
	actorMaxAge   time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup

	actorGauge prometheus.Gauge // nil without a registry
}

// NewRateLimiter creates a rate limiter with the given configuration.
// It starts a background cleanup goroutine. Call Close to stop it.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return newRateLimiter(cfg, nil)
}

// NewRateLimiterWithRegistry creates a rate limiter and registers an actor
// count gauge with the provided Prometheus registry.
func NewRateLimiterWithRegistry(cfg RateLimiterConfig, reg prometheus.Registerer) *RateLimiter {
	return newRateLimiter(cfg, reg)
}

func newRateLimiter(cfg RateLimiterConfig, reg prometheus.Registerer) *RateLimiter {
	burstCapacity := cfg.BurstCapacity
	if burstCapacity <= 0 {
		burstCapacity = DefaultBurstCapacity
	}
	if burstCapacity < MinBurstCapacity {
		burstCapacity = MinBurstCapacity
	}

	sustainedRate := cfg.SustainedRate
	if sustainedRate <= 0 {
		sustainedRate = DefaultSustainedRate
	}
	if sustainedRate < MinSustainedRate {
		sustainedRate = MinSustainedRate
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}

	actorMaxAge := cfg.ActorMaxAge
	if actorMaxAge <= 0 {
		actorMaxAge = DefaultActorMaxAge
	}

	rl := &RateLimiter{
		actors:        make(map[actorKey]*bucket),
		burstCapacity: burstCapacity,
		sustainedRate: sustainedRate,
		actorMaxAge:   actorMaxAge,
		stopChan:      make(chan struct{}),
	}

	if reg != nil {
		rl.actorGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grove_ratelimiter_actors",
			Help: "Current number of tracked rate limiter actor buckets",
		})
		reg.MustRegister(rl.actorGauge)
	}

	rl.wg.Add(1)
	go rl.cleanupLoop(cleanupInterval)

	return rl
}

// Allow checks whether a command from the given actor is allowed. It
// returns (allowed, cooldownMs); cooldownMs is the wait until the next
// token when the command is rejected.
//
// Each call consumes one token if available. Tokens refill at the
// sustained rate, up to the burst capacity.
func (rl *RateLimiter) Allow(communityID, actorID int64) (allowed bool, cooldownMs int64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	key := actorKey{CommunityID: communityID, ActorID: actorID}

	b, exists := rl.actors[key]
	if !exists {
		// New actors start with a full bucket.
		b = &bucket{
			tokens:    float64(rl.burstCapacity),
			lastCheck: now,
		}
		rl.actors[key] = b
	}

	elapsed := now.Sub(b.lastCheck).Seconds()
	b.tokens += elapsed * rl.sustainedRate
	if b.tokens > float64(rl.burstCapacity) {
		b.tokens = float64(rl.burstCapacity)
	}
	b.lastCheck = now

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true, 0
	}

	deficit := 1.0 - b.tokens
	cooldownSeconds := deficit / rl.sustainedRate
	cooldownMs = int64(cooldownSeconds * 1000)

	return false, cooldownMs
}

// ActorCount returns the number of tracked actor buckets.
func (rl *RateLimiter) ActorCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.actors)
}

// Cleanup removes buckets idle since longer than maxAge. Called
// automatically by the background goroutine.
func (rl *RateLimiter) Cleanup(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := time.Now().Add(-maxAge)
	for key, b := range rl.actors {
		if b.lastCheck.Before(threshold) {
			delete(rl.actors, key)
		}
	}

	if rl.actorGauge != nil {
		rl.actorGauge.Set(float64(len(rl.actors)))
	}
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	defer rl.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			rl.Cleanup(rl.actorMaxAge)
		}
	}
}

// Close stops the background cleanup goroutine. It blocks until the
// goroutine has stopped.
func (rl *RateLimiter) Close() {
	close(rl.stopChan)
	rl.wg.Wait()
}
