// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

// Package cooldown gates the repeatable plant action per actor.
package cooldown

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Default housekeeping values.
const (
	// DefaultCleanupInterval is the interval at which the background
	// goroutine sweeps stale actor entries.
	DefaultCleanupInterval = 5 * time.Minute

	// DefaultEntryMaxAge is how long an actor's last-action timestamp is
	// retained after it can no longer gate anything. It must stay above the
	// maximum configurable cooldown so a sweep never re-opens a live gate.
	DefaultEntryMaxAge = 9 * time.Hour
)

// Key identifies one actor within one community. Cooldowns are scoped to
// the community, so the same actor in two communities gates independently.
type Key struct {
	CommunityID int64
	ActorID     int64
}

// TrackerConfig configures the cooldown tracker.
type TrackerConfig struct {
	// CleanupInterval is the interval at which background cleanup runs.
	// Defaults to DefaultCleanupInterval if zero.
	CleanupInterval time.Duration

	// EntryMaxAge is the maximum age of a tracked timestamp before cleanup
	// removes it. Defaults to DefaultEntryMaxAge if zero.
	EntryMaxAge time.Duration
}

// Tracker maps actors to their last qualifying action instant. It is
// process-local and non-persistent: losing it on restart only relaxes rate
// limiting, never economic state. Safe for concurrent use.
//
// The Tracker runs a background goroutine to sweep stale entries. Call
// Close to stop it.
type Tracker struct {
	mu          sync.Mutex
	last        map[Key]time.Time
	entryMaxAge time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup

	// Metrics gauge for tracked actor count (nil if no registry provided)
	actorGauge prometheus.Gauge
}

// NewTracker creates a cooldown tracker and starts its cleanup goroutine.
func NewTracker(cfg TrackerConfig) *Tracker {
	return newTracker(cfg, nil)
}

// NewTrackerWithRegistry creates a tracker and registers an actor count
// gauge with the provided Prometheus registry.
func NewTrackerWithRegistry(cfg TrackerConfig, reg prometheus.Registerer) *Tracker {
	return newTracker(cfg, reg)
}

func newTracker(cfg TrackerConfig, reg prometheus.Registerer) *Tracker {
	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	entryMaxAge := cfg.EntryMaxAge
	if entryMaxAge <= 0 {
		entryMaxAge = DefaultEntryMaxAge
	}

	t := &Tracker{
		last:        make(map[Key]time.Time),
		entryMaxAge: entryMaxAge,
		stopChan:    make(chan struct{}),
	}

	if reg != nil {
		t.actorGauge = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grove_cooldown_actors",
			Help: "Current number of tracked cooldown actors",
		})
		reg.MustRegister(t.actorGauge)
	}

	t.wg.Add(1)
	go t.cleanupLoop(cleanupInterval)

	return t
}

// CheckAndTouch reports whether the actor may act at now given the
// community's cooldown, and records now as the last action when allowed.
//
// A zero cooldown always allows and never touches the tracker, so disabled
// limiters cannot grow the map. The touch happens with the check-passing
// decision, under one lock section, so a burst of near-simultaneous
// triggers cannot all pass against a stale timestamp.
func (t *Tracker) CheckAndTouch(key Key, now time.Time, cooldown time.Duration) bool {
	if cooldown <= 0 {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if prior, ok := t.last[key]; ok && now.Sub(prior) < cooldown {
		return false
	}
	t.last[key] = now
	return true
}

// ActorCount returns the number of tracked actors. Useful for testing and
// monitoring.
func (t *Tracker) ActorCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.last)
}

// Cleanup removes entries older than maxAge. Called automatically by the
// background goroutine, but can also be invoked manually.
func (t *Tracker) Cleanup(maxAge time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	threshold := time.Now().Add(-maxAge)
	for key, ts := range t.last {
		if ts.Before(threshold) {
			delete(t.last, key)
		}
	}

	if t.actorGauge != nil {
		t.actorGauge.Set(float64(len(t.last)))
	}
}

func (t *Tracker) cleanupLoop(interval time.Duration) {
	defer t.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopChan:
			return
		case <-ticker.C:
			t.Cleanup(t.entryMaxAge)
		}
	}
}

// Close stops the background cleanup goroutine and blocks until it exits.
func (t *Tracker) Close() {
	close(t.stopChan)
	t.wg.Wait()
}
