// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

// Package workflow runs the confirm-or-cancel purchase exchange.
package workflow

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// newULID generates a purchase ID.
func newULID() ulid.ULID {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}

// DefaultTimeout is how long a pending purchase waits for the buyer.
const DefaultTimeout = 45 * time.Second

// State is the lifecycle state of a purchase.
type State int

const (
	// StatePending means the purchase is awaiting a buyer signal.
	StatePending State = iota
	// StateConfirmed means the purchase settled durably.
	StateConfirmed
	// StateCancelled means the purchase ended without settling.
	StateCancelled
	// StateTimedOut means no buyer signal arrived in time.
	StateTimedOut
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConfirmed:
		return "confirmed"
	case StateCancelled:
		return "cancelled"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Reason qualifies how a purchase reached its state.
type Reason int

const (
	// ReasonNone is the default for pending and confirmed purchases.
	ReasonNone Reason = iota
	// ReasonDeclined means the buyer cancelled.
	ReasonDeclined
	// ReasonInsufficientFunds means the settlement-time balance check failed.
	ReasonInsufficientFunds
	// ReasonExtraneousSignal means the signal came from a non-buyer and was
	// ignored.
	ReasonExtraneousSignal
	// ReasonTimeout means the pending window elapsed.
	ReasonTimeout
)

// Result reports the state a signal left a purchase in.
type Result struct {
	State  State
	Reason Reason
}

// Signal is a buyer's answer to a pending purchase.
type Signal int

const (
	// SignalConfirm accepts the purchase.
	SignalConfirm Signal = iota
	// SignalCancel declines it.
	SignalCancel
)

// ConfirmFunc settles a confirmed purchase durably. Returning
// ErrInsufficientFunds cancels the purchase instead of failing it.
type ConfirmFunc func(ctx context.Context) error

// ErrInsufficientFunds signals that the buyer's balance no longer covers
// the cost at settlement time.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrUnknownPurchase signals a purchase ID with no pending entry.
var ErrUnknownPurchase = errors.New("unknown purchase")

// ErrClosed signals Begin on a closed manager.
var ErrClosed = errors.New("workflow manager is closed")

type pending struct {
	buyerID int64
	confirm ConfirmFunc
	timer   *time.Timer
}

// Manager tracks pending purchases and resolves each one exactly once:
// by buyer signal or by timeout, whichever claims it first.
type Manager struct {
	timeout   time.Duration
	onTimeout func(id ulid.ULID, buyerID int64)

	mu      sync.Mutex
	entries map[ulid.ULID]*pending
	closed  bool
	wg      sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout overrides the pending window.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithTimeoutHook registers a callback invoked after a purchase times out.
// The hook runs on the timer goroutine, outside the manager lock.
func WithTimeoutHook(fn func(id ulid.ULID, buyerID int64)) Option {
	return func(m *Manager) {
		m.onTimeout = fn
	}
}

// NewManager creates a purchase workflow manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		timeout: DefaultTimeout,
		entries: make(map[ulid.ULID]*pending),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin registers a pending purchase and starts its timeout clock.
func (m *Manager) Begin(buyerID int64, confirm ConfirmFunc) (ulid.ULID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ulid.ULID{}, ErrClosed
	}

	id := newULID()
	p := &pending{buyerID: buyerID, confirm: confirm}
	m.entries[id] = p

	m.wg.Add(1)
	p.timer = time.AfterFunc(m.timeout, func() {
		defer m.wg.Done()
		m.expire(id)
	})

	return id, nil
}

// expire resolves a purchase as timed out, unless a signal claimed it first.
func (m *Manager) expire(id ulid.ULID) {
	m.mu.Lock()
	p, ok := m.entries[id]
	if ok {
		delete(m.entries, id)
	}
	m.mu.Unlock()

	if ok && m.onTimeout != nil {
		m.onTimeout(id, p.buyerID)
	}
}

// Signal delivers a buyer's answer. Signals from anyone but the buyer are
// ignored and leave the purchase pending. A confirm runs the settlement
// outside the manager lock; its error surfaces here, except the
// insufficient-funds case which cancels the purchase.
func (m *Manager) Signal(ctx context.Context, id ulid.ULID, actorID int64, sig Signal) (Result, error) {
	m.mu.Lock()
	p, ok := m.entries[id]
	if !ok {
		m.mu.Unlock()
		return Result{}, oops.Code("UNKNOWN_PURCHASE").With("purchase_id", id.String()).Wrap(ErrUnknownPurchase)
	}
	if actorID != p.buyerID {
		m.mu.Unlock()
		return Result{State: StatePending, Reason: ReasonExtraneousSignal}, nil
	}

	// Claim: only one resolver wins. Stopping the timer here races with
	// an already-fired timer, but the fired callback finds the entry gone
	// and does nothing.
	delete(m.entries, id)
	if p.timer.Stop() {
		m.wg.Done()
	}
	m.mu.Unlock()

	if sig == SignalCancel {
		return Result{State: StateCancelled, Reason: ReasonDeclined}, nil
	}

	if err := p.confirm(ctx); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return Result{State: StateCancelled, Reason: ReasonInsufficientFunds}, nil
		}
		return Result{}, oops.Code("PURCHASE_CONFIRM_FAILED").With("purchase_id", id.String()).Wrap(err)
	}
	return Result{State: StateConfirmed}, nil
}

// Pending returns the number of purchases awaiting a signal.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close cancels every pending purchase without resolving it and waits for
// in-flight timers to finish. Begin fails after Close.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for id, p := range m.entries {
		delete(m.entries, id)
		if p.timer.Stop() {
			m.wg.Done()
		}
	}
	m.mu.Unlock()

	m.wg.Wait()
}
