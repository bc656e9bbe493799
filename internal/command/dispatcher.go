// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package command

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("grove/command")

// Construction and routing sentinels.
var (
	ErrNilRegistry = errors.New("command: registry must not be nil")
	ErrNilServices = errors.New("command: execution services must not be nil")

	// ErrNotCommand reports that a message does not carry the community's
	// command prefix. Transports treat it as "ignore this message".
	ErrNotCommand = errors.New("command: message is not a command")
)

// Dispatcher handles prefix matching, channel gating, rate limiting, and
// command execution.
type Dispatcher struct {
	registry    *Registry
	rateLimiter *RateLimiter // optional, can be nil
}

// DispatcherOption configures a Dispatcher during construction.
type DispatcherOption func(*Dispatcher)

// WithRateLimiter configures the dispatcher to use rate limiting.
// If not provided, rate limiting is disabled.
func WithRateLimiter(rl *RateLimiter) DispatcherOption {
	return func(d *Dispatcher) {
		d.rateLimiter = rl
	}
}

// NewDispatcher creates a command dispatcher over the given registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) (*Dispatcher, error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	d := &Dispatcher{registry: registry}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// HandleMessage routes a raw chat message. Messages without the
// community's command prefix return ErrNotCommand; everything after the
// prefix is dispatched as a command.
func (d *Dispatcher) HandleMessage(ctx context.Context, content string, exec *Execution) error {
	if exec.Services == nil || exec.Services.Engine == nil {
		return ErrNilServices
	}

	prefix, err := exec.Services.Engine.Prefix(ctx, exec.CommunityID)
	if err != nil {
		return GameError("Something went wrong. Try again.", err)
	}
	if !strings.HasPrefix(content, prefix) {
		return ErrNotCommand
	}

	return d.Dispatch(ctx, strings.TrimPrefix(content, prefix), exec)
}

// Dispatch parses and executes a command with the prefix already removed.
func (d *Dispatcher) Dispatch(ctx context.Context, input string, exec *Execution) (err error) {
	if exec.Services == nil || exec.Services.Engine == nil {
		return ErrNilServices
	}

	parsed, err := Parse(input)
	if err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "command.execute",
		trace.WithAttributes(
			attribute.String("command.name", parsed.Name),
			attribute.Int64("community.id", exec.CommunityID),
			attribute.Int64("actor.id", exec.ActorID),
		),
	)
	start := time.Now()
	status := StatusError
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		RecordExecution(parsed.Name, status)
		RecordDuration(parsed.Name, time.Since(start))
	}()

	// Channel gating applies before execution; managers bypass it so a
	// community can always be reconfigured out of a lockout.
	if !exec.ManageCommunity {
		allowed, gateErr := exec.Services.Engine.CommandAllowed(ctx, exec.CommunityID, exec.ChannelID)
		if gateErr != nil {
			err = GameError("Something went wrong. Try again.", gateErr)
			return err
		}
		if !allowed {
			span.SetAttributes(attribute.Bool("command.channel_disabled", true))
			status = StatusDenied
			err = ErrChannelDisabled(exec.ChannelID)
			return err
		}

		if d.rateLimiter != nil {
			allowed, cooldownMs := d.rateLimiter.Allow(exec.CommunityID, exec.ActorID)
			if !allowed {
				span.SetAttributes(attribute.Bool("command.rate_limited", true))
				span.SetAttributes(attribute.Int64("command.cooldown_ms", cooldownMs))
				status = StatusRateLimited
				err = ErrRateLimited(cooldownMs)
				return err
			}
		}
	}

	entry, ok := d.registry.Get(parsed.Name)
	if !ok {
		status = StatusNotFound
		err = ErrUnknownCommand(parsed.Name)
		return err
	}

	if entry.ManageOnly && !exec.ManageCommunity {
		status = StatusDenied
		err = ErrManageOnly(entry.Name)
		return err
	}

	exec.Args = parsed.Args
	exec.InvokedAs = parsed.Name
	err = entry.Handler(ctx, exec)
	if err != nil {
		slog.WarnContext(ctx, "command execution failed",
			"command", entry.Name,
			"community_id", exec.CommunityID,
			"actor_id", exec.ActorID,
			"error", err,
		)
		return err
	}
	status = StatusSuccess
	return nil
}
