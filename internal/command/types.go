// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

// Package command provides the chat command registry, parser, and dispatcher.
package command

import (
	"context"
	"io"

	"github.com/grovebot/grove/internal/engine"
)

// Handler is the function signature for command handlers.
type Handler func(ctx context.Context, exec *Execution) error

// Entry represents a registered command.
type Entry struct {
	Name       string   // canonical name (e.g. "shop")
	Aliases    []string // alternate invocation names
	Handler    Handler
	ManageOnly bool   // requires the manage-community permission
	Help       string // short description (one line)
	Usage      string // usage pattern (e.g. "prefix <new-prefix>")
}

// Execution carries the context of a single command invocation.
type Execution struct {
	CommunityID int64
	ChannelID   int64
	ActorID     int64

	// ManageCommunity is set by the transport when the actor holds the
	// community management permission. It bypasses channel command gating
	// and unlocks ManageOnly commands.
	ManageCommunity bool

	Args      string // unparsed argument string
	InvokedAs string // the name or alias the actor typed
	Output    io.Writer
	Services  *Services
}

// Services provides access to core services for command handlers.
// Handlers must access services only through exec.Services and must not
// retain references beyond the execution.
type Services struct {
	Engine   *engine.Engine
	Registry *Registry
}
