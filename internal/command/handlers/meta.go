// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package handlers

import (
	"context"
	"strings"

	"github.com/grovebot/grove/internal/command"
)

// PingHandler answers with a liveness check.
// Usage: ping
func PingHandler(ctx context.Context, exec *command.Execution) error {
	writeOutput(ctx, exec, "ping", "Pong! The grove is listening.")
	return nil
}

// HelpHandler lists commands, or shows usage for one command.
// Usage: help [command]
func HelpHandler(ctx context.Context, exec *command.Execution) error {
	registry := exec.Services.Registry
	if registry == nil {
		writeOutput(ctx, exec, "help", "No commands are registered.")
		return nil
	}

	if exec.Args != "" {
		name := strings.ToLower(strings.TrimSpace(exec.Args))
		entry, ok := registry.Get(name)
		if !ok {
			return command.ErrUnknownCommand(name)
		}
		writeOutputf(ctx, exec, "help", "%s - %s\n", entry.Name, entry.Help)
		if entry.Usage != "" {
			writeOutputf(ctx, exec, "help", "Usage: %s\n", entry.Usage)
		}
		if len(entry.Aliases) > 0 {
			writeOutputf(ctx, exec, "help", "Aliases: %s\n", strings.Join(entry.Aliases, ", "))
		}
		return nil
	}

	writeOutput(ctx, exec, "help", "Available commands:")
	for _, entry := range registry.All() {
		if entry.ManageOnly && !exec.ManageCommunity {
			continue
		}
		writeOutputf(ctx, exec, "help", "  %-12s %s\n", entry.Name, entry.Help)
	}
	return nil
}
