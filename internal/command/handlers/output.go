// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

// Package handlers implements the built-in chat commands.
package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grovebot/grove/internal/command"
)

// logOutputError logs a write failure at warn level with structured
// context and increments the output failure metric. Connection issues
// become visible without failing the command.
func logOutputError(ctx context.Context, cmd string, actorID int64, bytesWritten int, err error) {
	slog.WarnContext(ctx, "failed to write command output",
		"command", cmd,
		"actor_id", actorID,
		"bytes_written", bytesWritten,
		"error", err,
	)
	command.RecordOutputFailure(cmd)
}

// writeOutput writes a line to the command output and logs any errors.
func writeOutput(ctx context.Context, exec *command.Execution, cmd, msg string) {
	if n, err := fmt.Fprintln(exec.Output, msg); err != nil {
		logOutputError(ctx, cmd, exec.ActorID, n, err)
	}
}

// writeOutputf writes a formatted message to the command output and logs
// any errors.
func writeOutputf(ctx context.Context, exec *command.Execution, cmd, format string, args ...any) {
	if n, err := fmt.Fprintf(exec.Output, format, args...); err != nil {
		logOutputError(ctx, cmd, exec.ActorID, n, err)
	}
}
