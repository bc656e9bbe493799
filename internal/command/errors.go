// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package command

import (
	"github.com/samber/oops"
)

// Error codes for command dispatch failures.
const (
	CodeEmptyInput      = "EMPTY_INPUT"
	CodeUnknownCommand  = "UNKNOWN_COMMAND"
	CodeChannelDisabled = "CHANNEL_DISABLED"
	CodeManageOnly      = "MANAGE_ONLY"
	CodeInvalidArgs     = "INVALID_ARGS"
	CodeGameError       = "GAME_ERROR"
	CodeRateLimited     = "RATE_LIMITED"
)

// ErrUnknownCommand creates an error for an unknown command.
func ErrUnknownCommand(cmd string) error {
	return oops.Code(CodeUnknownCommand).
		With("command", cmd).
		Errorf("unknown command: %s", cmd)
}

// ErrChannelDisabled creates an error for a channel where commands are
// switched off by the community's rules.
func ErrChannelDisabled(channelID int64) error {
	return oops.Code(CodeChannelDisabled).
		With("channel_id", channelID).
		Errorf("commands are disabled in this channel")
}

// ErrManageOnly creates an error for a management command invoked without
// the manage-community permission.
func ErrManageOnly(cmd string) error {
	return oops.Code(CodeManageOnly).
		With("command", cmd).
		Errorf("command %s requires the manage-community permission", cmd)
}

// ErrInvalidArgs creates an error for invalid arguments.
func ErrInvalidArgs(cmd, usage string) error {
	return oops.Code(CodeInvalidArgs).
		With("command", cmd).
		With("usage", usage).
		Errorf("invalid arguments")
}

// GameError creates an error for game state issues with a player-facing
// message.
func GameError(message string, cause error) error {
	builder := oops.Code(CodeGameError).With("message", message)
	if cause != nil {
		return builder.Wrap(cause)
	}
	return builder.Errorf("%s", message)
}

// ErrRateLimited creates an error for rate limiting.
func ErrRateLimited(cooldownMs int64) error {
	return oops.Code(CodeRateLimited).
		With("cooldown_ms", cooldownMs).
		Errorf("too many commands")
}

// PlayerMessage extracts a player-facing message from an error.
func PlayerMessage(err error) string {
	const fallback = "Something went wrong. Try again."
	if err == nil {
		return fallback
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return fallback
	}

	switch oopsErr.Code() {
	case CodeUnknownCommand:
		return "Unknown command. Try 'help'."
	case CodeChannelDisabled:
		return "Commands are disabled in this channel."
	case CodeManageOnly:
		return "Only community managers can do that."
	case CodeInvalidArgs:
		if usage, ok := oopsErr.Context()["usage"].(string); ok && usage != "" {
			return "Usage: " + usage
		}
		return "Invalid arguments."
	case CodeGameError:
		if msg, ok := oopsErr.Context()["message"].(string); ok {
			return msg
		}
		return fallback
	case CodeRateLimited:
		return "Too many commands. Please slow down."
	default:
		return fallback
	}
}
