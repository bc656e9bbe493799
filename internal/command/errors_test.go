// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlayerMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, "Something went wrong. Try again."},
		{"plain error", errors.New("boom"), "Something went wrong. Try again."},
		{"unknown command", ErrUnknownCommand("foo"), "Unknown command. Try 'help'."},
		{"channel disabled", ErrChannelDisabled(555), "Commands are disabled in this channel."},
		{"manage only", ErrManageOnly("prefix"), "Only community managers can do that."},
		{"invalid args with usage", ErrInvalidArgs("cooldown", "cooldown <seconds>"), "Usage: cooldown <seconds>"},
		{"invalid args without usage", ErrInvalidArgs("cooldown", ""), "Invalid arguments."},
		{"game error carries message", GameError("That species is not for sale.", nil), "That species is not for sale."},
		{"game error with cause", GameError("Balance unavailable.", errors.New("db down")), "Balance unavailable."},
		{"rate limited", ErrRateLimited(500), "Too many commands. Please slow down."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlayerMessage(tt.err))
		})
	}
}
