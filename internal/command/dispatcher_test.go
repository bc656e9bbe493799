// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package command

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovebot/grove/internal/engine"
	"github.com/grovebot/grove/internal/game"
	"github.com/grovebot/grove/internal/store"
)

func newTestExecution(t *testing.T) (*Execution, *bytes.Buffer) {
	t.Helper()
	e := engine.New(engine.Config{Store: store.NewMemory()})
	t.Cleanup(e.Close)

	out := &bytes.Buffer{}
	return &Execution{
		CommunityID: 100,
		ChannelID:   555,
		ActorID:     42,
		Output:      out,
		Services:    &Services{Engine: e},
	}, out
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected an oops error, got %v", err)
	assert.Equal(t, code, oopsErr.Code())
}

func TestNewDispatcher_NilRegistry(t *testing.T) {
	_, err := NewDispatcher(nil)
	require.ErrorIs(t, err, ErrNilRegistry)
}

func TestDispatch_ExecutesHandler(t *testing.T) {
	reg := NewRegistry()
	var gotArgs, gotInvokedAs string
	require.NoError(t, reg.Register(Entry{
		Name: "echo",
		Handler: func(_ context.Context, exec *Execution) error {
			gotArgs = exec.Args
			gotInvokedAs = exec.InvokedAs
			return nil
		},
	}))
	d, err := NewDispatcher(reg)
	require.NoError(t, err)

	exec, _ := newTestExecution(t)
	require.NoError(t, d.Dispatch(context.Background(), "echo hello world", exec))
	assert.Equal(t, "hello world", gotArgs)
	assert.Equal(t, "echo", gotInvokedAs)
}

func TestDispatch_UnknownCommand(t *testing.T) {
	d, err := NewDispatcher(NewRegistry())
	require.NoError(t, err)

	exec, _ := newTestExecution(t)
	assertCode(t, d.Dispatch(context.Background(), "nope", exec), CodeUnknownCommand)
}

func TestDispatch_NilServices(t *testing.T) {
	d, err := NewDispatcher(NewRegistry())
	require.NoError(t, err)

	err = d.Dispatch(context.Background(), "help", &Execution{})
	require.ErrorIs(t, err, ErrNilServices)
}

func TestDispatch_ChannelGate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Entry{Name: "shop", Handler: noopHandler}))
	d, err := NewDispatcher(reg)
	require.NoError(t, err)

	exec, _ := newTestExecution(t)
	ctx := context.Background()
	require.NoError(t, exec.Services.Engine.SetRule(ctx, exec.CommunityID, game.CapCommand, exec.ChannelID, game.Deny))

	assertCode(t, d.Dispatch(ctx, "shop", exec), CodeChannelDisabled)

	// Managers bypass the gate so a lockout can always be undone.
	exec.ManageCommunity = true
	require.NoError(t, d.Dispatch(ctx, "shop", exec))
}

func TestDispatch_ManageOnly(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Entry{Name: "cooldown", Handler: noopHandler, ManageOnly: true}))
	d, err := NewDispatcher(reg)
	require.NoError(t, err)

	exec, _ := newTestExecution(t)
	ctx := context.Background()

	assertCode(t, d.Dispatch(ctx, "cooldown 600", exec), CodeManageOnly)

	exec.ManageCommunity = true
	require.NoError(t, d.Dispatch(ctx, "cooldown 600", exec))
}

func TestDispatch_HandlerErrorPropagates(t *testing.T) {
	reg := NewRegistry()
	wantErr := errors.New("handler failed")
	require.NoError(t, reg.Register(Entry{
		Name:    "broken",
		Handler: func(_ context.Context, _ *Execution) error { return wantErr },
	}))
	d, err := NewDispatcher(reg)
	require.NoError(t, err)

	exec, _ := newTestExecution(t)
	require.ErrorIs(t, d.Dispatch(context.Background(), "broken", exec), wantErr)
}

func TestDispatch_RateLimited(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Entry{Name: "ping", Handler: noopHandler}))

	rl := NewRateLimiter(RateLimiterConfig{BurstCapacity: 2, SustainedRate: 0.1})
	t.Cleanup(rl.Close)
	d, err := NewDispatcher(reg, WithRateLimiter(rl))
	require.NoError(t, err)

	exec, _ := newTestExecution(t)
	ctx := context.Background()

	require.NoError(t, d.Dispatch(ctx, "ping", exec))
	require.NoError(t, d.Dispatch(ctx, "ping", exec))
	assertCode(t, d.Dispatch(ctx, "ping", exec), CodeRateLimited)

	// Managers are exempt from rate limiting.
	exec.ManageCommunity = true
	require.NoError(t, d.Dispatch(ctx, "ping", exec))
}

func TestHandleMessage_PrefixRouting(t *testing.T) {
	reg := NewRegistry()
	invoked := 0
	require.NoError(t, reg.Register(Entry{
		Name:    "ping",
		Handler: func(_ context.Context, _ *Execution) error { invoked++; return nil },
	}))
	d, err := NewDispatcher(reg)
	require.NoError(t, err)

	exec, _ := newTestExecution(t)
	ctx := context.Background()

	require.ErrorIs(t, d.HandleMessage(ctx, "just chatting", exec), ErrNotCommand)
	assert.Zero(t, invoked)

	require.NoError(t, d.HandleMessage(ctx, "f-ping", exec), "default prefix routes")
	assert.Equal(t, 1, invoked)

	require.NoError(t, exec.Services.Engine.SetPrefix(ctx, exec.CommunityID, "g!"))
	require.ErrorIs(t, d.HandleMessage(ctx, "f-ping", exec), ErrNotCommand)
	require.NoError(t, d.HandleMessage(ctx, "g!ping", exec))
	assert.Equal(t, 2, invoked)
}
