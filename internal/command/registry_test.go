// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler(_ context.Context, _ *Execution) error { return nil }

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Entry{
		Name:    "stats",
		Aliases: []string{"top"},
		Handler: noopHandler,
		Help:    "Show planting statistics",
	}))

	entry, ok := r.Get("stats")
	require.True(t, ok)
	assert.Equal(t, "stats", entry.Name)

	entry, ok = r.Get("top")
	require.True(t, ok, "aliases resolve to the canonical entry")
	assert.Equal(t, "stats", entry.Name)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_OverwriteWins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Entry{Name: "shop", Handler: noopHandler, Help: "old"}))
	require.NoError(t, r.Register(Entry{Name: "shop", Handler: noopHandler, Help: "new"}))

	entry, ok := r.Get("shop")
	require.True(t, ok)
	assert.Equal(t, "new", entry.Help)
}

func TestRegistry_AllSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"storage", "help", "shop"} {
		require.NoError(t, r.Register(Entry{Name: name, Handler: noopHandler}))
	}

	entries := r.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "help", entries[0].Name)
	assert.Equal(t, "shop", entries[1].Name)
	assert.Equal(t, "storage", entries[2].Name)
}
