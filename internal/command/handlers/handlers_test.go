// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Grove Contributors

package handlers

import (
	"bytes"
	"context"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovebot/grove/internal/command"
	"github.com/grovebot/grove/internal/engine"
	"github.com/grovebot/grove/internal/game"
	"github.com/grovebot/grove/internal/store"
)

// testFixture bundles an engine over an in-memory store with a populated
// registry, the way the serve path wires them.
type testFixture struct {
	engine *engine.Engine
	store  *store.Memory
	reg    *command.Registry
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	st := store.NewMemory()
	e := engine.New(engine.Config{Store: st})
	t.Cleanup(e.Close)

	reg := command.NewRegistry()
	RegisterAll(reg)

	return &testFixture{engine: e, store: st, reg: reg}
}

func (f *testFixture) exec(actorID int64, manage bool) (*command.Execution, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &command.Execution{
		CommunityID:     100,
		ChannelID:       555,
		ActorID:         actorID,
		ManageCommunity: manage,
		Output:          out,
		Services:        &command.Services{Engine: f.engine, Registry: f.reg},
	}, out
}

func (f *testFixture) plant(t *testing.T, actorID int64, emoji string) {
	t.Helper()
	res, err := f.engine.HandlePlant(context.Background(), engine.Message{
		CommunityID: 100, ChannelID: 555, ActorID: actorID, Content: emoji,
	})
	require.NoError(t, err)
	require.Equal(t, engine.OutcomePlanted, res.Outcome)
}

func run(t *testing.T, h command.Handler, exec *command.Execution, args string) error {
	t.Helper()
	exec.Args = args
	return h(context.Background(), exec)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected an oops error, got %v", err)
	assert.Equal(t, code, oopsErr.Code())
}

func TestPingHandler(t *testing.T) {
	f := newFixture(t)
	exec, out := f.exec(42, false)

	require.NoError(t, run(t, PingHandler, exec, ""))
	assert.Contains(t, out.String(), "Pong!")
}

func TestHelpHandler(t *testing.T) {
	f := newFixture(t)

	t.Run("lists commands for members", func(t *testing.T) {
		exec, out := f.exec(42, false)
		require.NoError(t, run(t, HelpHandler, exec, ""))
		assert.Contains(t, out.String(), "shop")
		assert.Contains(t, out.String(), "storage")
		assert.NotContains(t, out.String(), "rules", "management commands are hidden from members")
	})

	t.Run("lists management commands for managers", func(t *testing.T) {
		exec, out := f.exec(42, true)
		require.NoError(t, run(t, HelpHandler, exec, ""))
		assert.Contains(t, out.String(), "rules")
	})

	t.Run("shows usage for one command", func(t *testing.T) {
		exec, out := f.exec(42, false)
		require.NoError(t, run(t, HelpHandler, exec, "stats"))
		assert.Contains(t, out.String(), "stats [channel|me]")
		assert.Contains(t, out.String(), "forest")
	})

	t.Run("unknown command", func(t *testing.T) {
		exec, _ := f.exec(42, false)
		assertCode(t, run(t, HelpHandler, exec, "bogus"), command.CodeUnknownCommand)
	})
}

func TestStorageHandler(t *testing.T) {
	f := newFixture(t)
	exec, out := f.exec(42, false)

	require.NoError(t, run(t, StorageHandler, exec, ""))
	s := out.String()
	assert.Contains(t, s, "Balance: 0 coins")
	assert.Contains(t, s, "∞", "unlimited evergreen seedlings render as the infinity marker")
	assert.Contains(t, s, "Bamboo")
	assert.Contains(t, s, "10")
}

func TestPrefixHandler(t *testing.T) {
	f := newFixture(t)

	t.Run("echoes default", func(t *testing.T) {
		exec, out := f.exec(42, false)
		require.NoError(t, run(t, PrefixHandler, exec, ""))
		assert.Contains(t, out.String(), `"f-"`)
	})

	t.Run("members cannot change it", func(t *testing.T) {
		exec, _ := f.exec(42, false)
		assertCode(t, run(t, PrefixHandler, exec, "g!"), command.CodeManageOnly)
	})

	t.Run("managers can change it", func(t *testing.T) {
		exec, out := f.exec(42, true)
		require.NoError(t, run(t, PrefixHandler, exec, "g!"))
		assert.Contains(t, out.String(), `"g!"`)

		rec, err := f.store.LoadCommunity(context.Background(), 100)
		require.NoError(t, err)
		assert.Equal(t, "g!", rec.Prefix)
	})

	t.Run("rejects overlong prefix", func(t *testing.T) {
		exec, _ := f.exec(42, true)
		assertCode(t, run(t, PrefixHandler, exec, "0123456789!"), command.CodeGameError)
	})
}

func TestCooldownHandler(t *testing.T) {
	f := newFixture(t)
	exec, out := f.exec(42, true)

	require.NoError(t, run(t, CooldownHandler, exec, ""))
	assert.Contains(t, out.String(), "no cooldown")

	require.NoError(t, run(t, CooldownHandler, exec, "600"))
	rec, err := f.store.LoadCommunity(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(600), rec.PlantCooldown)

	assertCode(t, run(t, CooldownHandler, exec, "never"), command.CodeInvalidArgs)
	assertCode(t, run(t, CooldownHandler, exec, "28801"), command.CodeGameError)
}

func TestRulesHandler(t *testing.T) {
	f := newFixture(t)
	exec, _ := f.exec(42, true)
	ctx := context.Background()

	require.NoError(t, run(t, RulesHandler, exec, "command community deny"))
	allowed, err := f.engine.CommandAllowed(ctx, 100, 555)
	require.NoError(t, err)
	assert.False(t, allowed)

	require.NoError(t, run(t, RulesHandler, exec, "command 555 allow"))
	allowed, err = f.engine.CommandAllowed(ctx, 100, 555)
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, run(t, RulesHandler, exec, "command 555 inherit"))
	allowed, err = f.engine.CommandAllowed(ctx, 100, 555)
	require.NoError(t, err)
	assert.False(t, allowed)

	for _, args := range []string{"", "growth", "growth community", "weather community deny", "growth zero deny", "growth community maybe"} {
		assertCode(t, run(t, RulesHandler, exec, args), command.CodeInvalidArgs)
	}
}

func TestSettingsHandler(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.engine.SetCooldown(ctx, 100, 900))
	require.NoError(t, f.engine.SetRule(ctx, 100, game.CapGrowth, 555, game.Deny))

	exec, out := f.exec(42, false)
	require.NoError(t, run(t, SettingsHandler, exec, ""))
	s := out.String()
	assert.Contains(t, s, "Prefix:         f-")
	assert.Contains(t, s, "900s")
	assert.Contains(t, s, "channel 555: denied")
}

func TestShopHandler_List(t *testing.T) {
	f := newFixture(t)
	exec, out := f.exec(42, false)

	require.NoError(t, run(t, ShopHandler, exec, ""))
	s := out.String()
	assert.Contains(t, s, "Cactus")
	assert.Contains(t, s, "25 coins")
	assert.NotContains(t, s, "Evergreen", "free species are not listed for sale")
	assert.Contains(t, s, "Your balance: 0 coins")
}

func TestShopHandler_PurchaseLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Earn enough for a deciduous pallet (12 coins).
	for range 12 {
		f.plant(t, 42, "🌲")
	}
	// Zero cooldown keeps the burst legal; verify the balance arrived.
	overview, err := f.engine.MemberState(ctx, 100, 42)
	require.NoError(t, err)
	require.Equal(t, int64(12), overview.Coins)

	exec, out := f.exec(42, false)
	require.NoError(t, run(t, ShopHandler, exec, "Deciduous Tree"))
	require.Contains(t, out.String(), "Reply 'confirm")

	require.Equal(t, 1, f.engine.PendingPurchases())

	// Extract the ticket id from the prompt line.
	s := out.String()
	start := len("Purchase ")
	id := s[start : start+26]

	confirmExec, confirmOut := f.exec(42, false)
	require.NoError(t, run(t, ConfirmHandler, confirmExec, id))
	assert.Contains(t, confirmOut.String(), "Purchase complete")

	overview, err = f.engine.MemberState(ctx, 100, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), overview.Coins)

	// One confirm credits exactly one pallet.
	var pallets int64
	for _, slot := range overview.Storage {
		if slot.Class == game.ItemPallet && slot.Species.Name == "Deciduous Tree" {
			pallets = slot.Amount
		}
	}
	assert.Equal(t, int64(1), pallets)
}

func TestShopHandler_Errors(t *testing.T) {
	f := newFixture(t)

	exec, _ := f.exec(42, false)
	assertCode(t, run(t, ShopHandler, exec, "Shrubbery"), command.CodeInvalidArgs)
	assertCode(t, run(t, ShopHandler, exec, "Evergreen Tree"), command.CodeGameError)
	assertCode(t, run(t, ShopHandler, exec, "Cactus"), command.CodeGameError)

	assertCode(t, run(t, ConfirmHandler, exec, "not-a-ulid"), command.CodeInvalidArgs)
	assertCode(t, run(t, CancelHandler, exec, "01HZZZZZZZZZZZZZZZZZZZZZZZ"), command.CodeGameError)
}

func TestStatsHandler(t *testing.T) {
	f := newFixture(t)

	f.plant(t, 42, "🌲")
	f.plant(t, 42, "🌲")
	f.plant(t, 43, "🌳")

	t.Run("community scope", func(t *testing.T) {
		exec, out := f.exec(42, false)
		require.NoError(t, run(t, StatsHandler, exec, ""))
		s := out.String()
		assert.Contains(t, s, "Evergreen Tree")
		assert.Contains(t, s, "66.67%")
		assert.Contains(t, s, "Total: 3 trees")
	})

	t.Run("personal scope", func(t *testing.T) {
		exec, out := f.exec(43, false)
		require.NoError(t, run(t, StatsHandler, exec, "me"))
		s := out.String()
		assert.Contains(t, s, "Deciduous Tree")
		assert.NotContains(t, s, "Evergreen Tree")
	})

	t.Run("empty scope", func(t *testing.T) {
		exec, out := f.exec(44, false)
		require.NoError(t, run(t, StatsHandler, exec, "me"))
		assert.Contains(t, out.String(), "Nothing has been planted")
	})

	t.Run("invalid scope", func(t *testing.T) {
		exec, _ := f.exec(42, false)
		assertCode(t, run(t, StatsHandler, exec, "everywhere"), command.CodeInvalidArgs)
	})
}

func TestLeaderboardHandler(t *testing.T) {
	f := newFixture(t)

	f.plant(t, 42, "🌲")
	f.plant(t, 42, "🌲")
	f.plant(t, 43, "🌳")

	exec, out := f.exec(42, false)
	require.NoError(t, run(t, LeaderboardHandler, exec, ""))
	s := out.String()
	assert.Contains(t, s, "<@42> 2 trees")
	assert.Contains(t, s, "<@43> 1 trees")
	assert.Contains(t, s, "Biggest forest: <#555> with 3 trees")
}
