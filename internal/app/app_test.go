package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/viewsbot/core/telegram"
	"github.com/m3rciful/viewsbot/core/telegram/state"
	"github.com/m3rciful/viewsbot/internal/bot"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_ID", "7")
	t.Setenv("LEDGER_PATH", filepath.Join(t.TempDir(), "user_data.json"))
	t.Setenv("KEEPALIVE_DISABLED", "true")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	return cfg
}

func TestNewWiresRegistry(t *testing.T) {
	a, err := New(testConfig(t), nil)
	require.NoError(t, err)

	key, cmd, ok := a.registry.LookupCommand(bot.LabelBuyViews)
	require.True(t, ok)
	assert.Equal(t, "/buy", key)
	assert.False(t, cmd.AdminOnly)

	_, cmd, ok = a.registry.LookupCommand("/admin")
	require.True(t, ok)
	assert.True(t, cmd.AdminOnly)

	_, ok = a.registry.GetCallback(bot.CallbackWatchedAd)
	assert.True(t, ok)

	for _, c := range a.registry.ListCommands(true) {
		assert.NotEqual(t, "/admin", c.Text)
	}
}

func TestTelegramRunOptions(t *testing.T) {
	a, err := New(testConfig(t), nil)
	require.NoError(t, err)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.Same(t, a.registry, opts.Registry)
	assert.Equal(t, "activity", opts.Middlewares[len(opts.Middlewares)-1].Name)

	endpoints := map[any]bool{}
	for _, r := range opts.Routes {
		endpoints[r.Endpoint] = true
	}
	assert.True(t, endpoints["/start"])
	assert.True(t, endpoints[tele.OnText])
	assert.True(t, endpoints[tele.OnCallback])

	require.NoError(t, opts.OnStart(context.Background(), tg.Runtime{Mode: "polling"}))
	require.NoError(t, opts.OnStop(context.Background(), tg.Runtime{}))
}

func TestNewRejectsPostgresWithoutDB(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger.Backend = BackendPostgres
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestNewRejectsBadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.JanitorSchedule = "every now and then"
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestSweepDropsIdleState(t *testing.T) {
	sessions := state.NewMemoryManager()
	sessions.SetState(1, bot.StateAwaitingQuantity)
	cooldown := bot.NewCooldown(time.Nanosecond)
	cooldown.Claim(1)
	time.Sleep(time.Millisecond)

	sweep(sessions, time.Nanosecond, cooldown)
	assert.Zero(t, sessions.Len())
	assert.Zero(t, cooldown.Len())
}
