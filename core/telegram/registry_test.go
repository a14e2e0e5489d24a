package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/viewsbot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryLookupByAlias(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/ads", commands.Command{Handler: noop, Description: "Watch ads", Aliases: []string{"🪧 Watch Ads"}})
	reg.RegisterCommand("/admin", commands.Command{Handler: noop, Description: "Admin", AdminOnly: true})
	reg.RegisterCommand("bad", commands.Command{Handler: noop, Description: "x"})

	key, _, ok := reg.LookupCommand("🪧 Watch Ads")
	require.True(t, ok)
	assert.Equal(t, "/ads", key)

	key, _, ok = reg.LookupCommand("ads")
	require.True(t, ok)
	assert.Equal(t, "/ads", key)

	_, _, ok = reg.LookupCommand("hello")
	assert.False(t, ok)
	_, _, ok = reg.LookupCommand("   ")
	assert.False(t, ok)

	visible := reg.ListCommands(true)
	require.Len(t, visible, 1)
	assert.Equal(t, "/ads", visible[0].Text)
	assert.Len(t, reg.Commands(), 2)
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("watched_ad", noop))
	assert.Error(t, reg.RegisterCallback("watched_ad", noop))
	assert.Error(t, reg.RegisterCallback("", noop))

	_, ok := reg.GetCallback("watched_ad")
	assert.True(t, ok)
	assert.Equal(t, []string{"watched_ad"}, reg.ListCallbacks())
}

func TestBuildPollerAndModeName(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "webhook", Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://x"}})
	wh, ok := p.(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", wh.Listen)
	assert.Equal(t, "webhook", ModeName(p))

	assert.Zero(t, PollerOptions{RunMode: "WEBHOOK"}.PollTimeout())

	lp := BuildPoller(PollerOptions{})
	assert.Equal(t, "polling", ModeName(lp))
	assert.Equal(t, 10*time.Second, lp.(*tele.LongPoller).Timeout)
	assert.Equal(t, 25*time.Second, PollerOptions{LongPollTimeoutSeconds: 25}.PollTimeout())
}
