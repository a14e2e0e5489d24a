package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIntoOverlaysEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  token: from-file
  admin_id: 5
logging:
  level: debug
`), 0o600))
	t.Setenv("BOT_TOKEN", "from-env")

	var cfg Config
	require.NoError(t, LoadInto(path, &cfg))
	assert.Equal(t, "from-env", cfg.Telegram.Token)
	assert.Equal(t, int64(5), cfg.Telegram.AdminID)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadIntoWithoutFile(t *testing.T) {
	t.Setenv("BOT_TOKEN", "tok")
	t.Setenv("ADMIN_ID", "42")

	var cfg Config
	require.NoError(t, LoadInto("", &cfg))
	assert.Equal(t, "tok", cfg.Telegram.Token)
	assert.Equal(t, int64(42), cfg.Telegram.AdminID)

	assert.Error(t, LoadInto(filepath.Join(t.TempDir(), "missing.yaml"), &cfg))
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
		mode    string
	}{
		{name: "missing token", cfg: Config{}, wantErr: true},
		{name: "default longpoll", cfg: Config{Telegram: TelegramConfig{Token: " t "}}, mode: RunModeLongpoll},
		{name: "polling alias", cfg: Config{Telegram: TelegramConfig{Token: "t", RunMode: "Polling"}}, mode: RunModeLongpoll},
		{name: "webhook without url", cfg: Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}}, wantErr: true},
		{
			name: "webhook",
			cfg: Config{
				Telegram: TelegramConfig{Token: "t", RunMode: "webhook"},
				Webhook:  WebhookConfig{URL: "https://x", Listen: ":8443", Port: 8443},
			},
			mode: RunModeWebhook,
		},
		{name: "bad mode", cfg: Config{Telegram: TelegramConfig{Token: "t", RunMode: "push"}}, wantErr: true},
		{
			name:    "bad exclude",
			cfg:     Config{Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"poll"}}},
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			err := Normalize(&cfg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.mode, cfg.Telegram.RunMode)
			assert.Equal(t, "t", cfg.Telegram.Token)
		})
	}
}
