package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/viewsbot/core/config"
)

func TestContextHandlerJSONEnrichesFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newContextHandler(buf, formatJSON, slog.LevelInfo)).With("component", "ledger")

	ctx := WithRID(Background(), BuildRID(42, 9, 7))
	ctx = WithUpdateMeta(ctx, 42, 7, 9)
	ctx = WithHandler(ctx, "buy")

	LogEvent(ctx, log, slog.LevelInfo, "order.placed",
		slog.String("status", "ok"),
		slog.Duration("duration", 1500*time.Microsecond),
	)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fields))
	assert.Equal(t, "order.placed", fields["event"])
	assert.Equal(t, "ledger", fields["component"])
	assert.Equal(t, "16.9.7", fields["rid"])
	assert.EqualValues(t, 42, fields["update_id"])
	assert.EqualValues(t, 7, fields["user_id"])
	assert.EqualValues(t, 9, fields["chat_id"])
	assert.Equal(t, "buy", fields["handler"])
	assert.EqualValues(t, 2, fields["duration_ms"])
	assert.NotContains(t, fields, "msg")
	assert.Contains(t, fields, "ts")
}

func TestContextHandlerKVUsesMessageAsEvent(t *testing.T) {
	buf := &bytes.Buffer{}
	log := slog.New(newContextHandler(buf, formatKV, slog.LevelInfo))

	log.Info("app ready")
	log.Debug("filtered")

	out := strings.TrimSpace(buf.String())
	require.NotEmpty(t, out)
	assert.Contains(t, out, `event="app ready"`)
	assert.NotContains(t, out, "filtered")
	assert.Equal(t, 1, strings.Count(out, "\n")+1)
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "a.1.z", CompactRID("10:1:35"))
	assert.Equal(t, "not-a-rid", CompactRID("not-a-rid"))
	assert.Equal(t, "1:x:2", CompactRID("1:x:2"))
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "ab\tc", Sanitize("a\x00b\tc\u200b"))
	assert.Equal(t, "héll", SanitizeLimit("héllo", 4))
	assert.Equal(t, "", SanitizeLimit("anything", 0))
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	assert.Equal(t, []bool{true, false, false, true}, got)

	s.Set(0, 0)
	assert.True(t, s.Allow())
}

func TestParseSampleRatio(t *testing.T) {
	tests := []struct {
		raw      string
		num, den int
		ok       bool
	}{
		{"2/5", 2, 5, true},
		{" 10 ", 1, 10, true},
		{"all", 0, 0, true},
		{"0", 0, 0, true},
		{"junk", 0, 0, false},
		{"3/0", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		num, den, ok := parseSampleRatio(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.num, num, tt.raw)
		assert.Equal(t, tt.den, den, tt.raw)
	}
}

func TestParseDebugSampleFallsBack(t *testing.T) {
	num, den := parseDebugSample(&coreconfig.Config{Logging: coreconfig.LoggingConfig{DebugSample: "nonsense"}})
	assert.Equal(t, defaultSampleNum, num)
	assert.Equal(t, defaultSampleDen, den)
}

func TestPreview(t *testing.T) {
	files := []string{"0001_users.up.sql", "0002_orders.up.sql", "0003_referrals.up.sql"}
	assert.Equal(t, "0001_users.up.sql, 0002_orders.up.sql, 0003_referrals.up.sql", Preview(files, 6))
	assert.Equal(t, "0001_users.up.sql (+2 more)", Preview(files, 1))
	assert.Equal(t, "+3 more", Preview(files, 0))
	assert.Equal(t, "", Preview(nil, 3))
}

func TestRoundMS(t *testing.T) {
	assert.Equal(t, 2*time.Millisecond, RoundMS(1600*time.Microsecond))
	assert.Zero(t, RoundMS(-time.Second))
}
