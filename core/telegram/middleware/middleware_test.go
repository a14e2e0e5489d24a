package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

// fakeContext satisfies tele.Context for the few methods middlewares touch.
type fakeContext struct {
	tele.Context
	sender *tele.User
	update tele.Update
	store  map[string]any
}

func newFakeContext(userID int64) *fakeContext {
	return &fakeContext{
		sender: &tele.User{ID: userID},
		update: tele.Update{ID: 1, Message: &tele.Message{Text: "hi"}},
		store:  map[string]any{},
	}
}

func (f *fakeContext) Sender() *tele.User { return f.sender }
func (f *fakeContext) Chat() *tele.Chat { return &tele.Chat{ID: f.sender.ID} }
func (f *fakeContext) Update() tele.Update { return f.update }
func (f *fakeContext) Text() string { return f.update.Message.Text }
func (f *fakeContext) Get(key string) any { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }

func TestAdminOnlyRejectsWhenAdminUnset(t *testing.T) {
	var called, rejected bool
	next := func(tele.Context) error { called = true; return nil }
	reject := func(tele.Context) error { rejected = true; return nil }

	h := AdminOnlyMiddleware(AdminOptions{AdminID: 0, OnReject: reject})(next)
	require.NoError(t, h(newFakeContext(5)))
	assert.False(t, called)
	assert.True(t, rejected)
}

func TestAdminOnlyAllowsAdmin(t *testing.T) {
	var called bool
	next := func(tele.Context) error { called = true; return nil }

	h := AdminOnlyMiddleware(AdminOptions{AdminID: 5})(next)
	require.NoError(t, h(newFakeContext(5)))
	assert.True(t, called)

	called = false
	require.NoError(t, h(newFakeContext(6)))
	assert.False(t, called)
}

func TestRecoverMiddlewareConvertsPanic(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(newFakeContext(1))
	assert.True(t, errors.Is(err, ErrPanic))
}

func TestLimiterAllow(t *testing.T) {
	l := &limiter{interval: time.Second, lastSeen: map[int64]time.Time{}}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, l.allow(1, now))
	assert.False(t, l.allow(1, now.Add(500*time.Millisecond)))
	assert.True(t, l.allow(2, now.Add(500*time.Millisecond)))
	assert.True(t, l.allow(1, now.Add(1500*time.Millisecond)))

	l.allow(3, now.Add(5*time.Minute))
	assert.Len(t, l.lastSeen, 1)
}

func TestRateLimitMiddlewareSkipsExcludedKinds(t *testing.T) {
	var calls int
	next := func(tele.Context) error { calls++; return nil }
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"callback": {}},
	})(next)

	c := newFakeContext(1)
	require.NoError(t, mw(c))
	require.NoError(t, mw(c))
	assert.Equal(t, 1, calls)

	c.update = tele.Update{ID: 2, Callback: &tele.Callback{Data: "x"}}
	require.NoError(t, mw(c))
	assert.Equal(t, 2, calls)
}

// sendingContext accepts every outgoing message.
type sendingContext struct{ *fakeContext }

func (s sendingContext) Send(interface{}, ...interface{}) error { return nil }
func (s sendingContext) Edit(interface{}, ...interface{}) error {
	return errors.New("message is not modified")
}

func TestMessageMetricsCountsReplies(t *testing.T) {
	fake := newFakeContext(1)
	mw := MessageMetricsMiddleware(func(c tele.Context) error {
		require.NoError(t, c.Send("balance"))
		require.NoError(t, c.Send("menu", &tele.ReplyMarkup{ResizeKeyboard: true}))
		assert.Error(t, c.Edit("same"))
		return nil
	})
	require.NoError(t, mw(sendingContext{fake}))

	msgs, kb := GetCounters(fake)
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)

	msgs, kb = GetCounters(newFakeContext(2))
	assert.Zero(t, msgs)
	assert.False(t, kb)
}

func TestSeenUpdatesWindow(t *testing.T) {
	s := &seenUpdates{window: time.Minute, at: map[int]time.Time{}}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, s.first(7, now))
	assert.False(t, s.first(7, now.Add(time.Second)))
	assert.True(t, s.first(8, now))
	assert.True(t, s.first(7, now.Add(2*time.Minute)))
}

func TestLoggerMiddlewareStoresRID(t *testing.T) {
	c := newFakeContext(5)
	var called bool
	require.NoError(t, LoggerMiddleware(func(tele.Context) error {
		called = true
		return nil
	})(c))

	assert.True(t, called)
	assert.NotEmpty(t, c.store["rid"])
	assert.NotNil(t, c.store["logger_ctx"])
}
