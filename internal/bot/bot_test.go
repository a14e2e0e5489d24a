package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/viewsbot/core/telegram/callbacks"
	"github.com/m3rciful/viewsbot/core/telegram/state"
	"github.com/m3rciful/viewsbot/internal/ledger"
	"github.com/m3rciful/viewsbot/internal/ledger/filestore"
	"github.com/m3rciful/viewsbot/internal/orderapi"
)

const adminID = 777

type reply struct {
	text string
	opts *tele.SendOptions
}

// fakeContext records what handlers send back.
type fakeContext struct {
	tele.Context
	sender *tele.User
	msg    *tele.Message
	cb     *tele.Callback
	store  map[string]any

	sent   []reply
	edited []reply
}

func newMessage(userID int64, text, payload string) *fakeContext {
	u := &tele.User{ID: userID, Username: fmt.Sprintf("user%d", userID), FirstName: "Test"}
	return &fakeContext{
		sender: u,
		msg:    &tele.Message{Sender: u, Text: text, Payload: payload},
		store:  map[string]any{},
	}
}

func newCallback(userID int64, data string) *fakeContext {
	u := &tele.User{ID: userID}
	return &fakeContext{
		sender: u,
		cb:     &tele.Callback{Sender: u, Data: data},
		store:  map[string]any{},
	}
}

func (f *fakeContext) Sender() *tele.User     { return f.sender }
func (f *fakeContext) Chat() *tele.Chat       { return &tele.Chat{ID: f.sender.ID} }
func (f *fakeContext) Message() *tele.Message { return f.msg }
func (f *fakeContext) Callback() *tele.Callback {
	return f.cb
}
func (f *fakeContext) Update() tele.Update {
	return tele.Update{ID: 1, Message: f.msg, Callback: f.cb}
}
func (f *fakeContext) Get(key string) any    { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }
func (f *fakeContext) Text() string {
	if f.msg == nil {
		return ""
	}
	return f.msg.Text
}

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	f.sent = append(f.sent, toReply(what, opts))
	return nil
}

func (f *fakeContext) EditOrSend(what interface{}, opts ...interface{}) error {
	f.edited = append(f.edited, toReply(what, opts))
	return nil
}

func (f *fakeContext) Respond(...*tele.CallbackResponse) error { return nil }

func toReply(what interface{}, opts []interface{}) reply {
	r := reply{text: fmt.Sprint(what)}
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok {
			r.opts = so
		}
	}
	return r
}

func (f *fakeContext) lastSent(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1].text
}

type fakeSubmitter struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (s *fakeSubmitter) Submit(_ context.Context, link string, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, fmt.Sprintf("%s|%d", link, qty))
	return s.err
}

type fixture struct {
	bot    *Bot
	ledger *ledger.Ledger
	api    *fakeSubmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := filestore.Open(filepath.Join(t.TempDir(), "user_data.json"))
	require.NoError(t, err)
	l := ledger.New(store, ledger.Options{})
	api := &fakeSubmitter{}

	b, err := New(Options{
		AdminID:  adminID,
		AdsURL:   "https://ads.example.com",
		Ledger:   l,
		Pipeline: NewOrderPipeline(api, l),
	})
	require.NoError(t, err)
	b.Attach(nil, "ViewsBot", nil)
	return &fixture{bot: b, ledger: l, api: api}
}

func (f *fixture) user(t *testing.T, id, balance int64) {
	t.Helper()
	ctx := context.Background()
	_, err := f.ledger.CreateUser(ctx, id, "", "")
	require.NoError(t, err)
	if balance > 0 {
		_, err = f.ledger.AddBalance(ctx, id, balance)
		require.NoError(t, err)
	}
}

func (f *fixture) balance(t *testing.T, id int64) int64 {
	t.Helper()
	u, err := f.ledger.User(context.Background(), id)
	require.NoError(t, err)
	return u.Balance
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestStartWithReferral(t *testing.T) {
	f := newFixture(t)

	c := newMessage(1, "/start", "")
	require.NoError(t, f.bot.handleStart(c))
	assert.Equal(t, textWelcome, c.lastSent(t))

	c = newMessage(1, "/start", "")
	require.NoError(t, f.bot.handleStart(c))
	assert.Equal(t, textWelcomeBack, c.lastSent(t))

	referrer, err := f.ledger.User(context.Background(), 1)
	require.NoError(t, err)

	c = newMessage(2, "/start "+referrer.ReferralCode, referrer.ReferralCode)
	require.NoError(t, f.bot.handleStart(c))
	assert.Equal(t, textWelcomeReferred, c.lastSent(t))
	assert.Equal(t, int64(100), f.balance(t, 1))

	c = newMessage(3, "/start nope", "nope")
	require.NoError(t, f.bot.handleStart(c))
	assert.Equal(t, textWelcome, c.lastSent(t))
}

func TestBuyFlowPlacesOrder(t *testing.T) {
	f := newFixture(t)
	f.user(t, 1, 100)

	require.NoError(t, f.bot.handleBuy(newMessage(1, "/buy", "")))
	assert.Equal(t, StateAwaitingVideoLink, f.bot.sessions.GetState(1))

	c := newMessage(1, "https://youtu.be/x?a=1&b=2", "")
	require.NoError(t, f.bot.ManagerHandler(c))
	assert.Contains(t, c.lastSent(t), "Your current balance: 100 views")
	assert.Equal(t, StateAwaitingQuantity, f.bot.sessions.GetState(1))

	c = newMessage(1, "lots", "")
	require.NoError(t, f.bot.ManagerHandler(c))
	assert.Equal(t, textEnterNumber, c.lastSent(t))
	assert.Equal(t, StateAwaitingQuantity, f.bot.sessions.GetState(1))

	c = newMessage(1, "0", "")
	require.NoError(t, f.bot.ManagerHandler(c))
	assert.Equal(t, textPositiveNumber, c.lastSent(t))
	assert.True(t, f.bot.InProgress(1))

	c = newMessage(1, " 100 ", "")
	require.NoError(t, f.bot.ManagerHandler(c))
	assert.Contains(t, c.lastSent(t), "Order Confirmed!")
	assert.Contains(t, c.lastSent(t), "Remaining balance: 0 views")

	assert.Equal(t, []string{"https://youtu.be/x?a=1&b=2|100"}, f.api.calls)
	assert.Zero(t, f.balance(t, 1))
	assert.False(t, f.bot.InProgress(1))

	orders, err := f.ledger.Orders(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, int64(100), orders[0].Quantity)
}

func TestBuyRejectsInsufficientBalance(t *testing.T) {
	f := newFixture(t)
	f.user(t, 1, 50)

	f.bot.sessions.SetState(1, StateAwaitingQuantity)
	f.bot.sessions.SetTemp(1, tempVideoLink, "https://example.com/v")

	c := newMessage(1, "100", "")
	require.NoError(t, f.bot.ManagerHandler(c))
	assert.Contains(t, c.lastSent(t), "Need 50 more views")
	assert.Empty(t, f.api.calls)
	assert.Equal(t, int64(50), f.balance(t, 1))
	assert.False(t, f.bot.InProgress(1))
}

func TestBuyReportsProviderFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"status", &orderapi.StatusError{Code: 502}, "API returned status: 502"},
		{"transport", fmt.Errorf("%w: dial", orderapi.ErrTransport), "Network error"},
		{"unexpected", errors.New("boom"), "Network error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.user(t, 1, 10)
			f.api.err = tc.err
			f.bot.sessions.SetState(1, StateAwaitingQuantity)
			f.bot.sessions.SetTemp(1, tempVideoLink, "https://example.com/v")

			c := newMessage(1, "5", "")
			_ = f.bot.ManagerHandler(c)
			assert.Contains(t, c.lastSent(t), tc.want)
			assert.Equal(t, int64(10), f.balance(t, 1))
			assert.False(t, f.bot.InProgress(1))

			orders, err := f.ledger.Orders(context.Background(), 1)
			require.NoError(t, err)
			assert.Empty(t, orders)
		})
	}
}

func TestCancelClearsDialogue(t *testing.T) {
	f := newFixture(t)
	f.user(t, 1, 0)
	require.NoError(t, f.bot.handleBuy(newMessage(1, "/buy", "")))

	c := newMessage(1, "/cancel", "")
	require.NoError(t, f.bot.handleCancel(c))
	assert.Equal(t, textCancelled, c.lastSent(t))
	assert.Equal(t, state.StateIdle, f.bot.sessions.GetState(1))

	idle := newMessage(1, "/cancel", "")
	require.NoError(t, f.bot.handleCancel(idle))
	assert.Equal(t, textNothingToCancel, idle.lastSent(t))
}

func TestWatchedAdClaims(t *testing.T) {
	f := newFixture(t)
	f.user(t, 1, 0)

	foreign := newCallback(1, callbacks.Data(CallbackWatchedAd, "2"))
	require.NoError(t, f.bot.handleWatchedAd(foreign))
	require.Len(t, foreign.edited, 1)
	assert.Equal(t, textInvalidAction, foreign.edited[0].text)

	c := newCallback(1, callbacks.Data(CallbackWatchedAd, "1"))
	require.NoError(t, f.bot.handleWatchedAd(c))
	require.Len(t, c.edited, 1)
	assert.Contains(t, c.edited[0].text, "Total ads watched: 1")
	assert.Equal(t, textNextAction, c.lastSent(t))

	again := newCallback(1, callbacks.Data(CallbackWatchedAd, "1"))
	require.NoError(t, f.bot.handleWatchedAd(again))
	require.Len(t, again.edited, 1)
	assert.Contains(t, again.edited[0].text, "Please wait 30 seconds")

	u, err := f.ledger.User(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.AdsWatched)
}

func TestWatchedAdUnknownUserDoesNotArmCooldown(t *testing.T) {
	f := newFixture(t)

	c := newCallback(9, callbacks.Data(CallbackWatchedAd, "9"))
	require.NoError(t, f.bot.handleWatchedAd(c))
	assert.Equal(t, textUserNotFound, c.edited[0].text)
	assert.Zero(t, f.bot.cooldown.Remaining(9))
}

func TestAdsDisplayOnlyReadsCooldown(t *testing.T) {
	f := newFixture(t)
	f.user(t, 1, 0)

	for i := 0; i < 2; i++ {
		c := newMessage(1, LabelWatchAds, "")
		require.NoError(t, f.bot.handleAds(c))
		assert.Contains(t, c.lastSent(t), "Ad Viewing")
		markup := c.sent[0].opts.ReplyMarkup
		require.Len(t, markup.InlineKeyboard, 2)
		assert.Equal(t, "https://ads.example.com", markup.InlineKeyboard[0][0].URL)
	}

	_, ok := f.bot.cooldown.Claim(1)
	require.True(t, ok)

	c := newMessage(1, LabelWatchAds, "")
	require.NoError(t, f.bot.handleAds(c))
	assert.Contains(t, c.lastSent(t), "Please wait")
}

func TestReferralAndBalance(t *testing.T) {
	f := newFixture(t)

	c := newMessage(1, LabelBalance, "")
	require.NoError(t, f.bot.handleBalance(c))
	assert.Equal(t, textUserNotFound, c.lastSent(t))

	f.user(t, 1, 42)
	c = newMessage(1, LabelBalance, "")
	require.NoError(t, f.bot.handleBalance(c))
	assert.Contains(t, c.lastSent(t), "Available views: *42*")

	u, err := f.ledger.User(context.Background(), 1)
	require.NoError(t, err)
	c = newMessage(1, LabelReferEarn, "")
	require.NoError(t, f.bot.handleReferral(c))
	assert.Contains(t, c.lastSent(t), "https://t.me/ViewsBot?start="+u.ReferralCode)
}

func TestOrdersListsNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.user(t, 1, 100)
	f.bot.opts.RecentOrders = 2

	var ids []string
	for i := 1; i <= 3; i++ {
		o, _, err := f.ledger.PlaceOrder(context.Background(), 1, "https://example.com/v", int64(i))
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}

	c := newMessage(1, "/orders", "")
	require.NoError(t, f.bot.handleOrders(c))
	text := c.lastSent(t)
	assert.Contains(t, text, "(3 total)")
	assert.NotContains(t, text, ids[0])
	assert.Less(t, strings.Index(text, ids[2]), strings.Index(text, ids[1]))
}

func TestAdminSubcommands(t *testing.T) {
	f := newFixture(t)
	f.user(t, 1, 3)

	c := newMessage(adminID, "/admin stats", "stats")
	require.NoError(t, f.bot.handleAdmin(c))
	assert.Contains(t, c.lastSent(t), "Total users: 1")

	c = newMessage(adminID, "/admin users", "users")
	require.NoError(t, f.bot.handleAdmin(c))
	assert.Contains(t, c.lastSent(t), "No username (ID: 1) - 3 views")

	c = newMessage(adminID, "/admin broadcast", "broadcast")
	require.NoError(t, f.bot.handleAdmin(c))
	assert.Equal(t, StateAwaitingBroadcast, f.bot.sessions.GetState(adminID))

	c = newMessage(adminID, "/admin", "")
	require.NoError(t, f.bot.handleAdmin(c))
	assert.Contains(t, c.lastSent(t), "Admin Panel")
}

func TestUnknownTextShowsMenu(t *testing.T) {
	f := newFixture(t)
	c := newMessage(1, "hello", "")
	require.NoError(t, f.bot.ManagerHandler(c))
	assert.Equal(t, textUseMenu, c.lastSent(t))
	assert.NotNil(t, c.sent[0].opts.ReplyMarkup)
}
