package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/viewsbot/core/telegram/sender"
)

type fakeAPI struct {
	mu   sync.Mutex
	fail map[int64]bool
	got  map[string]string
}

func (a *fakeAPI) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.got == nil {
		a.got = map[string]string{}
	}
	a.got[to.Recipient()] = what.(string)
	for id, fail := range a.fail {
		if fail && tele.ChatID(id).Recipient() == to.Recipient() {
			return nil, errors.New("forbidden: bot was blocked by the user")
		}
	}
	return &tele.Message{}, nil
}

func TestBroadcastSequential(t *testing.T) {
	api := &fakeAPI{fail: map[int64]bool{2: true}}
	res := NewBroadcaster(api, nil).Broadcast(context.Background(), []int64{1, 2, 3}, "hi")

	assert.Equal(t, BroadcastResult{Sent: 2, Failed: 1}, res)
	assert.Equal(t, "hi", api.got["3"])
}

func TestBroadcastThroughDispatcher(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 2, MaxRetries: 0})
	t.Cleanup(d.Close)

	api := &fakeAPI{fail: map[int64]bool{4: true}}
	res := NewBroadcaster(api, d).Broadcast(context.Background(), []int64{1, 2, 3, 4}, "hi")
	assert.Equal(t, BroadcastResult{Sent: 3, Failed: 1}, res)
}

func TestBroadcastUnattached(t *testing.T) {
	res := NewBroadcaster(nil, nil).Broadcast(context.Background(), []int64{1, 2}, "hi")
	assert.Equal(t, BroadcastResult{Failed: 2}, res)
}

func TestBroadcastDialogueReportsTally(t *testing.T) {
	f := newFixture(t)
	f.user(t, 1, 0)
	f.user(t, 2, 0)
	api := &fakeAPI{fail: map[int64]bool{2: true}}
	f.bot.Attach(api, "ViewsBot", nil)
	f.bot.sessions.SetState(adminID, StateAwaitingBroadcast)

	c := newMessage(adminID, "Maintenance tonight", "")
	require.NoError(t, f.bot.ManagerHandler(c))

	require.Len(t, c.sent, 2)
	assert.Equal(t, textBroadcasting(2), c.sent[0].text)
	assert.Contains(t, c.sent[1].text, "Sent successfully: 1")
	assert.Contains(t, c.sent[1].text, "Failed: 1")
	assert.Equal(t, textBroadcastMessage("Maintenance tonight"), api.got["1"])
	assert.False(t, f.bot.InProgress(adminID))
}

func TestBroadcastLargerThanQueue(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{QueueSize: 8, Workers: 2, MaxRetries: 2})
	t.Cleanup(d.Close)

	chats := make([]int64, 1000)
	for i := range chats {
		chats[i] = int64(i + 1)
	}
	api := &fakeAPI{}
	res := NewBroadcaster(api, d).Broadcast(context.Background(), chats, "hi")

	assert.Equal(t, BroadcastResult{Sent: 1000}, res)
	assert.Len(t, api.got, 1000)
}

func TestBroadcastMessageEscapesAdminText(t *testing.T) {
	got := textBroadcastMessage("see user_data and *bold")
	assert.Contains(t, got, `user\_data`)
	assert.Contains(t, got, `\*bold`)
	assert.True(t, strings.HasPrefix(got, "📢 *Message from Admin:*"))
}
