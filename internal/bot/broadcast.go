package bot

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/viewsbot/core/logger"
	"github.com/m3rciful/viewsbot/core/telegram/sender"
)

// Sender is the part of the Telegram API a broadcast needs. *tele.Bot satisfies it.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// BroadcastResult tallies delivery outcomes.
type BroadcastResult struct {
	Sent   int
	Failed int
}

// Broadcaster delivers one message to many chats, through the send dispatcher
// when one is configured so retries and flood waits are handled there.
type Broadcaster struct {
	api        Sender
	dispatcher *sender.Dispatcher
}

// NewBroadcaster builds a Broadcaster. A nil dispatcher sends sequentially.
func NewBroadcaster(api Sender, dispatcher *sender.Dispatcher) *Broadcaster {
	return &Broadcaster{api: api, dispatcher: dispatcher}
}

// Broadcast sends text to every chat and waits for all deliveries to finish.
// Individual failures are logged and counted, never returned.
func (b *Broadcaster) Broadcast(ctx context.Context, chats []int64, text string) BroadcastResult {
	if b.api == nil {
		logger.Error(ctx, "tg", "broadcast.unattached")
		return BroadcastResult{Failed: len(chats)}
	}

	var (
		wg           sync.WaitGroup
		sent, failed atomic.Int64
	)
	record := func(chatID int64, err error) {
		if err != nil {
			failed.Add(1)
			logger.Warn(ctx, "tg", "broadcast.fail",
				slog.Int64("to", chatID),
				slog.String("err", err.Error()),
			)
			return
		}
		sent.Add(1)
	}

	for _, id := range chats {
		chatID := id
		run := func() error {
			_, err := b.api.Send(tele.ChatID(chatID), text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
			return err
		}
		if b.dispatcher == nil {
			record(chatID, run())
			continue
		}

		wg.Add(1)
		err := b.dispatcher.EnqueueWait(ctx, "broadcast", "sendMessage", run, func(err error) {
			defer wg.Done()
			record(chatID, err)
		})
		if err != nil {
			wg.Done()
			record(chatID, err)
		}
	}
	wg.Wait()

	res := BroadcastResult{Sent: int(sent.Load()), Failed: int(failed.Load())}
	logger.Info(ctx, "tg", "broadcast.done",
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed),
	)
	return res
}
