package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/viewsbot/core/logger"
	tghelpers "github.com/m3rciful/viewsbot/core/telegram/helpers"
	"github.com/m3rciful/viewsbot/core/telegram/state"
	"github.com/m3rciful/viewsbot/internal/orderapi"
)

// Conversation states.
const (
	StateAwaitingVideoLink state.State = "awaiting_video_link"
	StateAwaitingQuantity  state.State = "awaiting_quantity"
	StateAwaitingBroadcast state.State = "awaiting_broadcast"
)

const tempVideoLink = "video_link"

// InProgress reports whether the user is inside a dialogue.
func (b *Bot) InProgress(userID int64) bool {
	return b.sessions.InProgress(userID)
}

// ManagerHandler feeds the message to the step the user is at.
func (b *Bot) ManagerHandler(c tele.Context) error {
	uid := c.Sender().ID
	switch st := b.sessions.GetState(uid); st {
	case StateAwaitingVideoLink:
		return b.onVideoLink(c)
	case StateAwaitingQuantity:
		return b.onQuantity(c)
	case StateAwaitingBroadcast:
		return b.onBroadcastText(c)
	case state.StateIdle:
		return b.UnknownText()(c)
	default:
		logger.Warn(tghelpers.BuildContext(c), "tg", "fsm.unknown_state", slog.String("state", string(st)))
		b.sessions.Clear(uid)
		return b.UnknownText()(c)
	}
}

func (b *Bot) onVideoLink(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "fsm.video_link")
	uid := c.Sender().ID

	link := strings.TrimSpace(c.Text())
	if link == "" {
		return tghelpers.SendText(c, textSendLink)
	}

	u, ok, err := b.loadUser(ctx, c)
	if !ok {
		b.sessions.Clear(uid)
		return err
	}

	b.sessions.SetTemp(uid, tempVideoLink, link)
	b.sessions.SetState(uid, StateAwaitingQuantity)
	return tghelpers.SendText(c, textLinkReceived(u.Balance))
}

func (b *Bot) onQuantity(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "fsm.quantity")
	uid := c.Sender().ID

	qty, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil {
		return tghelpers.SendText(c, textEnterNumber)
	}
	if qty <= 0 {
		return tghelpers.SendText(c, textPositiveNumber)
	}

	// From here on every outcome ends the dialogue.
	defer b.sessions.Clear(uid)

	u, ok, err := b.loadUser(ctx, c)
	if !ok {
		return err
	}
	if qty > u.Balance {
		return tghelpers.SendText(c, textInsufficient(u.Balance, qty), MainKeyboard())
	}

	link, _ := b.sessions.GetTempString(uid, tempVideoLink)
	res, err := b.pipeline.Submit(ctx, uid, link, qty)
	var statusErr *orderapi.StatusError
	switch {
	case err == nil:
		return tghelpers.SendMD(c, textOrderConfirmed(res), MainKeyboard())
	case errors.As(err, &statusErr):
		return tghelpers.SendText(c, textOrderStatusFailed(statusErr.Code), MainKeyboard())
	case errors.Is(err, ErrPayment):
		return tghelpers.SendText(c, textPaymentFailed, MainKeyboard())
	case errors.Is(err, orderapi.ErrTransport):
		return tghelpers.SendText(c, textNetworkError, MainKeyboard())
	default:
		if sendErr := tghelpers.SendText(c, textNetworkError, MainKeyboard()); sendErr != nil {
			return sendErr
		}
		return fmt.Errorf("submit order: %w", err)
	}
}

func (b *Bot) onBroadcastText(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "fsm.broadcast")
	uid := c.Sender().ID
	defer b.sessions.Clear(uid)

	if !b.isAdmin(uid) {
		return tghelpers.SendText(c, textAccessDenied)
	}
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return tghelpers.SendText(c, textCancelled, MainKeyboard())
	}

	users, err := b.ledger.Users(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) == 0 {
		return tghelpers.SendText(c, textBroadcastNoUsers, MainKeyboard())
	}
	if err := tghelpers.SendText(c, textBroadcasting(len(users))); err != nil {
		return err
	}

	ids := make([]int64, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	res := b.broadcast.Broadcast(ctx, ids, textBroadcastMessage(text))
	return tghelpers.SendMD(c, textBroadcastDone(res), MainKeyboard())
}
