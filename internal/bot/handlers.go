package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/viewsbot/core/logger"
	tghelpers "github.com/m3rciful/viewsbot/core/telegram/helpers"
	"github.com/m3rciful/viewsbot/core/telegram/keyboard"
	"github.com/m3rciful/viewsbot/internal/ledger"
)

// commandArgs returns the text after the command word.
func commandArgs(c tele.Context) string {
	if m := c.Message(); m != nil {
		return strings.TrimSpace(m.Payload)
	}
	return ""
}

func (b *Bot) handleStart(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "start")
	sender := c.Sender()

	created, err := b.ledger.CreateUser(ctx, sender.ID, sender.Username, sender.FirstName)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	text := textWelcomeBack
	if created {
		text = textWelcome
		if code := commandArgs(c); code != "" {
			referrer, err := b.ledger.ProcessReferral(ctx, sender.ID, code)
			switch {
			case err == nil:
				text = textWelcomeReferred
				logger.Info(ctx, "ledger", "referral.ok",
					slog.Int64("referrer_id", referrer.ID),
					slog.Int64("referrals", referrer.ReferralsCount),
				)
			case errors.Is(err, ledger.ErrReferralCodeUnknown),
				errors.Is(err, ledger.ErrSelfReferral),
				errors.Is(err, ledger.ErrAlreadyReferred):
				logger.Info(ctx, "ledger", "referral.rejected", slog.String("reason", err.Error()))
			default:
				logger.Error(ctx, "ledger", "referral.fail", slog.String("err", err.Error()))
			}
		}
	}
	return tghelpers.SendText(c, text, MainKeyboard())
}

func (b *Bot) handleAds(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "ads")
	uid := c.Sender().ID

	// Display only reads the gate; the claim callback is what arms it.
	if rem := b.cooldown.Remaining(uid); rem > 0 {
		return tghelpers.SendText(c, textWait(seconds(rem)), MainKeyboard())
	}

	var watched int64
	u, err := b.ledger.User(ctx, uid)
	switch {
	case err == nil:
		watched = u.AdsWatched
	case !errors.Is(err, ledger.ErrUserNotFound):
		return fmt.Errorf("load user: %w", err)
	}

	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "🔗 Open Ad", URL: b.opts.AdsURL}},
		[]keyboard.InlineBtn{{Text: "✅ I Watched Ad", Unique: CallbackWatchedAd, Data: fmt.Sprint(uid)}},
	)
	return tghelpers.SendMD(c, textAds(watched, b.ledger.AdsPerReward(), seconds(b.cooldown.Window())), markup)
}

func (b *Bot) handleReferral(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "referral")
	u, ok, err := b.loadUser(ctx, c)
	if !ok {
		return err
	}
	link, err := b.ledger.ReferralLink(ctx, u.ID, b.handle)
	if err != nil {
		return fmt.Errorf("referral link: %w", err)
	}
	return tghelpers.SendMD(c, textReferral(link, u, b.ledger.ReferralReward()), MainKeyboard())
}

func (b *Bot) handleBuy(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "buy")
	if _, ok, err := b.loadUser(ctx, c); !ok {
		return err
	}
	b.sessions.Clear(c.Sender().ID)
	b.sessions.SetState(c.Sender().ID, StateAwaitingVideoLink)
	return tghelpers.SendText(c, textBuyPrompt, keyboard.RemoveKeyboard())
}

func (b *Bot) handleBalance(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "balance")
	u, ok, err := b.loadUser(ctx, c)
	if !ok {
		return err
	}
	return tghelpers.SendMD(c, textBalance(u, b.ledger.AdsPerReward(), b.ledger.ReferralReward()), MainKeyboard())
}

func (b *Bot) handleContact(c tele.Context) error {
	return tghelpers.SendMD(c, textContact(b.opts.AdminID), MainKeyboard())
}

func (b *Bot) handleOrders(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "orders")
	orders, err := b.ledger.Orders(ctx, c.Sender().ID)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}
	if len(orders) == 0 {
		return tghelpers.SendText(c, textNoOrders, MainKeyboard())
	}

	total := len(orders)
	recent := orders
	if len(recent) > b.opts.RecentOrders {
		recent = recent[len(recent)-b.opts.RecentOrders:]
	}
	// Newest first.
	shown := make([]ledger.Order, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		shown = append(shown, recent[i])
	}
	return tghelpers.SendMD(c, textOrders(shown, total), MainKeyboard())
}

func (b *Bot) handleCancel(c tele.Context) error {
	uid := c.Sender().ID
	text := textNothingToCancel
	if b.sessions.InProgress(uid) {
		text = textCancelled
	}
	b.sessions.Clear(uid)
	return tghelpers.SendText(c, text, MainKeyboard())
}

// handleAdmin is reached only by the admin; the command router rejects everyone else.
func (b *Bot) handleAdmin(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "admin")
	args := strings.Fields(commandArgs(c))
	if len(args) == 0 {
		return tghelpers.SendMD(c, textAdminPanel)
	}

	switch strings.ToLower(args[0]) {
	case "stats":
		stats, err := b.ledger.Stats(ctx)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		return tghelpers.SendMD(c, textStats(stats))
	case "broadcast":
		b.sessions.Clear(c.Sender().ID)
		b.sessions.SetState(c.Sender().ID, StateAwaitingBroadcast)
		return tghelpers.SendText(c, textBroadcastPrompt)
	case "users":
		users, err := b.ledger.Users(ctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		return tghelpers.SendMD(c, textUsers(users))
	default:
		return tghelpers.SendMD(c, textAdminPanel)
	}
}
