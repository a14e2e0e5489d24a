// Package bot is the conversation layer of the views bot: menu commands, the
// buy and broadcast dialogues, and the ad claim callback.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/viewsbot/core/logger"
	tg "github.com/m3rciful/viewsbot/core/telegram"
	"github.com/m3rciful/viewsbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/viewsbot/core/telegram/helpers"
	"github.com/m3rciful/viewsbot/core/telegram/sender"
	"github.com/m3rciful/viewsbot/core/telegram/state"
	"github.com/m3rciful/viewsbot/core/telegram/ui"
	"github.com/m3rciful/viewsbot/internal/ledger"
)

// DefaultRecentOrders bounds the /orders listing.
const DefaultRecentOrders = 10

// Options wires the bot to its collaborators.
type Options struct {
	AdminID int64
	AdsURL  string
	// RecentOrders caps the /orders listing; 0 selects DefaultRecentOrders.
	RecentOrders int

	Ledger   *ledger.Ledger
	Pipeline *OrderPipeline
	Sessions state.Manager
	Cooldown *Cooldown
}

// Bot holds the handlers and the per-process conversation state.
type Bot struct {
	opts      Options
	ledger    *ledger.Ledger
	pipeline  *OrderPipeline
	sessions  state.Manager
	cooldown  *Cooldown
	broadcast *Broadcaster

	// handle is the bot's public username, known once the runtime has logged in.
	handle string
}

var _ ui.FallbackProvider = (*Bot)(nil)

// New builds a Bot. Sessions and Cooldown default to fresh in-memory instances.
func New(opts Options) (*Bot, error) {
	if opts.Ledger == nil {
		return nil, errors.New("bot: ledger is required")
	}
	if opts.Pipeline == nil {
		return nil, errors.New("bot: order pipeline is required")
	}
	if opts.Sessions == nil {
		opts.Sessions = state.NewMemoryManager()
	}
	if opts.Cooldown == nil {
		opts.Cooldown = NewCooldown(DefaultAdCooldown)
	}
	if opts.RecentOrders <= 0 {
		opts.RecentOrders = DefaultRecentOrders
	}
	return &Bot{
		opts:      opts,
		ledger:    opts.Ledger,
		pipeline:  opts.Pipeline,
		sessions:  opts.Sessions,
		cooldown:  opts.Cooldown,
		broadcast: NewBroadcaster(nil, nil),
	}, nil
}

// Attach supplies what is only known after login: the API used for
// broadcasts, the bot's username for referral links and the send dispatcher.
// It must be called before updates are processed.
func (b *Bot) Attach(api Sender, handle string, dispatcher *sender.Dispatcher) {
	b.handle = handle
	b.broadcast = NewBroadcaster(api, dispatcher)
}

// Sessions exposes the conversation store for maintenance jobs.
func (b *Bot) Sessions() state.Manager { return b.sessions }

// Cooldown exposes the ad claim gate for maintenance jobs.
func (b *Bot) Cooldown() *Cooldown { return b.cooldown }

// Register binds every command, alias and callback of the bot.
func (b *Bot) Register(reg *tg.Registry) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     b.handleStart,
		Description: "Start the bot",
	})
	reg.RegisterCommand("/ads", commands.Command{
		Handler:     b.handleAds,
		Description: "Watch ads to earn views",
		Aliases:     []string{LabelWatchAds},
	})
	reg.RegisterCommand("/referral", commands.Command{
		Handler:     b.handleReferral,
		Description: "Your referral link",
		Aliases:     []string{LabelReferEarn},
	})
	reg.RegisterCommand("/buy", commands.Command{
		Handler:     b.handleBuy,
		Description: "Buy views for a video",
		Aliases:     []string{LabelBuyViews},
	})
	reg.RegisterCommand("/balance", commands.Command{
		Handler:     b.handleBalance,
		Description: "Show your balance",
		Aliases:     []string{LabelBalance},
	})
	reg.RegisterCommand("/contact", commands.Command{
		Handler:     b.handleContact,
		Description: "Contact the admin",
		Aliases:     []string{LabelContactAdmin},
	})
	reg.RegisterCommand("/orders", commands.Command{
		Handler:     b.handleOrders,
		Description: "Your recent orders",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     b.handleCancel,
		Description: "Cancel the current process",
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     b.handleAdmin,
		Description: "Admin panel",
		AdminOnly:   true,
	})

	if err := reg.RegisterCallback(CallbackWatchedAd, b.handleWatchedAd); err != nil {
		return fmt.Errorf("register %s: %w", CallbackWatchedAd, err)
	}
	reg.SetCallbackNotFound(b.UnknownCallback())
	return nil
}

// AdminReject answers non-admins who reach an admin command.
func (b *Bot) AdminReject(c tele.Context) error {
	return tghelpers.SendText(c, textAccessDenied)
}

// UnknownText answers free text outside any conversation.
func (b *Bot) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return tghelpers.SendText(c, textUseMenu, MainKeyboard())
	}
}

// UnknownDocument answers files sent outside any conversation.
func (b *Bot) UnknownDocument() tele.HandlerFunc {
	return b.UnknownText()
}

// UnknownCallback answers presses of buttons this bot no longer serves.
func (b *Bot) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
	}
}

// ActivityMiddleware refreshes last_activity for every incoming message.
func (b *Bot) ActivityMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Message() != nil && c.Sender() != nil {
			ctx := tghelpers.BuildContext(c)
			if err := b.ledger.TouchActivity(ctx, c.Sender().ID); err != nil {
				logger.Warn(ctx, "ledger", "activity.fail", slog.String("err", err.Error()))
			}
		}
		return next(c)
	}
}

// loadUser fetches the sender's record and answers with the start hint when it is missing.
func (b *Bot) loadUser(ctx context.Context, c tele.Context) (ledger.User, bool, error) {
	u, err := b.ledger.User(ctx, c.Sender().ID)
	switch {
	case errors.Is(err, ledger.ErrUserNotFound):
		return ledger.User{}, false, tghelpers.SendText(c, textUserNotFound)
	case err != nil:
		return ledger.User{}, false, fmt.Errorf("load user: %w", err)
	}
	return u, true, nil
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.opts.AdminID != 0 && userID == b.opts.AdminID
}
