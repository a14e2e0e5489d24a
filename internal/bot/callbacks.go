package bot

import (
	"errors"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/viewsbot/core/logger"
	"github.com/m3rciful/viewsbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/viewsbot/core/telegram/helpers"
	"github.com/m3rciful/viewsbot/internal/ledger"
)

// handleWatchedAd credits an ad view for the presser of "I Watched Ad".
// The button carries the id of the user it was shown to.
func (b *Bot) handleWatchedAd(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "watched_ad")
	uid := c.Sender().ID

	owner, err := callbacks.PayloadInt64(c)
	if err != nil || owner != uid {
		logger.Warn(ctx, "tg", "ad.claim.foreign", slog.Int64("owner", owner))
		return tghelpers.EditOrSendMD(c, textInvalidAction)
	}

	rem, ok := b.cooldown.Claim(uid)
	if !ok {
		return tghelpers.EditOrSendMD(c, textWait(seconds(rem)))
	}

	view, err := b.ledger.RecordAdView(ctx, uid)
	if err != nil {
		// Nothing was credited, so the claim must not count against the window.
		b.cooldown.Reset(uid)
		if errors.Is(err, ledger.ErrUserNotFound) {
			return tghelpers.EditOrSendMD(c, textUserNotFound)
		}
		return fmt.Errorf("record ad view: %w", err)
	}
	logger.Info(ctx, "ledger", "ad.claim.ok",
		slog.Int64("ads_watched", view.Total),
		slog.Bool("rewarded", view.Rewarded),
	)

	if err := tghelpers.EditOrSendMD(c, textAdVerified(view, b.ledger.AdsPerReward())); err != nil {
		return err
	}
	return tghelpers.SendText(c, textNextAction, MainKeyboard())
}
