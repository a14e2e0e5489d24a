package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/viewsbot/core/telegram/keyboard"
)

// Reply keyboard labels. Each one is registered as an alias of its command.
const (
	LabelWatchAds     = "🪧 Watch Ads"
	LabelReferEarn    = "👥 Refer & Earn"
	LabelBuyViews     = "📦 Buy Views"
	LabelBalance      = "💳 Balance"
	LabelContactAdmin = "📞 Contact Admin"
)

// Callback unique keys.
const (
	CallbackWatchedAd = "watched_ad"
)

// MainKeyboard is the persistent reply keyboard shown under most replies.
func MainKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{LabelWatchAds, LabelReferEarn},
		[]string{LabelBuyViews, LabelBalance},
		[]string{LabelContactAdmin},
	)
}
