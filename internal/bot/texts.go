package bot

import (
	"fmt"
	"strings"

	"github.com/m3rciful/viewsbot/core/telegram/format"
	"github.com/m3rciful/viewsbot/internal/ledger"
)

const (
	textWelcome          = "👋 Welcome to the bot!"
	textWelcomeBack      = "👋 Welcome back to the bot!"
	textWelcomeReferred  = "🎉 Welcome! You've been referred by another user. Both of you received rewards!"
	textUseMenu          = "Please use the menu buttons below 👇"
	textUserNotFound     = "❌ User data not found. Please use /start first."
	textAccessDenied     = "❌ Access denied."
	textCancelled        = "❌ Process cancelled."
	textNothingToCancel  = "❌ Current process cancelled."
	textInvalidAction    = "❌ Invalid action."
	textNextAction       = "Choose your next action:"
	textEnterNumber      = "❌ Please enter a valid number."
	textPositiveNumber   = "❌ Please enter a positive number."
	textSendLink         = "❌ Please send the video link as text."
	textPaymentFailed    = "❌ Failed to process payment. Please try again."
	textNetworkError     = "❌ Network error while processing order.\nPlease try again later or contact admin."
	textBroadcastPrompt  = "📢 Broadcast Message\n\nSend me the message you want to broadcast to all users:\n\nSend /cancel to cancel."
	textBroadcastNoUsers = "📢 There are no users to broadcast to."
	textNoOrders         = "📦 You have no orders yet. Use 📦 Buy Views to place one."

	textBuyPrompt = "📦 Buy Views\n\n" +
		"Please send me the video link you want to promote:\n\n" +
		"💡 Supported platforms:\n" +
		"• YouTube\n" +
		"• TikTok\n" +
		"• Instagram\n" +
		"• And more...\n\n" +
		"Send /cancel to cancel this process."

	textAdminPanel = "👑 *Admin Panel*\n\n" +
		"📊 *Available Commands:*\n" +
		"• `/admin stats` - Show bot statistics\n" +
		"• `/admin broadcast` - Broadcast message to all users\n" +
		"• `/admin users` - Show user count\n"

	adminUsersShown = 10
)

func textWait(secs int) string {
	return fmt.Sprintf("⏰ Please wait %d seconds before watching another ad.", secs)
}

func textAds(adsWatched, every int64, cooldownSecs int) string {
	var sb strings.Builder
	sb.WriteString("📺 *Ad Viewing*\n\n")
	fmt.Fprintf(&sb, "📊 Total ads watched: %d\n", adsWatched)
	fmt.Fprintf(&sb, "💰 Views earned: %d\n", adsWatched/every)
	fmt.Fprintf(&sb, "🎯 Next reward in: %d ads\n\n", ledger.AdView{Total: adsWatched}.NextRewardIn(every))
	sb.WriteString("🔗 Click 'Open Ad' button below to view the advertisement:\n\n")
	sb.WriteString("💡 *How it works:*\n")
	sb.WriteString("• Click 'Open Ad' to view advertisement\n")
	sb.WriteString("• After viewing, click 'I Watched Ad' to get reward\n")
	fmt.Fprintf(&sb, "• Watch %d ads = Get 1 view added to your balance\n", every)
	fmt.Fprintf(&sb, "• %d seconds cooldown between ads", cooldownSecs)
	return sb.String()
}

func textAdVerified(v ledger.AdView, every int64) string {
	var sb strings.Builder
	sb.WriteString("✅ *Ad Verified!*\n\n")
	fmt.Fprintf(&sb, "📊 Total ads watched: %d\n", v.Total)
	fmt.Fprintf(&sb, "💰 Views earned: %d\n", v.Total/every)
	if v.Rewarded {
		fmt.Fprintf(&sb, "🎉 You just earned a view! Next reward in: %d ads\n\n", every)
	} else {
		fmt.Fprintf(&sb, "🎯 Next reward in: %d ads\n\n", v.NextRewardIn(every))
	}
	sb.WriteString("💡 Keep watching ads to earn more views for your video promotions!")
	return sb.String()
}

func textReferral(link string, u ledger.User, reward int64) string {
	var sb strings.Builder
	sb.WriteString("👥 *Referral Program*\n\n")
	fmt.Fprintf(&sb, "🔗 Your referral link:\n`%s`\n\n", link)
	sb.WriteString("📊 *Your Stats:*\n")
	fmt.Fprintf(&sb, "• Total referrals: %d\n", u.ReferralsCount)
	fmt.Fprintf(&sb, "• Total earned: %d views\n\n", u.ReferralsCount*reward)
	sb.WriteString("💰 *Rewards:*\n")
	fmt.Fprintf(&sb, "• +%d views for each new user who joins with your link\n", reward)
	sb.WriteString("• Unlimited referrals allowed\n\n")
	sb.WriteString("📱 *How to share:*\n")
	sb.WriteString("Send your referral link to friends and earn views for each person who joins!")
	return sb.String()
}

func textBalance(u ledger.User, every, reward int64) string {
	var sb strings.Builder
	sb.WriteString("💳 *Your Balance*\n\n")
	fmt.Fprintf(&sb, "💰 Available views: *%d*\n\n", u.Balance)
	sb.WriteString("📊 *Account Summary:*\n")
	fmt.Fprintf(&sb, "• Ads watched: %d\n", u.AdsWatched)
	fmt.Fprintf(&sb, "• Referrals made: %d\n", u.ReferralsCount)
	fmt.Fprintf(&sb, "• Total earned from ads: %d views\n", u.AdsWatched/every)
	fmt.Fprintf(&sb, "• Total earned from referrals: %d views\n\n", u.ReferralsCount*reward)
	sb.WriteString("🎯 *How to earn more:*\n")
	fmt.Fprintf(&sb, "• Watch ads (%d ads = 1 view)\n", every)
	fmt.Fprintf(&sb, "• Refer friends (+%d views each)\n", reward)
	sb.WriteString("• Use your views to promote your content!")
	return sb.String()
}

func textContact(adminID int64) string {
	var sb strings.Builder
	sb.WriteString("📞 *Contact Admin*\n\n")
	sb.WriteString("Need help or have questions?\n\n")
	sb.WriteString("💬 Contact our admin:\n")
	fmt.Fprintf(&sb, "👤 Admin ID: %d\n\n", adminID)
	sb.WriteString("📝 *Common Issues:*\n")
	sb.WriteString("• Balance not updating\n")
	sb.WriteString("• Order problems\n")
	sb.WriteString("• Technical support\n")
	sb.WriteString("• Partnership inquiries\n\n")
	sb.WriteString("⏰ Response time: Usually within 24 hours")
	return sb.String()
}

func textLinkReceived(balance int64) string {
	return fmt.Sprintf("✅ Video link received!\n\n"+
		"💰 Your current balance: %d views\n\n"+
		"📦 How many views do you want to buy?\n"+
		"💡 1 view = 1 balance point\n\n"+
		"Enter a number (e.g., 100, 500, 1000):", balance)
}

func textInsufficient(balance, qty int64) string {
	return fmt.Sprintf("❌ Insufficient balance!\n\n"+
		"💰 Your balance: %d views\n"+
		"📦 Requested: %d views\n"+
		"💡 Need %d more views\n\n"+
		"Watch more ads or refer friends to earn more views!", balance, qty, qty-balance)
}

func textOrderConfirmed(res OrderResult) string {
	var sb strings.Builder
	sb.WriteString("✅ *Order Confirmed!*\n\n")
	fmt.Fprintf(&sb, "🆔 Order ID: `%s`\n", res.Order.ID)
	fmt.Fprintf(&sb, "🔗 Video: %s\n", format.MD(res.Order.VideoLink))
	fmt.Fprintf(&sb, "📦 Quantity: %d views\n", res.Order.Quantity)
	fmt.Fprintf(&sb, "💰 Cost: %d balance points\n\n", res.Order.TotalCost)
	sb.WriteString("🚀 Your order is being processed!\n")
	sb.WriteString("📊 Views will be delivered within 24 hours.\n\n")
	fmt.Fprintf(&sb, "💳 Remaining balance: %d views", res.Balance)
	return sb.String()
}

func textOrderStatusFailed(code int) string {
	return fmt.Sprintf("❌ Order failed. API returned status: %d\nPlease contact admin if this persists.", code)
}

func textOrders(orders []ledger.Order, total int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📦 *Your Orders* (%d total)\n\n", total)
	for _, o := range orders {
		fmt.Fprintf(&sb, "🆔 `%s` · %d views · %s\n", o.ID, o.Quantity, o.Status)
		fmt.Fprintf(&sb, "🔗 %s\n", format.MD(o.VideoLink))
		fmt.Fprintf(&sb, "🕒 %s\n\n", o.CreatedAt.UTC().Format("2006-01-02 15:04"))
	}
	if total > len(orders) {
		fmt.Fprintf(&sb, "Showing the latest %d.", len(orders))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func textStats(s ledger.Stats) string {
	return fmt.Sprintf("📊 *Bot Statistics*\n\n"+
		"👥 Total users: %d\n"+
		"📦 Total orders: %d\n"+
		"🔗 Total referrals: %d\n", s.TotalUsers, s.TotalOrders, s.TotalReferrals)
}

func textUsers(users []ledger.User) string {
	var sb strings.Builder
	sb.WriteString("👥 *User List*\n\n")
	fmt.Fprintf(&sb, "Total users: %d\n\n", len(users))
	for i, u := range users {
		if i == adminUsersShown {
			break
		}
		name := u.Username
		if name == "" {
			name = "No username"
		}
		fmt.Fprintf(&sb, "• @%s (ID: %d) - %d views\n", format.MD(name), u.ID, u.Balance)
	}
	if len(users) > adminUsersShown {
		fmt.Fprintf(&sb, "\n... and %d more users", len(users)-adminUsersShown)
	}
	return sb.String()
}

func textBroadcasting(n int) string {
	return fmt.Sprintf("📢 Broadcasting message to %d users...", n)
}

func textBroadcastMessage(text string) string {
	return "📢 *Message from Admin:*\n\n" + format.MD(text)
}

func textBroadcastDone(r BroadcastResult) string {
	return fmt.Sprintf("✅ *Broadcast Complete*\n\n📤 Sent successfully: %d\n❌ Failed: %d", r.Sent, r.Failed)
}
