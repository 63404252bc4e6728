package bot

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/premium-access-bot/internal/models"
	"github.com/magabrotheeeer/premium-access-bot/internal/plans"
	"github.com/magabrotheeeer/premium-access-bot/internal/storage"
	"github.com/magabrotheeeer/premium-access-bot/internal/telegram"
)

// Тексты и клавиатуры бота. Всё, что уходит пользователю, собрано здесь,
// обработчики в router.go только выбирают нужную пару текст+клавиатура.

func welcomeText(firstName string) string {
	return fmt.Sprintf(`🎮 *Welcome to Premium Gaming Bot!*

Hello %s! 👋

I'm your gaming companion bot, designed to help you access premium gaming resources and exclusive content.

*What I offer:*
🆓 *Free Channel*: Daily gaming tips and basic resources
💎 *Premium Channel*: Exclusive content including:
   • Advanced gaming strategies
   • Early access to new games
   • Premium game guides
   • VIP community access

Ready to upgrade your gaming experience?`, firstName)
}

func mainMenuKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "🚀 Upgrade to Premium", CallbackData: callbackUpgrade}},
		{{Text: "ℹ️ Learn More", CallbackData: callbackLearnMore}},
		{{Text: "📞 Support", CallbackData: callbackSupport}},
	}}
}

const upgradeText = `💎 *Choose Your Premium Plan*

Select the plan that best fits your needs:

📊 *All plans include:*
• Access to premium channel
• Exclusive strategies
• Priority support
• VIP community access`

func planKeyboard() *telegram.InlineKeyboardMarkup {
	var rows [][]telegram.InlineKeyboardButton
	for _, plan := range plans.Catalog {
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         fmt.Sprintf("%s - ₦%d", plan.Name, plan.Amount/100),
			CallbackData: planPrefix + plan.ID,
		}})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{{Text: "⬅️ Back to Menu", CallbackData: callbackBackToMenu}})
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func alreadyActiveText(user *models.User) string {
	expires := "unknown"
	if user.PeriodEnd != nil {
		expires = user.PeriodEnd.UTC().Format("January 2, 2006 at 15:04 UTC")
	}
	return fmt.Sprintf("✅ You already have an active premium subscription!\n"+
		"📅 Expires: %s\n"+
		"🎯 Plan: %s", expires, user.Plan)
}

func paymentDetailsText(plan models.Plan) string {
	return fmt.Sprintf(`💳 *Payment Details*

📦 *Plan*: %s
💰 *Amount*: ₦%d
⏱️ *Duration*: %d days

🔗 *Click the button below to complete your payment*

⚡ After successful payment, wait 30 seconds then click "I've Paid" to verify and get instant access!`,
		plan.Name, plan.Amount/100, int(plan.Duration.Hours()/24))
}

func paymentKeyboard(link, txRef string) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "💳 Pay Now", URL: link}},
		{{Text: "✅ I've Paid - Verify", CallbackData: verifyPrefix + txRef}},
		{{Text: "⬅️ Back", CallbackData: callbackUpgrade}},
	}}
}

func backToPlansKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "⬅️ Back", CallbackData: callbackUpgrade}},
	}}
}

func supportKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "📞 Support", CallbackData: callbackSupport}},
	}}
}

func activationSuccessText(plan models.Plan, periodEnd time.Time, channelLink string) string {
	return fmt.Sprintf(`✅ *Payment Successful!*

🎉 Welcome to Premium!

📦 *Plan*: %s
📅 *Valid Until*: %s

🔗 *Premium Channel Access*: %s

Enjoy your premium experience! 🚀`,
		plan.Name, periodEnd.UTC().Format("January 2, 2006 at 15:04 UTC"), channelLink)
}

func channelKeyboard(channelLink string) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "🎮 Join Premium Channel", URL: channelLink}},
	}}
}

const paymentNotFoundText = "❌ Payment record not found. Please contact support."

const alreadyProcessedText = "✅ This payment has already been processed. " +
	"You should have access to the premium channel."

func verifyPendingText() string {
	return "❌ Payment verification failed or payment is still pending.\n\n" +
		"If you've already paid, please wait a few minutes and try verifying again.\n" +
		"If the problem persists, contact support."
}

func retryVerifyKeyboard(txRef string) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "🔄 Try Again", CallbackData: verifyPrefix + txRef}},
		{{Text: "📞 Support", CallbackData: callbackSupport}},
	}}
}

const paymentFailedText = "❌ Your payment was not successful.\n\n" +
	"The payment reference is closed; please start a new purchase from the plans menu."

func upgradeKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "🚀 Upgrade Now", CallbackData: callbackUpgrade}},
	}}
}

func contactSupportText(txRef string) string {
	return "✅ Payment successful but there was an error setting up your account. " +
		"Please contact support with reference: " + txRef
}

func statusActiveText(user *models.User, channelLink string, now time.Time) string {
	left := user.PeriodEnd.Sub(now)
	days := int(left.Hours()) / 24
	hours := int(left.Hours()) % 24
	return fmt.Sprintf(`✅ *Premium Subscription Active*

📦 *Plan*: %s
📅 *Expires*: %s
⏰ *Time Left*: %d days, %d hours

🎮 *Premium Channel*: %s`,
		user.Plan, user.PeriodEnd.UTC().Format("January 2, 2006 at 15:04 UTC"), days, hours, channelLink)
}

const statusFreeText = `📋 *Free Account*

You currently have a free account. Upgrade to premium to access exclusive content!`

const learnMoreText = `📚 *About Premium Gaming Bot*

🎯 *Our Mission*: To provide gamers with the most accurate and valuable gaming insights.

💎 *Premium Features*:
• Daily exclusive gaming tips
• Advanced strategy guides
• VIP community access
• Priority customer support
• Early access to new features

🔒 *Secure*: All payments processed through trusted Flutterwave gateway`

func learnMoreKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "🚀 Upgrade Now", CallbackData: callbackUpgrade}},
		{{Text: "⬅️ Back to Menu", CallbackData: callbackBackToMenu}},
	}}
}

const supportText = `📞 *Customer Support*

Need help? We're here for you!

🕐 *Support Hours*: 24/7
💬 *Telegram*: @premium_access_support

*Common Issues:*
• Payment problems
• Channel access issues
• Subscription questions

We typically respond within 1 hour! 🚀`

func backToMenuKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: [][]telegram.InlineKeyboardButton{
		{{Text: "⬅️ Back to Menu", CallbackData: callbackBackToMenu}},
	}}
}

func statsText(stats *storage.Stats, now time.Time) string {
	return fmt.Sprintf(`📊 *Admin Statistics*

👥 *Users*: %d total, %d premium
💰 *Revenue*: ₦%.2f total
📈 *Recent*: %d payments (24h)
⏰ *Updated*: %s`,
		stats.TotalUsers, stats.EntitledUsers,
		float64(stats.RevenueKobo)/100, stats.RecentPayments,
		now.UTC().Format("2006-01-02 15:04 UTC"))
}

const rateLimitedText = "⏳ Please wait before making another payment request."

const unknownUserText = "❌ User not found. Please start the bot first with /start"
