package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"refbot/internal/config"
)

// Callback action tokens. Parameterized actions carry an embedded user
// ID after a colon, e.g. "approve_payment:123".
const (
	ActionProfile       = "profile"
	ActionStatistics    = "statistics"
	ActionFunctionality = "functionality"
	ActionReferrals     = "referrals"
	ActionManuals       = "manuals"
	ActionReviews       = "reviews"
	ActionSubscriptions = "required_subscriptions"
	ActionPayments      = "payments"
	ActionRequestPayout = "request_payment"
	ActionCheckSubs     = "check_subs"
	ActionBackToMain    = "back_to_main"
	ActionCopyLink      = "copy_link"
	ActionAdminStats    = "admin_stats"
	ActionApprove       = "approve_payment"
	ActionReject        = "reject_payment"
	ActionClearHistory  = "clear_user_history"
)

// KeyboardBuilder constructs the bot's inline keyboards. Buttons use
// raw callback data so the router sees the action tokens verbatim.
type KeyboardBuilder struct {
	channels []config.ChannelConfig
	support  string
}

// NewKeyboardBuilder creates a keyboard builder for the given required
// channels and support contact URL.
func NewKeyboardBuilder(channels []config.ChannelConfig, supportURL string) *KeyboardBuilder {
	return &KeyboardBuilder{channels: channels, support: supportURL}
}

func dataBtn(text, data string) tele.InlineButton {
	return tele.InlineButton{Text: text, Data: data}
}

func urlBtn(text, url string) tele.InlineButton {
	return tele.InlineButton{Text: text, URL: url}
}

// MainMenu is the top-level menu.
func (kb *KeyboardBuilder) MainMenu() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{dataBtn("💻 Profile", ActionProfile), dataBtn("📈 Statistics", ActionStatistics)},
		{dataBtn("🔧 Features", ActionFunctionality)},
	}}
}

// FunctionalityMenu lists the feature sections.
func (kb *KeyboardBuilder) FunctionalityMenu() *tele.ReplyMarkup {
	rows := [][]tele.InlineButton{
		{dataBtn("📚 Manuals", ActionManuals)},
		{dataBtn("⭐ Reviews", ActionReviews)},
		{dataBtn("❗ Required subscriptions", ActionSubscriptions)},
		{dataBtn("💰 Payouts", ActionPayments)},
	}
	if kb.support != "" {
		rows = append(rows, []tele.InlineButton{urlBtn("❓ Support", kb.support)})
	}
	rows = append(rows,
		[]tele.InlineButton{dataBtn("👥 Referrals", ActionReferrals)},
		[]tele.InlineButton{dataBtn("🔙 Back to menu", ActionBackToMain)},
	)
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// BackButton is a single back-to-main row.
func (kb *KeyboardBuilder) BackButton() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{dataBtn("🔙 Back", ActionBackToMain)},
	}}
}

// SubscriptionButtons links every required channel plus the recheck
// action, which must stay reachable for unsubscribed users.
func (kb *KeyboardBuilder) SubscriptionButtons() *tele.ReplyMarkup {
	rows := make([][]tele.InlineButton, 0, len(kb.channels)+1)
	for _, ch := range kb.channels {
		rows = append(rows, []tele.InlineButton{urlBtn("📢 Join "+ch.Name, ch.URL)})
	}
	rows = append(rows, []tele.InlineButton{dataBtn("🔄 Check subscriptions", ActionCheckSubs)})
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// ProfileMenu is shown under the profile card.
func (kb *KeyboardBuilder) ProfileMenu() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{dataBtn("👥 My referrals", ActionReferrals)},
		{dataBtn("🔙 Back", ActionBackToMain)},
	}}
}

// ReferralsMenu is shown under the referral card.
func (kb *KeyboardBuilder) ReferralsMenu(userID int64) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{dataBtn("📋 Copy link", fmt.Sprintf("%s:%d", ActionCopyLink, userID))},
		{dataBtn("🔙 Back", ActionBackToMain)},
	}}
}

// PayoutMenu offers the payout request action.
func (kb *KeyboardBuilder) PayoutMenu() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{dataBtn("💸 Request payout", ActionRequestPayout)},
		{dataBtn("🔙 Back", ActionFunctionality)},
	}}
}

// ManualsMenu links the manuals page.
func (kb *KeyboardBuilder) ManualsMenu(url string) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{urlBtn("📖 Open manuals", url)},
		{dataBtn("🔙 Back", ActionFunctionality)},
	}}
}

// ReviewsMenu links the reviews page.
func (kb *KeyboardBuilder) ReviewsMenu(url string) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{urlBtn("⭐ See reviews", url)},
		{dataBtn("🔙 Back", ActionFunctionality)},
	}}
}

// AdminPanel is the admin bot's top-level menu.
func (kb *KeyboardBuilder) AdminPanel() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{dataBtn("📊 Bot statistics", ActionAdminStats)},
	}}
}

// DecisionButtons renders the approve/reject/clear rows of an admin
// payout prompt as a raw reply_markup payload for the Bot API client.
func DecisionButtons(userID int64) map[string]interface{} {
	return map[string]interface{}{
		"inline_keyboard": [][]map[string]string{
			{
				{"text": "✅ Approve", "callback_data": fmt.Sprintf("%s:%d", ActionApprove, userID)},
				{"text": "❌ Reject", "callback_data": fmt.Sprintf("%s:%d", ActionReject, userID)},
			},
			{
				{"text": "🗑️ Clear user history", "callback_data": fmt.Sprintf("%s:%d", ActionClearHistory, userID)},
			},
		},
	}
}
