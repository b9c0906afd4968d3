package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"refbot/internal/config"
	"refbot/internal/ledger"
	"refbot/internal/models"
	"refbot/internal/payout"
	"refbot/internal/pkg/utils"
	"refbot/internal/repository"
	"refbot/internal/subscription"
)

// APIClient is the slice of the raw Bot API the handlers need for
// cross-bot delivery. Implemented by telegram.BotAPI.
type APIClient interface {
	SendMessage(chatID int64, text string, replyMarkup interface{}) (string, error)
}

// Bot is the user-facing bot: registration, menus, referral info and
// the payout request flow.
type Bot struct {
	tb       *tele.Bot
	cfg      *config.Config
	ledger   *ledger.Ledger
	workflow *payout.Workflow
	gate     *subscription.Gate
	stats    *repository.StatsRepository
	users    *repository.UserRepository
	adminAPI APIClient // decision channel (admin bot token)
	keyboard *KeyboardBuilder
	logger   *zap.Logger
}

// Deps bundles everything the user-facing bot needs.
type Deps struct {
	Ledger   *ledger.Ledger
	Workflow *payout.Workflow
	Gate     *subscription.Gate
	Stats    *repository.StatsRepository
	Users    *repository.UserRepository
	AdminAPI APIClient
}

// New creates and configures the user-facing bot.
func New(cfg *config.Config, deps *Deps, logger *zap.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error("telebot error", zap.Error(err))
		},
	}

	tb, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telebot: %w", err)
	}

	b := &Bot{
		tb:       tb,
		cfg:      cfg,
		ledger:   deps.Ledger,
		workflow: deps.Workflow,
		gate:     deps.Gate,
		stats:    deps.Stats,
		users:    deps.Users,
		adminAPI: deps.AdminAPI,
		keyboard: NewKeyboardBuilder(cfg.Payout.Channels, cfg.Bot.SupportURL),
		logger:   logger,
	}

	b.registerHandlers()

	return b, nil
}

// Start begins long polling.
func (b *Bot) Start() {
	b.logger.Info("Starting user bot", zap.String("mode", "polling"))
	b.tb.Start()
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() {
	b.tb.Stop()
}

func (b *Bot) registerHandlers() {
	b.tb.Handle("/start", b.handleStart)
	b.tb.Handle(tele.OnText, b.handleText)
	b.tb.Handle(tele.OnCallback, b.handleCallback)
}

// ── /start ────────────────────────────────────────────────────────────

func (b *Bot) handleStart(c tele.Context) error {
	userID := c.Sender().ID
	username := c.Sender().Username
	if username == "" {
		username = "NoUsername"
	}

	referrerID := utils.ParseInt64(c.Message().Payload, 0)
	if b.ledger.Register(userID, username, referrerID) {
		b.logger.Info("registered user",
			zap.Int64("user_id", userID), zap.Int64("referrer_id", referrerID))
	}

	caption := "👋 Welcome!\n\n⚠️ To use the bot you need to join the following channels:"
	return b.sendPhoto(c, caption, b.keyboard.SubscriptionButtons())
}

// ── Text routing ──────────────────────────────────────────────────────

// handleText interprets free text through the session store first: with
// an open payout session the message is the card number, otherwise it
// is ignored.
func (b *Bot) handleText(c tele.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	if !b.workflow.HasOpenSession(ctx, userID) {
		return nil
	}

	req, err := b.workflow.SubmitDestination(ctx, userID, c.Message().Text)
	switch {
	case errors.Is(err, payout.ErrInvalidDestination):
		return c.Send("❌ That does not look like a card number. Please send it as:\n\nXXXX-XXXX-XXXX-XXXX")
	case errors.Is(err, payout.ErrNoSession):
		return nil
	case err != nil:
		return c.Send("An error occurred while creating your request. Please try again later.")
	}

	confirmation := fmt.Sprintf(
		"✅ Your payout request for %s💵 has been submitted!\n\nCard: %s\n\nAwaiting review by an administrator.",
		utils.FormatAmount(req.Amount), payout.MaskDestination(req.CardNumber))
	if err := c.Send(confirmation, b.keyboard.MainMenu()); err != nil {
		return err
	}

	b.notifyAdminOfRequest(req)
	return nil
}

// notifyAdminOfRequest sends the decision prompt, listing the
// requester's referrals, to the admin over the decision channel.
func (b *Bot) notifyAdminOfRequest(req *models.PaymentRequest) {
	adminID := utils.ParseInt64(b.cfg.Bot.AdminID, 0)
	if adminID == 0 {
		b.logger.Warn("BOT_ADMIN_ID is not set, payout prompt not delivered")
		return
	}

	profile := b.ledger.Profile(req.UserID)
	username := "unknown"
	var referralCount int64
	if profile != nil {
		username = profile.Username
		referralCount = profile.Referrals
	}

	var lines []string
	if referrals, err := b.users.FindReferrals(req.UserID); err == nil {
		for _, ref := range referrals {
			lines = append(lines, fmt.Sprintf("- ID: %d, @%s", ref.ID, ref.Username))
		}
	}
	referralList := "No referrals"
	if len(lines) > 0 {
		referralList = strings.Join(lines, "\n")
	}

	text := fmt.Sprintf(
		"💸 New payout request\n\nUser: @%s (ID: %d)\nAmount: %s💵\nCard: %s\nReference: %s\n\nReferrals (total: %d):\n%s",
		username, req.UserID, utils.FormatAmount(req.Amount), req.CardNumber, req.Reference,
		referralCount, referralList)

	if _, err := b.adminAPI.SendMessage(adminID, text, DecisionButtons(req.UserID)); err != nil {
		b.logger.Error("failed to deliver payout prompt", zap.Error(err))
	}
}

// ── Callback queries ──────────────────────────────────────────────────

func (b *Bot) handleCallback(c tele.Context) error {
	userID := c.Sender().ID
	data := strings.TrimPrefix(c.Callback().Data, "\f")

	// The recheck action must stay reachable for unsubscribed users.
	if data == ActionCheckSubs {
		return b.handleCheckSubs(c)
	}

	if !b.gate.IsSubscribed(userID) {
		_ = c.Respond(&tele.CallbackResponse{
			Text:      "You need to join all the required channels to use the bot!",
			ShowAlert: true,
		})
		return c.Send("⚠️ Join all the required channels to access the bot features:",
			b.keyboard.SubscriptionButtons())
	}

	action, arg := splitAction(data)

	// Alert-style actions answer the query themselves.
	switch action {
	case ActionRequestPayout:
		return b.startPayoutRequest(c, userID)

	case ActionCopyLink:
		link := fmt.Sprintf("https://t.me/%s?start=%s", b.cfg.Bot.Username, arg)
		return c.Respond(&tele.CallbackResponse{
			Text:      "Your referral link: " + link,
			ShowAlert: true,
		})
	}

	// Menu navigation: answer the query up front so the client stops
	// spinning, then render the section.
	_ = c.Respond()

	switch action {
	case ActionBackToMain:
		return b.sendMainMenu(c)

	case ActionProfile:
		return b.showProfile(c, userID)

	case ActionStatistics:
		return b.showStatistics(c)

	case ActionFunctionality:
		return b.sendPhoto(c, "🔧 Features\n\nPick a section:", b.keyboard.FunctionalityMenu())

	case ActionReferrals:
		return b.showReferralInfo(c, userID)

	case ActionManuals:
		return b.sendPhoto(c, "📚 Manuals\n\nAvailable earning manuals:", b.keyboard.ManualsMenu(b.cfg.Bot.ManualsURL))

	case ActionReviews:
		return b.sendPhoto(c, "⭐ Reviews\n\nWhat our users say:", b.keyboard.ReviewsMenu(b.cfg.Bot.ReviewsURL))

	case ActionSubscriptions:
		return b.sendPhoto(c, "❗ Required subscriptions\n\nYou need to be subscribed to the following channels:",
			b.keyboard.SubscriptionButtons())

	case ActionPayments:
		return b.showPayoutInfo(c, userID)

	default:
		b.logger.Debug("unknown callback", zap.String("data", data), zap.Int64("user_id", userID))
		return nil
	}
}

func (b *Bot) handleCheckSubs(c tele.Context) error {
	userID := c.Sender().ID

	if !b.gate.IsSubscribed(userID) {
		_ = c.Respond(&tele.CallbackResponse{Text: "You are not subscribed to all channels! ❌"})
		return c.Send("⚠️ Please join all the required channels to continue:",
			b.keyboard.SubscriptionButtons())
	}

	_ = c.Respond(&tele.CallbackResponse{Text: "All subscriptions active! ✅"})

	referrerNote := ""
	if profile := b.ledger.Profile(userID); profile != nil && profile.HasReferrer {
		referrerNote = fmt.Sprintf("\n\n👥 You were invited by user ID: %d!", profile.ReferrerID)
	}

	caption := fmt.Sprintf(
		"✅ Thanks for subscribing! You can now use all the bot features.%s\n\nPick a section from the menu below:",
		referrerNote)
	return b.sendPhoto(c, caption, b.keyboard.MainMenu())
}

func (b *Bot) sendMainMenu(c tele.Context) error {
	// Prefer editing the message the button lives on; fall back to a
	// fresh message when the edit is rejected.
	if err := c.Edit("Main menu", b.keyboard.MainMenu()); err == nil {
		return nil
	}
	return b.sendPhoto(c, "Main menu", b.keyboard.MainMenu())
}

func (b *Bot) showProfile(c tele.Context, userID int64) error {
	profile := b.ledger.Profile(userID)
	if profile == nil {
		return c.Send("An error occurred while loading your profile. Please try again later.")
	}

	caption := fmt.Sprintf(
		"💻—Profile\n┣🆔 Username: @%s\n┣🆔 My ID: %d\n┣💰 Balance: %s💵\n┗👥 Referrals: %d",
		profile.Username, profile.UserID, utils.FormatAmount(profile.Balance), profile.Referrals)
	return b.sendPhoto(c, caption, b.keyboard.ProfileMenu())
}

func (b *Bot) showStatistics(c tele.Context) error {
	stats, err := b.stats.Get()
	if err != nil {
		b.logger.Error("failed to load stats", zap.Error(err))
		return c.Send("An error occurred while loading statistics. Please try again later.")
	}

	caption := fmt.Sprintf(
		"📈— STATISTICS:\n┣Total users: %d\n┣Joined today: %d\n┗Total paid out: %s💵",
		stats.TotalUsers, stats.TodayUsers, utils.FormatAmount(stats.TotalPaid))
	return b.sendPhoto(c, caption, b.keyboard.BackButton())
}

func (b *Bot) showReferralInfo(c tele.Context, userID int64) error {
	info := b.ledger.ReferralInfo(userID)
	link := fmt.Sprintf("https://t.me/%s?start=%d", b.cfg.Bot.Username, userID)

	caption := fmt.Sprintf(
		"👥 — REFERRALS\n\nYour link: %s\n\nTotal invited: %d\nEarned from referrals: %s💵",
		link, info.Referrals, utils.FormatAmount(info.Earnings))
	return b.sendPhoto(c, caption, b.keyboard.ReferralsMenu(userID))
}

func (b *Bot) showPayoutInfo(c tele.Context, userID int64) error {
	elig := b.workflow.Eligibility(userID)

	if !elig.Eligible {
		caption := fmt.Sprintf(
			"💰 Payouts\n\n❗️ To request a payout you need at least %d referral (now: %d) and a balance of at least %s💵.\n\nYour current balance: %s💵",
			payout.MinReferrals, elig.Referrals,
			utils.FormatAmount(payout.MinWithdrawAmount), utils.FormatAmount(elig.Balance))
		return b.sendPhoto(c, caption, b.keyboard.BackButton())
	}

	caption := fmt.Sprintf(
		"💰 Payout order\n\nYour current balance: %s💵\n\nPress the button below to submit a payout request:",
		utils.FormatAmount(elig.Balance))
	return b.sendPhoto(c, caption, b.keyboard.PayoutMenu())
}

func (b *Bot) startPayoutRequest(c tele.Context, userID int64) error {
	err := b.workflow.Begin(context.Background(), userID)
	switch {
	case errors.Is(err, payout.ErrNotEligible):
		return c.Respond(&tele.CallbackResponse{
			Text:      "Not enough balance or referrals for a payout! ❌",
			ShowAlert: true,
		})
	case errors.Is(err, payout.ErrPendingExists):
		return c.Respond(&tele.CallbackResponse{
			Text:      "You already have a payout request awaiting review.",
			ShowAlert: true,
		})
	case err != nil:
		return c.Respond(&tele.CallbackResponse{Text: "Something went wrong, try again later."})
	}

	return c.Send("💳 To finish your payout request, send your bank card number in the following format:\n\nXXXX-XXXX-XXXX-XXXX")
}

// ── Helpers ───────────────────────────────────────────────────────────

// sendPhoto sends the bot's promo image with a caption, degrading to a
// plain text message when the photo cannot be delivered.
func (b *Bot) sendPhoto(c tele.Context, caption string, markup *tele.ReplyMarkup) error {
	if b.cfg.Bot.PhotoPath != "" {
		photo := &tele.Photo{File: tele.FromDisk(b.cfg.Bot.PhotoPath), Caption: caption}
		if err := c.Send(photo, markup); err == nil {
			return nil
		}
	}
	return c.Send(caption, markup)
}

// splitAction separates an "action:id" token into its parts. Plain
// tokens come back with an empty argument.
func splitAction(data string) (action, arg string) {
	if i := strings.IndexByte(data, ':'); i >= 0 {
		return data[:i], data[i+1:]
	}
	return data, ""
}
