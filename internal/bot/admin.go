package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"refbot/internal/config"
	"refbot/internal/ledger"
	"refbot/internal/payout"
	"refbot/internal/pkg/utils"
	"refbot/internal/repository"
)

// AdminBot is the decision channel: a second bot where the configured
// administrator reviews payout requests and manages users.
type AdminBot struct {
	tb       *tele.Bot
	cfg      *config.Config
	ledger   *ledger.Ledger
	workflow *payout.Workflow
	stats    *repository.StatsRepository
	users    *repository.UserRepository
	userAPI  APIClient // primary bot token, requester notifications
	keyboard *KeyboardBuilder
	logger   *zap.Logger
}

// AdminDeps bundles everything the admin bot needs.
type AdminDeps struct {
	Ledger   *ledger.Ledger
	Workflow *payout.Workflow
	Stats    *repository.StatsRepository
	Users    *repository.UserRepository
	UserAPI  APIClient
}

// NewAdmin creates and configures the admin bot.
func NewAdmin(cfg *config.Config, deps *AdminDeps, logger *zap.Logger) (*AdminBot, error) {
	pref := tele.Settings{
		Token:  cfg.Bot.AdminToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error("admin telebot error", zap.Error(err))
		},
	}

	tb, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin telebot: %w", err)
	}

	b := &AdminBot{
		tb:       tb,
		cfg:      cfg,
		ledger:   deps.Ledger,
		workflow: deps.Workflow,
		stats:    deps.Stats,
		users:    deps.Users,
		userAPI:  deps.UserAPI,
		keyboard: NewKeyboardBuilder(cfg.Payout.Channels, cfg.Bot.SupportURL),
		logger:   logger,
	}

	b.registerHandlers()

	return b, nil
}

// Start begins long polling.
func (b *AdminBot) Start() {
	b.logger.Info("Starting admin bot", zap.String("mode", "polling"))
	b.tb.Start()
}

// Stop gracefully shuts down the bot.
func (b *AdminBot) Stop() {
	b.tb.Stop()
}

func (b *AdminBot) registerHandlers() {
	b.tb.Handle("/admin", b.handleAdmin)
	b.tb.Handle("/reset_refs", b.handleResetRefs)
	b.tb.Handle("/reset_balance", b.handleResetBalance)
	b.tb.Handle(tele.OnCallback, b.handleCallback)
}

// isAdmin compares the sender against the single configured
// administrator identity.
func (b *AdminBot) isAdmin(c tele.Context) bool {
	return fmt.Sprintf("%d", c.Sender().ID) == b.cfg.Bot.AdminID
}

// ── Commands ──────────────────────────────────────────────────────────

func (b *AdminBot) handleAdmin(c tele.Context) error {
	if !b.isAdmin(c) {
		return c.Send("You do not have access to the admin panel")
	}
	return c.Send("Admin panel\n\nPick an action:", b.keyboard.AdminPanel())
}

func (b *AdminBot) handleResetRefs(c tele.Context) error {
	if !b.isAdmin(c) {
		return c.Send("You do not have access to this command")
	}

	targetID := utils.ParseInt64(c.Message().Payload, 0)
	if targetID == 0 {
		return c.Send("Usage: /reset_refs <user id>")
	}

	exists, err := b.users.Exists(targetID)
	if err != nil {
		return c.Send("An error occurred while resetting referrals")
	}
	if !exists {
		return c.Send(fmt.Sprintf("No user with ID: %d", targetID))
	}

	if !b.ledger.ResetReferrals(targetID) {
		return c.Send("An error occurred while resetting referrals")
	}
	return c.Send(fmt.Sprintf("Referrals of user ID: %d have been reset", targetID))
}

func (b *AdminBot) handleResetBalance(c tele.Context) error {
	if !b.isAdmin(c) {
		return c.Send("You do not have access to this command")
	}

	targetID := utils.ParseInt64(c.Message().Payload, 0)
	if targetID == 0 {
		return c.Send("Usage: /reset_balance <user id>")
	}

	exists, err := b.users.Exists(targetID)
	if err != nil {
		return c.Send("An error occurred while resetting the balance")
	}
	if !exists {
		return c.Send(fmt.Sprintf("No user with ID: %d", targetID))
	}

	if !b.ledger.ResetBalance(targetID) {
		return c.Send("An error occurred while resetting the balance")
	}
	return c.Send(fmt.Sprintf("Balance of user ID: %d has been reset", targetID))
}

// ── Callback queries ──────────────────────────────────────────────────

// handleCallback dispatches admin decision actions. Non-admin callers
// are dropped silently.
func (b *AdminBot) handleCallback(c tele.Context) error {
	if !b.isAdmin(c) {
		return nil
	}

	data := strings.TrimPrefix(c.Callback().Data, "\f")
	action, arg := splitAction(data)

	_ = c.Respond()

	switch action {
	case ActionAdminStats:
		return b.showStats(c)

	case ActionApprove:
		return b.approvePayout(c, utils.ParseInt64(arg, 0))

	case ActionReject:
		return b.rejectPayout(c, utils.ParseInt64(arg, 0))

	case ActionClearHistory:
		return b.clearUserHistory(c, utils.ParseInt64(arg, 0))

	default:
		b.logger.Debug("unknown admin callback", zap.String("data", data))
		return nil
	}
}

func (b *AdminBot) showStats(c tele.Context) error {
	stats, err := b.stats.Get()
	if err != nil {
		b.logger.Error("failed to load stats", zap.Error(err))
		return c.Send("An error occurred while loading statistics")
	}

	return c.Send(fmt.Sprintf(
		"📊 Bot statistics\n\nTotal users: %d\nNew today: %d\nTotal paid out: %s💵",
		stats.TotalUsers, stats.TodayUsers, utils.FormatAmount(stats.TotalPaid)))
}

func (b *AdminBot) approvePayout(c tele.Context, targetID int64) error {
	req, err := b.workflow.Approve(targetID)
	if err != nil {
		if errors.Is(err, payout.ErrNoPendingRequest) {
			return c.Send(fmt.Sprintf("User ID: %d has no pending payout request", targetID))
		}
		return c.Send("An error occurred while processing the payout")
	}

	b.notifyUser(targetID, fmt.Sprintf(
		"✅ Your payout request for %s💵 has been approved and processed!",
		utils.FormatAmount(req.Amount)))

	return c.Send(fmt.Sprintf("✅ Payout of %s💵 to user ID: %d approved",
		utils.FormatAmount(req.Amount), targetID))
}

func (b *AdminBot) rejectPayout(c tele.Context, targetID int64) error {
	_, err := b.workflow.Reject(targetID)
	if err != nil {
		if errors.Is(err, payout.ErrNoPendingRequest) {
			return c.Send(fmt.Sprintf("User ID: %d has no pending payout request", targetID))
		}
		return c.Send("An error occurred while rejecting the payout")
	}

	b.notifyUser(targetID, "❌ Your payout request has been rejected. Contact support with any questions.")

	return c.Send(fmt.Sprintf("❌ Payout to user ID: %d rejected", targetID))
}

func (b *AdminBot) clearUserHistory(c tele.Context, targetID int64) error {
	if err := b.workflow.ClearHistory(targetID); err != nil {
		return c.Send("An error occurred while clearing the user history")
	}

	b.notifyUser(targetID,
		"⚠️ Your history in the bot was cleared by an administrator. Your balance and referrals have been reset.")

	return c.Send(fmt.Sprintf("✅ History of user ID: %d cleared", targetID))
}

// notifyUser delivers a notification to a requester through the
// primary bot.
func (b *AdminBot) notifyUser(userID int64, text string) {
	if _, err := b.userAPI.SendMessage(userID, text, nil); err != nil {
		b.logger.Error("failed to notify user", zap.Int64("user_id", userID), zap.Error(err))
	}
}
