package ledger

import (
	"database/sql"

	"go.uber.org/zap"

	"refbot/internal/models"
	"refbot/internal/repository"
)

// ReferralBonus is credited to the referrer once per registered invitee.
const ReferralBonus = 0.5

// Ledger owns the rules for registration, bonus crediting, referral
// counting and balance zeroing.
type Ledger struct {
	users  *repository.UserRepository
	stats  *repository.StatsRepository
	logger *zap.Logger
}

func New(users *repository.UserRepository, stats *repository.StatsRepository, logger *zap.Logger) *Ledger {
	return &Ledger{users: users, stats: stats, logger: logger}
}

// Profile is the user-facing account summary.
type Profile struct {
	UserID      int64
	Username    string
	Balance     float64
	Referrals   int64
	ReferrerID  int64
	HasReferrer bool
}

// ReferralInfo summarizes a user's referral standing. Earnings is the
// sum of the referred users' current balances, not a transaction log,
// so it shrinks when a referred user's balance is reset.
type ReferralInfo struct {
	Referrals int64
	Earnings  float64
}

// Register creates the user if absent. A repeated registration is a
// no-op. On a fresh registration the user counters are incremented and,
// when a referrer is given, that referrer's balance is credited with
// ReferralBonus. Crediting a nonexistent referrer touches zero rows and
// is not an error. A self-referral is ignored. Reports whether a new
// user was created.
func (l *Ledger) Register(userID int64, username string, referrerID int64) bool {
	user := &models.User{
		ID:       userID,
		Username: username,
	}
	if referrerID != 0 && referrerID != userID {
		user.ReferrerID = sql.NullInt64{Int64: referrerID, Valid: true}
	}

	created, err := l.users.Create(user)
	if err != nil {
		l.logger.Error("failed to register user", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	if !created {
		return false
	}

	if err := l.stats.IncrementUsers(); err != nil {
		l.logger.Error("failed to increment user counters", zap.Error(err))
	}

	if user.ReferrerID.Valid {
		if err := l.users.AddBalance(user.ReferrerID.Int64, ReferralBonus); err != nil {
			l.logger.Error("failed to credit referral bonus",
				zap.Int64("referrer_id", user.ReferrerID.Int64), zap.Error(err))
		}
	}
	return true
}

// Profile returns the account summary, or nil when the user is absent
// or the store failed.
func (l *Ledger) Profile(userID int64) *Profile {
	user, err := l.users.FindByID(userID)
	if err != nil {
		if !repository.IsNotFound(err) {
			l.logger.Error("failed to load user", zap.Int64("user_id", userID), zap.Error(err))
		}
		return nil
	}

	referrals, err := l.users.CountReferrals(userID)
	if err != nil {
		l.logger.Error("failed to count referrals", zap.Int64("user_id", userID), zap.Error(err))
	}

	p := &Profile{
		UserID:    user.ID,
		Username:  user.Username,
		Balance:   user.Balance,
		Referrals: referrals,
	}
	if user.ReferrerID.Valid {
		p.ReferrerID = user.ReferrerID.Int64
		p.HasReferrer = true
	}
	return p
}

// ReferralInfo returns the referral count and the derived earnings
// figure. Failures degrade to zeroes.
func (l *Ledger) ReferralInfo(userID int64) ReferralInfo {
	referrals, err := l.users.CountReferrals(userID)
	if err != nil {
		l.logger.Error("failed to count referrals", zap.Int64("user_id", userID), zap.Error(err))
		return ReferralInfo{}
	}
	earnings, err := l.users.SumReferralBalances(userID)
	if err != nil {
		l.logger.Error("failed to sum referral balances", zap.Int64("user_id", userID), zap.Error(err))
		return ReferralInfo{Referrals: referrals}
	}
	return ReferralInfo{Referrals: referrals, Earnings: earnings}
}

// ResetReferrals detaches every user currently referred by userID.
func (l *Ledger) ResetReferrals(userID int64) bool {
	if err := l.users.DetachReferrals(userID); err != nil {
		l.logger.Error("failed to reset referrals", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	return true
}

// ResetBalance zeroes a user's balance.
func (l *Ledger) ResetBalance(userID int64) bool {
	if err := l.users.SetBalance(userID, 0); err != nil {
		l.logger.Error("failed to reset balance", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	return true
}
