package payout

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"refbot/internal/models"
	"refbot/internal/pkg/utils"
	"refbot/internal/repository"
	"refbot/internal/session"
)

// Payout thresholds. A user qualifies for a payout once they have
// invited at least MinReferrals users and hold at least MinWithdrawAmount.
const (
	MinWithdrawAmount = 0.5
	MinReferrals      = 1
)

// Card numbers are accepted once 12 to 19 digits remain after stripping
// separators (PAN lengths per ISO/IEC 7812).
const (
	minCardDigits = 12
	maxCardDigits = 19
)

var (
	// ErrNotEligible: referral count or balance below the payout threshold.
	ErrNotEligible = errors.New("payout: user not eligible")
	// ErrPendingExists: the user already has a pending payout request.
	ErrPendingExists = errors.New("payout: pending request already exists")
	// ErrNoSession: no card-collection conversation is open for the user.
	ErrNoSession = errors.New("payout: no open session")
	// ErrInvalidDestination: the submitted text is not a plausible card number.
	ErrInvalidDestination = errors.New("payout: invalid destination")
	// ErrNoPendingRequest: an admin decision targeted a user with no pending request.
	ErrNoPendingRequest = errors.New("payout: no pending request")
)

// Workflow drives a payout request through
// eligible -> collecting destination -> pending -> approved/rejected/canceled.
type Workflow struct {
	users    *repository.UserRepository
	payments *repository.PaymentRepository
	sessions session.Store
	logger   *zap.Logger
}

func New(users *repository.UserRepository, payments *repository.PaymentRepository, sessions session.Store, logger *zap.Logger) *Workflow {
	return &Workflow{users: users, payments: payments, sessions: sessions, logger: logger}
}

// Eligibility is a snapshot of the thresholds for one user.
type Eligibility struct {
	Balance   float64
	Referrals int64
	Eligible  bool
}

// Eligibility reads the user's current standing against the payout
// thresholds. An absent user or a store failure reads as not eligible.
func (w *Workflow) Eligibility(userID int64) Eligibility {
	user, err := w.users.FindByID(userID)
	if err != nil {
		if !repository.IsNotFound(err) {
			w.logger.Error("failed to load user", zap.Int64("user_id", userID), zap.Error(err))
		}
		return Eligibility{}
	}
	referrals, err := w.users.CountReferrals(userID)
	if err != nil {
		w.logger.Error("failed to count referrals", zap.Int64("user_id", userID), zap.Error(err))
		return Eligibility{Balance: user.Balance}
	}
	return Eligibility{
		Balance:   user.Balance,
		Referrals: referrals,
		Eligible:  referrals >= MinReferrals && user.Balance >= MinWithdrawAmount,
	}
}

// Begin enters the card-collection state. Eligibility is re-checked
// here rather than trusted from the menu the user clicked, and a user
// with a request still pending cannot open another one. On success a
// session holding the balance snapshot is opened.
func (w *Workflow) Begin(ctx context.Context, userID int64) error {
	elig := w.Eligibility(userID)
	if !elig.Eligible {
		return ErrNotEligible
	}

	pending, err := w.payments.HasPending(userID)
	if err != nil {
		w.logger.Error("failed to check pending requests", zap.Int64("user_id", userID), zap.Error(err))
		return err
	}
	if pending {
		return ErrPendingExists
	}

	return w.sessions.Open(ctx, userID, elig.Balance)
}

// HasOpenSession reports whether a card-collection conversation is open.
func (w *Workflow) HasOpenSession(ctx context.Context, userID int64) bool {
	_, ok := w.sessions.Peek(ctx, userID)
	return ok
}

// SubmitDestination accepts the free-text card number for an open
// session. An invalid number leaves the session open for a retry. On
// acceptance the session is consumed and a pending request is created;
// the session is consumed even when the insert fails, so a broken flow
// does not swallow the user's next message.
func (w *Workflow) SubmitDestination(ctx context.Context, userID int64, text string) (*models.PaymentRequest, error) {
	sess, ok := w.sessions.Peek(ctx, userID)
	if !ok {
		return nil, ErrNoSession
	}

	card := normalizeCard(text)
	if card == "" {
		return nil, ErrInvalidDestination
	}

	sess, ok = w.sessions.Consume(ctx, userID)
	if !ok {
		return nil, ErrNoSession
	}

	req := &models.PaymentRequest{
		Reference:  utils.GenerateReference(),
		UserID:     userID,
		Amount:     sess.Amount,
		CardNumber: card,
		Status:     models.PaymentStatusPending,
	}
	if err := w.payments.Create(req); err != nil {
		w.logger.Error("failed to create payout request", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return req, nil
}

// Approve settles the latest pending request for a user: the request is
// approved, the balance zeroed and total_paid grown, all in one
// transaction.
func (w *Workflow) Approve(userID int64) (*models.PaymentRequest, error) {
	req, err := w.payments.ApproveLatestPending(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNoPendingRequest
		}
		w.logger.Error("failed to approve payout", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return req, nil
}

// Reject marks the latest pending request rejected. The balance stays
// untouched and remains available for a future request.
func (w *Workflow) Reject(userID int64) (*models.PaymentRequest, error) {
	req, err := w.payments.RejectLatestPending(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNoPendingRequest
		}
		w.logger.Error("failed to reject payout", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return req, nil
}

// ClearHistory cancels the user's pending requests, zeroes their
// balance and detaches their downstream referrals in one transaction.
func (w *Workflow) ClearHistory(userID int64) error {
	if err := w.payments.ClearUserHistory(userID); err != nil {
		w.logger.Error("failed to clear user history", zap.Int64("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// MaskDestination hides a card number, keeping only the last 4 digits.
func MaskDestination(cardNumber string) string {
	return utils.MaskCardNumber(cardNumber)
}

// normalizeCard strips separators and validates the digit count.
// Returns "" when the text is not a plausible card number.
func normalizeCard(text string) string {
	digits := utils.Digits(text)
	if len(digits) < minCardDigits || len(digits) > maxCardDigits {
		return ""
	}
	return digits
}
