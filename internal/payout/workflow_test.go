package payout

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"refbot/internal/models"
	"refbot/internal/repository"
	"refbot/internal/session"
)

func newTestWorkflow(t *testing.T) (*Workflow, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Stats{}, &models.PaymentRequest{}))
	require.NoError(t, db.Create(&models.Stats{}).Error)

	sessions := session.NewMemoryStore(time.Minute)
	w := New(repository.NewUserRepository(db), repository.NewPaymentRepository(db), sessions, zap.NewNop())
	return w, db
}

func seedUser(t *testing.T, db *gorm.DB, id int64, balance float64, referrerID int64) {
	t.Helper()
	user := models.User{ID: id, Username: fmt.Sprintf("user%d", id), Balance: balance}
	if referrerID != 0 {
		user.ReferrerID = sql.NullInt64{Int64: referrerID, Valid: true}
	}
	require.NoError(t, db.Create(&user).Error)
}

func TestEligibility(t *testing.T) {
	tests := []struct {
		name      string
		balance   float64
		referrals int
		eligible  bool
	}{
		{"no referrals, high balance", 10.0, 0, false},
		{"referrals, low balance", 0.4, 3, false},
		{"both thresholds met", 0.5, 1, true},
		{"both thresholds exceeded", 7.0, 10, true},
		{"nothing", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, db := newTestWorkflow(t)
			seedUser(t, db, 1, tt.balance, 0)
			for i := 0; i < tt.referrals; i++ {
				seedUser(t, db, int64(100+i), 0, 1)
			}

			elig := w.Eligibility(1)
			require.Equal(t, tt.eligible, elig.Eligible)
			require.Equal(t, tt.balance, elig.Balance)
			require.EqualValues(t, tt.referrals, elig.Referrals)
		})
	}
}

func TestEligibility_MissingUser(t *testing.T) {
	w, _ := newTestWorkflow(t)
	require.False(t, w.Eligibility(999).Eligible)
}

func TestBegin_NotEligible(t *testing.T) {
	w, db := newTestWorkflow(t)
	seedUser(t, db, 1, 10.0, 0) // no referrals

	err := w.Begin(context.Background(), 1)
	require.ErrorIs(t, err, ErrNotEligible)
	require.False(t, w.HasOpenSession(context.Background(), 1))
}

func TestBegin_OpensSessionWithSnapshot(t *testing.T) {
	w, db := newTestWorkflow(t)
	seedUser(t, db, 1, 2.5, 0)
	seedUser(t, db, 2, 0, 1)

	require.NoError(t, w.Begin(context.Background(), 1))
	require.True(t, w.HasOpenSession(context.Background(), 1))
}

func TestBegin_RejectsSecondPendingRequest(t *testing.T) {
	w, db := newTestWorkflow(t)
	seedUser(t, db, 1, 2.5, 0)
	seedUser(t, db, 2, 0, 1)
	require.NoError(t, db.Create(&models.PaymentRequest{
		UserID: 1, Amount: 1.0, Status: models.PaymentStatusPending,
	}).Error)

	err := w.Begin(context.Background(), 1)
	require.ErrorIs(t, err, ErrPendingExists)
}

func TestSubmitDestination_NoSession(t *testing.T) {
	w, _ := newTestWorkflow(t)

	_, err := w.SubmitDestination(context.Background(), 1, "1234567812345678")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSubmitDestination_InvalidKeepsSessionOpen(t *testing.T) {
	w, db := newTestWorkflow(t)
	seedUser(t, db, 1, 2.5, 0)
	seedUser(t, db, 2, 0, 1)
	ctx := context.Background()
	require.NoError(t, w.Begin(ctx, 1))

	for _, text := range []string{"", "   ", "not a card", "1234"} {
		_, err := w.SubmitDestination(ctx, 1, text)
		require.ErrorIs(t, err, ErrInvalidDestination, "input %q", text)
		require.True(t, w.HasOpenSession(ctx, 1), "session must stay open after %q", text)
	}
}

func TestSubmitDestination_CreatesPendingRequest(t *testing.T) {
	w, db := newTestWorkflow(t)
	seedUser(t, db, 1, 2.5, 0)
	seedUser(t, db, 2, 0, 1)
	ctx := context.Background()
	require.NoError(t, w.Begin(ctx, 1))

	req, err := w.SubmitDestination(ctx, 1, "1234-5678-1234-5678")
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPending, req.Status)
	require.Equal(t, 2.5, req.Amount)
	require.Equal(t, "1234567812345678", req.CardNumber)
	require.NotEmpty(t, req.Reference)

	// Session is consumed; the next message is not a card number.
	require.False(t, w.HasOpenSession(ctx, 1))
	_, err = w.SubmitDestination(ctx, 1, "1234567812345678")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestApprove_SettlesRequest(t *testing.T) {
	w, db := newTestWorkflow(t)
	seedUser(t, db, 1, 2.5, 0)
	seedUser(t, db, 2, 0, 1)
	ctx := context.Background()
	require.NoError(t, w.Begin(ctx, 1))
	_, err := w.SubmitDestination(ctx, 1, "1234567812345678")
	require.NoError(t, err)

	req, err := w.Approve(1)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusApproved, req.Status)
	require.Equal(t, 2.5, req.Amount)

	var user models.User
	require.NoError(t, db.First(&user, "user_id = ?", int64(1)).Error)
	require.Equal(t, 0.0, user.Balance)

	var stats models.Stats
	require.NoError(t, db.First(&stats).Error)
	require.Equal(t, 2.5, stats.TotalPaid)

	// Terminal state is immutable: a second decision finds nothing.
	_, err = w.Approve(1)
	require.ErrorIs(t, err, ErrNoPendingRequest)
	_, err = w.Reject(1)
	require.ErrorIs(t, err, ErrNoPendingRequest)
}

func TestReject_LeavesBalance(t *testing.T) {
	w, db := newTestWorkflow(t)
	seedUser(t, db, 1, 2.5, 0)
	seedUser(t, db, 2, 0, 1)
	ctx := context.Background()
	require.NoError(t, w.Begin(ctx, 1))
	_, err := w.SubmitDestination(ctx, 1, "1234567812345678")
	require.NoError(t, err)

	req, err := w.Reject(1)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusRejected, req.Status)

	var user models.User
	require.NoError(t, db.First(&user, "user_id = ?", int64(1)).Error)
	require.Equal(t, 2.5, user.Balance)

	var stats models.Stats
	require.NoError(t, db.First(&stats).Error)
	require.Equal(t, 0.0, stats.TotalPaid)
}

func TestApprove_NoPendingRequest(t *testing.T) {
	w, db := newTestWorkflow(t)
	seedUser(t, db, 1, 2.5, 0)

	_, err := w.Approve(1)
	require.ErrorIs(t, err, ErrNoPendingRequest)
}

func TestClearHistory(t *testing.T) {
	w, db := newTestWorkflow(t)
	seedUser(t, db, 1, 2.5, 0)
	seedUser(t, db, 2, 1.0, 1)
	ctx := context.Background()
	require.NoError(t, w.Begin(ctx, 1))
	_, err := w.SubmitDestination(ctx, 1, "1234567812345678")
	require.NoError(t, err)

	require.NoError(t, w.ClearHistory(1))

	var user models.User
	require.NoError(t, db.First(&user, "user_id = ?", int64(1)).Error)
	require.Equal(t, 0.0, user.Balance)

	var req models.PaymentRequest
	require.NoError(t, db.First(&req, "user_id = ?", int64(1)).Error)
	require.Equal(t, models.PaymentStatusCanceled, req.Status)

	var referred models.User
	require.NoError(t, db.First(&referred, "user_id = ?", int64(2)).Error)
	require.False(t, referred.ReferrerID.Valid)
}

func TestMaskDestination(t *testing.T) {
	require.Equal(t, "**** **** **** 5678", MaskDestination("1234567812345678"))
	require.Equal(t, "**** **** **** 5678", MaskDestination("1234-5678-1234-5678"))
	require.Equal(t, "****", MaskDestination("123"))
	require.Equal(t, "****", MaskDestination(""))
}

func TestNormalizeCard(t *testing.T) {
	require.Equal(t, "1234567812345678", normalizeCard("1234 5678 1234 5678"))
	require.Equal(t, "123456789012", normalizeCard("1234-5678-9012"))
	require.Equal(t, "", normalizeCard("12345678901"))          // too short
	require.Equal(t, "", normalizeCard("12345678901234567890")) // too long
	require.Equal(t, "", normalizeCard("no digits here"))
}
