package repository

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"refbot/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Stats{}, &models.PaymentRequest{}, &models.Channel{},
	))
	require.NoError(t, db.Create(&models.Stats{}).Error)
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id int64, balance float64, referrerID int64) {
	t.Helper()
	user := models.User{ID: id, Username: fmt.Sprintf("user%d", id), Balance: balance}
	if referrerID != 0 {
		user.ReferrerID = sql.NullInt64{Int64: referrerID, Valid: true}
	}
	require.NoError(t, db.Create(&user).Error)
}

func TestUserRepository_CreateIgnoresDuplicates(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	created, err := repo.Create(&models.User{ID: 1, Username: "alice"})
	require.NoError(t, err)
	require.True(t, created)

	created, err = repo.Create(&models.User{ID: 1, Username: "other"})
	require.NoError(t, err)
	require.False(t, created)

	user, err := repo.FindByID(1)
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
}

func TestUserRepository_Exists(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	seedUser(t, db, 1, 0, 0)

	exists, err := repo.Exists(1)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = repo.Exists(999)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestUserRepository_AddBalanceMissingUserIsNoop(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	seedUser(t, db, 1, 1.0, 0)

	require.NoError(t, repo.AddBalance(999, 0.5))

	user, err := repo.FindByID(1)
	require.NoError(t, err)
	require.Equal(t, 1.0, user.Balance)
}

func TestUserRepository_ReferralQueries(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	seedUser(t, db, 1, 0, 0)
	seedUser(t, db, 2, 0.5, 1)
	seedUser(t, db, 3, 1.5, 1)
	seedUser(t, db, 4, 9.0, 2)

	count, err := repo.CountReferrals(1)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	sum, err := repo.SumReferralBalances(1)
	require.NoError(t, err)
	require.Equal(t, 2.0, sum)

	refs, err := repo.FindReferrals(1)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	require.NoError(t, repo.DetachReferrals(1))
	count, err = repo.CountReferrals(1)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)

	// Other referral links are untouched.
	count, err = repo.CountReferrals(2)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestStatsRepository_Counters(t *testing.T) {
	db := newTestDB(t)
	repo := NewStatsRepository(db)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.IncrementUsers())
	}
	require.NoError(t, repo.AddTotalPaid(1.5))

	stats, err := repo.Get()
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.TotalUsers)
	require.EqualValues(t, 3, stats.TodayUsers)
	require.Equal(t, 1.5, stats.TotalPaid)

	require.NoError(t, repo.ResetTodayUsers())
	stats, err = repo.Get()
	require.NoError(t, err)
	require.EqualValues(t, 0, stats.TodayUsers)
	require.EqualValues(t, 3, stats.TotalUsers)
}

func TestPaymentRepository_FindLatestPending(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	seedUser(t, db, 1, 2.0, 0)

	older := models.PaymentRequest{
		UserID: 1, Amount: 1.0, Status: models.PaymentStatusPending,
		RequestDate: time.Now().Add(-time.Hour),
	}
	newer := models.PaymentRequest{
		UserID: 1, Amount: 2.0, Status: models.PaymentStatusPending,
		RequestDate: time.Now(),
	}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Create(&newer).Error)

	req, err := repo.FindLatestPending(1)
	require.NoError(t, err)
	require.Equal(t, newer.ID, req.ID)
}

func TestPaymentRepository_ApproveLatestPending(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	seedUser(t, db, 1, 2.0, 0)
	require.NoError(t, db.Create(&models.PaymentRequest{
		UserID: 1, Amount: 2.0, Status: models.PaymentStatusPending,
	}).Error)

	req, err := repo.ApproveLatestPending(1)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusApproved, req.Status)

	var user models.User
	require.NoError(t, db.First(&user, "user_id = ?", int64(1)).Error)
	require.Equal(t, 0.0, user.Balance)

	var stats models.Stats
	require.NoError(t, db.First(&stats).Error)
	require.Equal(t, 2.0, stats.TotalPaid)

	// No pending request is left for a second approval.
	_, err = repo.ApproveLatestPending(1)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPaymentRepository_RejectKeepsBalance(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	seedUser(t, db, 1, 2.0, 0)
	require.NoError(t, db.Create(&models.PaymentRequest{
		UserID: 1, Amount: 2.0, Status: models.PaymentStatusPending,
	}).Error)

	req, err := repo.RejectLatestPending(1)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusRejected, req.Status)

	var user models.User
	require.NoError(t, db.First(&user, "user_id = ?", int64(1)).Error)
	require.Equal(t, 2.0, user.Balance)
}

func TestPaymentRepository_ClearUserHistory(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	seedUser(t, db, 1, 3.0, 0)
	seedUser(t, db, 2, 1.0, 1)
	seedUser(t, db, 3, 1.0, 2)
	require.NoError(t, db.Create(&models.PaymentRequest{
		UserID: 1, Amount: 3.0, Status: models.PaymentStatusPending,
	}).Error)
	require.NoError(t, db.Create(&models.PaymentRequest{
		UserID: 1, Amount: 1.0, Status: models.PaymentStatusApproved,
	}).Error)

	require.NoError(t, repo.ClearUserHistory(1))

	var user models.User
	require.NoError(t, db.First(&user, "user_id = ?", int64(1)).Error)
	require.Equal(t, 0.0, user.Balance)

	// Pending requests become canceled, terminal ones stay untouched.
	var canceled, approved int64
	require.NoError(t, db.Model(&models.PaymentRequest{}).
		Where("user_id = ? AND status = ?", int64(1), models.PaymentStatusCanceled).
		Count(&canceled).Error)
	require.NoError(t, db.Model(&models.PaymentRequest{}).
		Where("user_id = ? AND status = ?", int64(1), models.PaymentStatusApproved).
		Count(&approved).Error)
	require.EqualValues(t, 1, canceled)
	require.EqualValues(t, 1, approved)

	// Downstream referrals of user 1 are detached; unrelated links stay.
	var detached models.User
	require.NoError(t, db.First(&detached, "user_id = ?", int64(2)).Error)
	require.False(t, detached.ReferrerID.Valid)

	var untouched models.User
	require.NoError(t, db.First(&untouched, "user_id = ?", int64(3)).Error)
	require.True(t, untouched.ReferrerID.Valid)
}

func TestPaymentRepository_HasPending(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaymentRepository(db)
	seedUser(t, db, 1, 2.0, 0)

	pending, err := repo.HasPending(1)
	require.NoError(t, err)
	require.False(t, pending)

	require.NoError(t, repo.Create(&models.PaymentRequest{
		UserID: 1, Amount: 2.0, Status: models.PaymentStatusPending,
	}))

	pending, err = repo.HasPending(1)
	require.NoError(t, err)
	require.True(t, pending)
}
