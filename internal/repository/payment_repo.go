package repository

import (
	"gorm.io/gorm"

	"refbot/internal/models"
)

// PaymentRepository handles payout request database operations.
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payout request.
func (r *PaymentRepository) Create(req *models.PaymentRequest) error {
	return r.db.Create(req).Error
}

// FindLatestPending returns the most recent pending request for a user.
func (r *PaymentRepository) FindLatestPending(userID int64) (*models.PaymentRequest, error) {
	var req models.PaymentRequest
	err := r.db.Where("user_id = ? AND status = ?", userID, models.PaymentStatusPending).
		Order("request_date DESC").First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// HasPending reports whether the user has any pending request.
func (r *PaymentRepository) HasPending(userID int64) (bool, error) {
	var count int64
	err := r.db.Model(&models.PaymentRequest{}).
		Where("user_id = ? AND status = ?", userID, models.PaymentStatusPending).
		Count(&count).Error
	return count > 0, err
}

// ApproveLatestPending settles the most recent pending request of a
// user inside one transaction: the request becomes approved, the user's
// balance is zeroed and total_paid grows by the request amount. Returns
// gorm.ErrRecordNotFound when the user has no pending request.
func (r *PaymentRepository) ApproveLatestPending(userID int64) (*models.PaymentRequest, error) {
	var req models.PaymentRequest
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND status = ?", userID, models.PaymentStatusPending).
			Order("request_date DESC").First(&req).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.PaymentRequest{}).Where("id = ?", req.ID).
			Update("status", models.PaymentStatusApproved).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("user_id = ?", userID).
			Update("balance", 0).Error; err != nil {
			return err
		}
		return tx.Model(&models.Stats{}).Where("1 = 1").
			Update("total_paid", gorm.Expr("total_paid + ?", req.Amount)).Error
	})
	if err != nil {
		return nil, err
	}
	req.Status = models.PaymentStatusApproved
	return &req, nil
}

// RejectLatestPending marks the most recent pending request of a user
// as rejected. The balance is left untouched. Returns
// gorm.ErrRecordNotFound when the user has no pending request.
func (r *PaymentRepository) RejectLatestPending(userID int64) (*models.PaymentRequest, error) {
	var req models.PaymentRequest
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND status = ?", userID, models.PaymentStatusPending).
			Order("request_date DESC").First(&req).Error; err != nil {
			return err
		}
		return tx.Model(&models.PaymentRequest{}).Where("id = ?", req.ID).
			Update("status", models.PaymentStatusRejected).Error
	})
	if err != nil {
		return nil, err
	}
	req.Status = models.PaymentStatusRejected
	return &req, nil
}

// ClearUserHistory wipes a user's payout state inside one transaction:
// pending requests become canceled, the balance drops to zero and every
// downstream referral is detached from the user.
func (r *PaymentRepository) ClearUserHistory(userID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PaymentRequest{}).
			Where("user_id = ? AND status = ?", userID, models.PaymentStatusPending).
			Update("status", models.PaymentStatusCanceled).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("user_id = ?", userID).
			Update("balance", 0).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("referrer_id = ?", userID).
			Update("referrer_id", nil).Error
	})
}

// FindByUserID returns all requests of a user, newest first.
func (r *PaymentRepository) FindByUserID(userID int64) ([]models.PaymentRequest, error) {
	var reqs []models.PaymentRequest
	err := r.db.Where("user_id = ?", userID).Order("request_date DESC").Find(&reqs).Error
	return reqs, err
}
