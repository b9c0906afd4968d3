package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"refbot/internal/models"
)

// UserRepository handles all user database operations.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID finds a user by Telegram user ID.
func (r *UserRepository) FindByID(userID int64) (*models.User, error) {
	var user models.User
	if err := r.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists checks whether a user with the given ID exists.
func (r *UserRepository) Exists(userID int64) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("user_id = ?", userID).Count(&count).Error
	return count > 0, err
}

// Create inserts a new user. Duplicate IDs are ignored, matching
// ON CONFLICT DO NOTHING semantics. Returns true when a row was inserted.
func (r *UserRepository) Create(user *models.User) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(user)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AddBalance adds to a user's balance as a single atomic statement.
// Affects zero rows when the user does not exist; that is not an error.
func (r *UserRepository) AddBalance(userID int64, amount float64) error {
	return r.db.Model(&models.User{}).Where("user_id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount)).Error
}

// SetBalance sets a user's balance to an exact value.
func (r *UserRepository) SetBalance(userID int64, amount float64) error {
	return r.db.Model(&models.User{}).Where("user_id = ?", userID).
		Update("balance", amount).Error
}

// CountReferrals counts users referred by the given user.
func (r *UserRepository) CountReferrals(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("referrer_id = ?", userID).Count(&count).Error
	return count, err
}

// SumReferralBalances returns the sum of the current balances of all
// users referred by the given user.
func (r *UserRepository) SumReferralBalances(userID int64) (float64, error) {
	var sum float64
	err := r.db.Model(&models.User{}).Where("referrer_id = ?", userID).
		Select("COALESCE(SUM(balance), 0)").Scan(&sum).Error
	return sum, err
}

// FindReferrals returns all users referred by the given user.
func (r *UserRepository) FindReferrals(userID int64) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("referrer_id = ?", userID).Order("join_date ASC").Find(&users).Error
	return users, err
}

// DetachReferrals clears referrer_id for every user referred by the
// given user.
func (r *UserRepository) DetachReferrals(userID int64) error {
	return r.db.Model(&models.User{}).Where("referrer_id = ?", userID).
		Update("referrer_id", nil).Error
}

// IsNotFound reports whether err means the record was absent.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
