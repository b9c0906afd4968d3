package repository

import (
	"gorm.io/gorm"

	"refbot/internal/models"
)

// StatsRepository handles the singleton stats row.
type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Get returns the stats row.
func (r *StatsRepository) Get() (*models.Stats, error) {
	var stats models.Stats
	if err := r.db.First(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// IncrementUsers bumps both the lifetime and the daily registration
// counters by one.
func (r *StatsRepository) IncrementUsers() error {
	return r.db.Model(&models.Stats{}).Where("1 = 1").Updates(map[string]interface{}{
		"total_users": gorm.Expr("total_users + 1"),
		"today_users": gorm.Expr("today_users + 1"),
	}).Error
}

// AddTotalPaid accumulates an approved payout amount.
func (r *StatsRepository) AddTotalPaid(amount float64) error {
	return r.db.Model(&models.Stats{}).Where("1 = 1").
		Update("total_paid", gorm.Expr("total_paid + ?", amount)).Error
}

// ResetTodayUsers zeroes the daily registration counter.
func (r *StatsRepository) ResetTodayUsers() error {
	return r.db.Model(&models.Stats{}).Where("1 = 1").
		Update("today_users", 0).Error
}
