package models

import "time"

// Stats maps to the `stats` table. A single row is kept for the whole
// bot; it is seeded at startup if absent.
type Stats struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TotalUsers  int64     `gorm:"column:total_users;default:0" json:"total_users"`
	TodayUsers  int64     `gorm:"column:today_users;default:0" json:"today_users"`
	TotalPaid   float64   `gorm:"column:total_paid;default:0" json:"total_paid"`
	LastUpdated time.Time `gorm:"column:last_updated;autoUpdateTime" json:"last_updated"`
}

func (Stats) TableName() string {
	return "stats"
}
