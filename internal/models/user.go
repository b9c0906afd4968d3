package models

import (
	"database/sql"
	"time"
)

// User maps to the `users` table.
// Primary key is the Telegram user ID.
type User struct {
	ID         int64         `gorm:"column:user_id;primaryKey" json:"user_id"`
	Username   string        `gorm:"column:username;size:300" json:"username"`
	Balance    float64       `gorm:"column:balance;default:0" json:"balance"`
	ReferrerID sql.NullInt64 `gorm:"column:referrer_id" json:"referrer_id"`
	JoinDate   time.Time     `gorm:"column:join_date;autoCreateTime" json:"join_date"`
	LastActive time.Time     `gorm:"column:last_active;autoUpdateTime" json:"last_active"`
}

func (User) TableName() string {
	return "users"
}
