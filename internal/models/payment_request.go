package models

import "time"

// Payout request statuses. A request is created as pending and moves to
// exactly one terminal status via an admin action.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
	PaymentStatusCanceled = "canceled"
)

// PaymentRequest maps to the `payment_requests` table.
type PaymentRequest struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Reference   string    `gorm:"column:reference;size:64" json:"reference"`
	UserID      int64     `gorm:"column:user_id;index" json:"user_id"`
	Amount      float64   `gorm:"column:amount" json:"amount"`
	CardNumber  string    `gorm:"column:card_number;size:300" json:"card_number"`
	Status      string    `gorm:"column:status;size:20;default:pending" json:"status"`
	RequestDate time.Time `gorm:"column:request_date;autoCreateTime" json:"request_date"`
}

func (PaymentRequest) TableName() string {
	return "payment_requests"
}
