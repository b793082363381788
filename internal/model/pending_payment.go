package model

import "time"

type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusExpired PaymentStatus = "EXPIRED"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Terminal reports whether a status can never change again.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusExpired || s == PaymentStatusFailed
}

// PendingPayment tracks one outstanding topup invoice. Status moves exactly
// once along UNPAID -> {PAID | EXPIRED | FAILED} and never regresses.
type PendingPayment struct {
	Reference   string        `gorm:"primaryKey;column:reference;type:varchar(64);<-:create"`
	UserID      string        `gorm:"column:user_id;index;not null;<-:create"`
	Amount      int64         `gorm:"column:amount;not null;<-:create"`
	Status      PaymentStatus `gorm:"column:status;type:varchar(16);not null;default:UNPAID"`
	CheckoutURL string        `gorm:"column:checkout_url;type:text;<-:create"`
	CreatedAt   time.Time     `gorm:"column:created_at;<-:create"`
	PaidAt      *time.Time    `gorm:"column:paid_at"`
}
