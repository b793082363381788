package model

import "time"

type TxKind string

const (
	TxKindTopup     TxKind = "topup"
	TxKindPurchase  TxKind = "purchase"
	TxKindDeduction TxKind = "deduction"
)

type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusCompleted TxStatus = "completed"
)

// Transaction is an append-only ledger row. Rows are never mutated or deleted
// once written.
type Transaction struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	UserID      string    `gorm:"column:user_id;index;not null;<-:create"`
	Kind        TxKind    `gorm:"column:kind;type:varchar(16);not null;<-:create"`
	Amount      int64     `gorm:"column:amount;not null;<-:create"`
	Status      TxStatus  `gorm:"column:status;type:varchar(16);not null;<-:create"`
	ReferenceID *string   `gorm:"column:reference_id;<-:create"`
	Payload     *string   `gorm:"column:payload;type:text;<-:create"`
	Description string    `gorm:"column:description;<-:create"`
	CreatedAt   time.Time `gorm:"column:created_at;<-:create"`
}
