package model

import "time"

// User holds the prepaid balance in minor currency units. Rows are created on
// first contact and never deleted; balance changes only through guarded
// ledger writes.
type User struct {
	UserID    string    `gorm:"primaryKey;column:user_id;type:varchar(64);<-:create"`
	Balance   int64     `gorm:"column:balance;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}
