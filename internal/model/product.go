package model

import "time"

type Product struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id;<-:create"`
	Name        string    `gorm:"column:name;not null"`
	Description string    `gorm:"column:description"`
	Price       int64     `gorm:"column:price;not null"`
	IsActive    bool      `gorm:"column:is_active;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

// StockUnit is one consumable secret in a product's stock queue. The queue is
// the stock_units rows for a product ordered by id; its length is the
// authoritative stock count.
type StockUnit struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	ProductID int64     `gorm:"column:product_id;index;not null"`
	Secret    string    `gorm:"column:secret;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}
