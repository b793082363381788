package model

import "time"

// Setting is a runtime-changeable configuration value. Gateway credentials
// and shop policy live here so an admin can change them without a restart;
// readers fetch per operation and never cache.
type Setting struct {
	Key       string    `gorm:"primaryKey;column:key;type:varchar(64)"`
	Value     string    `gorm:"column:value;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}
