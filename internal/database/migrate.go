package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type schemaMigration struct {
	Version   int       `gorm:"primaryKey;column:version"`
	Name      string    `gorm:"column:name"`
	AppliedAt time.Time `gorm:"column:applied_at"`
}

func (schemaMigration) TableName() string { return "schema_migrations" }

type migration struct {
	version int
	name    string
	stmts   []string
}

// Migrations run in order at startup. Each is idempotent; applied versions
// are recorded in schema_migrations and skipped on the next boot.
var migrations = []migration{
	{
		version: 1,
		name:    "create_users_and_transactions",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS users (
				user_id VARCHAR(64) PRIMARY KEY,
				balance BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS transactions (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				user_id VARCHAR(64) NOT NULL,
				kind VARCHAR(16) NOT NULL,
				amount BIGINT NOT NULL,
				status VARCHAR(16) NOT NULL,
				reference_id VARCHAR(64) NULL,
				payload TEXT NULL,
				description VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				INDEX idx_transactions_user (user_id, created_at)
			)`,
		},
	},
	{
		version: 2,
		name:    "create_products_and_stock_units",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS products (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT,
				price BIGINT NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS stock_units (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				product_id BIGINT NOT NULL,
				secret TEXT NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				INDEX idx_stock_units_product (product_id, id)
			)`,
		},
	},
	{
		version: 3,
		name:    "create_pending_payments",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS pending_payments (
				reference VARCHAR(64) PRIMARY KEY,
				user_id VARCHAR(64) NOT NULL,
				amount BIGINT NOT NULL,
				status VARCHAR(16) NOT NULL DEFAULT 'UNPAID',
				checkout_url TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				paid_at TIMESTAMP NULL,
				INDEX idx_pending_payments_user (user_id)
			)`,
		},
	},
	{
		version: 4,
		name:    "create_settings_with_defaults",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS settings (
				` + "`key`" + ` VARCHAR(64) PRIMARY KEY,
				value TEXT,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
			)`,
			`INSERT IGNORE INTO settings (` + "`key`" + `, value) VALUES
				('active_channels', '["QRIS","BCAVA","DANABALANCE"]'),
				('default_channel', 'QRIS'),
				('tripay_mode', 'sandbox')`,
		},
	},
}

func Migrate(db *gorm.DB, logger *zap.Logger) error {
	if err := db.AutoMigrate(&schemaMigration{}); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var applied int64
		if err := db.Model(&schemaMigration{}).Where("version = ?", m.version).Count(&applied).Error; err != nil {
			return fmt.Errorf("check migration %d: %w", m.version, err)
		}

		if applied > 0 {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			for _, stmt := range m.stmts {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return tx.Create(&schemaMigration{Version: m.version, Name: m.name, AppliedAt: time.Now()}).Error
		})
		if err != nil {
			logger.Error("Migration failed",
				zap.Int("version", m.version),
				zap.String("name", m.name),
				zap.Error(err))
			return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
		}

		logger.Info("Migration applied",
			zap.Int("version", m.version),
			zap.String("name", m.name))
	}

	return nil
}
