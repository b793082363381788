package repository

import (
	"context"
	"errors"

	"github.com/faa999-tech/telebotshop/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting keys. Values live in the settings table so an admin can change
// them at runtime; readers fetch per operation and never cache.
const (
	SettingTripayAPIKey       = "tripay_api_key"
	SettingTripayPrivateKey   = "tripay_private_key"
	SettingTripayMerchantCode = "tripay_merchant_code"
	SettingTripayMode         = "tripay_mode"
	SettingMinTopupAmount     = "min_topup_amount"
	SettingActiveChannels     = "active_channels"
	SettingDefaultChannel     = "default_channel"
)

type SettingRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type Settings struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &Settings{db: db}
}

func (r *Settings) Get(ctx context.Context, key string) (string, error) {
	var setting model.Setting
	err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrSettingNotFound
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (r *Settings) Set(ctx context.Context, key, value string) error {
	setting := model.Setting{Key: key, Value: value}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&setting).Error
}
