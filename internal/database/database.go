package database

import (
	"context"

	"github.com/faa999-tech/telebotshop/internal/config"
	"github.com/faa999-tech/telebotshop/internal/metrics"
	"github.com/faa999-tech/telebotshop/pkg/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewConnection(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*gorm.DB, error) {
	db, err := mysql.NewConnection(context.Background(), mysql.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := db.Use(&timingPlugin{metrics: m}); err != nil {
		return nil, err
	}

	if err := Migrate(db, logger); err != nil {
		return nil, err
	}

	return db, nil
}
