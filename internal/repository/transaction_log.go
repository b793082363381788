package repository

import (
	"context"

	"github.com/faa999-tech/telebotshop/internal/model"
	"gorm.io/gorm"
)

// TransactionRepository is the append-only ledger log. Rows are created and
// read, never updated or deleted.
type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Transaction, error)
}

type TransactionLog struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &TransactionLog{db: db}
}

func (r *TransactionLog) Create(ctx context.Context, tx *model.Transaction) error {
	db := GetTx(ctx, r.db)
	return db.Create(tx).Error
}

func (r *TransactionLog) ListByUser(ctx context.Context, userID string, limit int) ([]model.Transaction, error) {
	var entries []model.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.TxStatusCompleted).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
