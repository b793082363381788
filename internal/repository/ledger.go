package repository

import (
	"context"
	"errors"
	"time"

	"github.com/faa999-tech/telebotshop/internal/model"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// LedgerRepository owns per-user balances. All mutations are single guarded
// writes; the application never does a read-then-write on balance.
type LedgerRepository interface {
	EnsureUser(ctx context.Context, userID string) error
	GetUser(ctx context.Context, userID string) (*model.User, error)
	// DeductIfSufficient decrements balance by amount only if the current
	// balance covers it, as one atomic check-and-set. Returns whether the
	// deduction happened.
	DeductIfSufficient(ctx context.Context, userID string, amount int64) (bool, error)
	// Credit unconditionally increments balance, creating the user row on
	// first contact.
	Credit(ctx context.Context, userID string, amount int64) error
}

type Ledger struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &Ledger{db: db}
}

func (r *Ledger) EnsureUser(ctx context.Context, userID string) error {
	db := GetTx(ctx, r.db)
	user := model.User{UserID: userID, Balance: 0, CreatedAt: time.Now(), UpdatedAt: time.Now()}

	err := db.Create(&user).Error
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return nil
	}

	return err
}

func (r *Ledger) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Ledger) DeductIfSufficient(ctx context.Context, userID string, amount int64) (bool, error) {
	db := GetTx(ctx, r.db)
	result := db.Model(&model.User{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *Ledger) Credit(ctx context.Context, userID string, amount int64) error {
	db := GetTx(ctx, r.db)
	result := db.Model(&model.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		user := model.User{UserID: userID, Balance: amount, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		return db.Create(&user).Error
	}

	return nil
}
