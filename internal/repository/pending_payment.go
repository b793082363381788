package repository

import (
	"context"
	"errors"
	"time"

	"github.com/faa999-tech/telebotshop/internal/model"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// PendingPaymentRepository tracks outstanding topup invoices keyed by the
// gateway reference. Status transitions are guarded single writes so that a
// terminal row can never be transitioned twice.
type PendingPaymentRepository interface {
	Create(ctx context.Context, payment *model.PendingPayment) error
	GetByReference(ctx context.Context, reference string) (*model.PendingPayment, error)
	// MarkPaid moves UNPAID -> PAID and sets paid_at. Returns whether this
	// call performed the transition; false means the row was already
	// terminal.
	MarkPaid(ctx context.Context, reference string, paidAt time.Time) (bool, error)
	// MarkTerminal moves UNPAID -> EXPIRED or UNPAID -> FAILED.
	MarkTerminal(ctx context.Context, reference string, status model.PaymentStatus) (bool, error)
}

type PendingPayment struct {
	db *gorm.DB
}

func NewPendingPaymentRepository(db *gorm.DB) PendingPaymentRepository {
	return &PendingPayment{db: db}
}

func (r *PendingPayment) Create(ctx context.Context, payment *model.PendingPayment) error {
	db := GetTx(ctx, r.db)
	err := db.Create(payment).Error
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrDuplicateReference
	}

	return err
}

func (r *PendingPayment) GetByReference(ctx context.Context, reference string) (*model.PendingPayment, error) {
	var payment model.PendingPayment
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PendingPayment) MarkPaid(ctx context.Context, reference string, paidAt time.Time) (bool, error) {
	db := GetTx(ctx, r.db)
	result := db.Model(&model.PendingPayment{}).
		Where("reference = ? AND status = ?", reference, model.PaymentStatusUnpaid).
		Updates(map[string]interface{}{
			"status":  model.PaymentStatusPaid,
			"paid_at": paidAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PendingPayment) MarkTerminal(ctx context.Context, reference string, status model.PaymentStatus) (bool, error) {
	if !status.Terminal() {
		return false, ErrNoRowsAffected
	}

	db := GetTx(ctx, r.db)
	result := db.Model(&model.PendingPayment{}).
		Where("reference = ? AND status = ?", reference, model.PaymentStatusUnpaid).
		Update("status", status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
