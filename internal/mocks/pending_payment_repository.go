package mocks

import (
	"context"
	"time"

	"github.com/faa999-tech/telebotshop/internal/model"
	"github.com/stretchr/testify/mock"
)

type PendingPaymentRepository struct {
	mock.Mock
}

func (m *PendingPaymentRepository) Create(ctx context.Context, payment *model.PendingPayment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *PendingPaymentRepository) GetByReference(ctx context.Context, reference string) (*model.PendingPayment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PendingPayment), args.Error(1)
}

func (m *PendingPaymentRepository) MarkPaid(ctx context.Context, reference string, paidAt time.Time) (bool, error) {
	args := m.Called(ctx, reference, paidAt)
	return args.Bool(0), args.Error(1)
}

func (m *PendingPaymentRepository) MarkTerminal(ctx context.Context, reference string, status model.PaymentStatus) (bool, error) {
	args := m.Called(ctx, reference, status)
	return args.Bool(0), args.Error(1)
}
