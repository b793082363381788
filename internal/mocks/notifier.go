package mocks

import (
	"context"

	"github.com/faa999-tech/telebotshop/internal/service"
	"github.com/stretchr/testify/mock"
)

type Notifier struct {
	mock.Mock
}

func (n *Notifier) NotifyPayment(ctx context.Context, event service.PaymentEvent) error {
	args := n.Called(ctx, event)
	return args.Error(0)
}
