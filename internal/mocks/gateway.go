package mocks

import (
	"context"

	"github.com/faa999-tech/telebotshop/pkg/tripay"
	"github.com/stretchr/testify/mock"
)

type Gateway struct {
	mock.Mock
}

func (g *Gateway) CreateInvoice(ctx context.Context, cmd tripay.CreateInvoiceCommand) (*tripay.Invoice, error) {
	args := g.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tripay.Invoice), args.Error(1)
}

func (g *Gateway) ListChannels(ctx context.Context) ([]tripay.Channel, error) {
	args := g.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tripay.Channel), args.Error(1)
}

func (g *Gateway) GetChannelInfo(ctx context.Context, code string) (*tripay.Channel, error) {
	args := g.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tripay.Channel), args.Error(1)
}

func (g *Gateway) CalculateFee(ctx context.Context, amount int64, code string) (*tripay.FeeQuote, error) {
	args := g.Called(ctx, amount, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tripay.FeeQuote), args.Error(1)
}

func (g *Gateway) GetTransactionDetail(ctx context.Context, reference string) (*tripay.TransactionDetail, error) {
	args := g.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tripay.TransactionDetail), args.Error(1)
}

func (g *Gateway) VerifySignature(ctx context.Context, signature string, rawBody []byte) bool {
	args := g.Called(ctx, signature, rawBody)
	return args.Bool(0)
}
