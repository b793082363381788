package mocks

import (
	"context"

	"github.com/faa999-tech/telebotshop/internal/model"
	"github.com/stretchr/testify/mock"
)

type InventoryRepository struct {
	mock.Mock
}

func (m *InventoryRepository) CreateProduct(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *InventoryRepository) GetProduct(ctx context.Context, productID int64) (*model.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *InventoryRepository) ListProducts(ctx context.Context, activeOnly bool) ([]model.Product, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *InventoryRepository) AddUnits(ctx context.Context, productID int64, secrets []string) error {
	args := m.Called(ctx, productID, secrets)
	return args.Error(0)
}

func (m *InventoryRepository) ConsumeUnits(ctx context.Context, productID int64, qty int) ([]model.StockUnit, error) {
	args := m.Called(ctx, productID, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StockUnit), args.Error(1)
}

func (m *InventoryRepository) RestoreUnits(ctx context.Context, units []model.StockUnit) error {
	args := m.Called(ctx, units)
	return args.Error(0)
}

func (m *InventoryRepository) CountUnits(ctx context.Context, productID int64) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}
