package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type SettingRepository struct {
	mock.Mock
}

func (m *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *SettingRepository) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}
