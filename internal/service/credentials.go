package service

import (
	"context"
	"errors"

	"github.com/faa999-tech/telebotshop/internal/repository"
	"github.com/faa999-tech/telebotshop/pkg/tripay"
)

// settingsCredentials reads the merchant secrets from the settings table on
// every call, so an admin can rotate keys without a restart.
type settingsCredentials struct {
	settings repository.SettingRepository
}

func NewGatewayCredentials(settings repository.SettingRepository) tripay.CredentialsProvider {
	return &settingsCredentials{settings: settings}
}

func (p *settingsCredentials) Credentials(ctx context.Context) (tripay.Credentials, error) {
	apiKey, err := p.get(ctx, repository.SettingTripayAPIKey)
	if err != nil {
		return tripay.Credentials{}, err
	}

	privateKey, err := p.get(ctx, repository.SettingTripayPrivateKey)
	if err != nil {
		return tripay.Credentials{}, err
	}

	merchantCode, err := p.get(ctx, repository.SettingTripayMerchantCode)
	if err != nil {
		return tripay.Credentials{}, err
	}

	mode, err := p.get(ctx, repository.SettingTripayMode)
	if err != nil {
		return tripay.Credentials{}, err
	}
	if mode == "" {
		mode = string(tripay.ModeSandbox)
	}

	return tripay.Credentials{
		APIKey:       apiKey,
		PrivateKey:   privateKey,
		MerchantCode: merchantCode,
		Mode:         tripay.Mode(mode),
	}, nil
}

// get treats a missing key as empty; Credentials.Complete catches the gap.
func (p *settingsCredentials) get(ctx context.Context, key string) (string, error) {
	value, err := p.settings.Get(ctx, key)
	if errors.Is(err, repository.ErrSettingNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}
