package tripay

import (
	"context"
	"time"
)

type Mode string

const (
	ModeSandbox    Mode = "sandbox"
	ModeProduction Mode = "production"
)

const (
	sandboxBaseURL    = "https://tripay.co.id/api-sandbox"
	productionBaseURL = "https://tripay.co.id/api"
)

func (m Mode) BaseURL() string {
	if m == ModeProduction {
		return productionBaseURL
	}
	return sandboxBaseURL
}

// Credentials are the merchant secrets used to sign requests. They are
// runtime-changeable, so the client fetches them per operation through a
// CredentialsProvider instead of holding them.
type Credentials struct {
	APIKey       string
	PrivateKey   string
	MerchantCode string
	Mode         Mode
}

func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.PrivateKey != "" && c.MerchantCode != ""
}

type CredentialsProvider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

type Config struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	ReturnURL string        `mapstructure:"return_url"`
}

// InvoiceTTL is how long a created invoice stays payable.
const InvoiceTTL = 24 * time.Hour
