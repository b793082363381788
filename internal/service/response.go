package service

import (
	"time"

	"github.com/faa999-tech/telebotshop/internal/model"
)

type PurchaseResult struct {
	TransactionID int64
	ProductID     int64
	ProductName   string
	Quantity      int
	Total         int64
	Secrets       []string
}

type TopupResult struct {
	Reference   string
	CheckoutURL string
	Amount      int64
	Channel     string
	ExpiresAt   time.Time
}

type CallbackResult struct {
	Reference string
	Status    model.PaymentStatus
	// Applied is true when this delivery performed the status transition.
	// Redeliveries of a settled reference come back with Applied false.
	Applied bool
}

type BalanceResult struct {
	UserID  string
	Balance int64
}
