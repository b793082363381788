package service

import (
	"context"
	"time"
)

const (
	EventTopupCompleted = "topup_completed"
	EventTopupExpired   = "topup_expired"
	EventTopupFailed    = "topup_failed"
)

// PaymentEvent announces a settled payment so downstream consumers (the chat
// frontend, mostly) can tell the user. Delivery is best effort.
type PaymentEvent struct {
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	Kind       string    `json:"kind"`
	Reference  string    `json:"reference"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Notifier interface {
	NotifyPayment(ctx context.Context, event PaymentEvent) error
}

type nopNotifier struct{}

// NewNopNotifier is used when the message broker is disabled.
func NewNopNotifier() Notifier {
	return nopNotifier{}
}

func (nopNotifier) NotifyPayment(ctx context.Context, event PaymentEvent) error {
	return nil
}
