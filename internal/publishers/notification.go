package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/faa999-tech/telebotshop/internal/service"
	"github.com/faa999-tech/telebotshop/pkg/mq"
	"go.uber.org/zap"
)

// PaymentNotifier publishes settled-payment events to a durable queue for
// the chat frontend to consume.
type PaymentNotifier struct {
	publisher mq.Publisher
	queue     string
	logger    *zap.Logger
}

func NewPaymentNotifier(publisher mq.Publisher, queue string, logger *zap.Logger) service.Notifier {
	return &PaymentNotifier{publisher: publisher, queue: queue, logger: logger}
}

func (p *PaymentNotifier) NotifyPayment(ctx context.Context, event service.PaymentEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event: %w", err)
	}

	if err := p.publisher.Publish(ctx, "", p.queue, body); err != nil {
		return fmt.Errorf("failed to publish payment event: %w", err)
	}

	p.logger.Debug("Payment event published",
		zap.String("event_id", event.EventID),
		zap.String("kind", event.Kind),
		zap.String("reference", event.Reference),
	)

	return nil
}
