package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/faa999-tech/telebotshop/internal/constants"
	"github.com/faa999-tech/telebotshop/internal/metrics"
	"github.com/faa999-tech/telebotshop/internal/model"
	"github.com/faa999-tech/telebotshop/internal/repository"
	"github.com/faa999-tech/telebotshop/pkg/tripay"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcilerService applies gateway webhook callbacks to pending payments.
// Deliveries are at-least-once and unordered, so every transition is a
// guarded write and redeliveries degrade to acknowledged no-ops.
type ReconcilerService interface {
	HandleCallback(ctx context.Context, cmd CallbackCommand) (*CallbackResult, error)
}

type Reconciler struct {
	payments repository.PendingPaymentRepository
	ledger   repository.LedgerRepository
	txLog    repository.TransactionRepository
	gateway  tripay.Client
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewReconcilerService(
	payments repository.PendingPaymentRepository,
	ledger repository.LedgerRepository,
	txLog repository.TransactionRepository,
	gateway tripay.Client,
	notifier Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) ReconcilerService {
	return &Reconciler{
		payments: payments,
		ledger:   ledger,
		txLog:    txLog,
		gateway:  gateway,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

type callbackPayload struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

func (r *Reconciler) HandleCallback(ctx context.Context, cmd CallbackCommand) (*CallbackResult, error) {
	if !r.gateway.VerifySignature(ctx, cmd.Signature, cmd.RawBody) {
		r.metrics.RecordCallback("signature_mismatch")
		r.logger.Warn("Webhook signature mismatch")
		return nil, NewServiceError(constants.ErrCodeSignatureMismatch, nil)
	}

	var payload callbackPayload
	if err := json.Unmarshal(cmd.RawBody, &payload); err != nil {
		r.metrics.RecordCallback("invalid")
		return nil, NewServiceError(constants.ErrCodeInvalidCallback, err)
	}
	if payload.Reference == "" || payload.Status == "" {
		r.metrics.RecordCallback("invalid")
		return nil, NewServiceError(constants.ErrCodeInvalidCallback, nil)
	}

	payment, err := r.payments.GetByReference(ctx, payload.Reference)
	if errors.Is(err, repository.ErrPaymentNotFound) {
		r.metrics.RecordCallback("unknown_reference")
		r.logger.Warn("Webhook for unknown reference",
			zap.String("reference", payload.Reference))
		return nil, NewServiceError(constants.ErrCodeUnknownReference, err)
	}
	if err != nil {
		return nil, NewServiceError(constants.ErrCodeDatabase, err)
	}

	if payment.Status.Terminal() {
		r.metrics.RecordCallback("redelivery")
		return &CallbackResult{Reference: payment.Reference, Status: payment.Status, Applied: false}, nil
	}

	switch model.PaymentStatus(payload.Status) {
	case model.PaymentStatusPaid:
		return r.applyPaid(ctx, payment)
	case model.PaymentStatusExpired, model.PaymentStatusFailed:
		return r.applyTerminal(ctx, payment, model.PaymentStatus(payload.Status))
	case model.PaymentStatusUnpaid:
		// Progress report, nothing to apply.
		r.metrics.RecordCallback("noop")
		return &CallbackResult{Reference: payment.Reference, Status: payment.Status, Applied: false}, nil
	default:
		r.metrics.RecordCallback("unknown_status")
		r.logger.Warn("Webhook with unrecognized status",
			zap.String("reference", payment.Reference),
			zap.String("status", payload.Status))
		return &CallbackResult{Reference: payment.Reference, Status: payment.Status, Applied: false}, nil
	}
}

// applyPaid performs the UNPAID -> PAID transition and credits the balance.
// The transition is the idempotency gate: whichever delivery wins it is the
// only one that credits.
func (r *Reconciler) applyPaid(ctx context.Context, payment *model.PendingPayment) (*CallbackResult, error) {
	now := time.Now()

	applied, err := r.payments.MarkPaid(ctx, payment.Reference, now)
	if err != nil {
		return nil, NewServiceError(constants.ErrCodeDatabase, err)
	}
	if !applied {
		r.metrics.RecordCallback("redelivery")
		return &CallbackResult{Reference: payment.Reference, Status: model.PaymentStatusPaid, Applied: false}, nil
	}

	if err := r.ledger.Credit(ctx, payment.UserID, payment.Amount); err != nil {
		// The payment row is already PAID and the guard means no retry will
		// credit it. Acknowledge the delivery so the gateway stops resending
		// and leave the repair to an operator.
		r.logger.Error("Payment marked paid but balance credit failed",
			zap.String("reference", payment.Reference),
			zap.String("user_id", payment.UserID),
			zap.Int64("amount", payment.Amount),
			zap.Error(err))
		r.metrics.ReconciliationInconsistencies.Inc()
		r.metrics.RecordCallback("credit_failed")
		return &CallbackResult{Reference: payment.Reference, Status: model.PaymentStatusPaid, Applied: true}, nil
	}

	reference := payment.Reference
	record := model.Transaction{
		UserID:      payment.UserID,
		Kind:        model.TxKindTopup,
		Amount:      payment.Amount,
		Status:      model.TxStatusCompleted,
		ReferenceID: &reference,
		Description: "Top Up via Tripay",
		CreatedAt:   now,
	}
	if err := r.txLog.Create(ctx, &record); err != nil {
		r.logger.Error("Topup credited but ledger record failed",
			zap.String("reference", payment.Reference),
			zap.Error(err))
		r.metrics.ReconciliationInconsistencies.Inc()
	}

	r.metrics.RecordCallback("paid")
	r.logger.Info("Topup settled",
		zap.String("reference", payment.Reference),
		zap.String("user_id", payment.UserID),
		zap.Int64("amount", payment.Amount))

	r.notify(ctx, payment, EventTopupCompleted, now)

	return &CallbackResult{Reference: payment.Reference, Status: model.PaymentStatusPaid, Applied: true}, nil
}

func (r *Reconciler) applyTerminal(ctx context.Context, payment *model.PendingPayment, status model.PaymentStatus) (*CallbackResult, error) {
	applied, err := r.payments.MarkTerminal(ctx, payment.Reference, status)
	if err != nil {
		return nil, NewServiceError(constants.ErrCodeDatabase, err)
	}
	if !applied {
		r.metrics.RecordCallback("redelivery")
		return &CallbackResult{Reference: payment.Reference, Status: status, Applied: false}, nil
	}

	r.metrics.RecordCallback(string(status))
	r.logger.Info("Topup closed without payment",
		zap.String("reference", payment.Reference),
		zap.String("status", string(status)))

	event := EventTopupFailed
	if status == model.PaymentStatusExpired {
		event = EventTopupExpired
	}
	r.notify(ctx, payment, event, time.Now())

	return &CallbackResult{Reference: payment.Reference, Status: status, Applied: true}, nil
}

// notify is fire and forget; a broker outage never fails a callback.
func (r *Reconciler) notify(ctx context.Context, payment *model.PendingPayment, kind string, at time.Time) {
	err := r.notifier.NotifyPayment(ctx, PaymentEvent{
		EventID:    uuid.NewString(),
		UserID:     payment.UserID,
		Kind:       kind,
		Reference:  payment.Reference,
		Amount:     payment.Amount,
		OccurredAt: at,
	})
	if err != nil {
		r.logger.Warn("Payment notification publish failed",
			zap.String("reference", payment.Reference),
			zap.Error(err))
	}
}
