package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/faa999-tech/telebotshop/internal/config"
	"github.com/faa999-tech/telebotshop/internal/constants"
	"github.com/faa999-tech/telebotshop/internal/metrics"
	"github.com/faa999-tech/telebotshop/internal/model"
	"github.com/faa999-tech/telebotshop/internal/repository"
	"github.com/faa999-tech/telebotshop/pkg/tripay"
	"go.uber.org/zap"
)

// SettlementService is the money-moving core: purchases paid from prepaid
// balance and topup invoices that refill it.
type SettlementService interface {
	Purchase(ctx context.Context, cmd PurchaseCommand) (*PurchaseResult, error)
	InitiateTopup(ctx context.Context, cmd TopupCommand) (*TopupResult, error)
	GetBalance(ctx context.Context, userID string) (*BalanceResult, error)
	GetHistory(ctx context.Context, userID string, limit int) ([]model.Transaction, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, productID int64) (*model.Product, int64, error)
	ListChannels(ctx context.Context) ([]tripay.Channel, error)
	GetChannelFee(ctx context.Context, amount int64, code string) (*tripay.FeeQuote, error)
	CreateProduct(ctx context.Context, cmd CreateProductCommand) (*model.Product, error)
	AddStock(ctx context.Context, cmd AddStockCommand) (int64, error)
}

type Settlement struct {
	inventory repository.InventoryRepository
	ledger    repository.LedgerRepository
	txLog     repository.TransactionRepository
	payments  repository.PendingPaymentRepository
	settings  repository.SettingRepository
	tx        repository.TxManager
	gateway   tripay.Client
	metrics   *metrics.Metrics
	cfg       *config.Config
	logger    *zap.Logger
}

func NewSettlementService(
	inventory repository.InventoryRepository,
	ledger repository.LedgerRepository,
	txLog repository.TransactionRepository,
	payments repository.PendingPaymentRepository,
	settings repository.SettingRepository,
	tx repository.TxManager,
	gateway tripay.Client,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) SettlementService {
	return &Settlement{
		inventory: inventory,
		ledger:    ledger,
		txLog:     txLog,
		payments:  payments,
		settings:  settings,
		tx:        tx,
		gateway:   gateway,
		metrics:   m,
		cfg:       cfg,
		logger:    logger,
	}
}

// Purchase reserves stock first, then charges the balance, then records the
// sale. A failed charge restores the reserved units; under no interleaving
// can two buyers receive the same unit or a unit be sold without payment.
func (s *Settlement) Purchase(ctx context.Context, cmd PurchaseCommand) (*PurchaseResult, error) {
	if cmd.Quantity < 1 {
		s.metrics.RecordPurchase("rejected")
		return nil, NewServiceError(constants.ErrCodeValidation, nil)
	}

	product, err := s.inventory.GetProduct(ctx, cmd.ProductID)
	if errors.Is(err, repository.ErrProductNotFound) {
		s.metrics.RecordPurchase("rejected")
		return nil, NewServiceError(constants.ErrCodeProductNotFound, err)
	}
	if err != nil {
		return nil, NewServiceError(constants.ErrCodeDatabase, err)
	}

	if !product.IsActive {
		s.metrics.RecordPurchase("rejected")
		return nil, NewServiceError(constants.ErrCodeProductInactive, nil)
	}
	if product.Price <= 0 {
		s.metrics.RecordPurchase("rejected")
		return nil, NewServiceError(constants.ErrCodeValidation, nil)
	}

	total := product.Price * int64(cmd.Quantity)

	units, err := s.inventory.ConsumeUnits(ctx, cmd.ProductID, cmd.Quantity)
	if errors.Is(err, repository.ErrOutOfStock) {
		s.metrics.RecordPurchase("out_of_stock")
		return nil, NewServiceError(constants.ErrCodeOutOfStock, err)
	}
	if err != nil {
		return nil, NewServiceError(constants.ErrCodeDatabase, err)
	}

	charged, err := s.ledger.DeductIfSufficient(ctx, cmd.UserID, total)
	if err != nil {
		s.restoreUnits(ctx, cmd, units)
		return nil, NewServiceError(constants.ErrCodeDatabase, err)
	}
	if !charged {
		s.restoreUnits(ctx, cmd, units)
		s.metrics.RecordPurchase("insufficient_balance")
		return nil, NewServiceError(constants.ErrCodeInsufficientBalance, nil)
	}

	secrets := make([]string, 0, len(units))
	for _, unit := range units {
		secrets = append(secrets, unit.Secret)
	}

	// Amounts are always positive; Kind carries the direction.
	payload := strings.Join(secrets, "\n")
	record := model.Transaction{
		UserID:      cmd.UserID,
		Kind:        model.TxKindPurchase,
		Amount:      total,
		Status:      model.TxStatusCompleted,
		Payload:     &payload,
		Description: product.Name + " x" + strconv.Itoa(cmd.Quantity),
		CreatedAt:   time.Now(),
	}

	if err := s.txLog.Create(ctx, &record); err != nil {
		// Stock and balance are already committed; the sale happened even
		// though the log row is missing. Surface it loudly instead of
		// unwinding a delivered secret.
		s.logger.Error("Purchase completed but ledger record failed",
			zap.String("user_id", cmd.UserID),
			zap.Int64("product_id", cmd.ProductID),
			zap.Int64("total", total),
			zap.Error(err))
		s.metrics.ReconciliationInconsistencies.Inc()
		s.metrics.RecordPurchase("record_failed")
		return nil, NewServiceError(constants.ErrCodeReconciliation, err)
	}

	s.metrics.RecordPurchase("success")
	s.logger.Info("Purchase settled",
		zap.String("user_id", cmd.UserID),
		zap.Int64("product_id", cmd.ProductID),
		zap.Int("quantity", cmd.Quantity),
		zap.Int64("total", total))

	return &PurchaseResult{
		TransactionID: record.ID,
		ProductID:     product.ID,
		ProductName:   product.Name,
		Quantity:      cmd.Quantity,
		Total:         total,
		Secrets:       secrets,
	}, nil
}

func (s *Settlement) restoreUnits(ctx context.Context, cmd PurchaseCommand, units []model.StockUnit) {
	if err := s.inventory.RestoreUnits(ctx, units); err != nil {
		s.logger.Error("Failed to restore reserved stock units",
			zap.String("user_id", cmd.UserID),
			zap.Int64("product_id", cmd.ProductID),
			zap.Int("count", len(units)),
			zap.Error(err))
		s.metrics.ReconciliationInconsistencies.Inc()
	}
}

// InitiateTopup creates a gateway invoice and tracks it as UNPAID. Nothing is
// persisted when the gateway call fails, and the balance is untouched until
// the webhook confirms payment.
func (s *Settlement) InitiateTopup(ctx context.Context, cmd TopupCommand) (*TopupResult, error) {
	minAmount := s.minTopupAmount(ctx)
	if cmd.Amount < minAmount {
		s.metrics.RecordTopup("rejected")
		return nil, NewServiceError(constants.ErrCodeValidation,
			errors.New("minimum topup amount is "+strconv.FormatInt(minAmount, 10)))
	}

	if err := s.ledger.EnsureUser(ctx, cmd.UserID); err != nil {
		return nil, NewServiceError(constants.ErrCodeDatabase, err)
	}

	method := cmd.Channel
	if method == "" {
		method = s.defaultChannel(ctx)
	}

	invoice, err := s.gateway.CreateInvoice(ctx, tripay.CreateInvoiceCommand{
		UserID: cmd.UserID,
		Amount: cmd.Amount,
		Method: method,
	})
	if errors.Is(err, tripay.ErrConfigIncomplete) {
		s.metrics.RecordTopup("not_configured")
		return nil, NewServiceError(constants.ErrCodeConfiguration, err)
	}
	if err != nil {
		s.metrics.RecordTopup("gateway_error")
		return nil, NewServiceError(constants.ErrCodeGatewayUnavailable, err)
	}

	payment := model.PendingPayment{
		Reference:   invoice.Reference,
		UserID:      cmd.UserID,
		Amount:      cmd.Amount,
		Status:      model.PaymentStatusUnpaid,
		CheckoutURL: invoice.CheckoutURL,
		CreatedAt:   time.Now(),
	}

	err = s.payments.Create(ctx, &payment)
	if errors.Is(err, repository.ErrDuplicateReference) {
		return nil, NewServiceError(constants.ErrCodeDuplicateReference, err)
	}
	if err != nil {
		// The invoice exists at the gateway but we have no row for it; a
		// callback for this reference will be rejected as unknown.
		s.logger.Error("Invoice created but pending payment insert failed",
			zap.String("reference", invoice.Reference),
			zap.String("user_id", cmd.UserID),
			zap.Error(err))
		return nil, NewServiceError(constants.ErrCodeDatabase, err)
	}

	s.metrics.RecordTopup("created")
	s.logger.Info("Topup invoice created",
		zap.String("reference", invoice.Reference),
		zap.String("user_id", cmd.UserID),
		zap.Int64("amount", cmd.Amount),
		zap.String("channel", method))

	return &TopupResult{
		Reference:   invoice.Reference,
		CheckoutURL: invoice.CheckoutURL,
		Amount:      cmd.Amount,
		Channel:     method,
		ExpiresAt:   time.Unix(invoice.ExpiredTime, 0),
	}, nil
}

func (s *Settlement) GetBalance(ctx context.Context, userID string) (*BalanceResult, error) {
	if err := s.ledger.EnsureUser(ctx, userID); err != nil {
		return nil, NewServiceError(constants.ErrCodeDatabase, err)
	}

	user, err := s.ledger.GetUser(ctx, userID)
	if err != nil {
		return nil, NewServiceError(constants.ErrCodeDatabase, err)
	}

	return &BalanceResult{UserID: user.UserID, Balance: user.Balance}, nil
}

func (s *Settlement) GetHistory(ctx context.Context, userID string, limit int) ([]model.Transaction, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}

	entries, err := s.txLog.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, NewServiceError(constants.ErrCodeDatabase, err)
	}
	return entries, nil
}

func (s *Settlement) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.inventory.ListProducts(ctx, true)
	if err != nil {
		return nil, NewServiceError(constants.ErrCodeDatabase, err)
	}
	return products, nil
}

// GetProduct returns the product plus its live stock count.
func (s *Settlement) GetProduct(ctx context.Context, productID int64) (*model.Product, int64, error) {
	product, err := s.inventory.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, 0, NewServiceError(constants.ErrCodeProductNotFound, err)
	}
	if err != nil {
		return nil, 0, NewServiceError(constants.ErrCodeDatabase, err)
	}

	stock, err := s.inventory.CountUnits(ctx, productID)
	if err != nil {
		return nil, 0, NewServiceError(constants.ErrCodeDatabase, err)
	}

	return product, stock, nil
}

// ListChannels returns the gateway's active channels filtered down to the
// admin-selected set in the active_channels setting.
func (s *Settlement) ListChannels(ctx context.Context) ([]tripay.Channel, error) {
	channels, err := s.gateway.ListChannels(ctx)
	if errors.Is(err, tripay.ErrConfigIncomplete) {
		return nil, NewServiceError(constants.ErrCodeConfiguration, err)
	}
	if err != nil {
		return nil, NewServiceError(constants.ErrCodeGatewayUnavailable, err)
	}

	allowed := s.activeChannelSet(ctx)

	filtered := make([]tripay.Channel, 0, len(channels))
	for _, channel := range channels {
		if !channel.Active {
			continue
		}
		if allowed != nil && !allowed[channel.Code] {
			continue
		}
		filtered = append(filtered, channel)
	}

	return filtered, nil
}

func (s *Settlement) GetChannelFee(ctx context.Context, amount int64, code string) (*tripay.FeeQuote, error) {
	quote, err := s.gateway.CalculateFee(ctx, amount, code)
	if errors.Is(err, tripay.ErrNotFound) {
		return nil, NewServiceError(constants.ErrCodeChannelUnavailable, err)
	}
	if errors.Is(err, tripay.ErrConfigIncomplete) {
		return nil, NewServiceError(constants.ErrCodeConfiguration, err)
	}
	if err != nil {
		return nil, NewServiceError(constants.ErrCodeGatewayUnavailable, err)
	}
	return quote, nil
}

// CreateProduct inserts the product and any seed stock in one transaction so
// a half-created product never goes on sale.
func (s *Settlement) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*model.Product, error) {
	if cmd.Name == "" || cmd.Price <= 0 {
		return nil, NewServiceError(constants.ErrCodeValidation, nil)
	}

	product := model.Product{
		Name:        cmd.Name,
		Description: cmd.Description,
		Price:       cmd.Price,
		IsActive:    cmd.IsActive,
		CreatedAt:   time.Now(),
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.inventory.CreateProduct(ctx, &product); err != nil {
			return err
		}
		return s.inventory.AddUnits(ctx, product.ID, cmd.Secrets)
	})
	if err != nil {
		return nil, NewServiceError(constants.ErrCodeDatabase, err)
	}

	return &product, nil
}

// AddStock appends secrets to the back of the product's queue and returns the
// new stock count.
func (s *Settlement) AddStock(ctx context.Context, cmd AddStockCommand) (int64, error) {
	if len(cmd.Secrets) == 0 {
		return 0, NewServiceError(constants.ErrCodeValidation, nil)
	}

	if _, err := s.inventory.GetProduct(ctx, cmd.ProductID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return 0, NewServiceError(constants.ErrCodeProductNotFound, err)
		}
		return 0, NewServiceError(constants.ErrCodeDatabase, err)
	}

	if err := s.inventory.AddUnits(ctx, cmd.ProductID, cmd.Secrets); err != nil {
		return 0, NewServiceError(constants.ErrCodeDatabase, err)
	}

	count, err := s.inventory.CountUnits(ctx, cmd.ProductID)
	if err != nil {
		return 0, NewServiceError(constants.ErrCodeDatabase, err)
	}

	return count, nil
}

func (s *Settlement) minTopupAmount(ctx context.Context) int64 {
	value, err := s.settings.Get(ctx, repository.SettingMinTopupAmount)
	if err == nil {
		if parsed, perr := strconv.ParseInt(value, 10, 64); perr == nil && parsed > 0 {
			return parsed
		}
	}
	return s.cfg.Topup.MinAmount
}

func (s *Settlement) defaultChannel(ctx context.Context) string {
	value, err := s.settings.Get(ctx, repository.SettingDefaultChannel)
	if err == nil && value != "" {
		return value
	}
	return "QRIS"
}

// activeChannelSet returns nil when the setting is unset or unparsable, which
// callers read as "no filtering".
func (s *Settlement) activeChannelSet(ctx context.Context) map[string]bool {
	value, err := s.settings.Get(ctx, repository.SettingActiveChannels)
	if err != nil {
		return nil
	}

	var codes []string
	if err := json.Unmarshal([]byte(value), &codes); err != nil {
		s.logger.Warn("Unparsable active_channels setting", zap.Error(err))
		return nil
	}

	set := make(map[string]bool, len(codes))
	for _, code := range codes {
		set[code] = true
	}
	return set
}
