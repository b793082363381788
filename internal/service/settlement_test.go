package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/faa999-tech/telebotshop/internal/config"
	"github.com/faa999-tech/telebotshop/internal/constants"
	"github.com/faa999-tech/telebotshop/internal/metrics"
	"github.com/faa999-tech/telebotshop/internal/mocks"
	"github.com/faa999-tech/telebotshop/internal/model"
	"github.com/faa999-tech/telebotshop/internal/repository"
	"github.com/faa999-tech/telebotshop/internal/repository/memory"
	"github.com/faa999-tech/telebotshop/internal/service"
	"github.com/faa999-tech/telebotshop/pkg/tripay"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func newTestMetrics() *metrics.Metrics {
	return metrics.NewMetricsWith(prometheus.NewRegistry())
}

func testConfig() *config.Config {
	return &config.Config{Topup: config.Topup{MinAmount: 10000}}
}

func assertServiceCode(t *testing.T, err error, code string) {
	t.Helper()
	var serviceErr service.Error
	assert.True(t, errors.As(err, &serviceErr), "expected service.Error, got %v", err)
	assert.Equal(t, code, serviceErr.Code)
}

type settlementMocks struct {
	inventory *mocks.InventoryRepository
	ledger    *mocks.LedgerRepository
	txLog     *mocks.TransactionRepository
	payments  *mocks.PendingPaymentRepository
	settings  *mocks.SettingRepository
	tx        *mocks.TxManager
	gateway   *mocks.Gateway
}

func newSettlement(t *testing.T) (service.SettlementService, *settlementMocks) {
	t.Helper()
	m := &settlementMocks{
		inventory: &mocks.InventoryRepository{},
		ledger:    &mocks.LedgerRepository{},
		txLog:     &mocks.TransactionRepository{},
		payments:  &mocks.PendingPaymentRepository{},
		settings:  &mocks.SettingRepository{},
		tx:        &mocks.TxManager{},
		gateway:   &mocks.Gateway{},
	}

	svc := service.NewSettlementService(m.inventory, m.ledger, m.txLog, m.payments,
		m.settings, m.tx, m.gateway, newTestMetrics(), testConfig(), zap.NewNop())

	return svc, m
}

func TestSettlement_Purchase(t *testing.T) {
	ctx := context.Background()

	product := &model.Product{ID: 7, Name: "VPN Account", Price: 5000, IsActive: true}
	units := []model.StockUnit{
		{ID: 1, ProductID: 7, Secret: "user1:pass1"},
		{ID: 2, ProductID: 7, Secret: "user2:pass2"},
	}
	cmd := service.PurchaseCommand{UserID: "42", ProductID: 7, Quantity: 2}

	t.Run("settles purchase and delivers secrets in queue order", func(t *testing.T) {
		svc, m := newSettlement(t)

		m.inventory.On("GetProduct", ctx, int64(7)).Return(product, nil)
		m.inventory.On("ConsumeUnits", ctx, int64(7), 2).Return(units, nil)
		m.ledger.On("DeductIfSufficient", ctx, "42", int64(10000)).Return(true, nil)
		m.txLog.On("Create", ctx, mock.MatchedBy(func(tx *model.Transaction) bool {
			return tx.UserID == "42" &&
				tx.Kind == model.TxKindPurchase &&
				tx.Amount == 10000 &&
				tx.Status == model.TxStatusCompleted &&
				tx.Payload != nil && *tx.Payload == "user1:pass1\nuser2:pass2"
		})).Return(nil)

		result, err := svc.Purchase(ctx, cmd)

		assert.NoError(t, err)
		assert.Equal(t, []string{"user1:pass1", "user2:pass2"}, result.Secrets)
		assert.Equal(t, int64(10000), result.Total)
		assert.Equal(t, "VPN Account", result.ProductName)
		m.inventory.AssertNotCalled(t, "RestoreUnits", mock.Anything, mock.Anything)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		svc, m := newSettlement(t)

		_, err := svc.Purchase(ctx, service.PurchaseCommand{UserID: "42", ProductID: 7, Quantity: 0})

		assertServiceCode(t, err, constants.ErrCodeValidation)
		m.inventory.AssertNotCalled(t, "ConsumeUnits", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown product", func(t *testing.T) {
		svc, m := newSettlement(t)

		m.inventory.On("GetProduct", ctx, int64(7)).Return(nil, repository.ErrProductNotFound)

		_, err := svc.Purchase(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeProductNotFound)
		m.inventory.AssertNotCalled(t, "ConsumeUnits", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects inactive product", func(t *testing.T) {
		svc, m := newSettlement(t)

		inactive := &model.Product{ID: 7, Name: "VPN Account", Price: 5000, IsActive: false}
		m.inventory.On("GetProduct", ctx, int64(7)).Return(inactive, nil)

		_, err := svc.Purchase(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeProductInactive)
	})

	t.Run("fails whole purchase when stock is short", func(t *testing.T) {
		svc, m := newSettlement(t)

		m.inventory.On("GetProduct", ctx, int64(7)).Return(product, nil)
		m.inventory.On("ConsumeUnits", ctx, int64(7), 2).Return(nil, repository.ErrOutOfStock)

		_, err := svc.Purchase(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeOutOfStock)
		m.ledger.AssertNotCalled(t, "DeductIfSufficient", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("restores reserved units when balance is insufficient", func(t *testing.T) {
		svc, m := newSettlement(t)

		m.inventory.On("GetProduct", ctx, int64(7)).Return(product, nil)
		m.inventory.On("ConsumeUnits", ctx, int64(7), 2).Return(units, nil)
		m.ledger.On("DeductIfSufficient", ctx, "42", int64(10000)).Return(false, nil)
		m.inventory.On("RestoreUnits", ctx, units).Return(nil)

		_, err := svc.Purchase(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeInsufficientBalance)
		m.inventory.AssertCalled(t, "RestoreUnits", ctx, units)
		m.txLog.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("reports inconsistency when record write fails after charge", func(t *testing.T) {
		svc, m := newSettlement(t)

		m.inventory.On("GetProduct", ctx, int64(7)).Return(product, nil)
		m.inventory.On("ConsumeUnits", ctx, int64(7), 2).Return(units, nil)
		m.ledger.On("DeductIfSufficient", ctx, "42", int64(10000)).Return(true, nil)
		m.txLog.On("Create", ctx, mock.Anything).Return(errors.New("connection reset"))

		_, err := svc.Purchase(ctx, cmd)

		assertServiceCode(t, err, constants.ErrCodeReconciliation)
		// The charge and consumption stand; the sale must not be unwound.
		m.inventory.AssertNotCalled(t, "RestoreUnits", mock.Anything, mock.Anything)
	})
}

func TestSettlement_InitiateTopup(t *testing.T) {
	ctx := context.Background()

	invoice := &tripay.Invoice{
		Reference:   "T123456",
		MerchantRef: "TU421700000000",
		Amount:      50000,
		CheckoutURL: "https://tripay.co.id/checkout/T123456",
		Status:      "UNPAID",
		ExpiredTime: time.Now().Add(24 * time.Hour).Unix(),
	}

	t.Run("creates invoice and tracks it as unpaid", func(t *testing.T) {
		svc, m := newSettlement(t)

		m.settings.On("Get", ctx, repository.SettingMinTopupAmount).Return("", repository.ErrSettingNotFound)
		m.ledger.On("EnsureUser", ctx, "42").Return(nil)
		m.gateway.On("CreateInvoice", ctx, tripay.CreateInvoiceCommand{
			UserID: "42", Amount: 50000, Method: "QRIS",
		}).Return(invoice, nil)
		m.payments.On("Create", ctx, mock.MatchedBy(func(p *model.PendingPayment) bool {
			return p.Reference == "T123456" &&
				p.UserID == "42" &&
				p.Amount == 50000 &&
				p.Status == model.PaymentStatusUnpaid &&
				p.CheckoutURL == invoice.CheckoutURL
		})).Return(nil)

		result, err := svc.InitiateTopup(ctx, service.TopupCommand{UserID: "42", Amount: 50000, Channel: "QRIS"})

		assert.NoError(t, err)
		assert.Equal(t, "T123456", result.Reference)
		assert.Equal(t, invoice.CheckoutURL, result.CheckoutURL)
		assert.Equal(t, "QRIS", result.Channel)
	})

	t.Run("uses default channel setting when none given", func(t *testing.T) {
		svc, m := newSettlement(t)

		m.settings.On("Get", ctx, repository.SettingMinTopupAmount).Return("", repository.ErrSettingNotFound)
		m.settings.On("Get", ctx, repository.SettingDefaultChannel).Return("BCAVA", nil)
		m.ledger.On("EnsureUser", ctx, "42").Return(nil)
		m.gateway.On("CreateInvoice", ctx, tripay.CreateInvoiceCommand{
			UserID: "42", Amount: 50000, Method: "BCAVA",
		}).Return(invoice, nil)
		m.payments.On("Create", ctx, mock.Anything).Return(nil)

		result, err := svc.InitiateTopup(ctx, service.TopupCommand{UserID: "42", Amount: 50000})

		assert.NoError(t, err)
		assert.Equal(t, "BCAVA", result.Channel)
	})

	t.Run("rejects amount below the configured minimum", func(t *testing.T) {
		svc, m := newSettlement(t)

		m.settings.On("Get", ctx, repository.SettingMinTopupAmount).Return("20000", nil)

		_, err := svc.InitiateTopup(ctx, service.TopupCommand{UserID: "42", Amount: 15000, Channel: "QRIS"})

		assertServiceCode(t, err, constants.ErrCodeValidation)
		m.gateway.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
	})

	t.Run("maps missing credentials to configuration error", func(t *testing.T) {
		svc, m := newSettlement(t)

		m.settings.On("Get", ctx, repository.SettingMinTopupAmount).Return("", repository.ErrSettingNotFound)
		m.ledger.On("EnsureUser", ctx, "42").Return(nil)
		m.gateway.On("CreateInvoice", ctx, mock.Anything).Return(nil, tripay.ErrConfigIncomplete)

		_, err := svc.InitiateTopup(ctx, service.TopupCommand{UserID: "42", Amount: 50000, Channel: "QRIS"})

		assertServiceCode(t, err, constants.ErrCodeConfiguration)
		m.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("persists nothing when the gateway call fails", func(t *testing.T) {
		svc, m := newSettlement(t)

		m.settings.On("Get", ctx, repository.SettingMinTopupAmount).Return("", repository.ErrSettingNotFound)
		m.ledger.On("EnsureUser", ctx, "42").Return(nil)
		m.gateway.On("CreateInvoice", ctx, mock.Anything).Return(nil, tripay.ErrUnavailable)

		_, err := svc.InitiateTopup(ctx, service.TopupCommand{UserID: "42", Amount: 50000, Channel: "QRIS"})

		assertServiceCode(t, err, constants.ErrCodeGatewayUnavailable)
		m.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("surfaces duplicate gateway references", func(t *testing.T) {
		svc, m := newSettlement(t)

		m.settings.On("Get", ctx, repository.SettingMinTopupAmount).Return("", repository.ErrSettingNotFound)
		m.ledger.On("EnsureUser", ctx, "42").Return(nil)
		m.gateway.On("CreateInvoice", ctx, mock.Anything).Return(invoice, nil)
		m.payments.On("Create", ctx, mock.Anything).Return(repository.ErrDuplicateReference)

		_, err := svc.InitiateTopup(ctx, service.TopupCommand{UserID: "42", Amount: 50000, Channel: "QRIS"})

		assertServiceCode(t, err, constants.ErrCodeDuplicateReference)
	})
}

func TestSettlement_ListChannels(t *testing.T) {
	ctx := context.Background()

	channels := []tripay.Channel{
		{Code: "QRIS", Name: "QRIS", Active: true},
		{Code: "BCAVA", Name: "BCA Virtual Account", Active: true},
		{Code: "OVO", Name: "OVO", Active: true},
		{Code: "ALFAMART", Name: "Alfamart", Active: false},
	}

	t.Run("filters to admin-selected active channels", func(t *testing.T) {
		svc, m := newSettlement(t)

		m.gateway.On("ListChannels", ctx).Return(channels, nil)
		m.settings.On("Get", ctx, repository.SettingActiveChannels).Return(`["QRIS","BCAVA"]`, nil)

		result, err := svc.ListChannels(ctx)

		assert.NoError(t, err)
		assert.Len(t, result, 2)
		assert.Equal(t, "QRIS", result[0].Code)
		assert.Equal(t, "BCAVA", result[1].Code)
	})

	t.Run("returns all active channels when setting is unset", func(t *testing.T) {
		svc, m := newSettlement(t)

		m.gateway.On("ListChannels", ctx).Return(channels, nil)
		m.settings.On("Get", ctx, repository.SettingActiveChannels).Return("", repository.ErrSettingNotFound)

		result, err := svc.ListChannels(ctx)

		assert.NoError(t, err)
		assert.Len(t, result, 3)
	})
}

func TestSettlement_PurchaseLogsPositiveAmount(t *testing.T) {
	ctx := context.Background()

	inventory := memory.NewInventory()
	ledger := memory.NewLedger()
	txLog := memory.NewTransactionLog()

	svc := service.NewSettlementService(inventory, ledger, txLog,
		memory.NewPendingPayments(), memory.NewSettings(), memory.NewTxManager(),
		&mocks.Gateway{}, newTestMetrics(), testConfig(), zap.NewNop())

	product := &model.Product{Name: "Account", Price: 1000, IsActive: true}
	assert.NoError(t, inventory.CreateProduct(ctx, product))
	assert.NoError(t, inventory.AddUnits(ctx, product.ID, []string{"s1"}))
	assert.NoError(t, ledger.EnsureUser(ctx, "42"))
	assert.NoError(t, ledger.Credit(ctx, "42", 5000))

	_, err := svc.Purchase(ctx, service.PurchaseCommand{UserID: "42", ProductID: product.ID, Quantity: 1})
	assert.NoError(t, err)

	entries, err := txLog.ListByUser(ctx, "42", 10)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, model.TxKindPurchase, entries[0].Kind)
	assert.Equal(t, int64(1000), entries[0].Amount)
	assert.Greater(t, entries[0].Amount, int64(0))
}

func TestSettlement_CreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the product and its seed stock together", func(t *testing.T) {
		svc, m := newSettlement(t)

		m.tx.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
		m.inventory.On("CreateProduct", ctx, mock.MatchedBy(func(p *model.Product) bool {
			return p.Name == "VPN Account" && p.Price == 5000 && p.IsActive
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*model.Product).ID = 7
		}).Return(nil)
		m.inventory.On("AddUnits", ctx, int64(7), []string{"s1", "s2"}).Return(nil)

		product, err := svc.CreateProduct(ctx, service.CreateProductCommand{
			Name: "VPN Account", Price: 5000, IsActive: true, Secrets: []string{"s1", "s2"},
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(7), product.ID)
		m.inventory.AssertCalled(t, "AddUnits", ctx, int64(7), []string{"s1", "s2"})
	})

	t.Run("rejects an empty name or non-positive price", func(t *testing.T) {
		svc, m := newSettlement(t)

		_, err := svc.CreateProduct(ctx, service.CreateProductCommand{Name: "", Price: 5000})
		assertServiceCode(t, err, constants.ErrCodeValidation)

		_, err = svc.CreateProduct(ctx, service.CreateProductCommand{Name: "VPN", Price: 0})
		assertServiceCode(t, err, constants.ErrCodeValidation)

		m.tx.AssertNotCalled(t, "WithTx", mock.Anything, mock.Anything)
	})
}

// The concurrency scenarios run against the in-memory repositories so real
// interleavings, not mock scripts, exercise the guarantees.
func TestSettlement_ConcurrentPurchases(t *testing.T) {
	ctx := context.Background()

	newLiveSettlement := func(t *testing.T) (service.SettlementService, *memory.Inventory, *memory.Ledger, *memory.TransactionLog) {
		t.Helper()
		inventory := memory.NewInventory()
		ledger := memory.NewLedger()
		txLog := memory.NewTransactionLog()

		svc := service.NewSettlementService(inventory, ledger, txLog,
			memory.NewPendingPayments(), memory.NewSettings(), memory.NewTxManager(),
			&mocks.Gateway{}, newTestMetrics(), testConfig(), zap.NewNop())

		return svc, inventory, ledger, txLog
	}

	t.Run("oversells nothing when buyers outnumber stock", func(t *testing.T) {
		svc, inventory, ledger, _ := newLiveSettlement(t)

		product := &model.Product{Name: "Account", Price: 100, IsActive: true}
		assert.NoError(t, inventory.CreateProduct(ctx, product))
		assert.NoError(t, inventory.AddUnits(ctx, product.ID, []string{"s1", "s2", "s3"}))

		for i := 0; i < 5; i++ {
			userID := fmt.Sprintf("user-%d", i)
			assert.NoError(t, ledger.EnsureUser(ctx, userID))
			assert.NoError(t, ledger.Credit(ctx, userID, 1000))
		}

		var wg sync.WaitGroup
		results := make([]*service.PurchaseResult, 5)
		errs := make([]error, 5)

		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = svc.Purchase(ctx, service.PurchaseCommand{
					UserID:    fmt.Sprintf("user-%d", i),
					ProductID: product.ID,
					Quantity:  1,
				})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		delivered := make(map[string]bool)
		for i := 0; i < 5; i++ {
			if errs[i] == nil {
				succeeded++
				for _, secret := range results[i].Secrets {
					assert.False(t, delivered[secret], "secret %q delivered twice", secret)
					delivered[secret] = true
				}
			} else {
				assertServiceCode(t, errs[i], constants.ErrCodeOutOfStock)
			}
		}

		assert.Equal(t, 3, succeeded)
		assert.Len(t, delivered, 3)

		remaining, err := inventory.CountUnits(ctx, product.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), remaining)
	})

	t.Run("never drives a balance negative under contention", func(t *testing.T) {
		svc, inventory, ledger, _ := newLiveSettlement(t)

		product := &model.Product{Name: "Account", Price: 100, IsActive: true}
		assert.NoError(t, inventory.CreateProduct(ctx, product))
		assert.NoError(t, inventory.AddUnits(ctx, product.ID, []string{"s1", "s2", "s3", "s4", "s5"}))

		assert.NoError(t, ledger.EnsureUser(ctx, "42"))
		assert.NoError(t, ledger.Credit(ctx, "42", 250))

		var wg sync.WaitGroup
		errs := make([]error, 5)
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.Purchase(ctx, service.PurchaseCommand{
					UserID: "42", ProductID: product.ID, Quantity: 1,
				})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				assertServiceCode(t, err, constants.ErrCodeInsufficientBalance)
			}
		}
		assert.Equal(t, 2, succeeded)

		user, err := ledger.GetUser(ctx, "42")
		assert.NoError(t, err)
		assert.Equal(t, int64(50), user.Balance)
		assert.GreaterOrEqual(t, user.Balance, int64(0))

		// Failed attempts returned their reserved units.
		remaining, err := inventory.CountUnits(ctx, product.ID)
		assert.NoError(t, err)
		assert.Equal(t, int64(3), remaining)
	})
}
