package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/faa999-tech/telebotshop/internal/api"
	"github.com/faa999-tech/telebotshop/internal/api/middleware"
	v1 "github.com/faa999-tech/telebotshop/internal/api/v1"
	"github.com/faa999-tech/telebotshop/internal/config"
	"github.com/faa999-tech/telebotshop/internal/metrics"
	"github.com/faa999-tech/telebotshop/internal/mocks"
	"github.com/faa999-tech/telebotshop/internal/model"
	"github.com/faa999-tech/telebotshop/internal/repository/memory"
	"github.com/faa999-tech/telebotshop/internal/service"
	"github.com/faa999-tech/telebotshop/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type testEnv struct {
	app       *fiber.App
	gateway   *mocks.Gateway
	inventory *memory.Inventory
	ledger    *memory.Ledger
	payments  *memory.PendingPayments
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	inventory := memory.NewInventory()
	ledger := memory.NewLedger()
	txLog := memory.NewTransactionLog()
	payments := memory.NewPendingPayments()
	settings := memory.NewSettings()
	gateway := &mocks.Gateway{}
	m := metrics.NewMetricsWith(prometheus.NewRegistry())
	logger := zap.NewNop()
	cfg := &config.Config{Topup: config.Topup{MinAmount: 10000}}

	settlement := service.NewSettlementService(inventory, ledger, txLog, payments,
		settings, memory.NewTxManager(), gateway, m, cfg, logger)
	reconciler := service.NewReconcilerService(payments, ledger, txLog, gateway,
		service.NewNopNotifier(), m, logger)

	handler := v1.NewHandler(logger, settlement, reconciler, session.NewStore(time.Minute), gateway)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	api.SetupRoutes(app, handler)

	return &testEnv{app: app, gateway: gateway, inventory: inventory, ledger: ledger, payments: payments}
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) (int, map[string]any) {
	t.Helper()

	body, err := json.Marshal(payload)
	assert.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	if len(raw) > 0 {
		assert.NoError(t, json.Unmarshal(raw, &decoded))
	}

	return resp.StatusCode, decoded
}

func TestHandler_TripayCallback(t *testing.T) {
	t.Run("settles a paid invoice and credits the balance", func(t *testing.T) {
		env := newTestEnv(t)

		assert.NoError(t, env.payments.Create(context.Background(), &model.PendingPayment{
			Reference: "T123", UserID: "42", Amount: 50000, Status: model.PaymentStatusUnpaid,
		}))

		body := []byte(`{"reference":"T123","status":"PAID"}`)
		env.gateway.On("VerifySignature", mock.Anything, "good-sig", body).Return(true)

		req := httptest.NewRequest("POST", "/webhook/tripay", bytes.NewReader(body))
		req.Header.Set("X-Callback-Signature", "good-sig")

		resp, err := env.app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		user, err := env.ledger.GetUser(context.Background(), "42")
		assert.NoError(t, err)
		assert.Equal(t, int64(50000), user.Balance)
	})

	t.Run("rejects a forged signature with 400", func(t *testing.T) {
		env := newTestEnv(t)

		body := []byte(`{"reference":"T123","status":"PAID"}`)
		env.gateway.On("VerifySignature", mock.Anything, "bad-sig", body).Return(false)

		req := httptest.NewRequest("POST", "/webhook/tripay", bytes.NewReader(body))
		req.Header.Set("X-Callback-Signature", "bad-sig")

		resp, err := env.app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)

		var decoded map[string]any
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
		assert.Equal(t, "SIGNATURE_MISMATCH", decoded["code"])
	})

	t.Run("rejects an unknown reference with 400", func(t *testing.T) {
		env := newTestEnv(t)

		body := []byte(`{"reference":"T999","status":"PAID"}`)
		env.gateway.On("VerifySignature", mock.Anything, "good-sig", body).Return(true)

		req := httptest.NewRequest("POST", "/webhook/tripay", bytes.NewReader(body))
		req.Header.Set("X-Callback-Signature", "good-sig")

		resp, err := env.app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}

func TestHandler_PurchaseFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	status, created := postJSON(t, env.app, "/v1/products", v1.CreateProductRequest{
		Name: "VPN Account", Price: 5000, IsActive: true,
	})
	assert.Equal(t, 201, status)
	productID := int64(created["id"].(float64))

	status, _ = postJSON(t, env.app, "/v1/products/1/stock", v1.AddStockRequest{
		Secrets: []string{"user1:pass1", "user2:pass2"},
	})
	assert.Equal(t, 200, status)

	assert.NoError(t, env.ledger.EnsureUser(ctx, "42"))
	assert.NoError(t, env.ledger.Credit(ctx, "42", 20000))

	status, quote := postJSON(t, env.app, "/v1/purchase/quote", v1.QuotePurchaseRequest{
		UserID: "42", ProductID: productID, Quantity: 2,
	})
	assert.Equal(t, 200, status)
	assert.Equal(t, float64(10000), quote["total"])

	status, confirmed := postJSON(t, env.app, "/v1/purchase/confirm", v1.ConfirmPurchaseRequest{UserID: "42"})
	assert.Equal(t, 200, status)
	secrets := confirmed["secrets"].([]any)
	assert.Equal(t, []any{"user1:pass1", "user2:pass2"}, secrets)

	// The draft is consumed; confirming again requires a new quote.
	status, errBody := postJSON(t, env.app, "/v1/purchase/confirm", v1.ConfirmPurchaseRequest{UserID: "42"})
	assert.Equal(t, 404, status)
	assert.Equal(t, "CONFIRMATION_NOT_FOUND", errBody["code"])

	user, err := env.ledger.GetUser(ctx, "42")
	assert.NoError(t, err)
	assert.Equal(t, int64(10000), user.Balance)
}

func TestHandler_ConfirmRejectsOutdatedQuote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	status, _ := postJSON(t, env.app, "/v1/products", v1.CreateProductRequest{
		Name: "VPN Account", Price: 5000, IsActive: true, Secrets: []string{"user1:pass1"},
	})
	assert.Equal(t, 201, status)

	assert.NoError(t, env.ledger.EnsureUser(ctx, "42"))
	assert.NoError(t, env.ledger.Credit(ctx, "42", 20000))

	status, _ = postJSON(t, env.app, "/v1/purchase/quote", v1.QuotePurchaseRequest{
		UserID: "42", ProductID: 1, Quantity: 1,
	})
	assert.Equal(t, 200, status)

	// Admin reprices between quote and confirm.
	assert.NoError(t, env.inventory.CreateProduct(ctx, &model.Product{
		ID: 1, Name: "VPN Account", Price: 8000, IsActive: true,
	}))

	status, errBody := postJSON(t, env.app, "/v1/purchase/confirm", v1.ConfirmPurchaseRequest{UserID: "42"})
	assert.Equal(t, 409, status)
	assert.Equal(t, "QUOTE_OUTDATED", errBody["code"])

	// The refreshed draft carries the new total; confirming it charges that.
	status, confirmed := postJSON(t, env.app, "/v1/purchase/confirm", v1.ConfirmPurchaseRequest{UserID: "42"})
	assert.Equal(t, 200, status)
	assert.Equal(t, float64(8000), confirmed["total"])

	user, err := env.ledger.GetUser(ctx, "42")
	assert.NoError(t, err)
	assert.Equal(t, int64(12000), user.Balance)
}

func TestHandler_QuoteRejectsShortStock(t *testing.T) {
	env := newTestEnv(t)

	status, _ := postJSON(t, env.app, "/v1/products", v1.CreateProductRequest{
		Name: "VPN Account", Price: 5000, IsActive: true,
	})
	assert.Equal(t, 201, status)

	status, errBody := postJSON(t, env.app, "/v1/purchase/quote", v1.QuotePurchaseRequest{
		UserID: "42", ProductID: 1, Quantity: 3,
	})
	assert.Equal(t, 409, status)
	assert.Equal(t, "OUT_OF_STOCK", errBody["code"])
}
