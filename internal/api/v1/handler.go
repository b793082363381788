package v1

import (
	"strconv"
	"time"

	"github.com/faa999-tech/telebotshop/internal/constants"
	"github.com/faa999-tech/telebotshop/internal/service"
	"github.com/faa999-tech/telebotshop/internal/session"
	"github.com/faa999-tech/telebotshop/pkg/tripay"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	logger     *zap.Logger
	settlement service.SettlementService
	reconciler service.ReconcilerService
	drafts     *session.Store
	gateway    tripay.Client
}

func NewHandler(
	logger *zap.Logger,
	settlement service.SettlementService,
	reconciler service.ReconcilerService,
	drafts *session.Store,
	gateway tripay.Client,
) *Handler {
	return &Handler{
		logger:     logger,
		settlement: settlement,
		reconciler: reconciler,
		drafts:     drafts,
		gateway:    gateway,
	}
}

func (h *Handler) Pong(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// TripayCallback verifies and applies one webhook delivery. The signature is
// checked against the raw body bytes before any parsing happens.
func (h *Handler) TripayCallback(c *fiber.Ctx) error {
	ctx := c.UserContext()

	cmd := service.CallbackCommand{
		Signature: c.Get("X-Callback-Signature"),
		RawBody:   c.Body(),
	}

	result, err := h.reconciler.HandleCallback(ctx, cmd)
	if err != nil {
		return err
	}

	h.logger.Info("Webhook processed",
		zap.String("reference", result.Reference),
		zap.String("status", string(result.Status)),
		zap.Bool("applied", result.Applied))

	return c.JSON(CallbackResponse{Success: true})
}

// PaymentReturn is the page the gateway redirects the payer back to. It is
// read only; settlement happens exclusively through the webhook.
func (h *Handler) PaymentReturn(c *fiber.Ctx) error {
	ctx := c.UserContext()

	reference := c.Query("reference")
	if reference == "" {
		reference = c.Query("tripay_reference")
	}

	c.Set("Content-Type", "text/html; charset=utf-8")

	if reference == "" {
		return c.Status(fiber.StatusBadRequest).
			SendString(paymentReturnPage("Missing payment reference.", ""))
	}

	detail, err := h.gateway.GetTransactionDetail(ctx, reference)
	if err != nil {
		h.logger.Warn("Payment return lookup failed",
			zap.String("reference", reference),
			zap.Error(err))
		return c.SendString(paymentReturnPage(
			"We could not look up your payment right now. Your balance will be updated automatically once the payment settles.", reference))
	}

	switch detail.Status {
	case "PAID":
		return c.SendString(paymentReturnPage(
			"Payment received. Your balance has been topped up.", reference))
	case "UNPAID":
		return c.SendString(paymentReturnPage(
			"Payment not completed yet. Finish the payment and your balance will update automatically.", reference))
	default:
		return c.SendString(paymentReturnPage(
			"This payment is "+detail.Status+". No balance change was made.", reference))
	}
}

func paymentReturnPage(message, reference string) string {
	page := `<!DOCTYPE html><html><head><title>Payment Status</title></head><body>` +
		`<h1>Payment Status</h1><p>` + message + `</p>`
	if reference != "" {
		page += `<p>Reference: <code>` + reference + `</code></p>`
	}
	return page + `</body></html>`
}

// QuotePurchase prices a purchase and stores it as a draft awaiting
// confirmation. No stock or balance is touched here.
func (h *Handler) QuotePurchase(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request QuotePurchaseRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequestBody(c, h.logger, err)
	}

	if request.UserID == "" || request.Quantity < 1 {
		return service.NewServiceError(constants.ErrCodeValidation, nil)
	}

	product, stock, err := h.settlement.GetProduct(ctx, request.ProductID)
	if err != nil {
		return err
	}

	if !product.IsActive {
		return service.NewServiceError(constants.ErrCodeProductInactive, nil)
	}
	if stock < int64(request.Quantity) {
		return service.NewServiceError(constants.ErrCodeOutOfStock, nil)
	}

	total := product.Price * int64(request.Quantity)

	h.drafts.Put(request.UserID, session.PurchaseDraft{
		ProductID: product.ID,
		Quantity:  request.Quantity,
		Total:     total,
		QuotedAt:  time.Now(),
	})

	return c.JSON(QuotePurchaseResponse{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    request.Quantity,
		UnitPrice:   product.Price,
		Total:       total,
		Stock:       stock,
		ExpiresIn:   int64(session.DefaultTTL.Seconds()),
	})
}

// ConfirmPurchase settles the user's pending draft. The draft is consumed
// whether or not settlement succeeds; a failed confirm means a fresh quote.
func (h *Handler) ConfirmPurchase(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request ConfirmPurchaseRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequestBody(c, h.logger, err)
	}

	draft, ok := h.drafts.Take(request.UserID)
	if !ok {
		return service.NewServiceError(constants.ErrCodeConfirmationExpired, nil)
	}

	// The user confirmed draft.Total; charge that or nothing. If the price
	// moved since the quote, store a refreshed draft for them to confirm.
	product, _, err := h.settlement.GetProduct(ctx, draft.ProductID)
	if err != nil {
		return err
	}
	if total := product.Price * int64(draft.Quantity); total != draft.Total {
		h.drafts.Put(request.UserID, session.PurchaseDraft{
			ProductID: draft.ProductID,
			Quantity:  draft.Quantity,
			Total:     total,
			QuotedAt:  time.Now(),
		})
		return service.NewServiceError(constants.ErrCodeQuoteOutdated, nil)
	}

	result, err := h.settlement.Purchase(ctx, service.PurchaseCommand{
		UserID:    request.UserID,
		ProductID: draft.ProductID,
		Quantity:  draft.Quantity,
	})
	if err != nil {
		return err
	}

	return c.JSON(PurchaseResponse{
		TransactionID: result.TransactionID,
		ProductID:     result.ProductID,
		ProductName:   result.ProductName,
		Quantity:      result.Quantity,
		Total:         result.Total,
		Secrets:       result.Secrets,
	})
}

func (h *Handler) CancelPurchase(c *fiber.Ctx) error {
	var request CancelPurchaseRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequestBody(c, h.logger, err)
	}

	h.drafts.Clear(request.UserID)

	return c.JSON(fiber.Map{"cancelled": true})
}

func (h *Handler) InitiateTopup(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var request TopupRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequestBody(c, h.logger, err)
	}

	if request.UserID == "" {
		return service.NewServiceError(constants.ErrCodeValidation, nil)
	}

	result, err := h.settlement.InitiateTopup(ctx, service.TopupCommand{
		UserID:  request.UserID,
		Amount:  request.Amount,
		Channel: request.Channel,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(TopupResponse{
		Reference:   result.Reference,
		CheckoutURL: result.CheckoutURL,
		Amount:      result.Amount,
		Channel:     result.Channel,
		ExpiresAt:   result.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *Handler) ListProducts(c *fiber.Ctx) error {
	products, err := h.settlement.ListProducts(c.UserContext())
	if err != nil {
		return err
	}

	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ProductResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			IsActive:    p.IsActive,
		})
	}

	return c.JSON(out)
}

func (h *Handler) GetProduct(c *fiber.Ctx) error {
	productID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return service.NewServiceError(constants.ErrCodeValidation, err)
	}

	product, stock, err := h.settlement.GetProduct(c.UserContext(), productID)
	if err != nil {
		return err
	}

	return c.JSON(ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		IsActive:    product.IsActive,
		Stock:       stock,
	})
}

func (h *Handler) CreateProduct(c *fiber.Ctx) error {
	var request CreateProductRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequestBody(c, h.logger, err)
	}

	product, err := h.settlement.CreateProduct(c.UserContext(), service.CreateProductCommand{
		Name:        request.Name,
		Description: request.Description,
		Price:       request.Price,
		IsActive:    request.IsActive,
		Secrets:     request.Secrets,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		IsActive:    product.IsActive,
	})
}

func (h *Handler) AddStock(c *fiber.Ctx) error {
	productID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return service.NewServiceError(constants.ErrCodeValidation, err)
	}

	var request AddStockRequest
	if err := c.BodyParser(&request); err != nil {
		return badRequestBody(c, h.logger, err)
	}

	stock, err := h.settlement.AddStock(c.UserContext(), service.AddStockCommand{
		ProductID: productID,
		Secrets:   request.Secrets,
	})
	if err != nil {
		return err
	}

	return c.JSON(AddStockResponse{
		ProductID: productID,
		Added:     len(request.Secrets),
		Stock:     stock,
	})
}

func (h *Handler) ListChannels(c *fiber.Ctx) error {
	channels, err := h.settlement.ListChannels(c.UserContext())
	if err != nil {
		return err
	}

	out := make([]ChannelResponse, 0, len(channels))
	for _, ch := range channels {
		out = append(out, ChannelResponse{
			Group:   ch.Group,
			Code:    ch.Code,
			Name:    ch.Name,
			FeeFlat: ch.FeeCustomer.Flat,
			FeePct:  ch.FeeCustomer.Percent,
		})
	}

	return c.JSON(out)
}

func (h *Handler) GetChannelFee(c *fiber.Ctx) error {
	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil || amount <= 0 {
		return service.NewServiceError(constants.ErrCodeValidation, err)
	}

	code := c.Query("code")
	if code == "" {
		return service.NewServiceError(constants.ErrCodeValidation, nil)
	}

	quote, err := h.settlement.GetChannelFee(c.UserContext(), amount, code)
	if err != nil {
		return err
	}

	return c.JSON(FeeResponse{
		Code:     quote.Code,
		Name:     quote.Name,
		Amount:   amount,
		TotalFee: quote.TotalFee,
	})
}

func (h *Handler) GetBalance(c *fiber.Ctx) error {
	userID := c.Params("id")
	if userID == "" {
		return service.NewServiceError(constants.ErrCodeValidation, nil)
	}

	result, err := h.settlement.GetBalance(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(BalanceResponse{UserID: result.UserID, Balance: result.Balance})
}

func (h *Handler) GetHistory(c *fiber.Ctx) error {
	userID := c.Params("id")
	if userID == "" {
		return service.NewServiceError(constants.ErrCodeValidation, nil)
	}

	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	entries, err := h.settlement.GetHistory(c.UserContext(), userID, limit)
	if err != nil {
		return err
	}

	out := make([]TransactionResponse, 0, len(entries))
	for _, entry := range entries {
		item := TransactionResponse{
			ID:          entry.ID,
			Kind:        string(entry.Kind),
			Amount:      entry.Amount,
			Status:      string(entry.Status),
			Description: entry.Description,
			CreatedAt:   entry.CreatedAt.Format(time.RFC3339),
		}
		if entry.ReferenceID != nil {
			item.Reference = *entry.ReferenceID
		}
		out = append(out, item)
	}

	return c.JSON(GetHistoryResponse{Transactions: out, Total: len(out)})
}

func badRequestBody(c *fiber.Ctx, logger *zap.Logger, err error) error {
	logger.Warn("Failed to parse body",
		zap.Error(err),
		zap.String("body", string(c.Body())))
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"code":    constants.ErrCodeInvalidRequestBody,
		"message": constants.GetErrorMessage(constants.ErrCodeInvalidRequestBody),
	})
}
