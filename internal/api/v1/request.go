package v1

type QuotePurchaseRequest struct {
	UserID    string `json:"user_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type ConfirmPurchaseRequest struct {
	UserID string `json:"user_id"`
}

type CancelPurchaseRequest struct {
	UserID string `json:"user_id"`
}

type TopupRequest struct {
	UserID  string `json:"user_id"`
	Amount  int64  `json:"amount"`
	Channel string `json:"channel"`
}

type CreateProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	IsActive    bool     `json:"is_active"`
	Secrets     []string `json:"secrets,omitempty"`
}

type AddStockRequest struct {
	Secrets []string `json:"secrets"`
}
