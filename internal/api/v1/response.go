package v1

type QuotePurchaseResponse struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Total       int64  `json:"total"`
	Stock       int64  `json:"stock"`
	ExpiresIn   int64  `json:"expires_in_seconds"`
}

type PurchaseResponse struct {
	TransactionID int64    `json:"transaction_id"`
	ProductID     int64    `json:"product_id"`
	ProductName   string   `json:"product_name"`
	Quantity      int      `json:"quantity"`
	Total         int64    `json:"total"`
	Secrets       []string `json:"secrets"`
}

type TopupResponse struct {
	Reference   string `json:"reference"`
	CheckoutURL string `json:"checkout_url"`
	Amount      int64  `json:"amount"`
	Channel     string `json:"channel"`
	ExpiresAt   string `json:"expires_at"`
}

type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

type TransactionResponse struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	Reference   string `json:"reference,omitempty"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type GetHistoryResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int                   `json:"total"`
}

type ProductResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	IsActive    bool   `json:"is_active"`
	Stock       int64  `json:"stock,omitempty"`
}

type AddStockResponse struct {
	ProductID int64 `json:"product_id"`
	Added     int   `json:"added"`
	Stock     int64 `json:"stock"`
}

type ChannelResponse struct {
	Group   string  `json:"group"`
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	FeeFlat int64   `json:"fee_flat"`
	FeePct  float64 `json:"fee_percent"`
}

type FeeResponse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
	TotalFee int64  `json:"total_fee"`
}

type CallbackResponse struct {
	Success bool `json:"success"`
}
