package tripay

// CreateInvoiceCommand is the caller-facing input for invoice creation.
type CreateInvoiceCommand struct {
	UserID string
	Amount int64
	Method string
}

type createTransactionRequest struct {
	Method       string      `json:"method"`
	MerchantRef  string      `json:"merchant_ref"`
	Amount       int64       `json:"amount"`
	CustomerName string      `json:"customer_name"`
	OrderItems   []OrderItem `json:"order_items"`
	ReturnURL    string      `json:"return_url"`
	ExpiredTime  int64       `json:"expired_time"`
	Signature    string      `json:"signature"`
}

type OrderItem struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}
