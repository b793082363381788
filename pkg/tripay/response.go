package tripay

import "encoding/json"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Invoice is the gateway's record of a created transaction.
type Invoice struct {
	Reference   string `json:"reference"`
	MerchantRef string `json:"merchant_ref"`
	Amount      int64  `json:"amount"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
	ExpiredTime int64  `json:"expired_time"`
}

// Channel is one payment method offered by the gateway.
type Channel struct {
	Group       string    `json:"group"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	IconURL     string    `json:"icon_url"`
	Active      bool      `json:"active"`
	FeeCustomer FeeDetail `json:"fee_customer"`
}

type FeeDetail struct {
	Flat    int64   `json:"flat"`
	Percent float64 `json:"percent"`
}

// FeeQuote is one entry from the fee calculator.
type FeeQuote struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Fee      Fee    `json:"fee"`
	TotalFee int64  `json:"total_fee"`
}

type Fee struct {
	Flat    int64   `json:"flat"`
	Percent float64 `json:"percent"`
	Min     int64   `json:"min"`
	Max     int64   `json:"max"`
}

// TransactionDetail is the gateway's view of a transaction, used by the
// read-only payment-return page.
type TransactionDetail struct {
	Reference   string `json:"reference"`
	MerchantRef string `json:"merchant_ref"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	CheckoutURL string `json:"checkout_url"`
	PaidAt      int64  `json:"paid_at"`
}
