package service

// PurchaseCommand asks the settlement engine to sell qty units of a product
// to a user, paid from the user's prepaid balance.
type PurchaseCommand struct {
	UserID    string
	ProductID int64
	Quantity  int
}

// TopupCommand asks for a gateway invoice crediting the user's balance once
// the gateway confirms payment. Channel may be empty to use the default.
type TopupCommand struct {
	UserID  string
	Amount  int64
	Channel string
}

// CallbackCommand carries one webhook delivery. RawBody is the unparsed
// request body; the signature is verified against these exact bytes.
type CallbackCommand struct {
	Signature string
	RawBody   []byte
}

// CreateProductCommand creates a product, optionally seeded with initial
// stock. The product row and its seed units commit together.
type CreateProductCommand struct {
	Name        string
	Description string
	Price       int64
	IsActive    bool
	Secrets     []string
}

type AddStockCommand struct {
	ProductID int64
	Secrets   []string
}
