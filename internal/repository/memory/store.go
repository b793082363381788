// Package memory provides mutex-guarded in-memory implementations of the
// repository interfaces. They back the concurrency tests and local
// development runs; production uses the MySQL implementations.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/faa999-tech/telebotshop/internal/model"
	"github.com/faa999-tech/telebotshop/internal/repository"
)

// TxManager is a pass-through; the stores are individually atomic and there
// is no cross-store transaction to coordinate in memory.
type TxManager struct{}

func NewTxManager() *TxManager { return &TxManager{} }

func (*TxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type Inventory struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]model.Product
	units    map[int64][]model.StockUnit
}

func NewInventory() *Inventory {
	return &Inventory{
		nextID:   1,
		products: make(map[int64]model.Product),
		units:    make(map[int64][]model.StockUnit),
	}
}

func (s *Inventory) CreateProduct(ctx context.Context, product *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == 0 {
		product.ID = s.nextID
		s.nextID++
	} else if product.ID >= s.nextID {
		s.nextID = product.ID + 1
	}
	product.CreatedAt = time.Now()
	s.products[product.ID] = *product
	return nil
}

func (s *Inventory) GetProduct(ctx context.Context, productID int64) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &product, nil
}

func (s *Inventory) ListProducts(ctx context.Context, activeOnly bool) ([]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		if activeOnly && !p.IsActive {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *Inventory) AddUnits(ctx context.Context, productID int64, secrets []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, secret := range secrets {
		s.units[productID] = append(s.units[productID], model.StockUnit{
			ID:        s.nextID,
			ProductID: productID,
			Secret:    secret,
			CreatedAt: time.Now(),
		})
		s.nextID++
	}
	return nil
}

func (s *Inventory) ConsumeUnits(ctx context.Context, productID int64, qty int) ([]model.StockUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.units[productID]
	if len(queue) < qty {
		return nil, repository.ErrOutOfStock
	}

	consumed := make([]model.StockUnit, qty)
	copy(consumed, queue[:qty])
	s.units[productID] = queue[qty:]
	return consumed, nil
}

func (s *Inventory) RestoreUnits(ctx context.Context, units []model.StockUnit) error {
	if len(units) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	productID := units[0].ProductID
	restored := make([]model.StockUnit, 0, len(units)+len(s.units[productID]))
	restored = append(restored, units...)
	restored = append(restored, s.units[productID]...)
	s.units[productID] = restored
	return nil
}

func (s *Inventory) CountUnits(ctx context.Context, productID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.units[productID])), nil
}

type Ledger struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func NewLedger() *Ledger {
	return &Ledger{users: make(map[string]*model.User)}
}

func (s *Ledger) EnsureUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		s.users[userID] = &model.User{UserID: userID, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	}
	return nil
}

func (s *Ledger) GetUser(ctx context.Context, userID string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *Ledger) DeductIfSufficient(ctx context.Context, userID string, amount int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok || user.Balance < amount {
		return false, nil
	}
	user.Balance -= amount
	user.UpdatedAt = time.Now()
	return true, nil
}

func (s *Ledger) Credit(ctx context.Context, userID string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		s.users[userID] = &model.User{UserID: userID, Balance: amount, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		return nil
	}
	user.Balance += amount
	user.UpdatedAt = time.Now()
	return nil
}

type TransactionLog struct {
	mu      sync.Mutex
	nextID  int64
	entries []model.Transaction
}

func NewTransactionLog() *TransactionLog {
	return &TransactionLog{nextID: 1}
}

func (s *TransactionLog) Create(ctx context.Context, tx *model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx.ID = s.nextID
	s.nextID++
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	s.entries = append(s.entries, *tx)
	return nil
}

func (s *TransactionLog) ListByUser(ctx context.Context, userID string, limit int) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.Transaction
	for i := len(s.entries) - 1; i >= 0 && len(result) < limit; i-- {
		entry := s.entries[i]
		if entry.UserID == userID && entry.Status == model.TxStatusCompleted {
			result = append(result, entry)
		}
	}
	return result, nil
}

type PendingPayments struct {
	mu       sync.Mutex
	payments map[string]*model.PendingPayment
}

func NewPendingPayments() *PendingPayments {
	return &PendingPayments{payments: make(map[string]*model.PendingPayment)}
}

func (s *PendingPayments) Create(ctx context.Context, payment *model.PendingPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[payment.Reference]; exists {
		return repository.ErrDuplicateReference
	}
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = time.Now()
	}
	copied := *payment
	s.payments[payment.Reference] = &copied
	return nil
}

func (s *PendingPayments) GetByReference(ctx context.Context, reference string) (*model.PendingPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, ok := s.payments[reference]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	copied := *payment
	return &copied, nil
}

func (s *PendingPayments) MarkPaid(ctx context.Context, reference string, paidAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, ok := s.payments[reference]
	if !ok || payment.Status != model.PaymentStatusUnpaid {
		return false, nil
	}
	payment.Status = model.PaymentStatusPaid
	payment.PaidAt = &paidAt
	return true, nil
}

func (s *PendingPayments) MarkTerminal(ctx context.Context, reference string, status model.PaymentStatus) (bool, error) {
	if !status.Terminal() {
		return false, repository.ErrNoRowsAffected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payment, ok := s.payments[reference]
	if !ok || payment.Status != model.PaymentStatusUnpaid {
		return false, nil
	}
	payment.Status = status
	return true, nil
}

type Settings struct {
	mu     sync.Mutex
	values map[string]string
}

func NewSettings() *Settings {
	return &Settings{values: make(map[string]string)}
}

func (s *Settings) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.values[key]
	if !ok {
		return "", repository.ErrSettingNotFound
	}
	return value, nil
}

func (s *Settings) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}
