package repository

import (
	"context"
	"errors"
	"time"

	"github.com/faa999-tech/telebotshop/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository owns the per-product queue of stock units. The queue is
// the stock_units rows ordered by id; its length is the stock count.
type InventoryRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProduct(ctx context.Context, productID int64) (*model.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]model.Product, error)
	AddUnits(ctx context.Context, productID int64, secrets []string) error
	// ConsumeUnits removes exactly qty units from the front of the queue, or
	// fails the whole call with ErrOutOfStock. No partial consumption.
	ConsumeUnits(ctx context.Context, productID int64, qty int) ([]model.StockUnit, error)
	// RestoreUnits re-inserts previously consumed units with their original
	// ids, returning them to the front of the queue. Compensation only.
	RestoreUnits(ctx context.Context, units []model.StockUnit) error
	CountUnits(ctx context.Context, productID int64) (int64, error)
}

type Inventory struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &Inventory{db: db}
}

func (r *Inventory) CreateProduct(ctx context.Context, product *model.Product) error {
	db := GetTx(ctx, r.db)
	return db.Create(product).Error
}

func (r *Inventory) GetProduct(ctx context.Context, productID int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *Inventory) ListProducts(ctx context.Context, activeOnly bool) ([]model.Product, error) {
	var products []model.Product
	query := r.db.WithContext(ctx).Order("id")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Inventory) AddUnits(ctx context.Context, productID int64, secrets []string) error {
	if len(secrets) == 0 {
		return nil
	}

	units := make([]model.StockUnit, 0, len(secrets))
	for _, secret := range secrets {
		units = append(units, model.StockUnit{
			ProductID: productID,
			Secret:    secret,
			CreatedAt: time.Now(),
		})
	}

	db := GetTx(ctx, r.db)
	return db.Create(&units).Error
}

func (r *Inventory) ConsumeUnits(ctx context.Context, productID int64, qty int) ([]model.StockUnit, error) {
	var units []model.StockUnit

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("product_id = ?", productID).
			Order("id").
			Limit(qty).
			Find(&units).Error
		if err != nil {
			return err
		}

		if len(units) < qty {
			return ErrOutOfStock
		}

		ids := make([]int64, 0, len(units))
		for _, unit := range units {
			ids = append(ids, unit.ID)
		}

		result := tx.Where("id IN ?", ids).Delete(&model.StockUnit{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != int64(qty) {
			return ErrOutOfStock
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return units, nil
}

func (r *Inventory) RestoreUnits(ctx context.Context, units []model.StockUnit) error {
	if len(units) == 0 {
		return nil
	}

	// Inserting with the original primary keys puts the units back at the
	// front of the id-ordered queue.
	db := GetTx(ctx, r.db)
	return db.Create(&units).Error
}

func (r *Inventory) CountUnits(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.StockUnit{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}
