package persistence

import (
	"context"
	"errors"

	"github.com/erp/muhasebe/internal/domain/inventory"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	var product inventory.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByIDForUpdate finds a product and locks its row (SELECT ... FOR UPDATE).
// Only meaningful inside a transaction.
func (r *GormProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	var product inventory.Product
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByCode finds a product by its code
func (r *GormProductRepository) FindByCode(ctx context.Context, code string) (*inventory.Product, error) {
	var product inventory.Product
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindAll finds all products matching the filter and the total before paging
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Product, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&inventory.Product{}), filter)

	var products []inventory.Product
	total, err := findPage(query, filter, ProductSortFields, "code", &products)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// FindBelowReorderPoint returns products whose virtual availability is at or
// below a positive reorder point, lowest availability first
func (r *GormProductRepository) FindBelowReorderPoint(ctx context.Context, limit int) ([]inventory.Product, error) {
	query := r.db.WithContext(ctx).
		Where("reorder_point > 0 AND virtual_available <= reorder_point").
		Order("virtual_available ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var products []inventory.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *inventory.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormProductRepository) SaveWithLock(ctx context.Context, product *inventory.Product) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.Product{}).
		Where("id = ? AND version = ?", product.ID, product.Version-1).
		Updates(map[string]any{
			"barcode":           product.Barcode,
			"name":              product.Name,
			"description":       product.Description,
			"product_type":      product.ProductType,
			"list_price":        product.ListPrice,
			"cost_price":        product.CostPrice,
			"uom":               product.UOM,
			"tax_rate":          product.TaxRate,
			"qty_available":     product.QtyAvailable,
			"qty_reserved":      product.QtyReserved,
			"virtual_available": product.VirtualAvailable,
			"min_stock":         product.MinStock,
			"max_stock":         product.MaxStock,
			"reorder_point":     product.ReorderPoint,
			"is_active":         product.IsActive,
			"version":           product.Version,
			"updated_at":        product.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Count returns the number of products
func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&inventory.Product{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// TotalStockValue returns Σ qty_available × cost_price over all products
func (r *GormProductRepository) TotalStockValue(ctx context.Context) (decimal.Decimal, error) {
	var row struct {
		Value decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&inventory.Product{}).
		Select("COALESCE(SUM(qty_available * cost_price), 0) AS value").
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Value, nil
}

func (r *GormProductRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR barcode LIKE ?", pattern, pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "product_type":
			query = query.Where("product_type = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
		}
	}
	return query
}

// Ensure GormProductRepository implements ProductRepository
var _ inventory.ProductRepository = (*GormProductRepository)(nil)
