package inventory

import (
	"context"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRepository persists products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByIDForUpdate loads the product holding a row lock until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByCode(ctx context.Context, code string) (*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, int64, error)
	FindBelowReorderPoint(ctx context.Context, limit int) ([]Product, error)
	Save(ctx context.Context, product *Product) error
	// SaveWithLock updates the product only if its stored version is
	// product.Version − 1, returning ErrConcurrencyConflict otherwise.
	SaveWithLock(ctx context.Context, product *Product) error
	Count(ctx context.Context) (int64, error)
	TotalStockValue(ctx context.Context) (decimal.Decimal, error)
}

// StockMoveRepository persists stock moves
type StockMoveRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockMove, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]StockMove, int64, error)
	Save(ctx context.Context, move *StockMove) error
	SaveWithLock(ctx context.Context, move *StockMove) error
	Count(ctx context.Context) (int64, error)
	CountByState(ctx context.Context) (map[MoveState]int64, error)
}

// LocationRepository persists stock locations
type LocationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockLocation, error)
	FindAll(ctx context.Context) ([]StockLocation, error)
	Save(ctx context.Context, location *StockLocation) error
	Count(ctx context.Context) (int64, error)
}
