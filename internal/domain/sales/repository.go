package sales

import (
	"context"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
)

// SalesOrderRepository persists sales orders with their lines
type SalesOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]SalesOrder, int64, error)
	Save(ctx context.Context, order *SalesOrder) error
	// SaveWithLock fails with shared.ErrConcurrencyConflict when the order
	// changed since it was loaded
	SaveWithLock(ctx context.Context, order *SalesOrder) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountByState(ctx context.Context) (map[OrderState]int64, error)
}
