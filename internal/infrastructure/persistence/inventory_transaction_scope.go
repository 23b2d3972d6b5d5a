package persistence

import (
	"context"

	appinv "github.com/erp/muhasebe/internal/application/inventory"
	"github.com/erp/muhasebe/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormTransactionScope implements the inventory TransactionScope using GORM
// transactions. Stock move execution locks the product row and writes both
// aggregates through it.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormInventoryRepositories{tx: tx})
	})
}

type gormInventoryRepositories struct {
	tx *gorm.DB
}

// ProductRepo returns the product repository scoped to the current transaction.
func (r *gormInventoryRepositories) ProductRepo() inventory.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// MoveRepo returns the stock move repository scoped to the current transaction.
func (r *gormInventoryRepositories) MoveRepo() inventory.StockMoveRepository {
	return NewGormStockMoveRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormInventoryRepositories implements TransactionalRepositories
var _ appinv.TransactionalRepositories = (*gormInventoryRepositories)(nil)
