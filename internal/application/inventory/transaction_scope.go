package inventory

import (
	"context"

	"github.com/erp/muhasebe/internal/domain/inventory"
)

// TransactionScope provides transactional access to inventory repositories.
// All repository operations inside Execute share one database transaction
// and are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the inventory repositories bound to the
// current transaction.
//
// Executing a stock move touches two aggregates: the move itself and the
// product whose quantities it changes. Both must be written in the same
// transaction, with the product row locked for the duration.
type TransactionalRepositories interface {
	ProductRepo() inventory.ProductRepository
	MoveRepo() inventory.StockMoveRepository
}

// NoOpTransactionScope runs fn directly against the given repositories.
// Used in tests and where the repositories are already transaction bound.
type NoOpTransactionScope struct {
	productRepo inventory.ProductRepository
	moveRepo    inventory.StockMoveRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(productRepo inventory.ProductRepository, moveRepo inventory.StockMoveRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{productRepo: productRepo, moveRepo: moveRepo}
}

// Execute runs fn without a transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProductRepo returns the product repository
func (s *NoOpTransactionScope) ProductRepo() inventory.ProductRepository {
	return s.productRepo
}

// MoveRepo returns the stock move repository
func (s *NoOpTransactionScope) MoveRepo() inventory.StockMoveRepository {
	return s.moveRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
