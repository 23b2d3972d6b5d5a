package pos

import (
	"context"

	"github.com/erp/muhasebe/internal/domain/pos"
)

// TransactionScope runs order registration atomically: the order insert and
// the session counter update commit together or not at all.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are the repositories bound to one transaction
type TransactionalRepositories interface {
	SessionRepo() pos.SessionRepository
	OrderRepo() pos.OrderRepository
}

// NoOpTransactionScope runs fn against plain repositories. Used in tests.
type NoOpTransactionScope struct {
	sessionRepo pos.SessionRepository
	orderRepo   pos.OrderRepository
}

// NewNoOpTransactionScope creates a scope without a real transaction
func NewNoOpTransactionScope(sessionRepo pos.SessionRepository, orderRepo pos.OrderRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{sessionRepo: sessionRepo, orderRepo: orderRepo}
}

// Execute runs fn directly
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// SessionRepo returns the session repository
func (s *NoOpTransactionScope) SessionRepo() pos.SessionRepository { return s.sessionRepo }

// OrderRepo returns the order repository
func (s *NoOpTransactionScope) OrderRepo() pos.OrderRepository { return s.orderRepo }
