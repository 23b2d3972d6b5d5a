package persistence

import (
	"context"

	apppos "github.com/erp/muhasebe/internal/application/pos"
	"github.com/erp/muhasebe/internal/domain/pos"
	"gorm.io/gorm"
)

// GormPOSTransactionScope commits an order insert and its session counter
// update together
type GormPOSTransactionScope struct {
	db *gorm.DB
}

// NewGormPOSTransactionScope creates a new GormPOSTransactionScope
func NewGormPOSTransactionScope(db *gorm.DB) *GormPOSTransactionScope {
	return &GormPOSTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *GormPOSTransactionScope) Execute(ctx context.Context, fn func(repos apppos.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormPOSRepositories{tx: tx})
	})
}

type gormPOSRepositories struct {
	tx *gorm.DB
}

func (r *gormPOSRepositories) SessionRepo() pos.SessionRepository {
	return NewGormPOSSessionRepository(r.tx)
}

func (r *gormPOSRepositories) OrderRepo() pos.OrderRepository {
	return NewGormPOSOrderRepository(r.tx)
}

var (
	_ apppos.TransactionScope          = (*GormPOSTransactionScope)(nil)
	_ apppos.TransactionalRepositories = (*gormPOSRepositories)(nil)
)
