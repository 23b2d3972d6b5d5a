package persistence

import (
	"context"
	"errors"

	"github.com/erp/muhasebe/internal/domain/pos"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPOSSessionRepository implements pos.SessionRepository using GORM
type GormPOSSessionRepository struct {
	db *gorm.DB
}

// NewGormPOSSessionRepository creates a new GormPOSSessionRepository
func NewGormPOSSessionRepository(db *gorm.DB) *GormPOSSessionRepository {
	return &GormPOSSessionRepository{db: db}
}

// FindByID finds a session by ID
func (r *GormPOSSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*pos.Session, error) {
	var session pos.Session
	if err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// FindOpenByUser finds the cashier's session that is not yet closing
func (r *GormPOSSessionRepository) FindOpenByUser(ctx context.Context, userName string) (*pos.Session, error) {
	var session pos.Session
	if err := r.db.WithContext(ctx).
		Where("user_name = ? AND state IN ?", userName, []pos.SessionState{pos.SessionStateOpeningControl, pos.SessionStateOpened}).
		Order("start_at DESC").
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// CountByPrefix counts sessions whose name starts with prefix
func (r *GormPOSSessionRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&pos.Session{}).
		Where("name LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a session
func (r *GormPOSSessionRepository) Save(ctx context.Context, session *pos.Session) error {
	return r.db.WithContext(ctx).Save(session).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormPOSSessionRepository) SaveWithLock(ctx context.Context, session *pos.Session) error {
	result := r.db.WithContext(ctx).
		Model(&pos.Session{}).
		Where("id = ? AND version = ?", session.ID, session.Version-1).
		Updates(map[string]any{
			"state":                    session.State,
			"stop_at":                  session.StopAt,
			"closing_cash":             session.ClosingCash,
			"cash_register_difference": session.CashRegisterDifference,
			"total_sales":              session.TotalSales,
			"total_payments":           session.TotalPayments,
			"order_count":              session.OrderCount,
			"notes":                    session.Notes,
			"version":                  session.Version,
			"updated_at":               session.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// GormPOSOrderRepository implements pos.OrderRepository using GORM
type GormPOSOrderRepository struct {
	db *gorm.DB
}

// NewGormPOSOrderRepository creates a new GormPOSOrderRepository
func NewGormPOSOrderRepository(db *gorm.DB) *GormPOSOrderRepository {
	return &GormPOSOrderRepository{db: db}
}

func posOrderChildren(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines").Preload("Payments")
}

// FindByID finds an order with its lines and payments
func (r *GormPOSOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*pos.Order, error) {
	var order pos.Order
	if err := posOrderChildren(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindBySession returns a session's orders in the order they were taken
func (r *GormPOSOrderRepository) FindBySession(ctx context.Context, sessionID uuid.UUID) ([]pos.Order, error) {
	var orders []pos.Order
	if err := posOrderChildren(r.db.WithContext(ctx)).
		Where("session_id = ?", sessionID).
		Order("date_order ASC, name ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// CountByPrefix counts orders whose name starts with prefix
func (r *GormPOSOrderRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&pos.Order{}).
		Where("name LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save stores an order with its lines and payments. Orders are written once;
// children are inserted alongside the header.
func (r *GormPOSOrderRepository) Save(ctx context.Context, order *pos.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(order).Error; err != nil {
			return err
		}
		for i := range order.Lines {
			order.Lines[i].OrderID = order.ID
			if err := tx.Save(&order.Lines[i]).Error; err != nil {
				return err
			}
		}
		for i := range order.Payments {
			order.Payments[i].OrderID = order.ID
			if err := tx.Save(&order.Payments[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure the POS repositories implement their interfaces
var (
	_ pos.SessionRepository = (*GormPOSSessionRepository)(nil)
	_ pos.OrderRepository   = (*GormPOSOrderRepository)(nil)
)
