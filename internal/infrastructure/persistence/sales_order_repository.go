package persistence

import (
	"context"
	"errors"

	"github.com/erp/muhasebe/internal/domain/sales"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

// FindByID finds a sales order by ID with its lines
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.SalesOrder, error) {
	var order sales.SalesOrder
	if err := r.db.WithContext(ctx).
		Preload("Lines", linesBySequence).
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindAll finds sales orders matching the filter. Lines are not loaded.
func (r *GormSalesOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sales.SalesOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&sales.SalesOrder{})
	for key, value := range filter.Filters {
		switch key {
		case "partner_id":
			query = query.Where("partner_id = ?", value)
		case "state":
			query = query.Where("state = ?", value)
		}
	}
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", likePattern(filter.Search))
	}

	var orders []sales.SalesOrder
	total, err := findPage(query, filter, SalesOrderSortFields, "order_date", &orders)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Save creates or updates a sales order with its lines. A taken order name
// is reported as shared.ErrAlreadyExists.
func (r *GormSalesOrderRepository) Save(ctx context.Context, order *sales.SalesOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return err
		}
		return saveOrderLines(tx, order)
	})
}

// SaveWithLock updates an existing order only if the stored version is the
// one it was loaded with (every aggregate mutation bumps Version once).
// Lines are replaced in the same transaction, so a stale copy can never
// drop lines written by a concurrent save.
func (r *GormSalesOrderRepository) SaveWithLock(ctx context.Context, order *sales.SalesOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&sales.SalesOrder{}).
			Where("id = ? AND version = ?", order.ID, order.Version-1).
			Updates(map[string]any{
				"partner_id":        order.PartnerID,
				"state":             order.State,
				"validity_date":     order.ValidityDate,
				"confirmation_date": order.ConfirmationDate,
				"delivery_date":     order.DeliveryDate,
				"payment_term":      order.PaymentTerm,
				"amount_untaxed":    order.AmountUntaxed,
				"amount_tax":        order.AmountTax,
				"amount_discount":   order.AmountDiscount,
				"amount_total":      order.AmountTotal,
				"notes":             order.Notes,
				"version":           order.Version,
				"updated_at":        order.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return saveOrderLines(tx, order)
	})
}

// saveOrderLines deletes lines dropped from the aggregate and upserts the rest
func saveOrderLines(tx *gorm.DB, order *sales.SalesOrder) error {
	lineIDs := make([]uuid.UUID, len(order.Lines))
	for i := range order.Lines {
		lineIDs[i] = order.Lines[i].ID
	}
	stale := tx.Where("order_id = ?", order.ID)
	if len(lineIDs) > 0 {
		stale = stale.Where("id NOT IN ?", lineIDs)
	}
	if err := stale.Delete(&sales.SalesOrderLine{}).Error; err != nil {
		return err
	}

	for i := range order.Lines {
		order.Lines[i].OrderID = order.ID
		if err := tx.Save(&order.Lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete deletes a sales order and its lines
func (r *GormSalesOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&sales.SalesOrderLine{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&sales.SalesOrder{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count returns the number of sales orders
func (r *GormSalesOrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&sales.SalesOrder{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByState groups sales orders by state
func (r *GormSalesOrderRepository) CountByState(ctx context.Context) (map[sales.OrderState]int64, error) {
	var rows []struct {
		State sales.OrderState
		Count int64
	}
	if err := r.db.WithContext(ctx).
		Model(&sales.SalesOrder{}).
		Select("state, COUNT(*) AS count").
		Group("state").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[sales.OrderState]int64, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Count
	}
	return counts, nil
}

// Ensure GormSalesOrderRepository implements SalesOrderRepository
var _ sales.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
