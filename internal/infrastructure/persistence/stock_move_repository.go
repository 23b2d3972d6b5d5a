package persistence

import (
	"context"
	"errors"

	"github.com/erp/muhasebe/internal/domain/inventory"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockMoveRepository implements StockMoveRepository using GORM
type GormStockMoveRepository struct {
	db *gorm.DB
}

// NewGormStockMoveRepository creates a new GormStockMoveRepository
func NewGormStockMoveRepository(db *gorm.DB) *GormStockMoveRepository {
	return &GormStockMoveRepository{db: db}
}

// FindByID finds a stock move by ID
func (r *GormStockMoveRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockMove, error) {
	var move inventory.StockMove
	if err := r.db.WithContext(ctx).First(&move, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &move, nil
}

// FindAll finds stock moves matching the filter
func (r *GormStockMoveRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockMove, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.StockMove{})
	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "state":
			query = query.Where("state = ?", value)
		case "move_type":
			query = query.Where("move_type = ?", value)
		}
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(reference) LIKE ?", pattern, pattern)
	}

	var moves []inventory.StockMove
	total, err := findPage(query, filter, StockMoveSortFields, "created_at", &moves)
	if err != nil {
		return nil, 0, err
	}
	return moves, total, nil
}

// Save creates or updates a stock move. A taken move name is reported as
// shared.ErrAlreadyExists.
func (r *GormStockMoveRepository) Save(ctx context.Context, move *inventory.StockMove) error {
	if err := r.db.WithContext(ctx).Save(move).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStockMoveRepository) SaveWithLock(ctx context.Context, move *inventory.StockMove) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.StockMove{}).
		Where("id = ? AND version = ?", move.ID, move.Version-1).
		Updates(map[string]any{
			"state":          move.State,
			"quantity":       move.Quantity,
			"unit_price":     move.UnitPrice,
			"total_value":    move.TotalValue,
			"scheduled_date": move.ScheduledDate,
			"done_date":      move.DoneDate,
			"note":           move.Note,
			"version":        move.Version,
			"updated_at":     move.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Count returns the number of stock moves
func (r *GormStockMoveRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&inventory.StockMove{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByState groups stock moves by state. States without moves are absent.
func (r *GormStockMoveRepository) CountByState(ctx context.Context) (map[inventory.MoveState]int64, error) {
	var rows []struct {
		State inventory.MoveState
		Count int64
	}
	if err := r.db.WithContext(ctx).
		Model(&inventory.StockMove{}).
		Select("state, COUNT(*) AS count").
		Group("state").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[inventory.MoveState]int64, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Count
	}
	return counts, nil
}

// Ensure GormStockMoveRepository implements StockMoveRepository
var _ inventory.StockMoveRepository = (*GormStockMoveRepository)(nil)
