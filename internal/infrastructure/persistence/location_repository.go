package persistence

import (
	"context"
	"errors"

	"github.com/erp/muhasebe/internal/domain/inventory"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLocationRepository implements LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// FindByID finds a location by ID
func (r *GormLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockLocation, error) {
	var location inventory.StockLocation
	if err := r.db.WithContext(ctx).First(&location, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &location, nil
}

// FindAll returns every location ordered by code
func (r *GormLocationRepository) FindAll(ctx context.Context) ([]inventory.StockLocation, error) {
	var locations []inventory.StockLocation
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

// Save creates or updates a location
func (r *GormLocationRepository) Save(ctx context.Context, location *inventory.StockLocation) error {
	return r.db.WithContext(ctx).Save(location).Error
}

// Count returns the number of locations
func (r *GormLocationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&inventory.StockLocation{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormLocationRepository implements LocationRepository
var _ inventory.LocationRepository = (*GormLocationRepository)(nil)
