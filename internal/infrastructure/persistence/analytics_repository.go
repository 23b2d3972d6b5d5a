package persistence

import (
	"context"
	"errors"

	"github.com/erp/muhasebe/internal/domain/analytics"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFindingRepository implements analytics.FindingRepository using GORM
type GormFindingRepository struct {
	db *gorm.DB
}

// NewGormFindingRepository creates a new GormFindingRepository
func NewGormFindingRepository(db *gorm.DB) *GormFindingRepository {
	return &GormFindingRepository{db: db}
}

// FindByID finds a finding by ID
func (r *GormFindingRepository) FindByID(ctx context.Context, id uuid.UUID) (*analytics.AnomalyFinding, error) {
	var finding analytics.AnomalyFinding
	if err := r.db.WithContext(ctx).First(&finding, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &finding, nil
}

// FindAll lists findings, newest detection first by default
func (r *GormFindingRepository) FindAll(ctx context.Context, filter analytics.FindingFilter) ([]analytics.AnomalyFinding, int64, error) {
	query := r.db.WithContext(ctx).Model(&analytics.AnomalyFinding{})
	if filter.Severity != nil {
		query = query.Where("severity = ?", *filter.Severity)
	}
	if filter.IsResolved != nil {
		query = query.Where("is_resolved = ?", *filter.IsResolved)
	}
	for key, value := range filter.Filters {
		switch key {
		case "anomaly_type":
			query = query.Where("anomaly_type = ?", value)
		case "entity_type":
			query = query.Where("entity_type = ?", value)
		}
	}

	var findings []analytics.AnomalyFinding
	total, err := findPage(query, filter.Filter, FindingSortFields, "detection_date", &findings)
	if err != nil {
		return nil, 0, err
	}
	return findings, total, nil
}

// ExistsOpenForEntity reports whether an unresolved finding of this kind
// already points at the entity
func (r *GormFindingRepository) ExistsOpenForEntity(ctx context.Context, entityType analytics.EntityType, entityID uuid.UUID, kind analytics.AnomalyType) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&analytics.AnomalyFinding{}).
		Where("entity_type = ? AND entity_id = ? AND anomaly_type = ? AND is_resolved = ?", entityType, entityID, kind, false).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a finding
func (r *GormFindingRepository) Save(ctx context.Context, finding *analytics.AnomalyFinding) error {
	return r.db.WithContext(ctx).Save(finding).Error
}

// SaveBatch inserts findings in one statement per batch
func (r *GormFindingRepository) SaveBatch(ctx context.Context, findings []*analytics.AnomalyFinding) error {
	if len(findings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(findings, 100).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormFindingRepository) SaveWithLock(ctx context.Context, finding *analytics.AnomalyFinding) error {
	result := r.db.WithContext(ctx).
		Model(&analytics.AnomalyFinding{}).
		Where("id = ? AND version = ?", finding.ID, finding.Version-1).
		Updates(map[string]any{
			"is_resolved":      finding.IsResolved,
			"resolution_notes": finding.ResolutionNotes,
			"resolved_at":      finding.ResolvedAt,
			"resolved_by":      finding.ResolvedBy,
			"version":          finding.Version,
			"updated_at":       finding.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// GormForecastRepository implements analytics.ForecastRepository using GORM
type GormForecastRepository struct {
	db *gorm.DB
}

// NewGormForecastRepository creates a new GormForecastRepository
func NewGormForecastRepository(db *gorm.DB) *GormForecastRepository {
	return &GormForecastRepository{db: db}
}

// Save stores a forecast point
func (r *GormForecastRepository) Save(ctx context.Context, point *analytics.ForecastPoint) error {
	return r.db.WithContext(ctx).Save(point).Error
}

// FindLatest returns the most recently stored points in ascending date order
func (r *GormForecastRepository) FindLatest(ctx context.Context, limit int) ([]analytics.ForecastPoint, error) {
	var points []analytics.ForecastPoint
	query := r.db.WithContext(ctx).Order("created_at DESC, forecast_date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&points).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// Ensure the analytics repositories implement their interfaces
var (
	_ analytics.FindingRepository  = (*GormFindingRepository)(nil)
	_ analytics.ForecastRepository = (*GormForecastRepository)(nil)
)
