package analytics

import (
	"context"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
)

// FindingFilter narrows anomaly listings
type FindingFilter struct {
	shared.Filter
	Severity   *Severity
	IsResolved *bool
}

// FindingRepository persists anomaly findings
type FindingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*AnomalyFinding, error)
	FindAll(ctx context.Context, filter FindingFilter) ([]AnomalyFinding, int64, error)
	ExistsOpenForEntity(ctx context.Context, entityType EntityType, entityID uuid.UUID, kind AnomalyType) (bool, error)
	Save(ctx context.Context, finding *AnomalyFinding) error
	SaveBatch(ctx context.Context, findings []*AnomalyFinding) error
	SaveWithLock(ctx context.Context, finding *AnomalyFinding) error
}

// ForecastRepository persists forecast points the caller chose to keep
type ForecastRepository interface {
	Save(ctx context.Context, point *ForecastPoint) error
	FindLatest(ctx context.Context, limit int) ([]ForecastPoint, error)
}
