package persistence

import (
	"context"
	"errors"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPartnerRepository implements PartnerRepository using GORM
type GormPartnerRepository struct {
	db *gorm.DB
}

// NewGormPartnerRepository creates a new GormPartnerRepository
func NewGormPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{db: db}
}

// FindByID finds a partner by ID
func (r *GormPartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.Partner, error) {
	var partner accounting.Partner
	if err := r.db.WithContext(ctx).First(&partner, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &partner, nil
}

// FindByCode finds a partner by code
func (r *GormPartnerRepository) FindByCode(ctx context.Context, code string) (*accounting.Partner, error) {
	var partner accounting.Partner
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&partner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &partner, nil
}

// FindAll finds partners matching the filter
func (r *GormPartnerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]accounting.Partner, int64, error) {
	query := r.db.WithContext(ctx).Model(&accounting.Partner{})
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR tax_number LIKE ?", pattern, pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "partner_type":
			query = query.Where("partner_type = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
		}
	}

	var partners []accounting.Partner
	total, err := findPage(query, filter, PartnerSortFields, "code", &partners)
	if err != nil {
		return nil, 0, err
	}
	return partners, total, nil
}

// Save creates or updates a partner
func (r *GormPartnerRepository) Save(ctx context.Context, partner *accounting.Partner) error {
	return r.db.WithContext(ctx).Save(partner).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormPartnerRepository) SaveWithLock(ctx context.Context, partner *accounting.Partner) error {
	result := r.db.WithContext(ctx).
		Model(&accounting.Partner{}).
		Where("id = ? AND version = ?", partner.ID, partner.Version-1).
		Updates(map[string]any{
			"name":                   partner.Name,
			"partner_type":           partner.PartnerType,
			"tax_number":             partner.TaxNumber,
			"tax_office":             partner.TaxOffice,
			"email":                  partner.Email,
			"phone":                  partner.Phone,
			"credit_limit":           partner.CreditLimit,
			"current_balance":        partner.CurrentBalance,
			"credit_score":           partner.CreditScore,
			"payment_behavior_score": partner.PaymentBehaviorScore,
			"is_active":              partner.IsActive,
			"version":                partner.Version,
			"updated_at":             partner.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormPartnerRepository implements PartnerRepository
var _ accounting.PartnerRepository = (*GormPartnerRepository)(nil)
