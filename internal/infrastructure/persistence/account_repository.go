package persistence

import (
	"context"
	"errors"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountRepository implements AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByID finds an account by ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.Account, error) {
	var account accounting.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindByCode finds an account by its chart code
func (r *GormAccountRepository) FindByCode(ctx context.Context, code string) (*accounting.Account, error) {
	var account accounting.Account
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindAll returns the whole chart of accounts ordered by code
func (r *GormAccountRepository) FindAll(ctx context.Context) ([]accounting.Account, error) {
	var accounts []accounting.Account
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// FindByTypes returns accounts of any of the given types ordered by code
func (r *GormAccountRepository) FindByTypes(ctx context.Context, types ...accounting.AccountType) ([]accounting.Account, error) {
	if len(types) == 0 {
		return []accounting.Account{}, nil
	}
	var accounts []accounting.Account
	if err := r.db.WithContext(ctx).
		Where("account_type IN ?", types).
		Order("code ASC").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Save creates or updates an account
func (r *GormAccountRepository) Save(ctx context.Context, account *accounting.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

// Ensure GormAccountRepository implements AccountRepository
var _ accounting.AccountRepository = (*GormAccountRepository)(nil)
