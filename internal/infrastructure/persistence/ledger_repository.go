package persistence

import (
	"context"
	"time"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLedgerRepository implements LedgerRepository using GORM.
// Entries are insert-only.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Create inserts a ledger entry
func (r *GormLedgerRepository) Create(ctx context.Context, entry *accounting.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindAll finds ledger entries matching the filter
func (r *GormLedgerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]accounting.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&accounting.LedgerEntry{})
	for key, value := range filter.Filters {
		switch key {
		case "account_id":
			query = query.Where("account_id = ?", value)
		case "start_date":
			query = query.Where("transaction_date >= ?", value)
		case "end_date":
			query = query.Where("transaction_date <= ?", value)
		case "invoice_id":
			query = query.Where("invoice_id = ?", value)
		}
	}

	var entries []accounting.LedgerEntry
	total, err := findPage(query, filter, LedgerSortFields, "transaction_date", &entries)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// FindUpTo returns entries dated on or before asOf, oldest first
func (r *GormLedgerRepository) FindUpTo(ctx context.Context, asOf time.Time) ([]accounting.LedgerEntry, error) {
	var entries []accounting.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("transaction_date <= ?", asOf).
		Order("transaction_date ASC, created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindBetween returns entries dated within [start, end], oldest first
func (r *GormLedgerRepository) FindBetween(ctx context.Context, start, end time.Time) ([]accounting.LedgerEntry, error) {
	var entries []accounting.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("transaction_date >= ? AND transaction_date <= ?", start, end).
		Order("transaction_date ASC, created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// SumBetween returns Σdebit and Σcredit of entries dated within [start, end]
func (r *GormLedgerRepository) SumBetween(ctx context.Context, start, end time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var row struct {
		Debit  decimal.Decimal
		Credit decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&accounting.LedgerEntry{}).
		Select("COALESCE(SUM(debit), 0) AS debit, COALESCE(SUM(credit), 0) AS credit").
		Where("transaction_date >= ? AND transaction_date <= ?", start, end).
		Scan(&row).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return row.Debit, row.Credit, nil
}

// Ensure GormLedgerRepository implements LedgerRepository
var _ accounting.LedgerRepository = (*GormLedgerRepository)(nil)
