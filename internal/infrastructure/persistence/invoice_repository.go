package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func linesBySequence(db *gorm.DB) *gorm.DB {
	return db.Order("sequence ASC, created_at ASC")
}

// FindByID finds an invoice by ID with its lines
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.Invoice, error) {
	var invoice accounting.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Lines", linesBySequence).
		First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindByNumber finds an invoice by its number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, number string) (*accounting.Invoice, error) {
	var invoice accounting.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Lines", linesBySequence).
		Where("number = ?", number).
		First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindAll finds invoices matching the filter. Lines are not loaded.
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]accounting.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&accounting.Invoice{})
	for key, value := range filter.Filters {
		switch key {
		case "start_date":
			query = query.Where("invoice_date >= ?", value)
		case "end_date":
			query = query.Where("invoice_date <= ?", value)
		case "partner_id":
			query = query.Where("partner_id = ?", value)
		case "invoice_type":
			query = query.Where("invoice_type = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "is_anomaly":
			query = query.Where("is_anomaly = ?", value)
		}
	}
	if filter.Search != "" {
		query = query.Where("LOWER(number) LIKE ?", likePattern(filter.Search))
	}

	var invoices []accounting.Invoice
	total, err := findPage(query, filter, InvoiceSortFields, "invoice_date", &invoices)
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// FindBetween returns invoices dated within [start, end] with their lines
func (r *GormInvoiceRepository) FindBetween(ctx context.Context, start, end time.Time) ([]accounting.Invoice, error) {
	var invoices []accounting.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Lines", linesBySequence).
		Where("invoice_date >= ? AND invoice_date <= ?", start, end).
		Order("invoice_date ASC, number ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// ExistsByNumber checks if an invoice number is taken
func (r *GormInvoiceRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&accounting.Invoice{}).
		Where("number = ?", number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates an invoice with its lines in one transaction
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *accounting.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(invoice).Error; err != nil {
			return err
		}
		return saveInvoiceLines(tx, invoice)
	})
}

// SaveWithLock updates the invoice header with optimistic locking and
// writes its lines in the same transaction
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *accounting.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&accounting.Invoice{}).
			Where("id = ? AND version = ?", invoice.ID, invoice.Version-1).
			Updates(map[string]any{
				"status":             invoice.Status,
				"due_date":           invoice.DueDate,
				"subtotal":           invoice.Subtotal,
				"vat_amount":         invoice.VATAmount,
				"withholding_amount": invoice.WithholdingAmount,
				"total_amount":       invoice.TotalAmount,
				"paid_amount":        invoice.PaidAmount,
				"notes":              invoice.Notes,
				"anomaly_score":      invoice.AnomalyScore,
				"is_anomaly":         invoice.IsAnomaly,
				"version":            invoice.Version,
				"updated_at":         invoice.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return saveInvoiceLines(tx, invoice)
	})
}

func saveInvoiceLines(tx *gorm.DB, invoice *accounting.Invoice) error {
	lineIDs := make([]uuid.UUID, len(invoice.Lines))
	for i := range invoice.Lines {
		lineIDs[i] = invoice.Lines[i].ID
	}
	stale := tx.Where("invoice_id = ?", invoice.ID)
	if len(lineIDs) > 0 {
		stale = stale.Where("id NOT IN ?", lineIDs)
	}
	if err := stale.Delete(&accounting.InvoiceLine{}).Error; err != nil {
		return err
	}

	for i := range invoice.Lines {
		invoice.Lines[i].InvoiceID = invoice.ID
		if err := tx.Save(&invoice.Lines[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ accounting.InvoiceRepository = (*GormInvoiceRepository)(nil)
