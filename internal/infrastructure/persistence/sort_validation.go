package persistence

import (
	"strings"

	"github.com/erp/muhasebe/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":                true,
	"created_at":        true,
	"updated_at":        true,
	"code":              true,
	"name":              true,
	"list_price":        true,
	"qty_available":     true,
	"virtual_available": true,
}

// StockMoveSortFields contains allowed sort fields for stock moves
var StockMoveSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"name":           true,
	"state":          true,
	"scheduled_date": true,
	"done_date":      true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"number":       true,
	"invoice_date": true,
	"due_date":     true,
	"total_amount": true,
}

// LedgerSortFields contains allowed sort fields for ledger entries
var LedgerSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"transaction_date": true,
	"debit":            true,
	"credit":           true,
}

// PartnerSortFields contains allowed sort fields for partners
var PartnerSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"code":            true,
	"name":            true,
	"current_balance": true,
}

// SalesOrderSortFields contains allowed sort fields for sales orders
var SalesOrderSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"name":         true,
	"order_date":   true,
	"amount_total": true,
}

// FindingSortFields contains allowed sort fields for anomaly findings
var FindingSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"detection_date": true,
	"anomaly_score":  true,
	"severity":       true,
}

// applyPaging orders by a whitelisted column and applies offset/limit
func applyPaging(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// likePattern builds a case-insensitive LIKE argument
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// findPage counts the filtered rows, then loads one ordered page into dest
func findPage(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string, dest any) (int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	if err := applyPaging(query.Session(&gorm.Session{}), filter, allowed, defaultField).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}
