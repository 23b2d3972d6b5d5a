package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormInventoryMetricsProvider implements InventoryMetricsProvider by
// aggregating the products table directly.
type GormInventoryMetricsProvider struct {
	db *gorm.DB
}

// NewGormInventoryMetricsProvider creates a new GormInventoryMetricsProvider.
func NewGormInventoryMetricsProvider(db *gorm.DB) *GormInventoryMetricsProvider {
	return &GormInventoryMetricsProvider{db: db}
}

// LowStockCount counts active products whose forecast stock reached the reorder point.
func (p *GormInventoryMetricsProvider) LowStockCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("products").
		Where("is_active = ?", true).
		Where("reorder_point > 0 AND virtual_available <= reorder_point").
		Count(&count).Error
	return count, err
}

// TotalStockValue sums on-hand quantity at cost.
func (p *GormInventoryMetricsProvider) TotalStockValue(ctx context.Context) (decimal.Decimal, error) {
	var result struct {
		Value decimal.Decimal
	}
	err := p.db.WithContext(ctx).
		Table("products").
		Select("COALESCE(SUM(qty_available * cost_price), 0) AS value").
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Value, nil
}

var _ InventoryMetricsProvider = (*GormInventoryMetricsProvider)(nil)
