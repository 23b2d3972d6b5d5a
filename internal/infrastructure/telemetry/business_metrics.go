package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks document volume, stock movement and anomaly
// activity of the muhasebe service.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	invoicesCreatedTotal   *Counter
	invoiceAmountTotal     *Counter
	stockMovesExecuted     *Counter
	salesOrdersConfirmed   *Counter
	salesOrderAmountTotal  *Counter
	anomaliesDetectedTotal *Counter
	estimatorDuration      *Histogram

	lowStockCount *Gauge
	stockValue    *FloatGauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	inventoryProvider InventoryMetricsProvider
}

// InventoryMetricsProvider supplies inventory aggregates for the periodic
// gauges without tying telemetry to the inventory domain.
type InventoryMetricsProvider interface {
	// LowStockCount counts products at or below their reorder point
	LowStockCount(ctx context.Context) (int64, error)

	// TotalStockValue sums qty_available × cost_price over all products
	TotalStockValue(ctx context.Context) (decimal.Decimal, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	InventoryProvider InventoryMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:             cfg.Meter,
		logger:            logger,
		stopChan:          make(chan struct{}),
		inventoryProvider: cfg.InventoryProvider,
	}

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&bm.invoicesCreatedTotal, "muhasebe_invoices_created_total", "Total number of invoices created", "{invoices}"},
		{&bm.invoiceAmountTotal, "muhasebe_invoice_amount_total", "Total invoiced amount in kuruş", "{kurus}"},
		{&bm.stockMovesExecuted, "muhasebe_stock_moves_executed_total", "Total number of stock moves applied to stock", "{moves}"},
		{&bm.salesOrdersConfirmed, "muhasebe_sales_orders_confirmed_total", "Total number of confirmed sales orders", "{orders}"},
		{&bm.salesOrderAmountTotal, "muhasebe_sales_order_amount_total", "Total confirmed sales order amount in kuruş", "{kurus}"},
		{&bm.anomaliesDetectedTotal, "muhasebe_anomalies_detected_total", "Total number of anomaly findings recorded", "{findings}"},
	}

	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	bm.estimatorDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "muhasebe_estimator_duration_seconds",
		Description: "Duration of forecast and outlier estimator runs",
		Unit:        "s",
		Boundaries:  EstimatorDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	bm.lowStockCount, err = NewGauge(
		cfg.Meter,
		"muhasebe_inventory_low_stock_count",
		"Number of products at or below their reorder point",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	bm.stockValue, err = NewFloatGauge(
		cfg.Meter,
		"muhasebe_inventory_stock_value",
		"Total on-hand stock value at cost",
		"{TRY}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// toKurus converts a lira amount into whole kuruş
func toKurus(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// =============================================================================
// Document Metrics
// =============================================================================

// RecordInvoiceCreated records an invoice creation with its total.
func (bm *BusinessMetrics) RecordInvoiceCreated(ctx context.Context, invoiceType string, total decimal.Decimal) {
	attrs := []attribute.KeyValue{AttrInvoiceType.String(invoiceType)}
	bm.invoicesCreatedTotal.Inc(ctx, attrs...)
	bm.invoiceAmountTotal.Add(ctx, toKurus(total), attrs...)
}

// RecordSalesOrderConfirmed records a confirmed sales order with its total.
func (bm *BusinessMetrics) RecordSalesOrderConfirmed(ctx context.Context, total decimal.Decimal) {
	bm.salesOrdersConfirmed.Inc(ctx)
	bm.salesOrderAmountTotal.Add(ctx, toKurus(total))
}

// =============================================================================
// Inventory Metrics
// =============================================================================

// RecordStockMoveExecuted records a stock move applied to product stock.
func (bm *BusinessMetrics) RecordStockMoveExecuted(ctx context.Context, moveType string) {
	bm.stockMovesExecuted.Inc(ctx, AttrMoveType.String(moveType))
}

// RecordLowStockCount records the number of products at or below reorder point.
func (bm *BusinessMetrics) RecordLowStockCount(ctx context.Context, count int64) {
	bm.lowStockCount.Record(ctx, count)
}

// RecordStockValue records the current stock value.
func (bm *BusinessMetrics) RecordStockValue(ctx context.Context, value decimal.Decimal) {
	bm.stockValue.Record(ctx, value.InexactFloat64())
}

// =============================================================================
// Analytics Metrics
// =============================================================================

// RecordAnomalyDetected records a new anomaly finding.
func (bm *BusinessMetrics) RecordAnomalyDetected(ctx context.Context, anomalyType, severity string) {
	bm.anomaliesDetectedTotal.Inc(ctx,
		AttrAnomalyType.String(anomalyType),
		AttrSeverity.String(severity),
	)
}

// RecordEstimatorRun records how long an estimator run took.
func (bm *BusinessMetrics) RecordEstimatorRun(ctx context.Context, estimator string, d time.Duration) {
	bm.estimatorDuration.RecordDuration(ctx, d, attribute.String("estimator", estimator))
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts collecting the inventory gauges every
// interval (default 5 minutes). Non-blocking; Stop ends the loop.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.CollectInventoryMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			bm.CollectInventoryMetrics(ctx)
		}
	}
}

// CollectInventoryMetrics queries the provider once and records the gauges.
func (bm *BusinessMetrics) CollectInventoryMetrics(ctx context.Context) {
	if bm.inventoryProvider == nil {
		bm.logger.Debug("No inventory provider configured, skipping inventory metrics collection")
		return
	}

	lowStock, err := bm.inventoryProvider.LowStockCount(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get low stock count", zap.Error(err))
	} else {
		bm.RecordLowStockCount(ctx, lowStock)
	}

	value, err := bm.inventoryProvider.TotalStockValue(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get stock value", zap.Error(err))
	} else {
		bm.RecordStockValue(ctx, value)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
