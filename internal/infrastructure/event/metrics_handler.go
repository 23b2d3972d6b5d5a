package event

import (
	"context"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/analytics"
	"github.com/erp/muhasebe/internal/domain/inventory"
	"github.com/erp/muhasebe/internal/domain/sales"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BusinessRecorder receives business counters derived from domain events.
// telemetry.BusinessMetrics implements it.
type BusinessRecorder interface {
	RecordInvoiceCreated(ctx context.Context, invoiceType string, total decimal.Decimal)
	RecordSalesOrderConfirmed(ctx context.Context, total decimal.Decimal)
	RecordStockMoveExecuted(ctx context.Context, moveType string)
	RecordAnomalyDetected(ctx context.Context, anomalyType, severity string)
}

// MetricsHandler translates domain events into business metrics.
type MetricsHandler struct {
	recorder BusinessRecorder
}

// NewMetricsHandler creates a metrics handler
func NewMetricsHandler(recorder BusinessRecorder) *MetricsHandler {
	return &MetricsHandler{recorder: recorder}
}

// Handle records the counters for evt. Unknown events are ignored.
func (h *MetricsHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	switch e := evt.(type) {
	case *accounting.InvoiceCreatedEvent:
		h.recorder.RecordInvoiceCreated(ctx, string(e.InvoiceType), e.TotalAmount)
	case *sales.SalesOrderConfirmedEvent:
		h.recorder.RecordSalesOrderConfirmed(ctx, e.AmountTotal)
	case *inventory.StockMoveExecutedEvent:
		h.recorder.RecordStockMoveExecuted(ctx, string(e.MoveType))
	case *analytics.AnomalyDetectedEvent:
		h.recorder.RecordAnomalyDetected(ctx, string(e.AnomalyType), string(e.Severity))
	}
	return nil
}

// EventTypes returns the events that carry business counters
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		accounting.EventTypeInvoiceCreated,
		sales.EventTypeSalesOrderConfirmed,
		inventory.EventTypeStockMoveExecuted,
		analytics.EventTypeAnomalyDetected,
	}
}

var _ shared.EventHandler = (*MetricsHandler)(nil)
