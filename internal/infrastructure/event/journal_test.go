package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/analytics"
	"github.com/erp/muhasebe/internal/domain/inventory"
	"github.com/erp/muhasebe/internal/domain/sales"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/erp/muhasebe/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupJournalDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&StoredEvent{}))
	return db
}

func invoiceCreated(aggID uuid.UUID, total string) *accounting.InvoiceCreatedEvent {
	return &accounting.InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(accounting.EventTypeInvoiceCreated, accounting.AggregateTypeInvoice, aggID),
		Number:          "FTR-2024-0001",
		InvoiceType:     accounting.InvoiceTypeSales,
		TotalAmount:     decimal.RequireFromString(total),
		LineCount:       2,
	}
}

// ==================== Serializer Tests ====================

func TestDomainEventSerializer_RoundTrip(t *testing.T) {
	s := NewDomainEventSerializer()

	evt := &inventory.StockMoveExecutedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(inventory.EventTypeStockMoveExecuted, inventory.AggregateTypeStockMove, uuid.New()),
		MoveName:        "SM00001",
		ProductID:       uuid.New(),
		MoveType:        inventory.MoveTypeOut,
		Quantity:        decimal.NewFromInt(3),
		TotalValue:      decimal.RequireFromString("37.50"),
		BelowReorder:    true,
	}

	data, err := s.Serialize(evt)
	require.NoError(t, err)

	decoded, err := s.Deserialize(inventory.EventTypeStockMoveExecuted, data)
	require.NoError(t, err)

	got, ok := decoded.(*inventory.StockMoveExecutedEvent)
	require.True(t, ok)
	assert.Equal(t, evt.EventID(), got.EventID())
	assert.Equal(t, evt.AggregateID(), got.AggregateID())
	assert.Equal(t, "SM00001", got.MoveName)
	assert.True(t, got.TotalValue.Equal(evt.TotalValue))
	assert.True(t, got.BelowReorder)
}

func TestDomainEventSerializer_RegisteredTypes(t *testing.T) {
	s := NewDomainEventSerializer()

	assert.Equal(t, []string{
		analytics.EventTypeAnomalyDetected,
		analytics.EventTypeAnomalyResolved,
		accounting.EventTypeInvoiceCreated,
		accounting.EventTypeInvoiceStatusChanged,
		sales.EventTypeSalesOrderConfirmed,
		inventory.EventTypeStockMoveCancelled,
		inventory.EventTypeStockMoveConfirmed,
		inventory.EventTypeStockMoveExecuted,
	}, s.RegisteredTypes())
}

func TestEventSerializer_UnknownType(t *testing.T) {
	s := NewEventSerializer()

	assert.False(t, s.IsRegistered("InvoiceCreated"))
	_, err := s.Deserialize("InvoiceCreated", []byte(`{}`))
	assert.ErrorContains(t, err, "unknown event type")
}

// ==================== Journal Tests ====================

func TestGormEventJournal_AppendAndFind(t *testing.T) {
	db := setupJournalDB(t)
	journal := NewGormEventJournal(db, nil)
	ctx := context.Background()

	invoiceID := uuid.New()
	created := invoiceCreated(invoiceID, "1180.00")
	changed := &accounting.InvoiceStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(accounting.EventTypeInvoiceStatusChanged, accounting.AggregateTypeInvoice, invoiceID),
		Number:          "FTR-2024-0001",
		From:            accounting.InvoiceStatusDraft,
		To:              accounting.InvoiceStatusPending,
	}
	changed.Timestamp = created.Timestamp.Add(time.Second)
	other := invoiceCreated(uuid.New(), "10.00")

	require.NoError(t, journal.Append(ctx, created, changed, other))

	rows, err := journal.FindByAggregate(ctx, accounting.AggregateTypeInvoice, invoiceID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, accounting.EventTypeInvoiceCreated, rows[0].EventType)
	assert.Equal(t, accounting.EventTypeInvoiceStatusChanged, rows[1].EventType)

	loaded, err := journal.Load(rows[0])
	require.NoError(t, err)
	got, ok := loaded.(*accounting.InvoiceCreatedEvent)
	require.True(t, ok)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("1180.00")))
}

func TestGormEventJournal_AppendIsIdempotentByEventID(t *testing.T) {
	db := setupJournalDB(t)
	journal := NewGormEventJournal(db, nil)
	ctx := context.Background()

	evt := invoiceCreated(uuid.New(), "50.00")
	require.NoError(t, journal.Append(ctx, evt))
	require.NoError(t, journal.Append(ctx, evt))

	var count int64
	require.NoError(t, db.Model(&StoredEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	row, err := journal.FindByEventID(ctx, evt.EventID())
	require.NoError(t, err)
	assert.Equal(t, evt.AggregateID(), row.AggregateID)
}

func TestGormEventJournal_FindByEventID_NotFound(t *testing.T) {
	journal := NewGormEventJournal(setupJournalDB(t), nil)

	_, err := journal.FindByEventID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestJournalHandler_ViaBus(t *testing.T) {
	db := setupJournalDB(t)
	journal := NewGormEventJournal(db, nil)
	bus := startedBus(t)
	bus.Subscribe(NewJournalHandler(journal, zap.NewNop()))

	orderID := uuid.New()
	require.NoError(t, bus.Publish(context.Background(), &sales.SalesOrderConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(sales.EventTypeSalesOrderConfirmed, sales.AggregateTypeSalesOrder, orderID),
		Name:            "SO00001",
		AmountTotal:     decimal.NewFromInt(250),
	}))

	rows, err := journal.FindByAggregate(context.Background(), sales.AggregateTypeSalesOrder, orderID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].Payload, `"SO00001"`)
}

// ==================== Metrics Handler Tests ====================

type recordedCall struct {
	name   string
	labels []string
	amount decimal.Decimal
}

type fakeRecorder struct {
	calls []recordedCall
}

func (f *fakeRecorder) RecordInvoiceCreated(ctx context.Context, invoiceType string, total decimal.Decimal) {
	f.calls = append(f.calls, recordedCall{"invoice", []string{invoiceType}, total})
}

func (f *fakeRecorder) RecordSalesOrderConfirmed(ctx context.Context, total decimal.Decimal) {
	f.calls = append(f.calls, recordedCall{"sales_order", nil, total})
}

func (f *fakeRecorder) RecordStockMoveExecuted(ctx context.Context, moveType string) {
	f.calls = append(f.calls, recordedCall{"stock_move", []string{moveType}, decimal.Zero})
}

func (f *fakeRecorder) RecordAnomalyDetected(ctx context.Context, anomalyType, severity string) {
	f.calls = append(f.calls, recordedCall{"anomaly", []string{anomalyType, severity}, decimal.Zero})
}

func TestMetricsHandler(t *testing.T) {
	recorder := &fakeRecorder{}
	bus := startedBus(t)
	handler := NewMetricsHandler(recorder)
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(),
		invoiceCreated(uuid.New(), "118.00"),
		&inventory.StockMoveExecutedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(inventory.EventTypeStockMoveExecuted, inventory.AggregateTypeStockMove, uuid.New()),
			MoveType:        inventory.MoveTypeIn,
		},
		&analytics.AnomalyDetectedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(analytics.EventTypeAnomalyDetected, analytics.AggregateTypeAnomaly, uuid.New()),
			AnomalyType:     analytics.AnomalyTypeSuspiciousAmount,
			Severity:        analytics.SeverityHigh,
		},
		&inventory.StockMoveCancelledEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(inventory.EventTypeStockMoveCancelled, inventory.AggregateTypeStockMove, uuid.New()),
		},
	))

	require.Len(t, recorder.calls, 3)
	assert.Equal(t, "invoice", recorder.calls[0].name)
	assert.Equal(t, []string{string(accounting.InvoiceTypeSales)}, recorder.calls[0].labels)
	assert.True(t, recorder.calls[0].amount.Equal(decimal.NewFromInt(118)))
	assert.Equal(t, []string{string(inventory.MoveTypeIn)}, recorder.calls[1].labels)
	assert.Equal(t, []string{"SUSPICIOUS_AMOUNT", "HIGH"}, recorder.calls[2].labels)
}

// ==================== Idempotent Handler Tests ====================

func TestIdempotentHandler_SkipsRepublishedEvents(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	journalSide := newTestHandler()
	metricsSide := newTestHandler()
	journalWrapped := NewIdempotentHandler("journal", journalSide, store, zap.NewNop())
	metricsWrapped := NewIdempotentHandler("metrics", metricsSide, store, zap.NewNop())

	bus := startedBus(t)
	bus.Subscribe(journalWrapped)
	bus.Subscribe(metricsWrapped)

	evt := newTestEvent("InvoiceCreated")
	require.NoError(t, bus.Publish(context.Background(), evt))
	require.NoError(t, bus.Publish(context.Background(), evt))

	assert.Len(t, journalSide.getHandled(), 1)
	assert.Len(t, metricsSide.getHandled(), 1)
	assert.Equal(t, IdempotencyStats{EventsProcessed: 1, EventsDuplicate: 1}, journalWrapped.Stats())
}

func TestIdempotentHandler_FailureReleasesKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	inner := newTestHandler()
	inner.err = errors.New("db locked")
	wrapped := NewIdempotentHandler("journal", inner, store, zap.NewNop())

	evt := newTestEvent("InvoiceCreated")
	assert.Error(t, wrapped.Handle(context.Background(), evt))

	inner.err = nil
	assert.NoError(t, wrapped.Handle(context.Background(), evt))
	assert.Len(t, inner.getHandled(), 2)
	assert.Equal(t, int64(1), wrapped.Stats().EventsFailed)
	assert.Equal(t, int64(1), wrapped.Stats().EventsProcessed)
}

func TestIdempotentHandler_Disabled(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	inner := newTestHandler("InvoiceCreated")
	wrapped := NewIdempotentHandler("journal", inner, store, zap.NewNop(),
		WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}),
	)

	evt := newTestEvent("InvoiceCreated")
	require.NoError(t, wrapped.Handle(context.Background(), evt))
	require.NoError(t, wrapped.Handle(context.Background(), evt))

	assert.Len(t, inner.getHandled(), 2)
	assert.Equal(t, []string{"InvoiceCreated"}, wrapped.EventTypes())
}
