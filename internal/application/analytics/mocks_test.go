package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/analytics"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Create(ctx context.Context, entry *accounting.LedgerEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *MockLedgerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]accounting.LedgerEntry, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]accounting.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) FindUpTo(ctx context.Context, asOf time.Time) ([]accounting.LedgerEntry, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).([]accounting.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) FindBetween(ctx context.Context, start, end time.Time) ([]accounting.LedgerEntry, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]accounting.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) SumBetween(ctx context.Context, start, end time.Time) (decimal.Decimal, decimal.Decimal, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(decimal.Decimal), args.Get(1).(decimal.Decimal), args.Error(2)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, number string) (*accounting.Invoice, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]accounting.Invoice, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]accounting.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) FindBetween(ctx context.Context, start, end time.Time) ([]accounting.Invoice, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]accounting.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *accounting.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *accounting.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

type MockFindingRepository struct {
	mock.Mock
}

func (m *MockFindingRepository) FindByID(ctx context.Context, id uuid.UUID) (*analytics.AnomalyFinding, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analytics.AnomalyFinding), args.Error(1)
}

func (m *MockFindingRepository) FindAll(ctx context.Context, filter analytics.FindingFilter) ([]analytics.AnomalyFinding, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]analytics.AnomalyFinding), args.Get(1).(int64), args.Error(2)
}

func (m *MockFindingRepository) ExistsOpenForEntity(ctx context.Context, entityType analytics.EntityType, entityID uuid.UUID, kind analytics.AnomalyType) (bool, error) {
	args := m.Called(ctx, entityType, entityID, kind)
	return args.Bool(0), args.Error(1)
}

func (m *MockFindingRepository) Save(ctx context.Context, finding *analytics.AnomalyFinding) error {
	return m.Called(ctx, finding).Error(0)
}

func (m *MockFindingRepository) SaveBatch(ctx context.Context, findings []*analytics.AnomalyFinding) error {
	return m.Called(ctx, findings).Error(0)
}

func (m *MockFindingRepository) SaveWithLock(ctx context.Context, finding *analytics.AnomalyFinding) error {
	return m.Called(ctx, finding).Error(0)
}

type MockForecastRepository struct {
	mock.Mock
}

func (m *MockForecastRepository) Save(ctx context.Context, point *analytics.ForecastPoint) error {
	return m.Called(ctx, point).Error(0)
}

func (m *MockForecastRepository) FindLatest(ctx context.Context, limit int) ([]analytics.ForecastPoint, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]analytics.ForecastPoint), args.Error(1)
}

// stubScorer flags the records whose amount feature is above cut
type stubScorer struct {
	trained bool
	cut     float64
	fitted  int
}

func (s *stubScorer) Trained() bool { return s.trained }

func (s *stubScorer) Fit(features [][]float64) error {
	s.trained = true
	s.fitted = len(features)
	return nil
}

func (s *stubScorer) Score(features [][]float64) ([]analytics.ScoredPoint, error) {
	out := make([]analytics.ScoredPoint, len(features))
	for i, row := range features {
		out[i] = analytics.ScoredPoint{Raw: -row[0], Outlier: row[0] > s.cut}
	}
	return out, nil
}

// stubModel returns a fixed net flow for every future day
type stubModel struct {
	trained bool
	net     decimal.Decimal
	history int
}

func (m *stubModel) Trained() bool { return m.trained }

func (m *stubModel) Fit(ctx context.Context, history []analytics.DailyFlow) error {
	m.trained = true
	m.history = len(history)
	return nil
}

func (m *stubModel) Predict(ctx context.Context, history []analytics.DailyFlow, asOf time.Time, daysAhead int) ([]analytics.ForecastPoint, error) {
	points := make([]analytics.ForecastPoint, daysAhead)
	for i := range points {
		points[i] = analytics.ForecastPoint{
			ForecastDate:     asOf.AddDate(0, 0, i+1),
			PredictedBalance: m.net,
			ModelType:        "stub",
		}
	}
	return points, nil
}
