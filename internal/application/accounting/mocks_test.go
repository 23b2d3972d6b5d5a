package accounting

import (
	"context"
	"sync"
	"time"

	"github.com/erp/muhasebe/internal/domain/accounting"
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

// MockInvoiceRepository is a mock implementation of InvoiceRepository
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

// MockPartnerRepository is a mock implementation of PartnerRepository
type MockPartnerRepository struct {
	mock.Mock
}

func (m *MockPartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.Partner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Partner), args.Error(1)
}

func (m *MockPartnerRepository) FindByCode(ctx context.Context, code string) (*accounting.Partner, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Partner), args.Error(1)
}

func (m *MockPartnerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]accounting.Partner, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]accounting.Partner), args.Get(1).(int64), args.Error(2)
}

func (m *MockPartnerRepository) Save(ctx context.Context, partner *accounting.Partner) error {
	return m.Called(ctx, partner).Error(0)
}

func (m *MockPartnerRepository) SaveWithLock(ctx context.Context, partner *accounting.Partner) error {
	return m.Called(ctx, partner).Error(0)
}

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*accounting.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByCode(ctx context.Context, code string) (*accounting.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounting.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAll(ctx context.Context) ([]accounting.Account, error) {
	args := m.Called(ctx)
	return args.Get(0).([]accounting.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByTypes(ctx context.Context, types ...accounting.AccountType) ([]accounting.Account, error) {
	args := m.Called(ctx, types)
	return args.Get(0).([]accounting.Account), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, account *accounting.Account) error {
	return m.Called(ctx, account).Error(0)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
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
