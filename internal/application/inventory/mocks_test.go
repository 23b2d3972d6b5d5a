package inventory

import (
	"context"
	"sync"

	"github.com/erp/muhasebe/internal/domain/inventory"
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

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCode(ctx context.Context, code string) (*inventory.Product, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]inventory.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) FindBelowReorderPoint(ctx context.Context, limit int) ([]inventory.Product, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]inventory.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *inventory.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) SaveWithLock(ctx context.Context, product *inventory.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) TotalStockValue(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockStockMoveRepository is a mock implementation of StockMoveRepository
type MockStockMoveRepository struct {
	mock.Mock
}

func (m *MockStockMoveRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockMove, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockMove), args.Error(1)
}

func (m *MockStockMoveRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.StockMove, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]inventory.StockMove), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockMoveRepository) Save(ctx context.Context, move *inventory.StockMove) error {
	return m.Called(ctx, move).Error(0)
}

func (m *MockStockMoveRepository) SaveWithLock(ctx context.Context, move *inventory.StockMove) error {
	return m.Called(ctx, move).Error(0)
}

func (m *MockStockMoveRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockMoveRepository) CountByState(ctx context.Context) (map[inventory.MoveState]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[inventory.MoveState]int64), args.Error(1)
}

// MockLocationRepository is a mock implementation of LocationRepository
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockLocation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockLocation), args.Error(1)
}

func (m *MockLocationRepository) FindAll(ctx context.Context) ([]inventory.StockLocation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]inventory.StockLocation), args.Error(1)
}

func (m *MockLocationRepository) Save(ctx context.Context, location *inventory.StockLocation) error {
	return m.Called(ctx, location).Error(0)
}

func (m *MockLocationRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
