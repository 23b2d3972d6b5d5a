package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/muhasebe/internal/domain/inventory"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC)

func newTestMoveService(productRepo *MockProductRepository, moveRepo *MockStockMoveRepository) (*StockMoveService, *MockEventPublisher) {
	svc := NewStockMoveService(productRepo, moveRepo, NewNoOpTransactionScope(productRepo, moveRepo), zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	pub := &MockEventPublisher{}
	svc.SetEventPublisher(pub)
	return svc, pub
}

func newTestProduct(t *testing.T, available int64) *inventory.Product {
	t.Helper()
	p, err := inventory.NewProduct("PRD00001", "Vida M8", inventory.ProductTypeStorable, "Adet")
	require.NoError(t, err)
	require.NoError(t, p.AdjustStock(decimal.NewFromInt(available), decimal.Zero))
	return p
}

func newConfirmedMove(t *testing.T, p *inventory.Product, moveType inventory.MoveType, qty int64) *inventory.StockMove {
	t.Helper()
	m, err := inventory.NewStockMove("SM00001", p.ID, moveType, decimal.NewFromInt(qty), decimal.NewFromInt(3))
	require.NoError(t, err)
	require.NoError(t, m.Confirm())
	m.ClearDomainEvents()
	return m
}

// ==================== Create Tests ====================

func TestStockMoveService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates draft with sequence name", func(t *testing.T) {
		productRepo, moveRepo := new(MockProductRepository), new(MockStockMoveRepository)
		svc, _ := newTestMoveService(productRepo, moveRepo)
		p := newTestProduct(t, 0)

		productRepo.On("FindByID", ctx, p.ID).Return(p, nil)
		moveRepo.On("Count", ctx).Return(int64(11), nil)
		moveRepo.On("Save", ctx, mock.AnythingOfType("*inventory.StockMove")).Return(nil)

		resp, err := svc.Create(ctx, CreateStockMoveRequest{
			ProductID: p.ID,
			MoveType:  "IN",
			Quantity:  decimal.NewFromInt(4),
			UnitPrice: decimal.RequireFromString("2.5"),
		})
		require.NoError(t, err)
		assert.Equal(t, "SM00012", resp.Name)
		assert.Equal(t, "DRAFT", resp.State)
		assert.True(t, resp.TotalValue.Equal(decimal.NewFromInt(10)))
	})

	t.Run("taken name moves to the next number", func(t *testing.T) {
		productRepo, moveRepo := new(MockProductRepository), new(MockStockMoveRepository)
		svc, _ := newTestMoveService(productRepo, moveRepo)
		p := newTestProduct(t, 0)

		productRepo.On("FindByID", ctx, p.ID).Return(p, nil)
		moveRepo.On("Count", ctx).Return(int64(11), nil)
		moveRepo.On("Save", ctx, mock.MatchedBy(func(m *inventory.StockMove) bool { return m.Name == "SM00012" })).
			Return(shared.ErrAlreadyExists).Once()
		moveRepo.On("Save", ctx, mock.MatchedBy(func(m *inventory.StockMove) bool { return m.Name == "SM00013" })).
			Return(nil).Once()

		resp, err := svc.Create(ctx, CreateStockMoveRequest{ProductID: p.ID, MoveType: "IN", Quantity: decimal.NewFromInt(1)})
		require.NoError(t, err)
		assert.Equal(t, "SM00013", resp.Name)
		moveRepo.AssertNumberOfCalls(t, "Save", 2)
	})

	t.Run("gives up when every name is taken", func(t *testing.T) {
		productRepo, moveRepo := new(MockProductRepository), new(MockStockMoveRepository)
		svc, _ := newTestMoveService(productRepo, moveRepo)
		p := newTestProduct(t, 0)

		productRepo.On("FindByID", ctx, p.ID).Return(p, nil)
		moveRepo.On("Count", ctx).Return(int64(0), nil)
		moveRepo.On("Save", ctx, mock.AnythingOfType("*inventory.StockMove")).Return(shared.ErrAlreadyExists)

		_, err := svc.Create(ctx, CreateStockMoveRequest{ProductID: p.ID, MoveType: "IN", Quantity: decimal.NewFromInt(1)})
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
		moveRepo.AssertNumberOfCalls(t, "Save", maxNameAttempts)
	})

	t.Run("unknown product", func(t *testing.T) {
		productRepo, moveRepo := new(MockProductRepository), new(MockStockMoveRepository)
		svc, _ := newTestMoveService(productRepo, moveRepo)
		id := uuid.New()
		productRepo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := svc.Create(ctx, CreateStockMoveRequest{ProductID: id, MoveType: "IN", Quantity: decimal.NewFromInt(1)})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		moveRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

// ==================== Execute Tests ====================

func TestStockMoveService_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("receipt increases stock", func(t *testing.T) {
		productRepo, moveRepo := new(MockProductRepository), new(MockStockMoveRepository)
		svc, pub := newTestMoveService(productRepo, moveRepo)
		p := newTestProduct(t, 5)
		m := newConfirmedMove(t, p, inventory.MoveTypeIn, 10)

		moveRepo.On("FindByID", ctx, m.ID).Return(m, nil)
		productRepo.On("FindByIDForUpdate", ctx, p.ID).Return(p, nil)
		productRepo.On("SaveWithLock", ctx, p).Return(nil)
		moveRepo.On("SaveWithLock", ctx, m).Return(nil)

		resp, err := svc.Execute(ctx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, "DONE", resp.Move.State)
		assert.Equal(t, fixedNow, *resp.Move.DoneDate)
		assert.True(t, resp.Product.QtyAvailable.Equal(decimal.NewFromInt(15)))
		assert.True(t, resp.Product.VirtualAvailable.Equal(decimal.NewFromInt(15)))
		assert.Len(t, pub.GetEventsByType(inventory.EventTypeStockMoveExecuted), 1)
		productRepo.AssertExpectations(t)
		moveRepo.AssertExpectations(t)
	})

	t.Run("draft move is rejected and nothing is saved", func(t *testing.T) {
		productRepo, moveRepo := new(MockProductRepository), new(MockStockMoveRepository)
		svc, _ := newTestMoveService(productRepo, moveRepo)
		p := newTestProduct(t, 5)
		m, err := inventory.NewStockMove("SM00002", p.ID, inventory.MoveTypeIn, decimal.NewFromInt(1), decimal.Zero)
		require.NoError(t, err)

		moveRepo.On("FindByID", ctx, m.ID).Return(m, nil)
		productRepo.On("FindByIDForUpdate", ctx, p.ID).Return(p, nil)

		_, err = svc.Execute(ctx, m.ID)
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
		assert.True(t, p.QtyAvailable.Equal(decimal.NewFromInt(5)))
		productRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("missing product", func(t *testing.T) {
		productRepo, moveRepo := new(MockProductRepository), new(MockStockMoveRepository)
		svc, _ := newTestMoveService(productRepo, moveRepo)
		p := newTestProduct(t, 5)
		m := newConfirmedMove(t, p, inventory.MoveTypeOut, 1)

		moveRepo.On("FindByID", ctx, m.ID).Return(m, nil)
		productRepo.On("FindByIDForUpdate", ctx, p.ID).Return(nil, shared.ErrNotFound)

		_, err := svc.Execute(ctx, m.ID)
		assert.Equal(t, shared.CodeNotFound, shared.CodeOf(err))
		assert.Equal(t, inventory.MoveStateConfirmed, m.State)
	})

	t.Run("version conflict is surfaced", func(t *testing.T) {
		productRepo, moveRepo := new(MockProductRepository), new(MockStockMoveRepository)
		svc, _ := newTestMoveService(productRepo, moveRepo)
		p := newTestProduct(t, 5)
		m := newConfirmedMove(t, p, inventory.MoveTypeOut, 2)

		moveRepo.On("FindByID", ctx, m.ID).Return(m, nil)
		productRepo.On("FindByIDForUpdate", ctx, p.ID).Return(p, nil)
		productRepo.On("SaveWithLock", ctx, p).Return(shared.ErrConcurrencyConflict)

		_, err := svc.Execute(ctx, m.ID)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
		moveRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

// ==================== Transition Tests ====================

func TestStockMoveService_ConfirmAndCancel(t *testing.T) {
	ctx := context.Background()
	productRepo, moveRepo := new(MockProductRepository), new(MockStockMoveRepository)
	svc, pub := newTestMoveService(productRepo, moveRepo)
	p := newTestProduct(t, 0)
	m, err := inventory.NewStockMove("SM00003", p.ID, inventory.MoveTypeIn, decimal.NewFromInt(1), decimal.Zero)
	require.NoError(t, err)

	moveRepo.On("FindByID", ctx, m.ID).Return(m, nil)
	moveRepo.On("SaveWithLock", ctx, m).Return(nil)

	resp, err := svc.Confirm(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", resp.State)

	_, err = svc.Confirm(ctx, m.ID)
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))

	resp, err = svc.Cancel(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.State)
	assert.Len(t, pub.GetEventsByType(inventory.EventTypeStockMoveCancelled), 1)
}
