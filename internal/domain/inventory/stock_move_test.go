package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestProduct(t *testing.T, available, reserved int64) *Product {
	t.Helper()
	p, err := NewProduct("PRD00001", "Vida M8", ProductTypeStorable, "Adet")
	require.NoError(t, err)
	require.NoError(t, p.AdjustStock(decimal.NewFromInt(available), decimal.NewFromInt(reserved)))
	return p
}

func createTestMove(t *testing.T, p *Product, moveType MoveType, qty int64) *StockMove {
	t.Helper()
	m, err := NewStockMove(StockMoveName(1), p.ID, moveType, decimal.NewFromInt(qty), decimal.NewFromInt(12))
	require.NoError(t, err)
	return m
}

// ==================== Creation Tests ====================

func TestNewStockMove(t *testing.T) {
	productID := uuid.New()

	t.Run("creates draft move with total value", func(t *testing.T) {
		m, err := NewStockMove("SM00001", productID, MoveTypeIn, decimal.NewFromInt(10), decimal.RequireFromString("2.5"))
		require.NoError(t, err)
		assert.Equal(t, MoveStateDraft, m.State)
		assert.True(t, m.TotalValue.Equal(decimal.NewFromInt(25)))
		assert.Nil(t, m.DoneDate)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewStockMove("SM00001", productID, MoveTypeIn, decimal.Zero, decimal.NewFromInt(1))
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("rejects unknown move type", func(t *testing.T) {
		_, err := NewStockMove("SM00001", productID, MoveType("SCRAP"), decimal.NewFromInt(1), decimal.Zero)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("rejects empty product", func(t *testing.T) {
		_, err := NewStockMove("SM00001", uuid.Nil, MoveTypeIn, decimal.NewFromInt(1), decimal.Zero)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestStockMoveName(t *testing.T) {
	assert.Equal(t, "SM00012", StockMoveName(12))
}

func TestStockMove_TotalValueTracksQuantityAndPrice(t *testing.T) {
	p := createTestProduct(t, 0, 0)
	m := createTestMove(t, p, MoveTypeIn, 3)
	assert.True(t, m.TotalValue.Equal(decimal.NewFromInt(36)))

	require.NoError(t, m.SetQuantity(decimal.NewFromInt(4)))
	assert.True(t, m.TotalValue.Equal(decimal.NewFromInt(48)))

	require.NoError(t, m.SetUnitPrice(decimal.RequireFromString("0.5")))
	assert.True(t, m.TotalValue.Equal(decimal.NewFromInt(2)))
}

// ==================== State Machine Tests ====================

func TestStockMove_Confirm(t *testing.T) {
	p := createTestProduct(t, 0, 0)

	t.Run("draft to confirmed", func(t *testing.T) {
		m := createTestMove(t, p, MoveTypeIn, 1)
		require.NoError(t, m.Confirm())
		assert.Equal(t, MoveStateConfirmed, m.State)
		require.Len(t, m.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeStockMoveConfirmed, m.GetDomainEvents()[0].EventType())
	})

	t.Run("fails from any other state", func(t *testing.T) {
		for _, state := range []MoveState{MoveStateConfirmed, MoveStateDone, MoveStateCancelled} {
			m := createTestMove(t, p, MoveTypeIn, 1)
			m.State = state
			err := m.Confirm()
			assert.True(t, errors.Is(err, shared.ErrInvalidTransition), "state %s", state)
			assert.Equal(t, state, m.State)
		}
	})
}

func TestStockMove_Execute(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("draft move cannot execute", func(t *testing.T) {
		p := createTestProduct(t, 5, 0)
		m := createTestMove(t, p, MoveTypeIn, 10)

		err := m.Execute(p, now)
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
		assert.Equal(t, MoveStateDraft, m.State)
		assert.True(t, p.QtyAvailable.Equal(decimal.NewFromInt(5)))
	})

	t.Run("incoming move adds stock", func(t *testing.T) {
		p := createTestProduct(t, 5, 0)
		m := createTestMove(t, p, MoveTypeIn, 10)
		require.NoError(t, m.Confirm())

		require.NoError(t, m.Execute(p, now))

		assert.Equal(t, MoveStateDone, m.State)
		assert.True(t, p.QtyAvailable.Equal(decimal.NewFromInt(15)))
		assert.True(t, p.VirtualAvailable.Equal(decimal.NewFromInt(15)))
		require.NotNil(t, m.DoneDate)
		assert.Equal(t, now, *m.DoneDate)
	})

	t.Run("outgoing move subtracts stock and keeps reservation", func(t *testing.T) {
		p := createTestProduct(t, 20, 4)
		m := createTestMove(t, p, MoveTypeOut, 6)
		require.NoError(t, m.Confirm())

		require.NoError(t, m.Execute(p, now))

		assert.True(t, p.QtyAvailable.Equal(decimal.NewFromInt(14)))
		assert.True(t, p.QtyReserved.Equal(decimal.NewFromInt(4)))
		assert.True(t, p.VirtualAvailable.Equal(decimal.NewFromInt(10)))
	})

	t.Run("internal move leaves product stock unchanged", func(t *testing.T) {
		p := createTestProduct(t, 7, 0)
		m := createTestMove(t, p, MoveTypeInternal, 3)
		require.NoError(t, m.Confirm())

		require.NoError(t, m.Execute(p, now))

		assert.Equal(t, MoveStateDone, m.State)
		assert.True(t, p.QtyAvailable.Equal(decimal.NewFromInt(7)))
	})

	t.Run("done move cannot execute twice", func(t *testing.T) {
		p := createTestProduct(t, 0, 0)
		m := createTestMove(t, p, MoveTypeIn, 2)
		require.NoError(t, m.Confirm())
		require.NoError(t, m.Execute(p, now))

		err := m.Execute(p, now)
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
		assert.True(t, p.QtyAvailable.Equal(decimal.NewFromInt(2)))
	})

	t.Run("product mismatch changes nothing", func(t *testing.T) {
		p := createTestProduct(t, 1, 0)
		other := createTestProduct(t, 1, 0)
		m := createTestMove(t, p, MoveTypeIn, 2)
		require.NoError(t, m.Confirm())

		err := m.Execute(other, now)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Equal(t, MoveStateConfirmed, m.State)
		assert.True(t, other.QtyAvailable.Equal(decimal.NewFromInt(1)))
	})

	t.Run("execution bumps product version", func(t *testing.T) {
		p := createTestProduct(t, 1, 0)
		before := p.Version
		m := createTestMove(t, p, MoveTypeIn, 1)
		require.NoError(t, m.Confirm())
		require.NoError(t, m.Execute(p, now))
		assert.Equal(t, before+1, p.Version)
	})
}

func TestStockMove_Cancel(t *testing.T) {
	p := createTestProduct(t, 3, 0)

	for _, state := range []MoveState{MoveStateDraft, MoveStateConfirmed} {
		t.Run("from "+state.String(), func(t *testing.T) {
			m := createTestMove(t, p, MoveTypeOut, 1)
			m.State = state
			require.NoError(t, m.Cancel())
			assert.Equal(t, MoveStateCancelled, m.State)
			assert.True(t, p.QtyAvailable.Equal(decimal.NewFromInt(3)))
		})
	}

	t.Run("done is terminal", func(t *testing.T) {
		m := createTestMove(t, p, MoveTypeOut, 1)
		m.State = MoveStateDone
		assert.True(t, errors.Is(m.Cancel(), shared.ErrInvalidTransition))
		assert.True(t, errors.Is(m.SetQuantity(decimal.NewFromInt(9)), shared.ErrInvalidTransition))
	})
}

func TestMoveState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to MoveState
		want     bool
	}{
		{MoveStateDraft, MoveStateConfirmed, true},
		{MoveStateDraft, MoveStateDone, false},
		{MoveStateDraft, MoveStateCancelled, true},
		{MoveStateConfirmed, MoveStateDone, true},
		{MoveStateConfirmed, MoveStateCancelled, true},
		{MoveStateDone, MoveStateCancelled, false},
		{MoveStateCancelled, MoveStateDraft, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
