package inventory

import (
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeStockMove = "StockMove"

// Event type constants
const (
	EventTypeStockMoveConfirmed = "StockMoveConfirmed"
	EventTypeStockMoveExecuted  = "StockMoveExecuted"
	EventTypeStockMoveCancelled = "StockMoveCancelled"
)

// StockMoveConfirmedEvent is raised when a move is confirmed
type StockMoveConfirmedEvent struct {
	shared.BaseDomainEvent
	MoveName  string    `json:"move_name"`
	ProductID uuid.UUID `json:"product_id"`
}

// NewStockMoveConfirmedEvent creates a new StockMoveConfirmedEvent
func NewStockMoveConfirmedEvent(m *StockMove) *StockMoveConfirmedEvent {
	return &StockMoveConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockMoveConfirmed, AggregateTypeStockMove, m.ID),
		MoveName:        m.Name,
		ProductID:       m.ProductID,
	}
}

// StockMoveExecutedEvent is raised when a move is applied to product stock
type StockMoveExecutedEvent struct {
	shared.BaseDomainEvent
	MoveName         string          `json:"move_name"`
	ProductID        uuid.UUID       `json:"product_id"`
	MoveType         MoveType        `json:"move_type"`
	Quantity         decimal.Decimal `json:"quantity"`
	TotalValue       decimal.Decimal `json:"total_value"`
	QtyAvailable     decimal.Decimal `json:"qty_available"`
	VirtualAvailable decimal.Decimal `json:"virtual_available"`
	BelowReorder     bool            `json:"below_reorder"`
}

// NewStockMoveExecutedEvent creates a new StockMoveExecutedEvent
func NewStockMoveExecutedEvent(m *StockMove, p *Product) *StockMoveExecutedEvent {
	return &StockMoveExecutedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeStockMoveExecuted, AggregateTypeStockMove, m.ID),
		MoveName:         m.Name,
		ProductID:        m.ProductID,
		MoveType:         m.MoveType,
		Quantity:         m.Quantity,
		TotalValue:       m.TotalValue,
		QtyAvailable:     p.QtyAvailable,
		VirtualAvailable: p.VirtualAvailable,
		BelowReorder:     p.IsBelowReorderPoint(),
	}
}

// StockMoveCancelledEvent is raised when a move is cancelled
type StockMoveCancelledEvent struct {
	shared.BaseDomainEvent
	MoveName  string    `json:"move_name"`
	ProductID uuid.UUID `json:"product_id"`
}

// NewStockMoveCancelledEvent creates a new StockMoveCancelledEvent
func NewStockMoveCancelledEvent(m *StockMove) *StockMoveCancelledEvent {
	return &StockMoveCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockMoveCancelled, AggregateTypeStockMove, m.ID),
		MoveName:        m.Name,
		ProductID:       m.ProductID,
	}
}
