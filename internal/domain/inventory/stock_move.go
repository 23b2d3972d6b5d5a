package inventory

import (
	"fmt"
	"time"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoveType is the direction of a stock move
type MoveType string

const (
	MoveTypeIn       MoveType = "IN"
	MoveTypeOut      MoveType = "OUT"
	MoveTypeInternal MoveType = "INTERNAL"
)

// IsValid checks if the move type is valid
func (t MoveType) IsValid() bool {
	switch t {
	case MoveTypeIn, MoveTypeOut, MoveTypeInternal:
		return true
	}
	return false
}

// MoveState is the lifecycle state of a stock move
type MoveState string

const (
	MoveStateDraft     MoveState = "DRAFT"
	MoveStateConfirmed MoveState = "CONFIRMED"
	MoveStateDone      MoveState = "DONE"
	MoveStateCancelled MoveState = "CANCELLED"
)

// IsValid checks if the state is valid
func (s MoveState) IsValid() bool {
	switch s {
	case MoveStateDraft, MoveStateConfirmed, MoveStateDone, MoveStateCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s MoveState) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible.
// DONE has no reversal.
func (s MoveState) IsTerminal() bool {
	return s == MoveStateDone || s == MoveStateCancelled
}

// CanTransitionTo checks if the state can transition to the target state
func (s MoveState) CanTransitionTo(target MoveState) bool {
	switch s {
	case MoveStateDraft:
		return target == MoveStateConfirmed || target == MoveStateCancelled
	case MoveStateConfirmed:
		return target == MoveStateDone || target == MoveStateCancelled
	default:
		return false
	}
}

// AllMoveStates lists states in lifecycle order
func AllMoveStates() []MoveState {
	return []MoveState{MoveStateDraft, MoveStateConfirmed, MoveStateDone, MoveStateCancelled}
}

// StockMove records a quantity of one product moving between locations.
// TotalValue is kept equal to Quantity × UnitPrice by SetQuantity and
// SetUnitPrice.
type StockMove struct {
	shared.BaseAggregateRoot
	Name           string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Reference      string          `gorm:"type:varchar(100);index"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	MoveType       MoveType        `gorm:"type:varchar(20);not null"`
	State          MoveState       `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UOM            string          `gorm:"column:uom;type:varchar(20);not null;default:'Adet'"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalValue     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LocationFromID *uuid.UUID      `gorm:"type:uuid"`
	LocationToID   *uuid.UUID      `gorm:"type:uuid"`
	ScheduledDate  *time.Time
	DoneDate       *time.Time
	Note           string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (StockMove) TableName() string {
	return "stock_moves"
}

// NewStockMove creates a DRAFT move
func NewStockMove(name string, productID uuid.UUID, moveType MoveType, quantity, unitPrice decimal.Decimal) (*StockMove, error) {
	if productID == uuid.Nil {
		return nil, shared.NewInvalidInput("product id cannot be empty")
	}
	if !moveType.IsValid() {
		return nil, shared.NewInvalidInput("invalid move type %q", string(moveType))
	}

	m := &StockMove{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		ProductID:         productID,
		MoveType:          moveType,
		State:             MoveStateDraft,
		UOM:               "Adet",
		UnitPrice:         unitPrice,
	}
	if err := m.SetQuantity(quantity); err != nil {
		return nil, err
	}
	return m, nil
}

// StockMoveName formats the sequential move name, e.g. SM00012.
func StockMoveName(seq int64) string {
	return fmt.Sprintf("SM%05d", seq)
}

// SetQuantity changes the quantity of a move that has not been executed yet
func (m *StockMove) SetQuantity(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewInvalidInput("move quantity must be positive, got %s", quantity)
	}
	if m.State.IsTerminal() {
		return shared.NewInvalidTransition("cannot change quantity of %s move %s", m.State, m.Name)
	}
	m.Quantity = quantity
	m.recomputeValue()
	return nil
}

// SetUnitPrice changes the unit price of a move that has not been executed yet
func (m *StockMove) SetUnitPrice(price decimal.Decimal) error {
	if m.State.IsTerminal() {
		return shared.NewInvalidTransition("cannot change price of %s move %s", m.State, m.Name)
	}
	m.UnitPrice = price
	m.recomputeValue()
	return nil
}

// SetLocations sets source and destination locations
func (m *StockMove) SetLocations(from, to *uuid.UUID) {
	m.LocationFromID = from
	m.LocationToID = to
}

func (m *StockMove) recomputeValue() {
	m.TotalValue = m.Quantity.Mul(m.UnitPrice)
}

// Confirm moves a DRAFT move to CONFIRMED
func (m *StockMove) Confirm() error {
	if m.State != MoveStateDraft {
		return shared.NewInvalidTransition("cannot confirm stock move in %s state", m.State)
	}
	m.State = MoveStateConfirmed
	m.Touch()
	m.IncrementVersion()
	m.AddDomainEvent(NewStockMoveConfirmedEvent(m))
	return nil
}

// Execute applies the move to product and marks it DONE. The product change
// is computed before anything is mutated, so on error neither the move nor
// the product changes.
func (m *StockMove) Execute(product *Product, at time.Time) error {
	if m.State != MoveStateConfirmed {
		return shared.NewInvalidTransition("cannot execute stock move in %s state", m.State)
	}
	if product == nil {
		return shared.NewNotFound("product", m.ProductID)
	}
	if product.ID != m.ProductID {
		return shared.NewInvalidInput("stock move %s belongs to product %s, got %s", m.Name, m.ProductID, product.ID)
	}

	available := product.QtyAvailable
	switch m.MoveType {
	case MoveTypeIn:
		available = available.Add(m.Quantity)
	case MoveTypeOut:
		available = available.Sub(m.Quantity)
	case MoveTypeInternal:
	}

	product.applyStockDelta(available)
	m.State = MoveStateDone
	m.DoneDate = &at
	m.Touch()
	m.IncrementVersion()
	m.AddDomainEvent(NewStockMoveExecutedEvent(m, product))
	return nil
}

// Cancel marks a DRAFT or CONFIRMED move as CANCELLED. Stock is only
// changed by Execute, so cancelling has no stock effect.
func (m *StockMove) Cancel() error {
	if !m.State.CanTransitionTo(MoveStateCancelled) {
		return shared.NewInvalidTransition("cannot cancel stock move in %s state", m.State)
	}
	m.State = MoveStateCancelled
	m.Touch()
	m.IncrementVersion()
	m.AddDomainEvent(NewStockMoveCancelledEvent(m))
	return nil
}
