package sales

import (
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeSalesOrder = "SalesOrder"

// EventTypeSalesOrderConfirmed is raised when an order is confirmed
const EventTypeSalesOrderConfirmed = "SalesOrderConfirmed"

// SalesOrderConfirmedEvent is raised when an order is confirmed
type SalesOrderConfirmedEvent struct {
	shared.BaseDomainEvent
	Name        string          `json:"name"`
	PartnerID   uuid.UUID       `json:"partner_id"`
	AmountTotal decimal.Decimal `json:"amount_total"`
}

// NewSalesOrderConfirmedEvent creates a new SalesOrderConfirmedEvent
func NewSalesOrderConfirmedEvent(o *SalesOrder) *SalesOrderConfirmedEvent {
	return &SalesOrderConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderConfirmed, AggregateTypeSalesOrder, o.ID),
		Name:            o.Name,
		PartnerID:       o.PartnerID,
		AmountTotal:     o.AmountTotal,
	}
}
