package accounting

import (
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeInvoice = "Invoice"

// Event type constants
const (
	EventTypeInvoiceCreated       = "InvoiceCreated"
	EventTypeInvoiceStatusChanged = "InvoiceStatusChanged"
)

// InvoiceCreatedEvent is raised when an invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	Number      string          `json:"number"`
	InvoiceType InvoiceType     `json:"invoice_type"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	LineCount   int             `json:"line_count"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, inv.ID),
		Number:          inv.Number,
		InvoiceType:     inv.InvoiceType,
		TotalAmount:     inv.TotalAmount,
		LineCount:       len(inv.Lines),
	}
}

// InvoiceStatusChangedEvent is raised on every status transition
type InvoiceStatusChangedEvent struct {
	shared.BaseDomainEvent
	Number string        `json:"number"`
	From   InvoiceStatus `json:"from"`
	To     InvoiceStatus `json:"to"`
}

// NewInvoiceStatusChangedEvent creates a new InvoiceStatusChangedEvent
func NewInvoiceStatusChangedEvent(inv *Invoice, from InvoiceStatus) *InvoiceStatusChangedEvent {
	return &InvoiceStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceStatusChanged, AggregateTypeInvoice, inv.ID),
		Number:          inv.Number,
		From:            from,
		To:              inv.Status,
	}
}
