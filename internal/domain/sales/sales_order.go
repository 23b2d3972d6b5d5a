// Package sales holds the sales order aggregate.
package sales

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/muhasebe/internal/domain/pricing"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderState is the lifecycle state of a sales order
type OrderState string

const (
	OrderStateDraft     OrderState = "draft"
	OrderStateQuotation OrderState = "quotation"
	OrderStateConfirmed OrderState = "confirmed"
	OrderStateDelivered OrderState = "delivered"
	OrderStateCancelled OrderState = "cancelled"
)

// IsValid checks if the state is valid
func (s OrderState) IsValid() bool {
	switch s {
	case OrderStateDraft, OrderStateQuotation, OrderStateConfirmed, OrderStateDelivered, OrderStateCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s OrderState) String() string {
	return string(s)
}

// CanTransitionTo checks if the state can transition to the target state
func (s OrderState) CanTransitionTo(target OrderState) bool {
	switch s {
	case OrderStateDraft:
		return target == OrderStateQuotation || target == OrderStateConfirmed || target == OrderStateCancelled
	case OrderStateQuotation:
		return target == OrderStateConfirmed || target == OrderStateCancelled
	case OrderStateConfirmed:
		return target == OrderStateDelivered || target == OrderStateCancelled
	default:
		return false
	}
}

// IsEditable reports whether lines may still change
func (s OrderState) IsEditable() bool {
	return s == OrderStateDraft || s == OrderStateQuotation
}

// PaymentTerm is the agreed payment term
type PaymentTerm string

const (
	PaymentTermImmediate PaymentTerm = "immediate"
	PaymentTermNet15     PaymentTerm = "net15"
	PaymentTermNet30     PaymentTerm = "net30"
	PaymentTermNet60     PaymentTerm = "net60"
	PaymentTermNet90     PaymentTerm = "net90"
)

// Days returns the number of days until payment is due
func (t PaymentTerm) Days() (int, bool) {
	switch t {
	case PaymentTermImmediate:
		return 0, true
	case PaymentTermNet15:
		return 15, true
	case PaymentTermNet30:
		return 30, true
	case PaymentTermNet60:
		return 60, true
	case PaymentTermNet90:
		return 90, true
	}
	return 0, false
}

// SalesOrderLine is one order line with its rounded price amounts
type SalesOrderLine struct {
	shared.BaseEntity
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Sequence      int             `gorm:"not null;default:10"`
	ProductID     *uuid.UUID      `gorm:"type:uuid;index"`
	Description   string          `gorm:"type:varchar(500);not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountRate  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:20"`
	PriceSubtotal decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PriceTax      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PriceTotal    decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	amounts pricing.LineAmounts
}

// TableName returns the table name for GORM
func (SalesOrderLine) TableName() string {
	return "sales_order_lines"
}

func (l *SalesOrderLine) calculate() error {
	amounts, err := pricing.CalculateSalesOrderLine(pricing.LineInput{
		Quantity:     l.Quantity,
		UnitPrice:    l.UnitPrice,
		DiscountRate: l.DiscountRate,
		TaxRate:      l.TaxRate,
	})
	if err != nil {
		return fmt.Errorf("line %d: %w", l.Sequence, err)
	}
	l.amounts = amounts
	rounded := amounts.Rounded()
	l.PriceSubtotal = rounded.Subtotal
	l.PriceTax = rounded.TaxAmount
	l.PriceTotal = rounded.LineTotal
	return nil
}

// LineInput is the caller-supplied data of one order line
type LineInput struct {
	ProductID    *uuid.UUID
	Description  string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	DiscountRate decimal.Decimal
	TaxRate      decimal.Decimal
}

// SalesOrder is the aggregate root for customer orders
type SalesOrder struct {
	shared.BaseAggregateRoot
	Name             string          `gorm:"type:varchar(20);not null;uniqueIndex"`
	PartnerID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	State            OrderState      `gorm:"type:varchar(20);not null;default:'draft';index"`
	OrderDate        time.Time       `gorm:"not null"`
	ValidityDate     *time.Time      `gorm:"type:date"`
	ConfirmationDate *time.Time      `gorm:"column:confirmation_date"`
	DeliveryDate     *time.Time      `gorm:"column:delivery_date"`
	PaymentTerm      PaymentTerm     `gorm:"type:varchar(20);not null;default:'immediate'"`
	AmountUntaxed    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	AmountTax        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	AmountDiscount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	AmountTotal      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Notes            string          `gorm:"type:text"`
	Lines            []SalesOrderLine `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (SalesOrder) TableName() string {
	return "sales_orders"
}

// OrderName formats the sequential order name, e.g. SO00003.
func OrderName(seq int64) string {
	return fmt.Sprintf("SO%05d", seq)
}

// NewSalesOrder creates a draft order
func NewSalesOrder(name string, partnerID uuid.UUID, term PaymentTerm, orderDate time.Time) (*SalesOrder, error) {
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewInvalidInput("order name cannot be empty")
	}
	if partnerID == uuid.Nil {
		return nil, shared.NewInvalidInput("customer cannot be empty")
	}
	if term == "" {
		term = PaymentTermImmediate
	}
	if _, ok := term.Days(); !ok {
		return nil, shared.NewInvalidInput("invalid payment term %q", string(term))
	}
	if orderDate.IsZero() {
		orderDate = time.Now()
	}
	return &SalesOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		PartnerID:         partnerID,
		State:             OrderStateDraft,
		OrderDate:         orderDate,
		PaymentTerm:       term,
		AmountUntaxed:     decimal.Zero,
		AmountTax:         decimal.Zero,
		AmountDiscount:    decimal.Zero,
		AmountTotal:       decimal.Zero,
		Lines:             make([]SalesOrderLine, 0),
	}, nil
}

// AddLine appends a line and recomputes totals
func (o *SalesOrder) AddLine(in LineInput) error {
	if !o.State.IsEditable() {
		return shared.NewInvalidTransition("cannot modify order in %s state", o.State)
	}
	if strings.TrimSpace(in.Description) == "" {
		return shared.NewInvalidInput("line description cannot be empty")
	}
	line := SalesOrderLine{
		BaseEntity:   shared.NewBaseEntity(),
		OrderID:      o.ID,
		Sequence:     o.nextSequence(),
		ProductID:    in.ProductID,
		Description:  in.Description,
		Quantity:     in.Quantity,
		UnitPrice:    in.UnitPrice,
		DiscountRate: in.DiscountRate,
		TaxRate:      in.TaxRate,
	}
	if err := line.calculate(); err != nil {
		return err
	}
	o.Lines = append(o.Lines, line)
	return o.changed()
}

// nextSequence is ten past the highest sequence in use
func (o *SalesOrder) nextSequence() int {
	highest := 0
	for i := range o.Lines {
		highest = max(highest, o.Lines[i].Sequence)
	}
	return highest + 10
}

// RemoveLine removes a line by ID
func (o *SalesOrder) RemoveLine(lineID uuid.UUID) error {
	if !o.State.IsEditable() {
		return shared.NewInvalidTransition("cannot modify order in %s state", o.State)
	}
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
			return o.changed()
		}
	}
	return shared.NewNotFound("order line", lineID)
}

// SetDiscount sets the absolute document-level discount
func (o *SalesOrder) SetDiscount(amount decimal.Decimal) error {
	if !o.State.IsEditable() {
		return shared.NewInvalidTransition("cannot modify order in %s state", o.State)
	}
	previous := o.AmountDiscount
	o.AmountDiscount = amount
	if err := o.Recalculate(); err != nil {
		o.AmountDiscount = previous
		return err
	}
	o.Touch()
	o.IncrementVersion()
	return nil
}

func (o *SalesOrder) changed() error {
	if err := o.Recalculate(); err != nil {
		return err
	}
	o.Touch()
	o.IncrementVersion()
	return nil
}

// Recalculate recomputes the header totals from the lines
func (o *SalesOrder) Recalculate() error {
	amounts := make([]pricing.LineAmounts, 0, len(o.Lines))
	for i := range o.Lines {
		if err := o.Lines[i].calculate(); err != nil {
			return err
		}
		amounts = append(amounts, o.Lines[i].amounts)
	}
	totals, err := pricing.AggregateSalesOrder(amounts, o.AmountDiscount)
	if err != nil {
		return err
	}
	o.AmountUntaxed = totals.AmountUntaxed
	o.AmountTax = totals.AmountTax
	o.AmountDiscount = totals.AmountDiscount
	o.AmountTotal = totals.AmountTotal
	return nil
}

// SendQuotation moves a draft to quotation
func (o *SalesOrder) SendQuotation(validUntil *time.Time) error {
	if !o.State.CanTransitionTo(OrderStateQuotation) {
		return shared.NewInvalidTransition("cannot send quotation for order in %s state", o.State)
	}
	if len(o.Lines) == 0 {
		return shared.NewInvalidInput("cannot send quotation without lines")
	}
	o.State = OrderStateQuotation
	o.ValidityDate = validUntil
	o.Touch()
	o.IncrementVersion()
	return nil
}

// Confirm confirms a draft or quotation
func (o *SalesOrder) Confirm(at time.Time) error {
	if !o.State.CanTransitionTo(OrderStateConfirmed) {
		return shared.NewInvalidTransition("cannot confirm order in %s state", o.State)
	}
	if len(o.Lines) == 0 {
		return shared.NewInvalidInput("cannot confirm order without lines")
	}
	o.State = OrderStateConfirmed
	o.ConfirmationDate = &at
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewSalesOrderConfirmedEvent(o))
	return nil
}

// Deliver marks a confirmed order as delivered
func (o *SalesOrder) Deliver(at time.Time) error {
	if !o.State.CanTransitionTo(OrderStateDelivered) {
		return shared.NewInvalidTransition("cannot deliver order in %s state", o.State)
	}
	o.State = OrderStateDelivered
	o.DeliveryDate = &at
	o.Touch()
	o.IncrementVersion()
	return nil
}

// Cancel cancels any order that is not delivered or already cancelled
func (o *SalesOrder) Cancel() error {
	if !o.State.CanTransitionTo(OrderStateCancelled) {
		return shared.NewInvalidTransition("cannot cancel order in %s state", o.State)
	}
	o.State = OrderStateCancelled
	o.Touch()
	o.IncrementVersion()
	return nil
}

// CanDelete reports whether the order may be deleted
func (o *SalesOrder) CanDelete() error {
	if o.State != OrderStateDraft {
		return shared.NewInvalidTransition("only draft orders can be deleted, order is %s", o.State)
	}
	return nil
}

// PaymentDueDate returns the due date implied by the payment term
func (o *SalesOrder) PaymentDueDate() *time.Time {
	if o.ConfirmationDate == nil {
		return nil
	}
	days, _ := o.PaymentTerm.Days()
	due := o.ConfirmationDate.AddDate(0, 0, days)
	return &due
}

// Totals returns the header totals as DocumentTotals
func (o *SalesOrder) Totals() pricing.DocumentTotals {
	return pricing.DocumentTotals{
		AmountUntaxed:     o.AmountUntaxed,
		AmountTax:         o.AmountTax,
		AmountWithholding: decimal.Zero,
		AmountDiscount:    o.AmountDiscount,
		AmountTotal:       o.AmountTotal,
	}
}
