package accounting

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/muhasebe/internal/domain/pricing"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceType distinguishes sales, purchase, and return invoices
type InvoiceType string

const (
	InvoiceTypeSales    InvoiceType = "SATIS"
	InvoiceTypePurchase InvoiceType = "ALIS"
	InvoiceTypeReturn   InvoiceType = "IADE"
)

// IsValid checks if the invoice type is valid
func (t InvoiceType) IsValid() bool {
	switch t {
	case InvoiceTypeSales, InvoiceTypePurchase, InvoiceTypeReturn:
		return true
	}
	return false
}

// InvoiceStatus is the document status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "TASLAK"
	InvoiceStatusPending   InvoiceStatus = "BEKLEMEDE"
	InvoiceStatusSent      InvoiceStatus = "GONDERILDI"
	InvoiceStatusApproved  InvoiceStatus = "ONAYLANDI"
	InvoiceStatusRejected  InvoiceStatus = "REDDEDILDI"
	InvoiceStatusCancelled InvoiceStatus = "IPTAL"
)

// IsValid checks if the status is valid
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusSent,
		InvoiceStatusApproved, InvoiceStatusRejected, InvoiceStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo checks if the status can transition to the target status
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusPending || target == InvoiceStatusCancelled
	case InvoiceStatusPending:
		return target == InvoiceStatusSent || target == InvoiceStatusDraft || target == InvoiceStatusCancelled
	case InvoiceStatusSent:
		return target == InvoiceStatusApproved || target == InvoiceStatusRejected
	case InvoiceStatusRejected:
		return target == InvoiceStatusDraft || target == InvoiceStatusCancelled
	default:
		return false
	}
}

// InvoiceLine stores the inputs of a line together with its rounded amounts
type InvoiceLine struct {
	shared.BaseEntity
	InvoiceID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Sequence          int             `gorm:"not null;default:10"`
	Description       string          `gorm:"type:varchar(500);not null"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountRate      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	VATRate           decimal.Decimal `gorm:"column:vat_rate;type:decimal(5,2);not null;default:20"`
	WithholdingRate   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	VATAmount         decimal.Decimal `gorm:"column:vat_amount;type:decimal(18,2);not null"`
	WithholdingAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	LineTotal         decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	amounts pricing.LineAmounts `gorm:"-"`
}

// TableName returns the table name for GORM
func (InvoiceLine) TableName() string {
	return "invoice_lines"
}

// Input returns the calculator input of the line
func (l *InvoiceLine) Input() pricing.LineInput {
	return pricing.LineInput{
		Quantity:        l.Quantity,
		UnitPrice:       l.UnitPrice,
		DiscountRate:    l.DiscountRate,
		TaxRate:         l.VATRate,
		WithholdingRate: l.WithholdingRate,
	}
}

func (l *InvoiceLine) calculate() error {
	amounts, err := pricing.CalculateInvoiceLine(l.Input())
	if err != nil {
		return fmt.Errorf("line %d: %w", l.Sequence, err)
	}
	l.amounts = amounts
	rounded := amounts.Rounded()
	l.Subtotal = rounded.Subtotal
	l.VATAmount = rounded.TaxAmount
	l.WithholdingAmount = rounded.WithholdingAmount
	l.LineTotal = rounded.LineTotal
	return nil
}

// InvoiceLineInput is the caller-supplied data of one invoice line
type InvoiceLineInput struct {
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountRate    decimal.Decimal
	VATRate         decimal.Decimal
	WithholdingRate decimal.Decimal
}

// Invoice is the aggregate root for sales, purchase, and return invoices.
// Structured is fixed at creation: structured invoices derive their totals
// from lines, flat invoices keep the header amounts they were created with.
type Invoice struct {
	shared.BaseAggregateRoot
	Number            string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	InvoiceDate       time.Time       `gorm:"type:date;not null;index"`
	DueDate           *time.Time      `gorm:"type:date"`
	InvoiceType       InvoiceType     `gorm:"type:varchar(10);not null;index"`
	Status            InvoiceStatus   `gorm:"type:varchar(20);not null;default:'TASLAK'"`
	PartnerID         *uuid.UUID      `gorm:"type:uuid;index"`
	Structured        bool            `gorm:"not null;default:false"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	VATAmount         decimal.Decimal `gorm:"column:vat_amount;type:decimal(18,2);not null;default:0"`
	WithholdingAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	PaidAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'TRY'"`
	Notes             string          `gorm:"type:text"`
	AnomalyScore      *float64
	IsAnomaly         bool          `gorm:"not null;default:false"`
	Lines             []InvoiceLine `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoiceParams holds the data needed to create an invoice.
// FlatSubtotal and FlatVATAmount are used only when Lines is empty.
type NewInvoiceParams struct {
	Number        string
	InvoiceDate   time.Time
	DueDate       *time.Time
	InvoiceType   InvoiceType
	PartnerID     *uuid.UUID
	Currency      string
	Notes         string
	Lines         []InvoiceLineInput
	FlatSubtotal  decimal.Decimal
	FlatVATAmount decimal.Decimal
}

// NewInvoice creates a draft invoice and computes its totals
func NewInvoice(p NewInvoiceParams) (*Invoice, error) {
	if strings.TrimSpace(p.Number) == "" {
		return nil, shared.NewInvalidInput("invoice number cannot be empty")
	}
	if !p.InvoiceType.IsValid() {
		return nil, shared.NewInvalidInput("invalid invoice type %q", string(p.InvoiceType))
	}
	if p.InvoiceDate.IsZero() {
		return nil, shared.NewInvalidInput("invoice date is required")
	}
	if p.DueDate != nil && p.DueDate.Before(p.InvoiceDate) {
		return nil, shared.NewInvalidInput("due date cannot be before invoice date")
	}
	if p.Currency == "" {
		p.Currency = "TRY"
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            strings.TrimSpace(p.Number),
		InvoiceDate:       p.InvoiceDate,
		DueDate:           p.DueDate,
		InvoiceType:       p.InvoiceType,
		Status:            InvoiceStatusDraft,
		PartnerID:         p.PartnerID,
		Structured:        len(p.Lines) > 0,
		PaidAmount:        decimal.Zero,
		Currency:          strings.ToUpper(p.Currency),
		Notes:             p.Notes,
		Lines:             make([]InvoiceLine, 0, len(p.Lines)),
	}

	if inv.Structured {
		for _, in := range p.Lines {
			if err := inv.appendLine(in); err != nil {
				return nil, err
			}
		}
	} else {
		if p.FlatSubtotal.IsNegative() || p.FlatVATAmount.IsNegative() {
			return nil, shared.NewInvalidInput("subtotal and vat amount cannot be negative")
		}
		inv.Subtotal = p.FlatSubtotal
		inv.VATAmount = p.FlatVATAmount
	}

	if err := inv.Recalculate(); err != nil {
		return nil, err
	}
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

func (inv *Invoice) appendLine(in InvoiceLineInput) error {
	if strings.TrimSpace(in.Description) == "" {
		return shared.NewInvalidInput("line description cannot be empty")
	}
	line := InvoiceLine{
		BaseEntity:      shared.NewBaseEntity(),
		InvoiceID:       inv.ID,
		Sequence:        (len(inv.Lines) + 1) * 10,
		Description:     in.Description,
		Quantity:        in.Quantity,
		UnitPrice:       in.UnitPrice,
		DiscountRate:    in.DiscountRate,
		VATRate:         in.VATRate,
		WithholdingRate: in.WithholdingRate,
	}
	if err := line.calculate(); err != nil {
		return err
	}
	inv.Lines = append(inv.Lines, line)
	return nil
}

// AddLine appends a line to a structured draft invoice
func (inv *Invoice) AddLine(in InvoiceLineInput) error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewInvalidTransition("cannot add lines to invoice in %s status", inv.Status)
	}
	if !inv.Structured {
		return shared.NewInvalidInput("invoice %s was created with flat amounts and cannot take lines", inv.Number)
	}
	if err := inv.appendLine(in); err != nil {
		return err
	}
	inv.Touch()
	inv.IncrementVersion()
	return inv.Recalculate()
}

// Recalculate recomputes header totals. Line amounts are recomputed from the
// stored line inputs at full precision, so repeated calls give the same result.
func (inv *Invoice) Recalculate() error {
	var totals pricing.DocumentTotals
	if inv.Structured {
		amounts := make([]pricing.LineAmounts, 0, len(inv.Lines))
		for i := range inv.Lines {
			if err := inv.Lines[i].calculate(); err != nil {
				return err
			}
			amounts = append(amounts, inv.Lines[i].amounts)
		}
		totals = pricing.AggregateInvoice(amounts, nil)
	} else {
		totals = pricing.AggregateInvoice(nil, &pricing.FlatAmounts{Subtotal: inv.Subtotal, VATAmount: inv.VATAmount})
	}
	inv.Subtotal = totals.AmountUntaxed
	inv.VATAmount = totals.AmountTax
	inv.WithholdingAmount = totals.AmountWithholding
	inv.TotalAmount = totals.AmountTotal
	return nil
}

// Totals returns the header totals as DocumentTotals
func (inv *Invoice) Totals() pricing.DocumentTotals {
	return pricing.DocumentTotals{
		AmountUntaxed:     inv.Subtotal,
		AmountTax:         inv.VATAmount,
		AmountWithholding: inv.WithholdingAmount,
		AmountDiscount:    decimal.Zero,
		AmountTotal:       inv.TotalAmount,
	}
}

// ChangeStatus moves the invoice through its document workflow
func (inv *Invoice) ChangeStatus(target InvoiceStatus) error {
	if !target.IsValid() {
		return shared.NewInvalidInput("invalid invoice status %q", string(target))
	}
	if !inv.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransition("cannot change invoice from %s to %s", inv.Status, target)
	}
	from := inv.Status
	inv.Status = target
	inv.Touch()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceStatusChangedEvent(inv, from))
	return nil
}

// RecordPayment adds a payment against the invoice
func (inv *Invoice) RecordPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewInvalidInput("payment amount must be positive")
	}
	if inv.Status == InvoiceStatusCancelled || inv.Status == InvoiceStatusRejected {
		return shared.NewInvalidTransition("cannot record payment on invoice in %s status", inv.Status)
	}
	if inv.PaidAmount.Add(amount).GreaterThan(inv.TotalAmount) {
		return shared.NewInvalidInput("payment of %s exceeds outstanding amount %s", amount.StringFixed(2), inv.Outstanding().StringFixed(2))
	}
	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.Touch()
	inv.IncrementVersion()
	return nil
}

// Outstanding returns the unpaid part of the invoice
func (inv *Invoice) Outstanding() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.PaidAmount)
}

// IsPaid reports whether the invoice is fully paid
func (inv *Invoice) IsPaid() bool {
	return !inv.Outstanding().IsPositive()
}

// MarkAnomaly stores the result of an anomaly scan on the invoice
func (inv *Invoice) MarkAnomaly(score float64, flagged bool) {
	inv.AnomalyScore = &score
	inv.IsAnomaly = flagged
	inv.Touch()
	inv.IncrementVersion()
}
