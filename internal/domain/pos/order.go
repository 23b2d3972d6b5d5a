package pos

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/muhasebe/internal/domain/pricing"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderState is the state of a POS order
type OrderState string

const (
	OrderStateDraft     OrderState = "draft"
	OrderStatePaid      OrderState = "paid"
	OrderStateDone      OrderState = "done"
	OrderStateInvoiced  OrderState = "invoiced"
	OrderStateCancelled OrderState = "cancelled"
)

// PaymentMethod is how a POS payment was tendered
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheck        PaymentMethod = "check"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCheck:
		return true
	}
	return false
}

// OrderLine is a receipt line
type OrderLine struct {
	shared.BaseEntity
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID         *uuid.UUID      `gorm:"type:uuid"`
	ProductName       string          `gorm:"type:varchar(200);not null"`
	ProductBarcode    string          `gorm:"type:varchar(50)"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountRate      decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	TaxRate           decimal.Decimal `gorm:"type:decimal(5,2);not null;default:20"`
	PriceSubtotal     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PriceSubtotalIncl decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (OrderLine) TableName() string {
	return "pos_order_lines"
}

// Payment is one tender applied to an order
type Payment struct {
	shared.BaseEntity
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentMethod    PaymentMethod   `gorm:"type:varchar(20);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CardNumberMasked string          `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "pos_payments"
}

// LineInput is a scanned or keyed item
type LineInput struct {
	ProductID      *uuid.UUID
	ProductName    string
	ProductBarcode string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountRate   decimal.Decimal
	TaxRate        decimal.Decimal
}

// PaymentInput is a tender
type PaymentInput struct {
	Method           PaymentMethod
	Amount           decimal.Decimal
	CardNumberMasked string
}

// Order is a POS receipt with its lines and payments
type Order struct {
	shared.BaseAggregateRoot
	Name          string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	SessionID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerName  string          `gorm:"type:varchar(200)"`
	CustomerTaxID string          `gorm:"type:varchar(20)"`
	State         OrderState      `gorm:"type:varchar(20);not null;default:'draft'"`
	DateOrder     time.Time       `gorm:"not null"`
	AmountTax     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	AmountTotal   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	AmountReturn  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Note          string          `gorm:"type:text"`
	Lines         []OrderLine     `gorm:"foreignKey:OrderID;references:ID"`
	Payments      []Payment       `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "pos_orders"
}

// OrderName formats an order name, e.g. ORD/2024/11/0001.
func OrderName(at time.Time, seq int64) string {
	return fmt.Sprintf("%s/%04d", OrderPrefix(at), seq)
}

// OrderPrefix is the monthly prefix orders are numbered under
func OrderPrefix(at time.Time) string {
	return fmt.Sprintf("ORD/%d/%02d", at.Year(), int(at.Month()))
}

// NewOrder rings up an order. It is paid when the tenders cover the total,
// otherwise it stays draft; change is never negative.
func NewOrder(name string, sessionID uuid.UUID, lines []LineInput, payments []PaymentInput, at time.Time) (*Order, error) {
	if len(lines) == 0 {
		return nil, shared.NewInvalidInput("order must have at least one line")
	}
	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		SessionID:         sessionID,
		State:             OrderStateDraft,
		DateOrder:         at,
		Lines:             make([]OrderLine, 0, len(lines)),
		Payments:          make([]Payment, 0, len(payments)),
	}

	var total, tax decimal.Decimal
	for i, in := range lines {
		if strings.TrimSpace(in.ProductName) == "" {
			return nil, shared.NewInvalidInput("line %d: product name cannot be empty", i+1)
		}
		amounts, err := pricing.CalculatePOSLine(pricing.LineInput{
			Quantity:     in.Quantity,
			UnitPrice:    in.UnitPrice,
			DiscountRate: in.DiscountRate,
			TaxRate:      in.TaxRate,
		})
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		o.Lines = append(o.Lines, OrderLine{
			BaseEntity:        shared.NewBaseEntity(),
			OrderID:           o.ID,
			ProductID:         in.ProductID,
			ProductName:       in.ProductName,
			ProductBarcode:    in.ProductBarcode,
			Quantity:          in.Quantity,
			UnitPrice:         in.UnitPrice,
			DiscountRate:      in.DiscountRate,
			TaxRate:           in.TaxRate,
			PriceSubtotal:     amounts.Subtotal,
			PriceSubtotalIncl: amounts.LineTotal,
		})
		total = total.Add(amounts.LineTotal)
		tax = tax.Add(amounts.TaxAmount)
	}

	var paid decimal.Decimal
	for i, p := range payments {
		if !p.Method.IsValid() {
			return nil, shared.NewInvalidInput("payment %d: invalid method %q", i+1, string(p.Method))
		}
		if !p.Amount.IsPositive() {
			return nil, shared.NewInvalidInput("payment %d: amount must be positive", i+1)
		}
		o.Payments = append(o.Payments, Payment{
			BaseEntity:       shared.NewBaseEntity(),
			OrderID:          o.ID,
			PaymentMethod:    p.Method,
			Amount:           p.Amount,
			CardNumberMasked: p.CardNumberMasked,
		})
		paid = paid.Add(p.Amount)
	}

	o.AmountTotal = pricing.Round(total)
	o.AmountTax = pricing.Round(tax)
	o.AmountPaid = pricing.Round(paid)
	o.AmountReturn = pricing.Round(decimal.Max(decimal.Zero, paid.Sub(total)))
	if paid.GreaterThanOrEqual(total) {
		o.State = OrderStatePaid
	}
	return o, nil
}
