// Package pricing turns line inputs into line amounts and document totals.
//
// Invoices and sales orders use different formulas. Invoices carry a
// withholding (tevkifat) component; sales orders carry a document-level
// absolute discount instead. Both are kept as observed in production data
// and are selected by DocumentKind.
package pricing

import (
	"fmt"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Scale is the number of fraction digits on externally visible amounts.
const Scale int32 = 2

var hundred = decimal.NewFromInt(100)

// DocumentKind selects the line formula
type DocumentKind string

const (
	KindInvoice    DocumentKind = "INVOICE"
	KindSalesOrder DocumentKind = "SALES_ORDER"
	KindPOSOrder   DocumentKind = "POS_ORDER"
)

// IsValid checks if the document kind is known
func (k DocumentKind) IsValid() bool {
	switch k {
	case KindInvoice, KindSalesOrder, KindPOSOrder:
		return true
	}
	return false
}

// LineInput is the immutable input of a single document line.
// Rates are percentages in 0–100.
type LineInput struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountRate    decimal.Decimal
	TaxRate         decimal.Decimal
	WithholdingRate decimal.Decimal
}

// LineAmounts are the derived amounts of one line, kept at full precision.
// Gross is quantity × unit price before discount; Subtotal is after discount.
type LineAmounts struct {
	Gross             decimal.Decimal `json:"gross"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	WithholdingAmount decimal.Decimal `json:"withholding_amount"`
	LineTotal         decimal.Decimal `json:"line_total"`
}

// Rounded returns a copy with every amount rounded to Scale.
func (a LineAmounts) Rounded() LineAmounts {
	return LineAmounts{
		Gross:             Round(a.Gross),
		Subtotal:          Round(a.Subtotal),
		TaxAmount:         Round(a.TaxAmount),
		WithholdingAmount: Round(a.WithholdingAmount),
		LineTotal:         Round(a.LineTotal),
	}
}

// Round rounds to two fraction digits, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Validate checks the input ranges shared by every document kind.
// Negative unit prices are accepted for credit and return lines.
func (in LineInput) Validate() error {
	if !in.Quantity.IsPositive() {
		return shared.NewInvalidInput("quantity must be positive, got %s", in.Quantity)
	}
	if err := checkPercent("discount_rate", in.DiscountRate); err != nil {
		return err
	}
	if in.TaxRate.IsNegative() {
		return shared.NewInvalidInput("tax_rate cannot be negative, got %s", in.TaxRate)
	}
	return checkPercent("withholding_rate", in.WithholdingRate)
}

func checkPercent(field string, v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(hundred) {
		return shared.NewInvalidInput("%s must be between 0 and 100, got %s", field, v)
	}
	return nil
}

// Calculate applies the formula of the given document kind.
func Calculate(kind DocumentKind, in LineInput) (LineAmounts, error) {
	switch kind {
	case KindInvoice:
		return CalculateInvoiceLine(in)
	case KindSalesOrder:
		return CalculateSalesOrderLine(in)
	case KindPOSOrder:
		return CalculatePOSLine(in)
	default:
		return LineAmounts{}, shared.NewInvalidInput("unknown document kind %q", string(kind))
	}
}

// CalculateInvoiceLine computes an invoice line:
//
//	gross' = qty × price × (1 − discount/100)
//	tax = gross' × tax/100, withholding = gross' × withholding/100
//	total = gross' + tax − withholding
func CalculateInvoiceLine(in LineInput) (LineAmounts, error) {
	if err := in.Validate(); err != nil {
		return LineAmounts{}, err
	}
	gross := in.Quantity.Mul(in.UnitPrice)
	net := applyDiscount(gross, in.DiscountRate)
	tax := percentOf(net, in.TaxRate)
	withholding := percentOf(net, in.WithholdingRate)
	return LineAmounts{
		Gross:             gross,
		Subtotal:          net,
		TaxAmount:         tax,
		WithholdingAmount: withholding,
		LineTotal:         net.Add(tax).Sub(withholding),
	}, nil
}

// CalculateSalesOrderLine computes a sales order line. Withholding is not
// part of sales orders and a non-zero withholding rate is rejected.
func CalculateSalesOrderLine(in LineInput) (LineAmounts, error) {
	if err := in.Validate(); err != nil {
		return LineAmounts{}, err
	}
	if !in.WithholdingRate.IsZero() {
		return LineAmounts{}, shared.NewInvalidInput("withholding is only applicable to invoice lines")
	}
	gross := in.Quantity.Mul(in.UnitPrice)
	subtotal := applyDiscount(gross, in.DiscountRate)
	tax := percentOf(subtotal, in.TaxRate)
	return LineAmounts{
		Gross:             gross,
		Subtotal:          subtotal,
		TaxAmount:         tax,
		WithholdingAmount: decimal.Zero,
		LineTotal:         subtotal.Add(tax),
	}, nil
}

// CalculatePOSLine uses the sales order formula with receipt rounding:
// subtotal and tax-included total are rounded, and the tax is their
// difference so that printed lines always add up.
func CalculatePOSLine(in LineInput) (LineAmounts, error) {
	amounts, err := CalculateSalesOrderLine(in)
	if err != nil {
		return LineAmounts{}, fmt.Errorf("pos line: %w", err)
	}
	subtotal := Round(amounts.Subtotal)
	total := Round(amounts.LineTotal)
	return LineAmounts{
		Gross:             Round(amounts.Gross),
		Subtotal:          subtotal,
		TaxAmount:         total.Sub(subtotal),
		WithholdingAmount: decimal.Zero,
		LineTotal:         total,
	}, nil
}

func applyDiscount(amount, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return amount
	}
	return amount.Sub(percentOf(amount, rate))
}

func percentOf(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}
