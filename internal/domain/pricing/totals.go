package pricing

import (
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DocumentTotals are the rounded header totals of a document.
type DocumentTotals struct {
	AmountUntaxed     decimal.Decimal `json:"amount_untaxed"`
	AmountTax         decimal.Decimal `json:"amount_tax"`
	AmountWithholding decimal.Decimal `json:"amount_withholding"`
	AmountDiscount    decimal.Decimal `json:"amount_discount"`
	AmountTotal       decimal.Decimal `json:"amount_total"`
}

// FlatAmounts are header amounts supplied directly for documents created
// without structured lines.
type FlatAmounts struct {
	Subtotal  decimal.Decimal
	VATAmount decimal.Decimal
}

// AggregateInvoice sums invoice lines at full precision and rounds once.
// With no lines the flat amounts are used instead; flat may be nil, in which
// case the totals are zero.
func AggregateInvoice(lines []LineAmounts, flat *FlatAmounts) DocumentTotals {
	var untaxed, tax, withholding decimal.Decimal
	if len(lines) > 0 {
		for _, l := range lines {
			untaxed = untaxed.Add(l.Subtotal)
			tax = tax.Add(l.TaxAmount)
			withholding = withholding.Add(l.WithholdingAmount)
		}
	} else if flat != nil {
		untaxed = flat.Subtotal
		tax = flat.VATAmount
	}
	return DocumentTotals{
		AmountUntaxed:     Round(untaxed),
		AmountTax:         Round(tax),
		AmountWithholding: Round(withholding),
		AmountDiscount:    decimal.Zero,
		AmountTotal:       Round(untaxed.Add(tax).Sub(withholding)),
	}
}

// AggregateSalesOrder sums order lines and subtracts the absolute
// document-level discount.
func AggregateSalesOrder(lines []LineAmounts, amountDiscount decimal.Decimal) (DocumentTotals, error) {
	if amountDiscount.IsNegative() {
		return DocumentTotals{}, shared.NewInvalidInput("amount_discount cannot be negative, got %s", amountDiscount)
	}
	var untaxed, tax decimal.Decimal
	for _, l := range lines {
		untaxed = untaxed.Add(l.Subtotal)
		tax = tax.Add(l.TaxAmount)
	}
	return DocumentTotals{
		AmountUntaxed:     Round(untaxed),
		AmountTax:         Round(tax),
		AmountWithholding: decimal.Zero,
		AmountDiscount:    Round(amountDiscount),
		AmountTotal:       Round(untaxed.Add(tax).Sub(amountDiscount)),
	}, nil
}
