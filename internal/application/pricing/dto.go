package pricing

import (
	"github.com/erp/muhasebe/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// LineRequest is one line of a calculator preview
type LineRequest struct {
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice       decimal.Decimal `json:"unit_price" binding:"required"`
	DiscountRate    decimal.Decimal `json:"discount_rate" binding:"percent"`
	TaxRate         decimal.Decimal `json:"tax_rate" binding:"percent"`
	WithholdingRate decimal.Decimal `json:"withholding_rate" binding:"percent"`
}

func (r LineRequest) toDomain() pricing.LineInput {
	return pricing.LineInput{
		Quantity:        r.Quantity,
		UnitPrice:       r.UnitPrice,
		DiscountRate:    r.DiscountRate,
		TaxRate:         r.TaxRate,
		WithholdingRate: r.WithholdingRate,
	}
}

// PreviewRequest asks for line amounts and totals without storing anything
type PreviewRequest struct {
	Kind           string          `json:"kind" binding:"required,oneof=INVOICE SALES_ORDER POS_ORDER"`
	Lines          []LineRequest   `json:"lines" binding:"required,min=1,dive"`
	AmountDiscount decimal.Decimal `json:"amount_discount"`
}

// PreviewResponse carries the rounded line amounts and document totals
type PreviewResponse struct {
	Kind   string                 `json:"kind"`
	Lines  []pricing.LineAmounts  `json:"lines"`
	Totals pricing.DocumentTotals `json:"totals"`
}
