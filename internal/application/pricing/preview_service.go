package pricing

import (
	"context"
	"fmt"

	"github.com/erp/muhasebe/internal/domain/pricing"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PreviewService runs the line calculator for clients that want to show
// amounts before a document is saved
type PreviewService struct {
	logger *zap.Logger
}

// NewPreviewService creates a new PreviewService
func NewPreviewService(logger *zap.Logger) *PreviewService {
	return &PreviewService{logger: logger}
}

// Preview calculates every line with the formula of the requested kind and
// aggregates them the way the stored document would
func (s *PreviewService) Preview(ctx context.Context, req PreviewRequest) (*PreviewResponse, error) {
	kind := pricing.DocumentKind(req.Kind)
	if !kind.IsValid() {
		return nil, shared.NewInvalidInput("unknown document kind %q", req.Kind)
	}
	if len(req.Lines) == 0 {
		return nil, shared.NewInvalidInput("at least one line is required")
	}
	if kind != pricing.KindSalesOrder && !req.AmountDiscount.IsZero() {
		return nil, shared.NewInvalidInput("amount_discount is only applicable to sales orders")
	}

	amounts := make([]pricing.LineAmounts, len(req.Lines))
	for i, l := range req.Lines {
		a, err := pricing.Calculate(kind, l.toDomain())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		amounts[i] = a
	}

	var totals pricing.DocumentTotals
	switch kind {
	case pricing.KindInvoice:
		totals = pricing.AggregateInvoice(amounts, nil)
	case pricing.KindSalesOrder:
		t, err := pricing.AggregateSalesOrder(amounts, req.AmountDiscount)
		if err != nil {
			return nil, err
		}
		totals = t
	case pricing.KindPOSOrder:
		totals = aggregateReceipt(amounts)
	}

	resp := &PreviewResponse{Kind: req.Kind, Lines: make([]pricing.LineAmounts, len(amounts)), Totals: totals}
	for i, a := range amounts {
		resp.Lines[i] = a.Rounded()
	}
	s.logger.Debug("Pricing preview", zap.String("kind", req.Kind), zap.Int("lines", len(amounts)))
	return resp, nil
}

// aggregateReceipt sums POS lines, which are already rounded per line
func aggregateReceipt(lines []pricing.LineAmounts) pricing.DocumentTotals {
	var untaxed, tax, total decimal.Decimal
	for _, l := range lines {
		untaxed = untaxed.Add(l.Subtotal)
		tax = tax.Add(l.TaxAmount)
		total = total.Add(l.LineTotal)
	}
	return pricing.DocumentTotals{
		AmountUntaxed:     untaxed,
		AmountTax:         tax,
		AmountWithholding: decimal.Zero,
		AmountDiscount:    decimal.Zero,
		AmountTotal:       total,
	}
}
