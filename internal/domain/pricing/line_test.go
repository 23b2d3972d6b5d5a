package pricing

import (
	"errors"
	"testing"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ==================== Invoice Line Tests ====================

func TestCalculateInvoiceLine(t *testing.T) {
	tests := []struct {
		name        string
		input       LineInput
		subtotal    string
		tax         string
		withholding string
		total       string
	}{
		{
			name:     "discount applied before tax",
			input:    LineInput{Quantity: d("10"), UnitPrice: d("100"), DiscountRate: d("10"), TaxRate: d("20")},
			subtotal: "900", tax: "180", withholding: "0", total: "1080",
		},
		{
			name:     "withholding subtracted from total",
			input:    LineInput{Quantity: d("1"), UnitPrice: d("1000"), TaxRate: d("20"), WithholdingRate: d("50")},
			subtotal: "1000", tax: "200", withholding: "500", total: "700",
		},
		{
			name:     "negative unit price for credit line",
			input:    LineInput{Quantity: d("2"), UnitPrice: d("-50"), TaxRate: d("20")},
			subtotal: "-100", tax: "-20", withholding: "0", total: "-120",
		},
		{
			name:     "zero tax",
			input:    LineInput{Quantity: d("3"), UnitPrice: d("33.33"), TaxRate: d("0")},
			subtotal: "99.99", tax: "0", withholding: "0", total: "99.99",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateInvoiceLine(tt.input)
			require.NoError(t, err)
			assert.True(t, got.Subtotal.Equal(d(tt.subtotal)), "subtotal %s", got.Subtotal)
			assert.True(t, got.TaxAmount.Equal(d(tt.tax)), "tax %s", got.TaxAmount)
			assert.True(t, got.WithholdingAmount.Equal(d(tt.withholding)), "withholding %s", got.WithholdingAmount)
			assert.True(t, got.LineTotal.Equal(d(tt.total)), "total %s", got.LineTotal)
		})
	}
}

func TestCalculateInvoiceLine_KeepsFullPrecision(t *testing.T) {
	got, err := CalculateInvoiceLine(LineInput{Quantity: d("1"), UnitPrice: d("0.333"), TaxRate: d("18")})
	require.NoError(t, err)

	assert.Equal(t, "0.05994", got.TaxAmount.String())
	assert.Equal(t, "0.06", got.Rounded().TaxAmount.StringFixed(2))
}

// ==================== Sales Order Line Tests ====================

func TestCalculateSalesOrderLine(t *testing.T) {
	t.Run("documented example", func(t *testing.T) {
		got, err := CalculateSalesOrderLine(LineInput{Quantity: d("5"), UnitPrice: d("200"), TaxRate: d("20")})
		require.NoError(t, err)
		assert.True(t, got.Subtotal.Equal(d("1000")))
		assert.True(t, got.TaxAmount.Equal(d("200")))
		assert.True(t, got.LineTotal.Equal(d("1200")))
		assert.True(t, got.WithholdingAmount.IsZero())
	})

	t.Run("discount reduces subtotal", func(t *testing.T) {
		got, err := CalculateSalesOrderLine(LineInput{Quantity: d("4"), UnitPrice: d("50"), DiscountRate: d("25"), TaxRate: d("10")})
		require.NoError(t, err)
		assert.True(t, got.Gross.Equal(d("200")))
		assert.True(t, got.Subtotal.Equal(d("150")))
		assert.True(t, got.TaxAmount.Equal(d("15")))
		assert.True(t, got.LineTotal.Equal(d("165")))
	})

	t.Run("rejects withholding", func(t *testing.T) {
		_, err := CalculateSalesOrderLine(LineInput{Quantity: d("1"), UnitPrice: d("1"), WithholdingRate: d("10")})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestCalculatePOSLine_RoundsEachAmount(t *testing.T) {
	got, err := CalculatePOSLine(LineInput{Quantity: d("3"), UnitPrice: d("9.99"), DiscountRate: d("5"), TaxRate: d("8")})
	require.NoError(t, err)

	assert.Equal(t, "28.47", got.Subtotal.StringFixed(2))
	assert.Equal(t, "2.28", got.TaxAmount.StringFixed(2))
	assert.Equal(t, "30.75", got.LineTotal.StringFixed(2))
}

// ==================== Validation Tests ====================

func TestLineInput_Validate(t *testing.T) {
	tests := []struct {
		name  string
		input LineInput
	}{
		{"zero quantity", LineInput{Quantity: d("0"), UnitPrice: d("1")}},
		{"negative quantity", LineInput{Quantity: d("-1"), UnitPrice: d("1")}},
		{"discount above 100", LineInput{Quantity: d("1"), DiscountRate: d("101")}},
		{"negative discount", LineInput{Quantity: d("1"), DiscountRate: d("-5")}},
		{"negative tax", LineInput{Quantity: d("1"), TaxRate: d("-1")}},
		{"withholding above 100", LineInput{Quantity: d("1"), WithholdingRate: d("150")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateInvoiceLine(tt.input)
			require.Error(t, err)
			assert.Equal(t, shared.CodeInvalidInput, shared.CodeOf(err))
		})
	}
}

func TestCalculate_Dispatch(t *testing.T) {
	in := LineInput{Quantity: d("10"), UnitPrice: d("100"), DiscountRate: d("10"), TaxRate: d("20")}

	inv, err := Calculate(KindInvoice, in)
	require.NoError(t, err)
	so, err := Calculate(KindSalesOrder, in)
	require.NoError(t, err)
	assert.True(t, inv.LineTotal.Equal(so.LineTotal))

	_, err = Calculate(DocumentKind("RECEIPT"), in)
	assert.Equal(t, shared.CodeInvalidInput, shared.CodeOf(err))
	assert.False(t, DocumentKind("RECEIPT").IsValid())
}
