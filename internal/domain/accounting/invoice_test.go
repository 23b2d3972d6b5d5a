package accounting

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var invoiceDate = time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)

func createTestInvoice(t *testing.T, lines ...InvoiceLineInput) *Invoice {
	t.Helper()
	inv, err := NewInvoice(NewInvoiceParams{
		Number:      "FTR2024000001",
		InvoiceDate: invoiceDate,
		InvoiceType: InvoiceTypeSales,
		Lines:       lines,
	})
	require.NoError(t, err)
	return inv
}

// ==================== Creation Tests ====================

func TestNewInvoice_WithLines(t *testing.T) {
	inv := createTestInvoice(t,
		InvoiceLineInput{Description: "Danışmanlık", Quantity: d("10"), UnitPrice: d("100"), DiscountRate: d("10"), VATRate: d("20")},
		InvoiceLineInput{Description: "Yazılım", Quantity: d("1"), UnitPrice: d("1000"), VATRate: d("20"), WithholdingRate: d("50")},
	)

	assert.True(t, inv.Structured)
	assert.Equal(t, InvoiceStatusDraft, inv.Status)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, 10, inv.Lines[0].Sequence)
	assert.Equal(t, 20, inv.Lines[1].Sequence)
	assert.Equal(t, inv.ID, inv.Lines[1].InvoiceID)

	assert.Equal(t, "900.00", inv.Lines[0].Subtotal.StringFixed(2))
	assert.Equal(t, "180.00", inv.Lines[0].VATAmount.StringFixed(2))
	assert.Equal(t, "1080.00", inv.Lines[0].LineTotal.StringFixed(2))

	assert.Equal(t, "1900.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "380.00", inv.VATAmount.StringFixed(2))
	assert.Equal(t, "500.00", inv.WithholdingAmount.StringFixed(2))
	assert.Equal(t, "1780.00", inv.TotalAmount.StringFixed(2))

	require.Len(t, inv.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeInvoiceCreated, inv.GetDomainEvents()[0].EventType())
}

func TestNewInvoice_FlatAmounts(t *testing.T) {
	inv, err := NewInvoice(NewInvoiceParams{
		Number:        "FTR2024000002",
		InvoiceDate:   invoiceDate,
		InvoiceType:   InvoiceTypePurchase,
		FlatSubtotal:  d("1000"),
		FlatVATAmount: d("200"),
	})
	require.NoError(t, err)

	assert.False(t, inv.Structured)
	assert.Empty(t, inv.Lines)
	assert.Equal(t, "1200.00", inv.TotalAmount.StringFixed(2))

	err = inv.AddLine(InvoiceLineInput{Description: "x", Quantity: d("1"), UnitPrice: d("1")})
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	assert.Equal(t, "1200.00", inv.TotalAmount.StringFixed(2))
}

func TestNewInvoice_Validation(t *testing.T) {
	due := invoiceDate.AddDate(0, 0, -1)
	tests := []struct {
		name   string
		params NewInvoiceParams
	}{
		{"empty number", NewInvoiceParams{InvoiceDate: invoiceDate, InvoiceType: InvoiceTypeSales}},
		{"bad type", NewInvoiceParams{Number: "A", InvoiceDate: invoiceDate, InvoiceType: "PROFORMA"}},
		{"missing date", NewInvoiceParams{Number: "A", InvoiceType: InvoiceTypeSales}},
		{"due before date", NewInvoiceParams{Number: "A", InvoiceDate: invoiceDate, DueDate: &due, InvoiceType: InvoiceTypeSales}},
		{"negative flat", NewInvoiceParams{Number: "A", InvoiceDate: invoiceDate, InvoiceType: InvoiceTypeSales, FlatSubtotal: d("-1")}},
		{"zero quantity line", NewInvoiceParams{Number: "A", InvoiceDate: invoiceDate, InvoiceType: InvoiceTypeSales,
			Lines: []InvoiceLineInput{{Description: "x", Quantity: d("0"), UnitPrice: d("1")}}}},
		{"empty line description", NewInvoiceParams{Number: "A", InvoiceDate: invoiceDate, InvoiceType: InvoiceTypeSales,
			Lines: []InvoiceLineInput{{Quantity: d("1"), UnitPrice: d("1")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInvoice(tt.params)
			assert.True(t, errors.Is(err, shared.ErrInvalidInput), "got %v", err)
		})
	}
}

// ==================== Totals Tests ====================

func TestInvoice_RecalculateIsIdempotent(t *testing.T) {
	inv := createTestInvoice(t,
		InvoiceLineInput{Description: "a", Quantity: d("1"), UnitPrice: d("0.335"), VATRate: d("1")},
		InvoiceLineInput{Description: "b", Quantity: d("1"), UnitPrice: d("0.335"), VATRate: d("1")},
		InvoiceLineInput{Description: "c", Quantity: d("1"), UnitPrice: d("0.335"), VATRate: d("1")},
	)
	first := inv.Totals()

	require.NoError(t, inv.Recalculate())
	require.NoError(t, inv.Recalculate())

	assert.Equal(t, first, inv.Totals())
	assert.Equal(t, "0.01", inv.VATAmount.StringFixed(2))
}

func TestInvoice_AddLine(t *testing.T) {
	inv := createTestInvoice(t, InvoiceLineInput{Description: "a", Quantity: d("1"), UnitPrice: d("100"), VATRate: d("20")})

	require.NoError(t, inv.AddLine(InvoiceLineInput{Description: "b", Quantity: d("2"), UnitPrice: d("50"), VATRate: d("10")}))
	assert.Equal(t, "230.00", inv.TotalAmount.StringFixed(2))
	assert.Equal(t, 20, inv.Lines[1].Sequence)

	require.NoError(t, inv.ChangeStatus(InvoiceStatusPending))
	err := inv.AddLine(InvoiceLineInput{Description: "c", Quantity: d("1"), UnitPrice: d("1")})
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
}

// ==================== Status & Payment Tests ====================

func TestInvoice_ChangeStatus(t *testing.T) {
	inv := createTestInvoice(t, InvoiceLineInput{Description: "a", Quantity: d("1"), UnitPrice: d("100")})

	require.NoError(t, inv.ChangeStatus(InvoiceStatusPending))
	require.NoError(t, inv.ChangeStatus(InvoiceStatusSent))
	require.NoError(t, inv.ChangeStatus(InvoiceStatusApproved))

	err := inv.ChangeStatus(InvoiceStatusCancelled)
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
	assert.Equal(t, InvoiceStatusApproved, inv.Status)

	assert.True(t, errors.Is(inv.ChangeStatus("ARCHIVED"), shared.ErrInvalidInput))
}

func TestInvoice_RecordPayment(t *testing.T) {
	inv := createTestInvoice(t, InvoiceLineInput{Description: "a", Quantity: d("1"), UnitPrice: d("100"), VATRate: d("20")})

	require.NoError(t, inv.RecordPayment(d("100")))
	assert.Equal(t, "20.00", inv.Outstanding().StringFixed(2))
	assert.False(t, inv.IsPaid())

	assert.True(t, errors.Is(inv.RecordPayment(d("20.01")), shared.ErrInvalidInput))
	assert.True(t, errors.Is(inv.RecordPayment(d("0")), shared.ErrInvalidInput))

	require.NoError(t, inv.RecordPayment(d("20")))
	assert.True(t, inv.IsPaid())

	cancelled := createTestInvoice(t, InvoiceLineInput{Description: "a", Quantity: d("1"), UnitPrice: d("100")})
	require.NoError(t, cancelled.ChangeStatus(InvoiceStatusCancelled))
	assert.True(t, errors.Is(cancelled.RecordPayment(d("1")), shared.ErrInvalidTransition))
}

func TestInvoice_MarkAnomaly(t *testing.T) {
	inv := createTestInvoice(t, InvoiceLineInput{Description: "a", Quantity: d("1"), UnitPrice: d("100")})
	inv.MarkAnomaly(0.91, true)
	require.NotNil(t, inv.AnomalyScore)
	assert.Equal(t, 0.91, *inv.AnomalyScore)
	assert.True(t, inv.IsAnomaly)
}
