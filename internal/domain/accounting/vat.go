package accounting

import (
	"time"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// VATDeclaration is the monthly KDV declaration draft
type VATDeclaration struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	PeriodStart   time.Time       `json:"period_start"`
	PeriodEnd     time.Time       `json:"period_end"`
	VATSales      decimal.Decimal `json:"vat_sales"`
	VATPurchases  decimal.Decimal `json:"vat_purchases"`
	NetVAT        decimal.Decimal `json:"net_vat"`
	VATPayable    decimal.Decimal `json:"vat_payable"`
	CarryForward  decimal.Decimal `json:"carry_forward"`
	InvoicesCount int             `json:"invoices_count"`
}

// VATPeriod returns the first and last day of the month
func VATPeriod(year, month int) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, shared.NewInvalidInput("month must be between 1 and 12, got %d", month)
	}
	if year < 2000 || year > 2100 {
		return time.Time{}, time.Time{}, shared.NewInvalidInput("year %d is out of range", year)
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end, nil
}

// ComputeVATDeclaration nets output VAT of sales invoices against input VAT
// of purchase invoices dated within the month. Return and cancelled invoices
// are not part of the declaration.
func ComputeVATDeclaration(year, month int, invoices []Invoice) (VATDeclaration, error) {
	start, end, err := VATPeriod(year, month)
	if err != nil {
		return VATDeclaration{}, err
	}

	decl := VATDeclaration{
		Year:         year,
		Month:        month,
		PeriodStart:  start,
		PeriodEnd:    end,
		VATSales:     decimal.Zero,
		VATPurchases: decimal.Zero,
	}
	for i := range invoices {
		inv := &invoices[i]
		day := dateOnly(inv.InvoiceDate)
		if day.Before(start) || day.After(end) || inv.Status == InvoiceStatusCancelled {
			continue
		}
		switch inv.InvoiceType {
		case InvoiceTypeSales:
			decl.VATSales = decl.VATSales.Add(inv.VATAmount)
		case InvoiceTypePurchase:
			decl.VATPurchases = decl.VATPurchases.Add(inv.VATAmount)
		default:
			continue
		}
		decl.InvoicesCount++
	}

	decl.NetVAT = decl.VATSales.Sub(decl.VATPurchases)
	decl.VATPayable = decimal.Max(decl.NetVAT, decimal.Zero)
	decl.CarryForward = decimal.Max(decl.NetVAT.Neg(), decimal.Zero)
	return decl, nil
}
