// Package export renders financial reports as XLSX workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the media type of the generated workbooks
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// builtin number format "#,##0.00"
const amountNumFmt = 4

// sheet writes rows top to bottom on a single worksheet
type sheet struct {
	f      *excelize.File
	name   string
	row    int
	amount int
	bold   int
}

func newSheet(name string) (*sheet, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", name); err != nil {
		_ = f.Close()
		return nil, err
	}

	amount, err := f.NewStyle(&excelize.Style{NumFmt: amountNumFmt})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := f.SetColWidth(name, "A", "A", 14); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetColWidth(name, "B", "B", 40); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetColWidth(name, "C", "E", 18); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &sheet{f: f, name: name, row: 1, amount: amount, bold: bold}, nil
}

// add appends one row. decimal values are written as numbers with the
// amount format; everything else as-is.
func (s *sheet) add(values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, s.row)
		if err != nil {
			return err
		}
		if d, ok := v.(decimal.Decimal); ok {
			if err := s.f.SetCellValue(s.name, cell, d.Round(2).InexactFloat64()); err != nil {
				return err
			}
			if err := s.f.SetCellStyle(s.name, cell, cell, s.amount); err != nil {
				return err
			}
			continue
		}
		if err := s.f.SetCellValue(s.name, cell, v); err != nil {
			return err
		}
	}
	s.row++
	return nil
}

// heading appends a bold row
func (s *sheet) heading(values ...any) error {
	row := s.row
	if err := s.add(values...); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(values), row)
	return s.f.SetCellStyle(s.name, first, last, s.bold)
}

func (s *sheet) blank() {
	s.row++
}

func (s *sheet) writeTo(w io.Writer) error {
	defer func() { _ = s.f.Close() }()
	if err := s.f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (s *sheet) accounts(title string, balances []accounting.AccountBalance, total decimal.Decimal) error {
	if err := s.heading(title); err != nil {
		return err
	}
	if err := s.heading("Hesap Kodu", "Hesap Adı", "Borç", "Alacak", "Bakiye"); err != nil {
		return err
	}
	for _, b := range balances {
		if err := s.add(b.Code, b.Name, b.Debit, b.Credit, b.Balance); err != nil {
			return err
		}
	}
	if err := s.heading("", "Toplam", "", "", total); err != nil {
		return err
	}
	s.blank()
	return nil
}

// WriteBalanceSheet renders the balance sheet with one block per section
func WriteBalanceSheet(w io.Writer, report *accounting.BalanceSheet) error {
	s, err := newSheet("Bilanço")
	if err != nil {
		return err
	}
	if err := s.heading("Bilanço", report.AsOf.Format("02.01.2006")); err != nil {
		return err
	}
	s.blank()

	sections := []struct {
		title   string
		section accounting.BalanceSection
	}{
		{"Varlıklar", report.Assets},
		{"Yükümlülükler", report.Liabilities},
		{"Özkaynaklar", report.Equity},
	}
	for _, sec := range sections {
		if err := s.accounts(sec.title, sec.section.Accounts, sec.section.Total); err != nil {
			return err
		}
	}
	return s.writeTo(w)
}

// WriteIncomeStatement renders revenue and expense accounts and the net profit
func WriteIncomeStatement(w io.Writer, report *accounting.IncomeStatement) error {
	s, err := newSheet("Gelir Tablosu")
	if err != nil {
		return err
	}
	period := report.StartDate.Format("02.01.2006") + " - " + report.EndDate.Format("02.01.2006")
	if err := s.heading("Gelir Tablosu", period); err != nil {
		return err
	}
	s.blank()

	if err := s.accounts("Gelirler", report.Revenue, report.TotalRevenue); err != nil {
		return err
	}
	if err := s.accounts("Giderler", report.Expenses, report.TotalExpense); err != nil {
		return err
	}
	if err := s.heading("", "Net Kâr", "", "", report.NetProfit); err != nil {
		return err
	}
	return s.writeTo(w)
}

// WriteVATDeclaration renders the monthly KDV declaration as label/value rows
func WriteVATDeclaration(w io.Writer, d *accounting.VATDeclaration) error {
	s, err := newSheet("KDV Beyannamesi")
	if err != nil {
		return err
	}
	if err := s.heading("KDV Beyannamesi", fmt.Sprintf("%02d/%d", d.Month, d.Year)); err != nil {
		return err
	}
	s.blank()

	rows := []struct {
		label string
		value any
	}{
		{"Dönem Başı", d.PeriodStart.Format("02.01.2006")},
		{"Dönem Sonu", d.PeriodEnd.Format("02.01.2006")},
		{"Hesaplanan KDV", d.VATSales},
		{"İndirilecek KDV", d.VATPurchases},
		{"Net KDV", d.NetVAT},
		{"Ödenecek KDV", d.VATPayable},
		{"Devreden KDV", d.CarryForward},
		{"Fatura Sayısı", d.InvoicesCount},
	}
	for _, r := range rows {
		if err := s.add("", r.label, r.value); err != nil {
			return err
		}
	}
	return s.writeTo(w)
}
