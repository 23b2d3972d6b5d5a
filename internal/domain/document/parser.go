// Package document extracts invoice fields from OCR text. Recognition itself
// happens upstream; this package only reads the already extracted text.
package document

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// confidenceFields is the number of main fields confidence is measured against
const confidenceFields = 6

var (
	invoiceNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:FATURA|INVOICE)\s*(?:NO|NUM|#)?\s*:?\s*([A-Z0-9]*\d[A-Z0-9]*)`),
		regexp.MustCompile(`(?:BELGE|DOCUMENT)\s*(?:NO)?\s*:?\s*([A-Z0-9]*\d[A-Z0-9]*)`),
		regexp.MustCompile(`SER[İI]\s*:?\s*([A-Z]+)\s*(?:NO)?\s*:?\s*(\d+)`),
	}
	dayFirstDate  = regexp.MustCompile(`\b(\d{2})[./](\d{2})[./](\d{4})\b`)
	yearFirstDate = regexp.MustCompile(`\b(\d{4})[./-](\d{2})[./-](\d{2})\b`)
	taxNumberRe   = regexp.MustCompile(`(?:VKN|V\.K\.N\.?|VERG[İI]\s*NO)\s*:?\s*(\d{10})\b`)
	taxOfficeRe   = regexp.MustCompile(`VERG[İI]\s*DA[İI]RES[İI]\s*:?\s*([A-ZÇĞİÖŞÜ ]+)`)
	totalRe       = regexp.MustCompile(`(ARA\s*)?(?:GENEL\s*)?(?:TOPLAM|TOTAL)\s*:?\s*([\d.,]+)`)
	subtotalRe    = regexp.MustCompile(`(?:ARA\s*TOPLAM|SUBTOTAL|NET)\s*:?\s*([\d.,]+)`)
	vatAmountRe   = regexp.MustCompile(`(?:KDV|VAT)\s*(?:TUTARI)?\s*:\s*([\d.,]+)|(?:KDV|VAT)\s+([\d.,]*,\d{2})`)
	vatRateRe     = regexp.MustCompile(`%\s*(\d+)\s*KDV`)
	withholdingRe = regexp.MustCompile(`TEVK[İI]FAT\s*:?\s*%?\s*(\d+)`)
)

// CompanyInfo is the issuer block of the document
type CompanyInfo struct {
	TaxNumber string `json:"tax_number,omitempty"`
	TaxOffice string `json:"tax_office,omitempty"`
}

// Amounts are the document level figures printed on the invoice
type Amounts struct {
	Subtotal *decimal.Decimal `json:"subtotal,omitempty"`
	VAT      *decimal.Decimal `json:"vat,omitempty"`
	Total    *decimal.Decimal `json:"total,omitempty"`
}

// TaxInfo holds the printed rates, as 0..100 percentages
type TaxInfo struct {
	VATRate         *int `json:"vat_rate,omitempty"`
	WithholdingRate *int `json:"withholding_rate,omitempty"`
}

// ParsedInvoice is the result of field extraction
type ParsedInvoice struct {
	InvoiceNumber string      `json:"invoice_number,omitempty"`
	InvoiceDate   *time.Time  `json:"invoice_date,omitempty"`
	Company       CompanyInfo `json:"company_info"`
	Amounts       Amounts     `json:"amounts"`
	TaxInfo       TaxInfo     `json:"tax_info"`
	Confidence    float64     `json:"confidence"`
	ArchiveKey    string      `json:"archive_key,omitempty"`
}

// Archive stores the raw scanned document
type Archive interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
}

// Parser extracts invoice fields from OCR text
type Parser struct {
	upper cases.Caser
}

// NewParser creates a parser that upper-cases text with Turkish rules,
// so that "i" becomes "İ" and "ı" becomes "I".
func NewParser() *Parser {
	return &Parser{upper: cases.Upper(language.Turkish)}
}

// Parse extracts every field it can find. Missing fields stay empty.
func (p *Parser) Parse(text string) ParsedInvoice {
	t := p.upper.String(text)

	out := ParsedInvoice{
		InvoiceNumber: extractInvoiceNumber(t),
		InvoiceDate:   extractDate(t),
	}
	if m := taxNumberRe.FindStringSubmatch(t); m != nil {
		out.Company.TaxNumber = m[1]
	}
	if m := taxOfficeRe.FindStringSubmatch(t); m != nil {
		out.Company.TaxOffice = strings.TrimSpace(m[1])
	}
	out.Amounts = extractAmounts(t)
	if m := vatRateRe.FindStringSubmatch(t); m != nil {
		out.TaxInfo.VATRate = atoiPtr(m[1])
	}
	if m := withholdingRe.FindStringSubmatch(t); m != nil {
		out.TaxInfo.WithholdingRate = atoiPtr(m[1])
	}
	out.Confidence = confidence(out)
	return out
}

// ParseTurkishAmount reads "1.234,56" style numbers. A lone dot followed by
// exactly two digits is treated as a decimal point.
func ParseTurkishAmount(s string) (decimal.Decimal, bool) {
	s = strings.Trim(strings.TrimSpace(s), ".,")
	if s == "" {
		return decimal.Zero, false
	}
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") == 1 && len(s)-strings.Index(s, ".") == 3:
	default:
		s = strings.ReplaceAll(s, ".", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func extractInvoiceNumber(t string) string {
	for _, re := range invoiceNumberPatterns {
		m := re.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		if len(m) == 3 {
			return m[1] + m[2]
		}
		return m[1]
	}
	return ""
}

func extractDate(t string) *time.Time {
	if m := dayFirstDate.FindStringSubmatch(t); m != nil {
		if d, ok := buildDate(m[3], m[2], m[1]); ok {
			return &d
		}
	}
	if m := yearFirstDate.FindStringSubmatch(t); m != nil {
		if d, ok := buildDate(m[1], m[2], m[3]); ok {
			return &d
		}
	}
	return nil
}

func buildDate(year, month, day string) (time.Time, bool) {
	d, err := time.Parse("2006-01-02", year+"-"+month+"-"+day)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func extractAmounts(t string) Amounts {
	var a Amounts
	for _, m := range totalRe.FindAllStringSubmatch(t, -1) {
		if m[1] != "" {
			continue
		}
		if v, ok := ParseTurkishAmount(m[2]); ok {
			a.Total = &v
			break
		}
	}
	if m := subtotalRe.FindStringSubmatch(t); m != nil {
		if v, ok := ParseTurkishAmount(m[1]); ok {
			a.Subtotal = &v
		}
	}
	if m := vatAmountRe.FindStringSubmatch(t); m != nil {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		if v, ok := ParseTurkishAmount(raw); ok {
			a.VAT = &v
		}
	}
	return a
}

func confidence(p ParsedInvoice) float64 {
	filled := 0
	for _, ok := range []bool{
		p.InvoiceNumber != "",
		p.InvoiceDate != nil,
		p.Company.TaxNumber != "",
		p.Company.TaxOffice != "",
		p.Amounts.Total != nil,
		p.TaxInfo.VATRate != nil,
	} {
		if ok {
			filled++
		}
	}
	return float64(filled) / confidenceFields
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
