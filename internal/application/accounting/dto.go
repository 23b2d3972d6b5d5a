package accounting

import (
	"time"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceLineRequest is one line of a structured invoice
type InvoiceLineRequest struct {
	Description     string          `json:"description" binding:"required,min=1,max=500"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice       decimal.Decimal `json:"unit_price" binding:"required"`
	DiscountRate    decimal.Decimal `json:"discount_rate" binding:"percent"`
	VATRate         decimal.Decimal `json:"vat_rate" binding:"vat_rate"`
	WithholdingRate decimal.Decimal `json:"withholding_rate" binding:"percent"`
}

func (l InvoiceLineRequest) toDomain() accounting.InvoiceLineInput {
	return accounting.InvoiceLineInput{
		Description:     l.Description,
		Quantity:        l.Quantity,
		UnitPrice:       l.UnitPrice,
		DiscountRate:    l.DiscountRate,
		VATRate:         l.VATRate,
		WithholdingRate: l.WithholdingRate,
	}
}

// CreateInvoiceRequest creates an invoice. Without lines, subtotal and
// vat_amount are taken as the header amounts.
type CreateInvoiceRequest struct {
	InvoiceNumber string               `json:"invoice_number" binding:"required,min=1,max=50"`
	InvoiceDate   time.Time            `json:"invoice_date" binding:"required"`
	DueDate       *time.Time           `json:"due_date"`
	InvoiceType   string               `json:"invoice_type" binding:"required,oneof=SATIS ALIS IADE"`
	PartnerID     *uuid.UUID           `json:"partner_id"`
	Currency      string               `json:"currency" binding:"omitempty,len=3"`
	Notes         string               `json:"notes"`
	Lines         []InvoiceLineRequest `json:"lines" binding:"omitempty,dive"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	VATAmount     decimal.Decimal      `json:"vat_amount"`
}

func (r CreateInvoiceRequest) toParams() accounting.NewInvoiceParams {
	lines := make([]accounting.InvoiceLineInput, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = l.toDomain()
	}
	return accounting.NewInvoiceParams{
		Number:        r.InvoiceNumber,
		InvoiceDate:   r.InvoiceDate,
		DueDate:       r.DueDate,
		InvoiceType:   accounting.InvoiceType(r.InvoiceType),
		PartnerID:     r.PartnerID,
		Currency:      r.Currency,
		Notes:         r.Notes,
		Lines:         lines,
		FlatSubtotal:  r.Subtotal,
		FlatVATAmount: r.VATAmount,
	}
}

// InvoiceLineResponse represents an invoice line in API responses
type InvoiceLineResponse struct {
	ID                uuid.UUID       `json:"id"`
	Sequence          int             `json:"sequence"`
	Description       string          `json:"description"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	DiscountRate      decimal.Decimal `json:"discount_rate"`
	VATRate           decimal.Decimal `json:"vat_rate"`
	WithholdingRate   decimal.Decimal `json:"withholding_rate"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	VATAmount         decimal.Decimal `json:"vat_amount"`
	WithholdingAmount decimal.Decimal `json:"withholding_amount"`
	LineTotal         decimal.Decimal `json:"line_total"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                uuid.UUID             `json:"id"`
	InvoiceNumber     string                `json:"invoice_number"`
	InvoiceDate       time.Time             `json:"invoice_date"`
	DueDate           *time.Time            `json:"due_date,omitempty"`
	InvoiceType       string                `json:"invoice_type"`
	Status            string                `json:"status"`
	PartnerID         *uuid.UUID            `json:"partner_id,omitempty"`
	Subtotal          decimal.Decimal       `json:"subtotal"`
	VATAmount         decimal.Decimal       `json:"vat_amount"`
	WithholdingAmount decimal.Decimal       `json:"withholding_amount"`
	TotalAmount       decimal.Decimal       `json:"total_amount"`
	PaidAmount        decimal.Decimal       `json:"paid_amount"`
	Outstanding       decimal.Decimal       `json:"outstanding"`
	Currency          string                `json:"currency"`
	Notes             string                `json:"notes,omitempty"`
	AnomalyScore      *float64              `json:"anomaly_score,omitempty"`
	IsAnomaly         bool                  `json:"is_anomaly"`
	Lines             []InvoiceLineResponse `json:"lines"`
	Version           int                   `json:"version"`
}

// ToInvoiceResponse converts a domain invoice to a response
func ToInvoiceResponse(inv *accounting.Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = InvoiceLineResponse{
			ID:                l.ID,
			Sequence:          l.Sequence,
			Description:       l.Description,
			Quantity:          l.Quantity,
			UnitPrice:         l.UnitPrice,
			DiscountRate:      l.DiscountRate,
			VATRate:           l.VATRate,
			WithholdingRate:   l.WithholdingRate,
			Subtotal:          l.Subtotal,
			VATAmount:         l.VATAmount,
			WithholdingAmount: l.WithholdingAmount,
			LineTotal:         l.LineTotal,
		}
	}
	return InvoiceResponse{
		ID:                inv.ID,
		InvoiceNumber:     inv.Number,
		InvoiceDate:       inv.InvoiceDate,
		DueDate:           inv.DueDate,
		InvoiceType:       string(inv.InvoiceType),
		Status:            string(inv.Status),
		PartnerID:         inv.PartnerID,
		Subtotal:          inv.Subtotal,
		VATAmount:         inv.VATAmount,
		WithholdingAmount: inv.WithholdingAmount,
		TotalAmount:       inv.TotalAmount,
		PaidAmount:        inv.PaidAmount,
		Outstanding:       inv.Outstanding(),
		Currency:          inv.Currency,
		Notes:             inv.Notes,
		AnomalyScore:      inv.AnomalyScore,
		IsAnomaly:         inv.IsAnomaly,
		Lines:             lines,
		Version:           inv.Version,
	}
}

// InvoiceListFilter represents filter options for the invoice list
type InvoiceListFilter struct {
	StartDate   *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate     *time.Time `form:"end_date" time_format:"2006-01-02"`
	PartnerID   *uuid.UUID `form:"-"`
	InvoiceType string     `form:"invoice_type" binding:"omitempty,oneof=SATIS ALIS IADE"`
	Status      string     `form:"status"`
	Page        int        `form:"page"`
	PageSize    int        `form:"page_size" binding:"omitempty,max=100"`
}

// RecordPaymentRequest records a payment against an invoice
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// ChangeStatusRequest moves an invoice to another status
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=TASLAK BEKLEMEDE GONDERILDI ONAYLANDI REDDEDILDI IPTAL"`
}

// CreateAccountRequest creates a chart-of-accounts entry
type CreateAccountRequest struct {
	Code        string           `json:"code" binding:"required,min=1,max=20"`
	Name        string           `json:"name" binding:"required,min=1,max=200"`
	AccountType string           `json:"account_type" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ParentID    *uuid.UUID       `json:"parent_id"`
	VATRate     *decimal.Decimal `json:"vat_rate" binding:"omitempty,vat_rate"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID           uuid.UUID        `json:"id"`
	Code         string           `json:"code"`
	Name         string           `json:"name"`
	AccountType  string           `json:"account_type"`
	TypeLabel    string           `json:"type_label"`
	ParentID     *uuid.UUID       `json:"parent_id,omitempty"`
	IsVATAccount bool             `json:"is_vat_account"`
	VATRate      *decimal.Decimal `json:"vat_rate,omitempty"`
	IsActive     bool             `json:"is_active"`
}

// ToAccountResponse converts a domain account to a response
func ToAccountResponse(a *accounting.Account) AccountResponse {
	return AccountResponse{
		ID:           a.ID,
		Code:         a.Code,
		Name:         a.Name,
		AccountType:  string(a.AccountType),
		TypeLabel:    a.AccountType.Label(),
		ParentID:     a.ParentID,
		IsVATAccount: a.IsVATAccount,
		VATRate:      a.VATRate,
		IsActive:     a.IsActive,
	}
}

// PostEntryRequest posts one ledger entry
type PostEntryRequest struct {
	AccountID       uuid.UUID       `json:"account_id" binding:"required"`
	TransactionType string          `json:"transaction_type" binding:"required,oneof=INVOICE RECEIPT EXPENSE PAYMENT TRANSFER CASH"`
	TransactionDate time.Time       `json:"transaction_date" binding:"required"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	Description     string          `json:"description" binding:"max=500"`
	InvoiceID       *uuid.UUID      `json:"invoice_id"`
	ReferenceNumber string          `json:"reference_number" binding:"max=50"`
}

// LedgerEntryResponse represents a ledger entry in API responses
type LedgerEntryResponse struct {
	ID              uuid.UUID       `json:"id"`
	AccountID       uuid.UUID       `json:"account_id"`
	TransactionType string          `json:"transaction_type"`
	TransactionDate time.Time       `json:"transaction_date"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	Description     string          `json:"description,omitempty"`
	InvoiceID       *uuid.UUID      `json:"invoice_id,omitempty"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
}

// ToLedgerEntryResponse converts a domain entry to a response
func ToLedgerEntryResponse(e *accounting.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:              e.ID,
		AccountID:       e.AccountID,
		TransactionType: string(e.TransactionType),
		TransactionDate: e.TransactionDate,
		Debit:           e.Debit,
		Credit:          e.Credit,
		Description:     e.Description,
		InvoiceID:       e.InvoiceID,
		ReferenceNumber: e.ReferenceNumber,
	}
}

// LedgerListFilter represents filter options for the ledger list
type LedgerListFilter struct {
	AccountID *uuid.UUID `form:"-"`
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size" binding:"omitempty,max=100"`
}

// VATDeclarationResponse adds Turkish formatted amounts to the declaration
type VATDeclarationResponse struct {
	accounting.VATDeclaration
	Formatted map[string]string `json:"formatted"`
}

// CreatePartnerRequest creates a customer or supplier
type CreatePartnerRequest struct {
	Code        string           `json:"code" binding:"required,min=1,max=20"`
	Name        string           `json:"name" binding:"required,min=1,max=200"`
	PartnerType string           `json:"partner_type" binding:"required,oneof=CUSTOMER SUPPLIER BOTH"`
	TaxNumber   string           `json:"tax_number" binding:"omitempty,tax_number"`
	TaxOffice   string           `json:"tax_office" binding:"max=100"`
	Email       string           `json:"email" binding:"omitempty,email"`
	Phone       string           `json:"phone" binding:"max=30"`
	CreditLimit *decimal.Decimal `json:"credit_limit"`
}

// UpdatePartnerRequest carries the partner fields to change
type UpdatePartnerRequest struct {
	Name                 *string          `json:"name" binding:"omitempty,min=1,max=200"`
	TaxNumber            *string          `json:"tax_number" binding:"omitempty,tax_number"`
	TaxOffice            *string          `json:"tax_office" binding:"omitempty,max=100"`
	Email                *string          `json:"email" binding:"omitempty,email"`
	Phone                *string          `json:"phone" binding:"omitempty,max=30"`
	CreditLimit          *decimal.Decimal `json:"credit_limit"`
	CurrentBalance       *decimal.Decimal `json:"current_balance"`
	CreditScore          *float64         `json:"credit_score" binding:"omitempty,min=0,max=1"`
	PaymentBehaviorScore *float64         `json:"payment_behavior_score" binding:"omitempty,min=0,max=1"`
	IsActive             *bool            `json:"is_active"`
}

func (r UpdatePartnerRequest) toDomain() accounting.PartnerUpdate {
	return accounting.PartnerUpdate{
		Name:                 r.Name,
		TaxNumber:            r.TaxNumber,
		TaxOffice:            r.TaxOffice,
		Email:                r.Email,
		Phone:                r.Phone,
		CreditLimit:          r.CreditLimit,
		CurrentBalance:       r.CurrentBalance,
		CreditScore:          r.CreditScore,
		PaymentBehaviorScore: r.PaymentBehaviorScore,
		IsActive:             r.IsActive,
	}
}

// PartnerResponse represents a partner in API responses
type PartnerResponse struct {
	ID                   uuid.UUID       `json:"id"`
	Code                 string          `json:"code"`
	Name                 string          `json:"name"`
	PartnerType          string          `json:"partner_type"`
	TaxNumber            string          `json:"tax_number,omitempty"`
	TaxOffice            string          `json:"tax_office,omitempty"`
	Email                string          `json:"email,omitempty"`
	Phone                string          `json:"phone,omitempty"`
	CreditLimit          decimal.Decimal `json:"credit_limit"`
	CurrentBalance       decimal.Decimal `json:"current_balance"`
	CreditScore          *float64        `json:"credit_score,omitempty"`
	PaymentBehaviorScore *float64        `json:"payment_behavior_score,omitempty"`
	IsActive             bool            `json:"is_active"`
	Version              int             `json:"version"`
}

// ToPartnerResponse converts a domain partner to a response
func ToPartnerResponse(p *accounting.Partner) PartnerResponse {
	return PartnerResponse{
		ID:                   p.ID,
		Code:                 p.Code,
		Name:                 p.Name,
		PartnerType:          string(p.PartnerType),
		TaxNumber:            p.TaxNumber,
		TaxOffice:            p.TaxOffice,
		Email:                p.Email,
		Phone:                p.Phone,
		CreditLimit:          p.CreditLimit,
		CurrentBalance:       p.CurrentBalance,
		CreditScore:          p.CreditScore,
		PaymentBehaviorScore: p.PaymentBehaviorScore,
		IsActive:             p.IsActive,
		Version:              p.Version,
	}
}
