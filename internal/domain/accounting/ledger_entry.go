package accounting

import (
	"time"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the business origin of a ledger entry
type TransactionType string

const (
	TransactionTypeInvoice  TransactionType = "INVOICE"
	TransactionTypeReceipt  TransactionType = "RECEIPT"
	TransactionTypeExpense  TransactionType = "EXPENSE"
	TransactionTypePayment  TransactionType = "PAYMENT"
	TransactionTypeTransfer TransactionType = "TRANSFER"
	TransactionTypeCash     TransactionType = "CASH"
)

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeInvoice, TransactionTypeReceipt, TransactionTypeExpense,
		TransactionTypePayment, TransactionTypeTransfer, TransactionTypeCash:
		return true
	}
	return false
}

// LedgerEntry is a single debit or credit posting against an account.
// Entries are immutable: there is no update path, corrections are new entries.
type LedgerEntry struct {
	shared.BaseEntity
	AccountID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	TransactionType TransactionType `gorm:"type:varchar(20);not null"`
	Description     string          `gorm:"type:varchar(500)"`
	Debit           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Credit          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TransactionDate time.Time       `gorm:"type:date;not null;index"`
	InvoiceID       *uuid.UUID      `gorm:"type:uuid;index"`
	ReferenceNumber string          `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// NewLedgerEntry creates an entry. Whether both sides are non-zero is left
// to the caller; only negative amounts are rejected.
func NewLedgerEntry(accountID uuid.UUID, txType TransactionType, date time.Time, debit, credit decimal.Decimal, description string) (*LedgerEntry, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewInvalidInput("account id cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewInvalidInput("invalid transaction type %q", string(txType))
	}
	if debit.IsNegative() || credit.IsNegative() {
		return nil, shared.NewInvalidInput("debit and credit cannot be negative")
	}
	if date.IsZero() {
		return nil, shared.NewInvalidInput("transaction date is required")
	}
	return &LedgerEntry{
		BaseEntity:      shared.NewBaseEntity(),
		AccountID:       accountID,
		TransactionType: txType,
		Description:     description,
		Debit:           debit,
		Credit:          credit,
		TransactionDate: date,
	}, nil
}

// WithInvoice links the entry to the invoice it was posted for
func (e *LedgerEntry) WithInvoice(invoiceID uuid.UUID, reference string) *LedgerEntry {
	e.InvoiceID = &invoiceID
	e.ReferenceNumber = reference
	return e
}

// Net returns debit − credit
func (e *LedgerEntry) Net() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

// Amount returns |debit − credit|, the magnitude used by anomaly rules
func (e *LedgerEntry) Amount() decimal.Decimal {
	return e.Net().Abs()
}
