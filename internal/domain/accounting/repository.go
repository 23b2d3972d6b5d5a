package accounting

import (
	"context"
	"time"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository persists the chart of accounts
type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByCode(ctx context.Context, code string) (*Account, error)
	FindAll(ctx context.Context) ([]Account, error)
	FindByTypes(ctx context.Context, types ...AccountType) ([]Account, error)
	Save(ctx context.Context, account *Account) error
}

// LedgerRepository stores ledger entries. There is no update method.
type LedgerRepository interface {
	Create(ctx context.Context, entry *LedgerEntry) error
	FindAll(ctx context.Context, filter shared.Filter) ([]LedgerEntry, int64, error)
	FindUpTo(ctx context.Context, asOf time.Time) ([]LedgerEntry, error)
	FindBetween(ctx context.Context, start, end time.Time) ([]LedgerEntry, error)
	// SumBetween returns Σdebit and Σcredit of entries dated within [start, end].
	SumBetween(ctx context.Context, start, end time.Time) (debit, credit decimal.Decimal, err error)
}

// InvoiceRepository persists invoices together with their lines
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, number string) (*Invoice, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Invoice, int64, error)
	FindBetween(ctx context.Context, start, end time.Time) ([]Invoice, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	Save(ctx context.Context, invoice *Invoice) error
	SaveWithLock(ctx context.Context, invoice *Invoice) error
}

// PartnerRepository persists partners
type PartnerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Partner, error)
	FindByCode(ctx context.Context, code string) (*Partner, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Partner, int64, error)
	Save(ctx context.Context, partner *Partner) error
	SaveWithLock(ctx context.Context, partner *Partner) error
}
