package accounting

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/shared"
	"go.uber.org/zap"
)

// LedgerService maintains the chart of accounts and the general ledger
type LedgerService struct {
	accountRepo accounting.AccountRepository
	ledgerRepo  accounting.LedgerRepository
	logger      *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(accountRepo accounting.AccountRepository, ledgerRepo accounting.LedgerRepository, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		logger:      logger,
	}
}

// CreateAccount adds an account to the chart of accounts
func (s *LedgerService) CreateAccount(ctx context.Context, req CreateAccountRequest) (*AccountResponse, error) {
	if _, err := s.accountRepo.FindByCode(ctx, req.Code); err == nil {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists,
			fmt.Sprintf("account %s already exists", req.Code))
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if req.ParentID != nil {
		if _, err := s.accountRepo.FindByID(ctx, *req.ParentID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewNotFound("parent account", *req.ParentID)
			}
			return nil, err
		}
	}

	a, err := accounting.NewAccount(req.Code, req.Name, accounting.AccountType(req.AccountType), req.ParentID)
	if err != nil {
		return nil, err
	}
	if req.VATRate != nil {
		if err := a.MarkAsVATAccount(*req.VATRate); err != nil {
			return nil, err
		}
	}
	if err := s.accountRepo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}
	resp := ToAccountResponse(a)
	return &resp, nil
}

// ListAccounts returns the chart of accounts ordered by code
func (s *LedgerService) ListAccounts(ctx context.Context) ([]AccountResponse, error) {
	accounts, err := s.accountRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out, nil
}

// PostEntry records one ledger entry against an existing account
func (s *LedgerService) PostEntry(ctx context.Context, req PostEntryRequest) (*LedgerEntryResponse, error) {
	if _, err := s.accountRepo.FindByID(ctx, req.AccountID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFound("account", req.AccountID)
		}
		return nil, err
	}

	e, err := accounting.NewLedgerEntry(req.AccountID, accounting.TransactionType(req.TransactionType),
		req.TransactionDate, req.Debit, req.Credit, req.Description)
	if err != nil {
		return nil, err
	}
	if req.InvoiceID != nil {
		e.WithInvoice(*req.InvoiceID, req.ReferenceNumber)
	} else {
		e.ReferenceNumber = req.ReferenceNumber
	}
	if err := s.ledgerRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}

	s.logger.Debug("Ledger entry posted",
		zap.String("account_id", e.AccountID.String()),
		zap.String("debit", e.Debit.String()),
		zap.String("credit", e.Credit.String()),
	)
	resp := ToLedgerEntryResponse(e)
	return &resp, nil
}

// ListEntries returns a page of ledger entries, newest transaction first
func (s *LedgerService) ListEntries(ctx context.Context, f LedgerListFilter) ([]LedgerEntryResponse, int64, error) {
	filter := shared.DefaultFilter()
	filter.OrderBy = "transaction_date"
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	if f.AccountID != nil {
		filter.Filters["account_id"] = *f.AccountID
	}
	if f.StartDate != nil {
		filter.Filters["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		filter.Filters["end_date"] = *f.EndDate
	}

	entries, total, err := s.ledgerRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		out[i] = ToLedgerEntryResponse(&entries[i])
	}
	return out, total, nil
}
