package accounting

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/erp/muhasebe/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// ReportService projects financial statements from the ledger and invoices.
// Reports are computed on read and never stored.
type ReportService struct {
	accountRepo accounting.AccountRepository
	ledgerRepo  accounting.LedgerRepository
	invoiceRepo accounting.InvoiceRepository
	logger      *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	accountRepo accounting.AccountRepository,
	ledgerRepo accounting.LedgerRepository,
	invoiceRepo accounting.InvoiceRepository,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		invoiceRepo: invoiceRepo,
		logger:      logger,
	}
}

// BalanceSheet projects asset, liability and equity balances up to asOf
func (s *ReportService) BalanceSheet(ctx context.Context, asOf time.Time) (*accounting.BalanceSheet, error) {
	accounts, err := s.accountRepo.FindByTypes(ctx,
		accounting.AccountTypeAsset, accounting.AccountTypeLiability, accounting.AccountTypeEquity)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	entries, err := s.ledgerRepo.FindUpTo(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	sheet := accounting.ProjectBalanceSheet(accounts, entries, asOf)
	return &sheet, nil
}

// IncomeStatement projects revenue and expense over [start, end]
func (s *ReportService) IncomeStatement(ctx context.Context, start, end time.Time) (*accounting.IncomeStatement, error) {
	if end.Before(start) {
		return nil, shared.NewInvalidInput("end date cannot be before start date")
	}
	accounts, err := s.accountRepo.FindByTypes(ctx, accounting.AccountTypeRevenue, accounting.AccountTypeExpense)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	entries, err := s.ledgerRepo.FindBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	stmt := accounting.ProjectIncomeStatement(accounts, entries, start, end)
	return &stmt, nil
}

// VATDeclaration computes the KDV declaration draft for one month
func (s *ReportService) VATDeclaration(ctx context.Context, year, month int) (*VATDeclarationResponse, error) {
	start, end, err := accounting.VATPeriod(year, month)
	if err != nil {
		return nil, err
	}
	invoices, err := s.invoiceRepo.FindBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	decl, err := accounting.ComputeVATDeclaration(year, month, invoices)
	if err != nil {
		return nil, err
	}

	s.logger.Info("VAT declaration computed",
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("invoices", decl.InvoicesCount),
		zap.String("net_vat", decl.NetVAT.StringFixed(2)),
	)
	return &VATDeclarationResponse{
		VATDeclaration: decl,
		Formatted: map[string]string{
			"vat_sales":     valueobject.FormatAmount(decl.VATSales),
			"vat_purchases": valueobject.FormatAmount(decl.VATPurchases),
			"net_vat":       valueobject.FormatAmount(decl.NetVAT),
			"vat_payable":   valueobject.FormatAmount(decl.VATPayable),
			"carry_forward": valueobject.FormatAmount(decl.CarryForward),
		},
	}, nil
}
