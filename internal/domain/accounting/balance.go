package accounting

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountBalance is the projected balance of one account
type AccountBalance struct {
	AccountID   uuid.UUID       `json:"account_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	AccountType AccountType     `json:"account_type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// BalanceSection is one side bucket of the balance sheet
type BalanceSection struct {
	Total    decimal.Decimal  `json:"total"`
	Accounts []AccountBalance `json:"accounts"`
}

// BalanceSheet is the balance sheet as of a cutoff date
type BalanceSheet struct {
	AsOf        time.Time      `json:"as_of"`
	Assets      BalanceSection `json:"assets"`
	Liabilities BalanceSection `json:"liabilities"`
	Equity      BalanceSection `json:"equity"`
}

// IncomeStatement covers revenue and expense accounts over a date range.
// Totals are Σdebit − Σcredit per type, the same sign convention as the
// balance sheet.
type IncomeStatement struct {
	StartDate    time.Time        `json:"start_date"`
	EndDate      time.Time        `json:"end_date"`
	Revenue      []AccountBalance `json:"revenue"`
	Expenses     []AccountBalance `json:"expenses"`
	TotalRevenue decimal.Decimal  `json:"total_revenue"`
	TotalExpense decimal.Decimal  `json:"total_expense"`
	NetProfit    decimal.Decimal  `json:"net_profit"`
}

// ProjectBalances sums entries per account. Entries whose account is not in
// accounts are dropped. include filters entries by date.
func ProjectBalances(accounts []Account, entries []LedgerEntry, include func(time.Time) bool) map[uuid.UUID]*AccountBalance {
	balances := make(map[uuid.UUID]*AccountBalance, len(accounts))
	for i := range accounts {
		a := &accounts[i]
		balances[a.ID] = &AccountBalance{
			AccountID:   a.ID,
			Code:        a.Code,
			Name:        a.Name,
			AccountType: a.AccountType,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
			Balance:     decimal.Zero,
		}
	}
	for i := range entries {
		e := &entries[i]
		b, ok := balances[e.AccountID]
		if !ok || (include != nil && !include(e.TransactionDate)) {
			continue
		}
		b.Debit = b.Debit.Add(e.Debit)
		b.Credit = b.Credit.Add(e.Credit)
	}
	for _, b := range balances {
		b.Balance = b.Debit.Sub(b.Credit)
	}
	return balances
}

// ProjectBalanceSheet computes the balance sheet from entries dated on or
// before asOf. The projection is pure; nothing is stored.
func ProjectBalanceSheet(accounts []Account, entries []LedgerEntry, asOf time.Time) BalanceSheet {
	cutoff := dateOnly(asOf)
	balances := ProjectBalances(accounts, entries, func(d time.Time) bool {
		return !dateOnly(d).After(cutoff)
	})

	sheet := BalanceSheet{
		AsOf:        cutoff,
		Assets:      newSection(),
		Liabilities: newSection(),
		Equity:      newSection(),
	}
	for _, b := range sortedBalances(balances) {
		switch b.AccountType {
		case AccountTypeAsset:
			sheet.Assets.add(b)
		case AccountTypeLiability:
			sheet.Liabilities.add(b)
		case AccountTypeEquity:
			sheet.Equity.add(b)
		}
	}
	return sheet
}

// ProjectIncomeStatement computes revenue, expense, and net profit from
// entries dated within [start, end].
func ProjectIncomeStatement(accounts []Account, entries []LedgerEntry, start, end time.Time) IncomeStatement {
	from, to := dateOnly(start), dateOnly(end)
	balances := ProjectBalances(accounts, entries, func(d time.Time) bool {
		day := dateOnly(d)
		return !day.Before(from) && !day.After(to)
	})

	stmt := IncomeStatement{
		StartDate:    from,
		EndDate:      to,
		Revenue:      make([]AccountBalance, 0),
		Expenses:     make([]AccountBalance, 0),
		TotalRevenue: decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, b := range sortedBalances(balances) {
		switch b.AccountType {
		case AccountTypeRevenue:
			stmt.Revenue = append(stmt.Revenue, b)
			stmt.TotalRevenue = stmt.TotalRevenue.Add(b.Balance)
		case AccountTypeExpense:
			stmt.Expenses = append(stmt.Expenses, b)
			stmt.TotalExpense = stmt.TotalExpense.Add(b.Balance)
		}
	}
	stmt.NetProfit = stmt.TotalRevenue.Sub(stmt.TotalExpense)
	return stmt
}

func newSection() BalanceSection {
	return BalanceSection{Total: decimal.Zero, Accounts: make([]AccountBalance, 0)}
}

func (s *BalanceSection) add(b AccountBalance) {
	s.Accounts = append(s.Accounts, b)
	s.Total = s.Total.Add(b.Balance)
}

func sortedBalances(m map[uuid.UUID]*AccountBalance) []AccountBalance {
	out := make([]AccountBalance, 0, len(m))
	for _, b := range m {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
