// Package accounting holds the chart of accounts, ledger entries, invoices,
// partners (cari hesap), and the pure report projections built on them.
package accounting

import (
	"strings"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType is the top-level classification of an account
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid checks if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// Label returns the Turkish label used on printed reports
func (t AccountType) Label() string {
	switch t {
	case AccountTypeAsset:
		return "Varlık"
	case AccountTypeLiability:
		return "Borç"
	case AccountTypeEquity:
		return "Özkaynaklar"
	case AccountTypeRevenue:
		return "Gelir"
	case AccountTypeExpense:
		return "Gider"
	}
	return string(t)
}

// IsBalanceSheet reports whether accounts of this type appear on the balance sheet
func (t AccountType) IsBalanceSheet() bool {
	return t == AccountTypeAsset || t == AccountTypeLiability || t == AccountTypeEquity
}

// Account is a node of the chart of accounts (Tekdüzen Hesap Planı).
// ParentID is a plain reference; reports group by type, not by tree.
type Account struct {
	shared.BaseEntity
	Code         string           `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name         string           `gorm:"type:varchar(200);not null"`
	AccountType  AccountType      `gorm:"type:varchar(20);not null;index"`
	ParentID     *uuid.UUID       `gorm:"type:uuid;index"`
	IsVATAccount bool             `gorm:"column:is_vat_account;not null;default:false"`
	VATRate      *decimal.Decimal `gorm:"column:vat_rate;type:decimal(5,2)"`
	IsActive     bool             `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// NewAccount creates an account
func NewAccount(code, name string, accountType AccountType, parentID *uuid.UUID) (*Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewInvalidInput("account code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewInvalidInput("account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.NewInvalidInput("invalid account type %q", string(accountType))
	}
	return &Account{
		BaseEntity:  shared.NewBaseEntity(),
		Code:        code,
		Name:        name,
		AccountType: accountType,
		ParentID:    parentID,
		IsActive:    true,
	}, nil
}

// MarkAsVATAccount flags the account as a KDV account with the given rate
func (a *Account) MarkAsVATAccount(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return shared.NewInvalidInput("vat rate cannot be negative")
	}
	a.IsVATAccount = true
	a.VATRate = &rate
	a.Touch()
	return nil
}
