// Package pos models point-of-sale cash sessions and the orders rung up in them.
package pos

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SessionState is the state of a cash session
type SessionState string

const (
	SessionStateOpeningControl SessionState = "opening_control"
	SessionStateOpened         SessionState = "opened"
	SessionStateClosingControl SessionState = "closing_control"
	SessionStateClosed         SessionState = "closed"
)

// IsOpen reports whether the session still blocks a new one for the same cashier
func (s SessionState) IsOpen() bool {
	return s == SessionStateOpeningControl || s == SessionStateOpened
}

// Session is a cashier's register session. Counters are updated as orders
// are registered; the cash difference is computed on close.
type Session struct {
	shared.BaseAggregateRoot
	Name                   string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	UserName               string          `gorm:"type:varchar(100);not null;index"`
	State                  SessionState    `gorm:"type:varchar(20);not null;default:'opening_control'"`
	StartAt                time.Time       `gorm:"not null"`
	StopAt                 *time.Time
	OpeningCash            decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	ClosingCash            *decimal.Decimal `gorm:"type:decimal(18,2)"`
	CashRegisterDifference decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	TotalSales             decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	TotalPayments          decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	OrderCount             int              `gorm:"not null;default:0"`
	Notes                  string           `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Session) TableName() string {
	return "pos_sessions"
}

// SessionName formats a session name, e.g. POS/2024/11/0001.
func SessionName(at time.Time, seq int64) string {
	return fmt.Sprintf("%s/%04d", SessionPrefix(at), seq)
}

// SessionPrefix is the monthly prefix sessions are numbered under
func SessionPrefix(at time.Time) string {
	return fmt.Sprintf("POS/%d/%02d", at.Year(), int(at.Month()))
}

// OpenSession opens a session with the counted opening cash
func OpenSession(name, userName string, openingCash decimal.Decimal, at time.Time) (*Session, error) {
	if strings.TrimSpace(userName) == "" {
		return nil, shared.NewInvalidInput("cashier name cannot be empty")
	}
	if openingCash.IsNegative() {
		return nil, shared.NewInvalidInput("opening cash cannot be negative")
	}
	return &Session{
		BaseAggregateRoot:      shared.NewBaseAggregateRoot(),
		Name:                   name,
		UserName:               userName,
		State:                  SessionStateOpened,
		StartAt:                at,
		OpeningCash:            openingCash,
		CashRegisterDifference: decimal.Zero,
		TotalSales:             decimal.Zero,
		TotalPayments:          decimal.Zero,
	}, nil
}

// RegisterOrder adds a completed order to the session counters
func (s *Session) RegisterOrder(o *Order) error {
	if s.State != SessionStateOpened {
		return shared.NewInvalidTransition("session %s is not open", s.Name)
	}
	if o.SessionID != s.ID {
		return shared.NewInvalidInput("order %s belongs to another session", o.Name)
	}
	s.OrderCount++
	s.TotalSales = s.TotalSales.Add(o.AmountTotal)
	s.TotalPayments = s.TotalPayments.Add(o.AmountPaid)
	s.Touch()
	s.IncrementVersion()
	return nil
}

// ExpectedCash is opening cash plus everything sold in the session
func (s *Session) ExpectedCash() decimal.Decimal {
	return s.OpeningCash.Add(s.TotalSales)
}

// Close closes the session and records the counted cash difference
func (s *Session) Close(closingCash decimal.Decimal, notes string, at time.Time) error {
	if s.State == SessionStateClosed {
		return shared.NewInvalidTransition("session %s is already closed", s.Name)
	}
	if closingCash.IsNegative() {
		return shared.NewInvalidInput("closing cash cannot be negative")
	}
	s.State = SessionStateClosed
	s.StopAt = &at
	s.ClosingCash = &closingCash
	s.CashRegisterDifference = closingCash.Sub(s.ExpectedCash())
	if notes != "" {
		s.Notes = notes
	}
	s.Touch()
	s.IncrementVersion()
	return nil
}
