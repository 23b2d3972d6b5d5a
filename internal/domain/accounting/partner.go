package accounting

import (
	"strings"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartnerType classifies a counterparty
type PartnerType string

const (
	PartnerTypeCustomer PartnerType = "CUSTOMER"
	PartnerTypeSupplier PartnerType = "SUPPLIER"
	PartnerTypeBoth     PartnerType = "BOTH"
)

// IsValid checks if the partner type is valid
func (t PartnerType) IsValid() bool {
	switch t {
	case PartnerTypeCustomer, PartnerTypeSupplier, PartnerTypeBoth:
		return true
	}
	return false
}

// DefaultScore is reported for a partner that has not been scored yet
const DefaultScore = 0.5

// Recommendation thresholds
const (
	CreditReviewThreshold = 0.4

	RecommendCollectionPlan = "Tahsilat planı oluşturun"
	RecommendLimitReview    = "Kredi limitini gözden geçirin"
)

// Partner is a customer or supplier with its running account (cari hesap).
// CurrentBalance is maintained by the caller, not replayed from the ledger.
// The scores are in [0,1] and supplied by an external scoring process.
type Partner struct {
	shared.BaseAggregateRoot
	Code                 string          `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name                 string          `gorm:"type:varchar(200);not null"`
	PartnerType          PartnerType     `gorm:"type:varchar(20);not null"`
	TaxNumber            string          `gorm:"type:varchar(11);index"`
	TaxOffice            string          `gorm:"type:varchar(100)"`
	Email                string          `gorm:"type:varchar(100)"`
	Phone                string          `gorm:"type:varchar(30)"`
	CreditLimit          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CurrentBalance       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CreditScore          *float64
	PaymentBehaviorScore *float64
	IsActive             bool `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Partner) TableName() string {
	return "partners"
}

// NewPartner creates a partner with a zero balance
func NewPartner(code, name string, partnerType PartnerType) (*Partner, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewInvalidInput("partner code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewInvalidInput("partner name cannot be empty")
	}
	if !partnerType.IsValid() {
		return nil, shared.NewInvalidInput("invalid partner type %q", string(partnerType))
	}
	return &Partner{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(strings.TrimSpace(code)),
		Name:              name,
		PartnerType:       partnerType,
		CreditLimit:       decimal.Zero,
		CurrentBalance:    decimal.Zero,
		IsActive:          true,
	}, nil
}

// PartnerUpdate enumerates the mutable partner fields. Nil fields are left
// unchanged.
type PartnerUpdate struct {
	Name                 *string
	TaxNumber            *string
	TaxOffice            *string
	Email                *string
	Phone                *string
	CreditLimit          *decimal.Decimal
	CurrentBalance       *decimal.Decimal
	CreditScore          *float64
	PaymentBehaviorScore *float64
	IsActive             *bool
}

// ApplyUpdate validates every supplied field, then merges them.
func (p *Partner) ApplyUpdate(u PartnerUpdate) error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return shared.NewInvalidInput("partner name cannot be empty")
	}
	if u.TaxNumber != nil && *u.TaxNumber != "" && !isTaxNumber(*u.TaxNumber) {
		return shared.NewInvalidInput("tax number must be 10 (VKN) or 11 (TCKN) digits")
	}
	if u.CreditLimit != nil && u.CreditLimit.IsNegative() {
		return shared.NewInvalidInput("credit limit cannot be negative")
	}
	if err := checkScore("credit_score", u.CreditScore); err != nil {
		return err
	}
	if err := checkScore("payment_behavior_score", u.PaymentBehaviorScore); err != nil {
		return err
	}

	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.TaxNumber != nil {
		p.TaxNumber = *u.TaxNumber
	}
	if u.TaxOffice != nil {
		p.TaxOffice = *u.TaxOffice
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.CreditLimit != nil {
		p.CreditLimit = *u.CreditLimit
	}
	if u.CurrentBalance != nil {
		p.CurrentBalance = *u.CurrentBalance
	}
	if u.CreditScore != nil {
		p.CreditScore = u.CreditScore
	}
	if u.PaymentBehaviorScore != nil {
		p.PaymentBehaviorScore = u.PaymentBehaviorScore
	}
	if u.IsActive != nil {
		p.IsActive = *u.IsActive
	}
	p.Touch()
	p.IncrementVersion()
	return nil
}

func checkScore(field string, v *float64) error {
	if v != nil && (*v < 0 || *v > 1) {
		return shared.NewInvalidInput("%s must be between 0 and 1", field)
	}
	return nil
}

func isTaxNumber(s string) bool {
	if len(s) != 10 && len(s) != 11 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// EffectiveCreditScore returns the credit score or DefaultScore when unscored
func (p *Partner) EffectiveCreditScore() float64 {
	if p.CreditScore == nil {
		return DefaultScore
	}
	return *p.CreditScore
}

// EffectivePaymentBehaviorScore returns the payment score or DefaultScore when unscored
func (p *Partner) EffectivePaymentBehaviorScore() float64 {
	if p.PaymentBehaviorScore == nil {
		return DefaultScore
	}
	return *p.PaymentBehaviorScore
}

// Recommendations applies the fixed collection and credit review rules
func (p *Partner) Recommendations() []string {
	recs := make([]string, 0, 2)
	if p.CurrentBalance.IsPositive() {
		recs = append(recs, RecommendCollectionPlan)
	}
	if p.EffectiveCreditScore() < CreditReviewThreshold {
		recs = append(recs, RecommendLimitReview)
	}
	return recs
}

// PartnerBalance is the balance report of one partner
type PartnerBalance struct {
	PartnerID            uuid.UUID       `json:"partner_id"`
	Name                 string          `json:"name"`
	CurrentBalance       decimal.Decimal `json:"current_balance"`
	CreditLimit          decimal.Decimal `json:"credit_limit"`
	AvailableCredit      decimal.Decimal `json:"available_credit"`
	CreditScore          float64         `json:"credit_score"`
	PaymentBehaviorScore float64         `json:"payment_behavior_score"`
	Recommendations      []string        `json:"recommendations"`
}

// Balance builds the balance report
func (p *Partner) Balance() PartnerBalance {
	return PartnerBalance{
		PartnerID:            p.ID,
		Name:                 p.Name,
		CurrentBalance:       p.CurrentBalance,
		CreditLimit:          p.CreditLimit,
		AvailableCredit:      p.CreditLimit.Sub(p.CurrentBalance),
		CreditScore:          p.EffectiveCreditScore(),
		PaymentBehaviorScore: p.EffectivePaymentBehaviorScore(),
		Recommendations:      p.Recommendations(),
	}
}
