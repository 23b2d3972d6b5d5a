package accounting

import (
	"errors"
	"testing"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestPartner_Recommendations(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		score   *float64
		want    []string
	}{
		{"positive balance", "150", nil, []string{RecommendCollectionPlan}},
		{"low credit score", "0", floatPtr(0.3), []string{RecommendLimitReview}},
		{"both", "10", floatPtr(0.1), []string{RecommendCollectionPlan, RecommendLimitReview}},
		{"healthy", "-20", floatPtr(0.9), []string{}},
		{"unscored defaults to neutral", "0", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPartner("C001", "Akın Ticaret", PartnerTypeCustomer)
			require.NoError(t, err)
			balance := d(tt.balance)
			require.NoError(t, p.ApplyUpdate(PartnerUpdate{CurrentBalance: &balance, CreditScore: tt.score}))
			assert.Equal(t, tt.want, p.Recommendations())
		})
	}
}

func TestPartner_Balance(t *testing.T) {
	p, err := NewPartner("c002", "Deniz Gıda", PartnerTypeBoth)
	require.NoError(t, err)
	assert.Equal(t, "C002", p.Code)

	limit, balance := d("10000"), d("2500")
	require.NoError(t, p.ApplyUpdate(PartnerUpdate{CreditLimit: &limit, CurrentBalance: &balance}))

	report := p.Balance()
	assert.Equal(t, "7500", report.AvailableCredit.String())
	assert.Equal(t, DefaultScore, report.CreditScore)
	assert.Equal(t, DefaultScore, report.PaymentBehaviorScore)
	assert.Equal(t, []string{RecommendCollectionPlan}, report.Recommendations)
}

func TestPartner_ApplyUpdateValidation(t *testing.T) {
	p, err := NewPartner("S001", "Tedarik A.Ş.", PartnerTypeSupplier)
	require.NoError(t, err)
	version := p.Version

	bad := "12ab567890"
	assert.True(t, errors.Is(p.ApplyUpdate(PartnerUpdate{TaxNumber: &bad}), shared.ErrInvalidInput))
	assert.True(t, errors.Is(p.ApplyUpdate(PartnerUpdate{CreditScore: floatPtr(1.2)}), shared.ErrInvalidInput))
	negative := d("-1")
	assert.True(t, errors.Is(p.ApplyUpdate(PartnerUpdate{CreditLimit: &negative}), shared.ErrInvalidInput))
	assert.Equal(t, version, p.Version)

	vkn := "1234567890"
	require.NoError(t, p.ApplyUpdate(PartnerUpdate{TaxNumber: &vkn}))
	assert.Equal(t, vkn, p.TaxNumber)
	assert.Equal(t, version+1, p.Version)

	_, err = NewPartner("X", "Y", "AGENT")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}
