package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), TRY)
		require.NoError(t, err)
		assert.Equal(t, TRY, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestMoney_AddSubtract(t *testing.T) {
	a := NewMoneyTRY(decimal.NewFromInt(100))
	b := NewMoneyTRY(decimal.NewFromInt(40))

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(decimal.NewFromInt(140)))

	diff, err := b.Subtract(a)
	require.NoError(t, err)
	assert.True(t, diff.IsNegative())

	usd, _ := NewMoney(decimal.NewFromInt(1), USD)
	_, err = a.Add(usd)
	assert.Error(t, err)
}

func TestMoney_Round(t *testing.T) {
	m := NewMoneyTRY(decimal.RequireFromString("10.005"))
	assert.Equal(t, "10.01", m.Round().Amount().StringFixed(2))
	assert.Equal(t, "10.01 TRY", m.String())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.234,56", FormatAmount(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "0,00", FormatAmount(decimal.Zero))
}

func TestMoney_JSON(t *testing.T) {
	m := NewMoneyTRY(decimal.RequireFromString("1080"))
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"1080.00","currency":"TRY"}`, string(data))

	var back Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"12.5"}`), &back))
	assert.Equal(t, TRY, back.Currency())
	assert.True(t, back.Amount().Equal(decimal.RequireFromString("12.5")))
}
