// Package analytics holds the cash-flow forecast and transaction anomaly
// estimators. Everything here is pure computation over history that the
// caller has already loaded; persistence and model training live elsewhere.
package analytics

import (
	"context"
	"time"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultForecastWindowDays is the trailing window the linear baseline averages over
const DefaultForecastWindowDays = 90

// DailyFlow is one day of aggregated ledger movement
type DailyFlow struct {
	Date   time.Time
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Net is the day's inflow minus outflow
func (f DailyFlow) Net() decimal.Decimal {
	return f.Debit.Sub(f.Credit)
}

// ForecastPoint is a single predicted position. It is persisted only when
// the caller asks for it.
type ForecastPoint struct {
	shared.BaseEntity
	ForecastDate     time.Time        `gorm:"type:date;not null;index"`
	PredictedInflow  decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	PredictedOutflow decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	PredictedBalance decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	ConfidenceLower  *decimal.Decimal `gorm:"type:decimal(18,2)"`
	ConfidenceUpper  *decimal.Decimal `gorm:"type:decimal(18,2)"`
	ConfidenceScore  *float64
	ModelType        string `gorm:"type:varchar(30);not null;default:'linear'"`
}

// TableName returns the table name for GORM
func (ForecastPoint) TableName() string {
	return "cash_flow_forecasts"
}

// ForecastModel is a fitted time-series model that can replace the linear
// baseline. Implementations report ErrEstimatorUnavailable until trained.
// Predict takes the recent daily history so days after the last Fit still
// move the forecast.
type ForecastModel interface {
	Trained() bool
	Fit(ctx context.Context, history []DailyFlow) error
	Predict(ctx context.Context, history []DailyFlow, asOf time.Time, daysAhead int) ([]ForecastPoint, error)
}

// LinearForecaster projects the trailing daily averages forward
type LinearForecaster struct {
	WindowDays int
}

// NewLinearForecaster creates a forecaster; a non-positive window falls back to the default
func NewLinearForecaster(windowDays int) LinearForecaster {
	if windowDays <= 0 {
		windowDays = DefaultForecastWindowDays
	}
	return LinearForecaster{WindowDays: windowDays}
}

// WindowStart is the first day included for a forecast made on asOf
func (f LinearForecaster) WindowStart(asOf time.Time) time.Time {
	return dateOnly(asOf).AddDate(0, 0, -f.window())
}

// FromTotals forecasts from window totals already summed by the caller.
// avg = total / window; predicted = avg × daysAhead.
func (f LinearForecaster) FromTotals(totalDebit, totalCredit decimal.Decimal, asOf time.Time, daysAhead int) (ForecastPoint, error) {
	if daysAhead <= 0 {
		return ForecastPoint{}, shared.NewInvalidInput("days ahead must be positive, got %d", daysAhead)
	}
	window := decimal.NewFromInt(int64(f.window()))
	ahead := decimal.NewFromInt(int64(daysAhead))

	avgIn := totalDebit.Div(window)
	avgOut := totalCredit.Div(window)

	return ForecastPoint{
		BaseEntity:       shared.NewBaseEntity(),
		ForecastDate:     dateOnly(asOf).AddDate(0, 0, daysAhead),
		PredictedInflow:  avgIn.Mul(ahead).Round(2),
		PredictedOutflow: avgOut.Mul(ahead).Round(2),
		PredictedBalance: avgIn.Sub(avgOut).Mul(ahead).Round(2),
		ModelType:        "linear",
	}, nil
}

// Forecast sums the flows inside [asOf-window, asOf] and projects them
func (f LinearForecaster) Forecast(history []DailyFlow, asOf time.Time, daysAhead int) (ForecastPoint, error) {
	start := f.WindowStart(asOf)
	end := dateOnly(asOf)
	var debit, credit decimal.Decimal
	for _, h := range history {
		day := dateOnly(h.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		debit = debit.Add(h.Debit)
		credit = credit.Add(h.Credit)
	}
	return f.FromTotals(debit, credit, asOf, daysAhead)
}

func (f LinearForecaster) window() int {
	if f.WindowDays <= 0 {
		return DefaultForecastWindowDays
	}
	return f.WindowDays
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
