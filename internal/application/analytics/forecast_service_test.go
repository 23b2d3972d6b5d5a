package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/analytics"
	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var asOf = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

func newTestForecastService(model analytics.ForecastModel) (*ForecastService, *MockLedgerRepository, *MockForecastRepository) {
	ledgerRepo, forecastRepo := new(MockLedgerRepository), new(MockForecastRepository)
	svc := NewForecastService(ledgerRepo, forecastRepo, 90, model, zap.NewNop())
	svc.now = func() time.Time { return asOf }
	return svc, ledgerRepo, forecastRepo
}

// ==================== Linear Forecast Tests ====================

func TestForecastService_Linear(t *testing.T) {
	ctx := context.Background()
	windowStart := asOf.AddDate(0, 0, -90)

	t.Run("averages the trailing window", func(t *testing.T) {
		svc, ledgerRepo, forecastRepo := newTestForecastService(nil)
		ledgerRepo.On("SumBetween", ctx, windowStart, asOf).
			Return(decimal.NewFromInt(9000), decimal.NewFromInt(4500), nil)

		resp, err := svc.Forecast(ctx, ForecastRequest{DaysAhead: 30})
		require.NoError(t, err)
		require.Len(t, resp.Points, 1)
		p := resp.Points[0]
		assert.Equal(t, asOf.AddDate(0, 0, 30), p.ForecastDate)
		assert.Equal(t, "3000.00", p.PredictedInflow.StringFixed(2))
		assert.Equal(t, "1500.00", p.PredictedOutflow.StringFixed(2))
		assert.Equal(t, "1500.00", p.PredictedBalance.StringFixed(2))
		assert.Nil(t, p.ConfidenceScore)
		assert.Empty(t, resp.Alerts)
		forecastRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("persists on request and alerts on deficit", func(t *testing.T) {
		svc, ledgerRepo, forecastRepo := newTestForecastService(nil)
		ledgerRepo.On("SumBetween", ctx, windowStart, asOf).
			Return(decimal.NewFromInt(90000), decimal.NewFromInt(450000), nil)
		forecastRepo.On("Save", ctx, mock.AnythingOfType("*analytics.ForecastPoint")).Return(nil)

		resp, err := svc.Forecast(ctx, ForecastRequest{DaysAhead: 30, Persist: true})
		require.NoError(t, err)
		require.Len(t, resp.Alerts, 1)
		assert.Equal(t, analytics.AlertSeverityCritical, resp.Alerts[0].Severity)
		assert.Equal(t, "120000.00", resp.Alerts[0].PredictedDeficit.StringFixed(2))
		forecastRepo.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("rejects non-positive horizon", func(t *testing.T) {
		svc, ledgerRepo, _ := newTestForecastService(nil)
		_, err := svc.Forecast(ctx, ForecastRequest{DaysAhead: 0})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		ledgerRepo.AssertNotCalled(t, "SumBetween", mock.Anything, mock.Anything, mock.Anything)
	})
}

// ==================== Fitted Model Tests ====================

func TestForecastService_Fitted(t *testing.T) {
	ctx := context.Background()

	t.Run("unavailable without model", func(t *testing.T) {
		svc, _, _ := newTestForecastService(nil)
		_, err := svc.Forecast(ctx, ForecastRequest{DaysAhead: 7, Model: ModelFitted})
		assert.True(t, errors.Is(err, shared.ErrEstimatorUnavailable))
	})

	t.Run("unavailable until trained", func(t *testing.T) {
		svc, ledgerRepo, _ := newTestForecastService(&stubModel{})
		_, err := svc.Forecast(ctx, ForecastRequest{DaysAhead: 7, Model: ModelFitted})
		assert.True(t, errors.Is(err, shared.ErrEstimatorUnavailable))
		ledgerRepo.AssertNotCalled(t, "FindBetween", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("train then predict", func(t *testing.T) {
		model := &stubModel{net: decimal.NewFromInt(-20000)}
		svc, ledgerRepo, _ := newTestForecastService(model)

		acct := uuid.New()
		day1 := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
		day2 := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
		e1, _ := accounting.NewLedgerEntry(acct, accounting.TransactionTypeCash, day1, decimal.NewFromInt(100), decimal.Zero, "")
		e2, _ := accounting.NewLedgerEntry(acct, accounting.TransactionTypeCash, day1, decimal.Zero, decimal.NewFromInt(40), "")
		e3, _ := accounting.NewLedgerEntry(acct, accounting.TransactionTypeCash, day2, decimal.NewFromInt(10), decimal.Zero, "")
		ledgerRepo.On("FindBetween", ctx, mock.Anything, mock.Anything).
			Return([]accounting.LedgerEntry{*e3, *e1, *e2}, nil)

		trained, err := svc.Train(ctx, TrainRequest{})
		require.NoError(t, err)
		assert.Equal(t, 2, trained.TrainingSamples)
		assert.Equal(t, 2, model.history)

		resp, err := svc.Forecast(ctx, ForecastRequest{DaysAhead: 3, Model: ModelFitted})
		require.NoError(t, err)
		assert.Len(t, resp.Points, 3)
		require.Len(t, resp.Alerts, 3)
		assert.Equal(t, analytics.AlertSeverityHigh, resp.Alerts[0].Severity)
	})
}

func TestForecastService_Alerts(t *testing.T) {
	ctx := context.Background()
	svc, _, forecastRepo := newTestForecastService(nil)
	forecastRepo.On("FindLatest", ctx, AlertHorizon).Return([]analytics.ForecastPoint{
		{ForecastDate: asOf.AddDate(0, 0, 1), PredictedBalance: decimal.NewFromInt(-500)},
		{ForecastDate: asOf.AddDate(0, 0, 2), PredictedBalance: decimal.NewFromInt(800)},
	}, nil)

	alerts, err := svc.Alerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, analytics.AlertSeverityMedium, alerts[0].Severity)
	assert.Equal(t, "2024-07-01 tarihinde 500.00 TL nakit açığı öngörülüyor", alerts[0].Message)
}
