package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/erp/muhasebe/internal/domain/accounting"
	"github.com/erp/muhasebe/internal/domain/analytics"
	"github.com/erp/muhasebe/internal/domain/shared"
	"go.uber.org/zap"
)

// AlertHorizon is how many stored forecast points the alert listing reads
const AlertHorizon = 30

// ForecastService projects cash flow from ledger history. The linear
// baseline is always available; the fitted model answers only after it has
// been trained.
type ForecastService struct {
	ledgerRepo   accounting.LedgerRepository
	forecastRepo analytics.ForecastRepository
	linear       analytics.LinearForecaster
	model        analytics.ForecastModel
	logger       *zap.Logger
	now          func() time.Time
}

// NewForecastService creates a new ForecastService. model may be nil.
func NewForecastService(
	ledgerRepo accounting.LedgerRepository,
	forecastRepo analytics.ForecastRepository,
	windowDays int,
	model analytics.ForecastModel,
	logger *zap.Logger,
) *ForecastService {
	return &ForecastService{
		ledgerRepo:   ledgerRepo,
		forecastRepo: forecastRepo,
		linear:       analytics.NewLinearForecaster(windowDays),
		model:        model,
		logger:       logger,
		now:          time.Now,
	}
}

// Forecast projects the cash position daysAhead from asOf
func (s *ForecastService) Forecast(ctx context.Context, req ForecastRequest) (*ForecastResponse, error) {
	if req.DaysAhead <= 0 {
		return nil, shared.NewInvalidInput("days ahead must be positive, got %d", req.DaysAhead)
	}
	asOf := s.now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	var points []analytics.ForecastPoint
	switch req.Model {
	case "", ModelLinear:
		p, err := s.linearForecast(ctx, asOf, req.DaysAhead)
		if err != nil {
			return nil, err
		}
		points = []analytics.ForecastPoint{p}
	case ModelFitted:
		fitted, err := s.fittedForecast(ctx, asOf, req.DaysAhead)
		if err != nil {
			return nil, err
		}
		points = fitted
	default:
		return nil, shared.NewInvalidInput("unknown forecast model %q", req.Model)
	}

	if req.Persist {
		for i := range points {
			if err := s.forecastRepo.Save(ctx, &points[i]); err != nil {
				return nil, fmt.Errorf("save forecast: %w", err)
			}
		}
	}

	resp := &ForecastResponse{
		Points: make([]ForecastPointResponse, len(points)),
		Alerts: analytics.BuildAlerts(points),
	}
	for i := range points {
		resp.Points[i] = ToForecastPointResponse(&points[i])
	}
	return resp, nil
}

func (s *ForecastService) linearForecast(ctx context.Context, asOf time.Time, daysAhead int) (analytics.ForecastPoint, error) {
	debit, credit, err := s.ledgerRepo.SumBetween(ctx, s.linear.WindowStart(asOf), asOf)
	if err != nil {
		return analytics.ForecastPoint{}, fmt.Errorf("sum ledger window: %w", err)
	}
	return s.linear.FromTotals(debit, credit, asOf, daysAhead)
}

func (s *ForecastService) fittedForecast(ctx context.Context, asOf time.Time, daysAhead int) ([]analytics.ForecastPoint, error) {
	if s.model == nil || !s.model.Trained() {
		return nil, shared.ErrEstimatorUnavailable
	}
	history, err := s.dailyFlows(ctx, s.linear.WindowStart(asOf), asOf)
	if err != nil {
		return nil, err
	}
	return s.model.Predict(ctx, history, asOf, daysAhead)
}

// Train fits the forecast model on daily ledger flows
func (s *ForecastService) Train(ctx context.Context, req TrainRequest) (*TrainResponse, error) {
	if s.model == nil {
		return nil, shared.NewEstimatorUnavailable("no forecast model is configured")
	}
	end := s.now()
	if req.EndDate != nil {
		end = *req.EndDate
	}
	start := s.linear.WindowStart(end)
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if end.Before(start) {
		return nil, shared.NewInvalidInput("end date cannot be before start date")
	}

	history, err := s.dailyFlows(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if err := s.model.Fit(ctx, history); err != nil {
		return nil, err
	}

	s.logger.Info("Forecast model trained", zap.Int("days", len(history)))
	return &TrainResponse{Model: ModelFitted, TrainingSamples: len(history), TrainedAt: s.now()}, nil
}

// Alerts builds alerts from the most recently stored forecasts
func (s *ForecastService) Alerts(ctx context.Context) ([]analytics.CashFlowAlert, error) {
	points, err := s.forecastRepo.FindLatest(ctx, AlertHorizon)
	if err != nil {
		return nil, err
	}
	return analytics.BuildAlerts(points), nil
}

// dailyFlows folds ledger entries into one DailyFlow per calendar day
func (s *ForecastService) dailyFlows(ctx context.Context, start, end time.Time) ([]analytics.DailyFlow, error) {
	entries, err := s.ledgerRepo.FindBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	byDay := make(map[time.Time]*analytics.DailyFlow)
	for i := range entries {
		e := &entries[i]
		y, m, d := e.TransactionDate.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		f, ok := byDay[day]
		if !ok {
			f = &analytics.DailyFlow{Date: day}
			byDay[day] = f
		}
		f.Debit = f.Debit.Add(e.Debit)
		f.Credit = f.Credit.Add(e.Credit)
	}
	flows := make([]analytics.DailyFlow, 0, len(byDay))
	for _, f := range byDay {
		flows = append(flows, *f)
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].Date.Before(flows[j].Date) })
	return flows, nil
}
