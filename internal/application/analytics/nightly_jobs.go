package analytics

import (
	"context"
	"errors"

	"github.com/erp/muhasebe/internal/domain/shared"
	"github.com/erp/muhasebe/internal/infrastructure/scheduler"
	"go.uber.org/zap"
)

// NightlyForecastDays is how far ahead the nightly forecast is stored
const NightlyForecastDays = 30

// NightlyJobRunner executes the scheduled analytics jobs against the
// forecast and anomaly services
type NightlyJobRunner struct {
	forecastService *ForecastService
	anomalyService  *AnomalyService
	logger          *zap.Logger
}

// NewNightlyJobRunner creates a new NightlyJobRunner
func NewNightlyJobRunner(forecastService *ForecastService, anomalyService *AnomalyService, logger *zap.Logger) *NightlyJobRunner {
	return &NightlyJobRunner{
		forecastService: forecastService,
		anomalyService:  anomalyService,
		logger:          logger,
	}
}

// Execute implements scheduler.JobExecutor. A job that cannot run on the
// available data (too little history, no estimator configured) is logged
// and counted as done so it is not retried.
func (r *NightlyJobRunner) Execute(ctx context.Context, job *scheduler.Job) error {
	var err error
	switch job.Type {
	case scheduler.JobTypeRuleScan:
		err = r.ruleScan(ctx, job)
	case scheduler.JobTypeOutlierRefresh:
		err = r.outlierRefresh(ctx, job)
	case scheduler.JobTypeForecastTrain:
		err = r.forecastTrain(ctx, job)
	default:
		return scheduler.ErrInvalidJobType
	}

	if errors.Is(err, shared.ErrInvalidInput) || errors.Is(err, shared.ErrEstimatorUnavailable) {
		r.logger.Info("Nightly job skipped",
			zap.String("job_type", string(job.Type)),
			zap.String("reason", err.Error()),
		)
		return nil
	}
	return err
}

func (r *NightlyJobRunner) ruleScan(ctx context.Context, job *scheduler.Job) error {
	resp, err := r.anomalyService.RuleScan(ctx, ScanRequest{StartDate: &job.PeriodStart, EndDate: &job.PeriodEnd})
	if err != nil {
		return err
	}
	r.logger.Info("Nightly rule scan finished",
		zap.Int("scanned", resp.Scanned),
		zap.Int("created", resp.Created),
	)
	return nil
}

func (r *NightlyJobRunner) outlierRefresh(ctx context.Context, job *scheduler.Job) error {
	if _, err := r.anomalyService.TrainModel(ctx, ScanRequest{StartDate: &job.HistoryStart, EndDate: &job.PeriodEnd}); err != nil {
		return err
	}
	resp, err := r.anomalyService.ModelScan(ctx, ScanRequest{StartDate: &job.PeriodStart, EndDate: &job.PeriodEnd})
	if err != nil {
		return err
	}
	r.logger.Info("Nightly outlier scan finished",
		zap.Int("scanned", resp.Scanned),
		zap.Int("anomalies", resp.Anomalies),
	)
	return nil
}

func (r *NightlyJobRunner) forecastTrain(ctx context.Context, job *scheduler.Job) error {
	if _, err := r.forecastService.Train(ctx, TrainRequest{StartDate: &job.HistoryStart, EndDate: &job.PeriodEnd}); err != nil {
		return err
	}
	resp, err := r.forecastService.Forecast(ctx, ForecastRequest{
		DaysAhead: NightlyForecastDays,
		AsOf:      &job.PeriodEnd,
		Model:     ModelFitted,
		Persist:   true,
	})
	if err != nil {
		return err
	}
	r.logger.Info("Nightly forecast stored",
		zap.Int("points", len(resp.Points)),
		zap.Int("alerts", len(resp.Alerts)),
	)
	return nil
}
