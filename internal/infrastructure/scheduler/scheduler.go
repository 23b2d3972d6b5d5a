// Package scheduler runs the nightly analytics jobs: the threshold scan
// over the previous day, outlier model refresh and forecast model fitting.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobType represents the analytics work a job performs
type JobType string

const (
	// JobTypeRuleScan runs the threshold rules over the period
	JobTypeRuleScan JobType = "RULE_SCAN"
	// JobTypeOutlierRefresh fits the outlier model on the history window
	// and scores the period with it
	JobTypeOutlierRefresh JobType = "OUTLIER_REFRESH"
	// JobTypeForecastTrain fits the forecast model on the history window
	JobTypeForecastTrain JobType = "FORECAST_TRAIN"
)

// AllJobTypes returns every nightly job type
func AllJobTypes() []JobType {
	return []JobType{
		JobTypeRuleScan,
		JobTypeOutlierRefresh,
		JobTypeForecastTrain,
	}
}

// IsValid reports whether t is a known job type
func (t JobType) IsValid() bool {
	switch t {
	case JobTypeRuleScan, JobTypeOutlierRefresh, JobTypeForecastTrain:
		return true
	}
	return false
}

// Job represents one scheduled analytics run. PeriodStart..PeriodEnd is the
// day being scanned; HistoryStart..PeriodEnd is the training window.
type Job struct {
	ID           uuid.UUID
	Type         JobType
	HistoryStart time.Time
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Status       JobStatus
	Error        string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	RetryCount   int
	MaxRetries   int
	NextRetryAt  *time.Time
}

// NewJob creates a new job instance
func NewJob(jobType JobType, historyStart, periodStart, periodEnd time.Time, maxRetries int) *Job {
	return &Job{
		ID:           uuid.New(),
		Type:         jobType,
		HistoryStart: historyStart,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		Status:       JobStatusPending,
		MaxRetries:   maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// JobExecutor is the interface for executing analytics jobs
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	// LookbackDays sizes the training window ending at the scanned day
	LookbackDays int
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MaxConcurrentJobs: 2,
		JobTimeout:        10 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Minute,
		LookbackDays:      90,
	}
}

// Scheduler runs submitted jobs on a fixed worker pool
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	logger   *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	defaults := DefaultSchedulerConfig()
	if config.MaxConcurrentJobs <= 0 {
		config.MaxConcurrentJobs = defaults.MaxConcurrentJobs
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaults.JobTimeout
	}
	if config.LookbackDays <= 0 {
		config.LookbackDays = defaults.LookbackDays
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *Job, 100),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Analytics scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Analytics scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Analytics scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the worker pool is up
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// SubmitJob submits a job for execution
func (s *Scheduler) SubmitJob(job *Job) error {
	if !job.Type.IsValid() {
		return ErrInvalidJobType
	}
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	select {
	case s.jobs <- job:
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	if job.NextRetryAt != nil {
		if wait := time.Until(*job.NextRetryAt); wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}

	job.Start()
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	)
	log.Info("Processing job")

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	if err := s.executor.Execute(jobCtx, job); err != nil {
		job.Fail(err.Error())
		log.Error("Job failed", zap.Error(err))

		if job.ShouldRetry() && ctx.Err() == nil {
			job.ScheduleRetry(s.config.RetryDelay)
			log.Info("Job scheduled for retry",
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
			)
			select {
			case s.jobs <- job:
			default:
				log.Warn("Failed to re-queue job for retry")
			}
		}
		return
	}

	job.Complete()
	log.Info("Job completed successfully")
}

// ScheduleDaily submits every job type for the calendar day before now
func (s *Scheduler) ScheduleDaily(now time.Time) error {
	yesterday := now.AddDate(0, 0, -1)
	periodStart := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, now.Location())
	periodEnd := periodStart.AddDate(0, 0, 1).Add(-time.Nanosecond)
	historyStart := periodStart.AddDate(0, 0, -s.config.LookbackDays)

	for _, jobType := range AllJobTypes() {
		if err := s.SubmitJob(NewJob(jobType, historyStart, periodStart, periodEnd, s.config.RetryAttempts)); err != nil {
			return err
		}
	}
	return nil
}
