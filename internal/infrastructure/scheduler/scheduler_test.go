package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingExecutor struct {
	mu       sync.Mutex
	jobs     []*Job
	failures map[JobType]int
	done     chan *Job
}

func newRecordingExecutor() *recordingExecutor {
	return &recordingExecutor{failures: map[JobType]int{}, done: make(chan *Job, 16)}
}

func (e *recordingExecutor) Execute(ctx context.Context, job *Job) error {
	e.mu.Lock()
	e.jobs = append(e.jobs, job)
	fail := e.failures[job.Type] > 0
	if fail {
		e.failures[job.Type]--
	}
	e.mu.Unlock()

	if fail {
		return errors.New("ledger unavailable")
	}
	e.done <- job
	return nil
}

func waitJobs(t *testing.T, ch <-chan *Job, n int) []*Job {
	t.Helper()
	var out []*Job
	for len(out) < n {
		select {
		case j := <-ch:
			out = append(out, j)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d jobs", len(out), n)
		}
	}
	return out
}

type mapGuard struct {
	mu      sync.Mutex
	claimed map[string]bool
	err     error
}

func (g *mapGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.claimed[key] {
		return false, nil
	}
	g.claimed[key] = true
	return true, nil
}

// ==================== Cron Parsing Tests ====================

func TestParseCronSchedule(t *testing.T) {
	tests := []struct {
		name         string
		cronExpr     string
		expectedHour int
		expectedMin  int
		wantErr      bool
	}{
		{"default 2am", "0 2 * * *", 2, 0, false},
		{"3:30am", "30 3 * * *", 3, 30, false},
		{"midnight", "0 0 * * *", 0, 0, false},
		{"empty string defaults", "", 2, 0, false},
		{"extra whitespace", "  15   4   *   *   *  ", 4, 15, false},
		{"wildcard minute", "* 5 * * *", 5, 0, false},
		{"hour out of range", "0 24 * * *", 0, 0, true},
		{"minute out of range", "60 1 * * *", 0, 0, true},
		{"not a number", "x 1 * * *", 0, 0, true},
		{"single field", "15", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, err := ParseCronSchedule(tt.cronExpr)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedHour, hour, "hour mismatch")
			assert.Equal(t, tt.expectedMin, minute, "minute mismatch")
		})
	}
}

// ==================== Job Tests ====================

func TestJobLifecycle(t *testing.T) {
	job := NewJob(JobTypeRuleScan, time.Time{}, time.Time{}, time.Time{}, 1)
	assert.Equal(t, JobStatusPending, job.Status)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)

	job.Fail("boom")
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(time.Minute)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.Empty(t, job.Error)

	job.Start()
	job.Fail("boom again")
	assert.False(t, job.ShouldRetry())

	assert.True(t, JobTypeForecastTrain.IsValid())
	assert.False(t, JobType("SALES_SUMMARY").IsValid())
}

// ==================== Scheduler Tests ====================

func TestScheduler_ScheduleDaily(t *testing.T) {
	exec := newRecordingExecutor()
	s := NewScheduler(SchedulerConfig{MaxConcurrentJobs: 2, LookbackDays: 30}, exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	now := time.Date(2024, 11, 5, 2, 0, 0, 0, time.UTC)
	require.NoError(t, s.ScheduleDaily(now))

	jobs := waitJobs(t, exec.done, len(AllJobTypes()))
	seen := map[JobType]bool{}
	for _, j := range jobs {
		seen[j.Type] = true
		assert.Equal(t, time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC), j.PeriodStart)
		assert.Equal(t, time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), j.PeriodEnd)
		assert.Equal(t, time.Date(2024, 10, 5, 0, 0, 0, 0, time.UTC), j.HistoryStart)
	}
	assert.Len(t, seen, len(AllJobTypes()))
}

func TestScheduler_RetriesFailedJob(t *testing.T) {
	exec := newRecordingExecutor()
	exec.failures[JobTypeRuleScan] = 1
	s := NewScheduler(SchedulerConfig{MaxConcurrentJobs: 1, RetryAttempts: 2, RetryDelay: time.Millisecond}, exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	job := NewJob(JobTypeRuleScan, time.Time{}, time.Time{}, time.Time{}, 2)
	require.NoError(t, s.SubmitJob(job))

	done := waitJobs(t, exec.done, 1)
	assert.Equal(t, job.ID, done[0].ID)
	assert.Equal(t, 1, done[0].RetryCount)
}

func TestScheduler_SubmitJob(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), newRecordingExecutor(), nil)

	err := s.SubmitJob(NewJob(JobTypeRuleScan, time.Time{}, time.Time{}, time.Time{}, 0))
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()
	assert.True(t, s.IsRunning())

	err = s.SubmitJob(NewJob("SALES_SUMMARY", time.Time{}, time.Time{}, time.Time{}, 0))
	assert.ErrorIs(t, err, ErrInvalidJobType)
}

// ==================== Cron Trigger Tests ====================

func TestCronTrigger_CheckAndTrigger(t *testing.T) {
	exec := newRecordingExecutor()
	s := NewScheduler(SchedulerConfig{MaxConcurrentJobs: 1}, exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	trigger := NewCronTrigger(CronTriggerConfig{DailyHour: 2, DailyMinute: 30}, s, zap.NewNop())

	clock := time.Date(2024, 11, 5, 2, 29, 0, 0, time.UTC)
	trigger.now = func() time.Time { return clock }
	assert.False(t, trigger.checkAndTrigger(), "before the configured minute")

	clock = clock.Add(time.Minute)
	assert.True(t, trigger.checkAndTrigger())
	assert.False(t, trigger.checkAndTrigger(), "same day runs once")

	clock = clock.AddDate(0, 0, 1)
	assert.True(t, trigger.checkAndTrigger(), "next day runs again")

	waitJobs(t, exec.done, 2*len(AllJobTypes()))
}

func TestCronTrigger_RunGuard(t *testing.T) {
	exec := newRecordingExecutor()
	s := NewScheduler(SchedulerConfig{MaxConcurrentJobs: 1}, exec, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	guard := &mapGuard{claimed: map[string]bool{}}
	clock := time.Date(2024, 11, 5, 2, 0, 0, 0, time.UTC)

	primary := NewCronTrigger(CronTriggerConfig{DailyHour: 2, Guard: guard}, s, zap.NewNop())
	primary.now = func() time.Time { return clock }
	replica := NewCronTrigger(CronTriggerConfig{DailyHour: 2, Guard: guard}, s, zap.NewNop())
	replica.now = func() time.Time { return clock }

	assert.True(t, primary.checkAndTrigger())
	assert.False(t, replica.checkAndTrigger(), "second instance must not submit the same day")
	assert.True(t, guard.claimed["nightly:2024-11-05"])

	t.Run("unreachable guard does not block the run", func(t *testing.T) {
		broken := NewCronTrigger(CronTriggerConfig{DailyHour: 2, Guard: &mapGuard{err: errors.New("dial tcp: connection refused")}}, s, zap.NewNop())
		broken.now = func() time.Time { return clock }
		assert.True(t, broken.checkAndTrigger())
	})

	waitJobs(t, exec.done, 2*len(AllJobTypes()))
}
