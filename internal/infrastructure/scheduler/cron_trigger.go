package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ParseCronSchedule reads the minute and hour fields of a daily cron
// expression "minute hour * * *". An empty expression means 02:00.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour, minute = 2, 0

	parts := strings.Fields(cronExpr)
	if len(parts) == 0 {
		return hour, minute, nil
	}
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("%w: %q needs minute and hour fields", ErrInvalidConfig, cronExpr)
	}

	if parts[0] != "*" {
		if minute, err = strconv.Atoi(parts[0]); err != nil {
			return 0, 0, fmt.Errorf("%w: minute %q", ErrInvalidConfig, parts[0])
		}
	}
	if parts[1] != "*" {
		if hour, err = strconv.Atoi(parts[1]); err != nil {
			return 0, 0, fmt.Errorf("%w: hour %q", ErrInvalidConfig, parts[1])
		}
	}

	if minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute must be 0-59, got %d", ErrInvalidConfig, minute)
	}
	if hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour must be 0-23, got %d", ErrInvalidConfig, hour)
	}
	return hour, minute, nil
}

// RunGuard claims a scheduled run across service instances
type RunGuard interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	DailyHour   int
	DailyMinute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration

	// Guard, when set, lets only one instance submit each day's jobs.
	// Unreachable guards are logged and the jobs run anyway.
	Guard    RunGuard
	GuardTTL time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		DailyHour:     2,
		DailyMinute:   0,
		CheckInterval: time.Minute,
	}
}

// CronTrigger submits the nightly jobs once a day at the configured time
type CronTrigger struct {
	config    CronTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(config CronTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *CronTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	if config.GuardTTL <= 0 {
		config.GuardTTL = 23 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.Int("daily_hour", c.config.DailyHour),
		zap.Int("daily_minute", c.config.DailyMinute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger()
		}
	}
}

// checkAndTrigger submits the nightly jobs when the clock reaches the
// configured time and they have not run yet today. It reports whether
// jobs were submitted.
func (c *CronTrigger) checkAndTrigger() bool {
	now := c.now()
	currentDate := now.Format("2006-01-02")

	if now.Hour() != c.config.DailyHour || now.Minute() != c.config.DailyMinute {
		return false
	}

	c.mu.Lock()
	if c.lastRunDate == currentDate {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = currentDate
	c.mu.Unlock()

	if !c.claim(currentDate) {
		return false
	}

	c.logger.Info("Triggering nightly analytics jobs", zap.String("date", currentDate))
	if err := c.scheduler.ScheduleDaily(now); err != nil {
		c.logger.Error("Failed to schedule nightly analytics jobs", zap.Error(err))
		return false
	}
	return true
}

func (c *CronTrigger) claim(date string) bool {
	if c.config.Guard == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	claimed, err := c.config.Guard.Claim(ctx, "nightly:"+date, c.config.GuardTTL)
	if err != nil {
		c.logger.Warn("Run guard unavailable, scheduling without it", zap.Error(err))
		return true
	}
	if !claimed {
		c.logger.Info("Nightly analytics jobs claimed by another instance", zap.String("date", date))
	}
	return claimed
}

// TriggerNow submits every job type for the day before now, outside the
// daily schedule
func (c *CronTrigger) TriggerNow() error {
	return c.scheduler.ScheduleDaily(c.now())
}
