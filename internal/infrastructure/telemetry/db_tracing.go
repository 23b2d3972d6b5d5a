package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include bound variables in spans (dev only)
	SlowQueryThresh time.Duration // default 200ms
	DBName          string
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBName:          "muhasebe",
	}
}

// DBTracingPlugin wraps otelgorm with slow query detection.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin with the given configuration.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

type dbTimingKey struct{}

type callbackRegistration struct {
	name     string
	register func(name string, fn func(*gorm.DB)) error
}

// Register installs otelgorm and the timing callbacks on db.
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBName)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	cb := db.Callback()
	before := []callbackRegistration{
		{"muhasebe_timing:before_create", cb.Create().Before("gorm:create").Register},
		{"muhasebe_timing:before_query", cb.Query().Before("gorm:query").Register},
		{"muhasebe_timing:before_update", cb.Update().Before("gorm:update").Register},
		{"muhasebe_timing:before_delete", cb.Delete().Before("gorm:delete").Register},
		{"muhasebe_timing:before_row", cb.Row().Before("gorm:row").Register},
		{"muhasebe_timing:before_raw", cb.Raw().Before("gorm:raw").Register},
	}
	after := []callbackRegistration{
		{"muhasebe_timing:after_create", cb.Create().After("gorm:create").Register},
		{"muhasebe_timing:after_query", cb.Query().After("gorm:query").Register},
		{"muhasebe_timing:after_update", cb.Update().After("gorm:update").Register},
		{"muhasebe_timing:after_delete", cb.Delete().After("gorm:delete").Register},
		{"muhasebe_timing:after_row", cb.Row().After("gorm:row").Register},
		{"muhasebe_timing:after_raw", cb.Raw().After("gorm:raw").Register},
	}

	for _, r := range before {
		if err := r.register(r.name, markQueryStart); err != nil {
			return err
		}
	}
	for _, r := range after {
		if err := r.register(r.name, p.annotateSpan); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, dbTimingKey{}, time.Now())
	}
}

// annotateSpan adds row counts, table, errors and the slow-query marker to
// the span otelgorm opened for the statement.
func (p *DBTracingPlugin) annotateSpan(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(dbTimingKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}
