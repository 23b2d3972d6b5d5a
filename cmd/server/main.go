package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	accountingapp "github.com/erp/muhasebe/internal/application/accounting"
	analyticsapp "github.com/erp/muhasebe/internal/application/analytics"
	documentapp "github.com/erp/muhasebe/internal/application/document"
	inventoryapp "github.com/erp/muhasebe/internal/application/inventory"
	posapp "github.com/erp/muhasebe/internal/application/pos"
	pricingapp "github.com/erp/muhasebe/internal/application/pricing"
	salesapp "github.com/erp/muhasebe/internal/application/sales"
	"github.com/erp/muhasebe/internal/domain/analytics"
	"github.com/erp/muhasebe/internal/domain/document"
	"github.com/erp/muhasebe/internal/infrastructure/cache"
	"github.com/erp/muhasebe/internal/infrastructure/config"
	"github.com/erp/muhasebe/internal/infrastructure/estimator"
	"github.com/erp/muhasebe/internal/infrastructure/event"
	"github.com/erp/muhasebe/internal/infrastructure/logger"
	"github.com/erp/muhasebe/internal/infrastructure/migration"
	"github.com/erp/muhasebe/internal/infrastructure/persistence"
	"github.com/erp/muhasebe/internal/infrastructure/scheduler"
	"github.com/erp/muhasebe/internal/infrastructure/storage"
	"github.com/erp/muhasebe/internal/infrastructure/telemetry"
	"github.com/erp/muhasebe/internal/interfaces/http/handler"
	"github.com/erp/muhasebe/internal/interfaces/http/middleware"
	"github.com/erp/muhasebe/internal/interfaces/http/router"
	"github.com/erp/muhasebe/migrations"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// OTLP log bridge; the local logger is rebuilt with the bridge core teed in
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Warn("Failed to initialize OTLP log bridge", zap.Error(err))
	} else if logProvider.IsEnabled() {
		if bridged, err := logger.New(logCfg, logProvider.Core(logger.ParseLevel(cfg.Log.Level))); err == nil {
			log = bridged
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting muhasebe",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	profilerCfg := telemetry.DefaultProfilerConfig(cfg.Telemetry.PyroscopeAddress, cfg.Telemetry.ServiceName)
	profilerCfg.Enabled = cfg.Telemetry.ProfilingEnabled && cfg.Telemetry.PyroscopeAddress != ""
	profiler, err := telemetry.NewProfiler(profilerCfg, log)
	if err != nil {
		log.Warn("Failed to start profiler", zap.Error(err))
	}
	if profiler != nil && profiler.IsEnabled() && tracerProvider.IsEnabled() {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to link spans to profiles", zap.Error(err))
		}
	}

	db, err := persistence.NewDatabaseWithLogLevel(&cfg.Database, log, logger.GormLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	dbTracing.DBName = cfg.Database.DBName
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := applyMigrations(db, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	moveRepo := persistence.NewGormStockMoveRepository(db.DB)
	locationRepo := persistence.NewGormLocationRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	partnerRepo := persistence.NewGormPartnerRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	salesOrderRepo := persistence.NewGormSalesOrderRepository(db.DB)
	posSessionRepo := persistence.NewGormPOSSessionRepository(db.DB)
	posOrderRepo := persistence.NewGormPOSOrderRepository(db.DB)
	findingRepo := persistence.NewGormFindingRepository(db.DB)
	forecastRepo := persistence.NewGormForecastRepository(db.DB)

	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithKeyPrefix(cfg.Idempotency.KeyPrefix),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	idempotencyStore, err := storeFactory.CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idempotencyStore.Close()
	}()

	// Estimators
	forest := estimator.NewIsolationForest(estimator.ForestConfig{
		Trees:         cfg.Analytics.OutlierTrees,
		SampleSize:    estimator.DefaultForestConfig().SampleSize,
		Contamination: cfg.Analytics.OutlierContamination,
		Seed:          cfg.Analytics.OutlierSeed,
	})
	rules := analytics.NewRuleDetector(cfg.Analytics.SuspiciousThreshold, cfg.Analytics.HighThreshold)

	// Document archive
	var archive *storage.S3Archive
	if cfg.Storage.Enabled {
		archive, err = storage.NewS3Archive(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize document archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Warn("Document archive bucket check failed", zap.String("bucket", archive.Bucket()), zap.Error(err))
		}
	}

	// Application services
	invoiceService := accountingapp.NewInvoiceService(invoiceRepo, partnerRepo, log)
	ledgerService := accountingapp.NewLedgerService(accountRepo, ledgerRepo, log)
	partnerService := accountingapp.NewPartnerService(partnerRepo, log)
	reportService := accountingapp.NewReportService(accountRepo, ledgerRepo, invoiceRepo, log)
	productService := inventoryapp.NewProductService(productRepo, moveRepo, locationRepo, log)
	moveService := inventoryapp.NewStockMoveService(productRepo, moveRepo, persistence.NewGormTransactionScope(db.DB), log)
	salesOrderService := salesapp.NewSalesOrderService(salesOrderRepo, partnerRepo, log)
	posService := posapp.NewPOSService(posSessionRepo, posOrderRepo, persistence.NewGormPOSTransactionScope(db.DB), log)
	previewService := pricingapp.NewPreviewService(log)
	forecastService := analyticsapp.NewForecastService(ledgerRepo, forecastRepo, cfg.Analytics.ForecastWindowDays, estimator.NewHoltWinters(), log)
	anomalyService := analyticsapp.NewAnomalyService(ledgerRepo, invoiceRepo, findingRepo, rules, forest, log)

	var docArchive document.Archive
	var archiveLinker handler.ArchiveLinker
	if archive != nil {
		docArchive = archive
		archiveLinker = archive
	}
	intakeService := documentapp.NewIntakeService(document.NewParser(), docArchive, log)

	// Event bus: journal every event, derive business metrics once per event
	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:             meterProvider.Meter("muhasebe"),
		Logger:            log,
		InventoryProvider: telemetry.NewGormInventoryMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to initialize business metrics", zap.Error(err))
	}

	journal := event.NewGormEventJournal(db.DB, nil)
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewJournalHandler(journal, log))
	eventBus.Subscribe(event.NewIdempotentHandler("business-metrics", event.NewMetricsHandler(businessMetrics), idempotencyStore, log))

	invoiceService.SetEventPublisher(eventBus)
	moveService.SetEventPublisher(eventBus)
	salesOrderService.SetEventPublisher(eventBus)
	anomalyService.SetEventPublisher(eventBus)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	if meterProvider.IsEnabled() {
		businessMetrics.StartPeriodicCollection(metricsCtx, cfg.Telemetry.MetricsInterval)
	}

	// Nightly analytics jobs
	var jobScheduler *scheduler.Scheduler
	var cronTrigger *scheduler.CronTrigger
	if cfg.Scheduler.Enabled {
		hour, minute, err := scheduler.ParseCronSchedule(cfg.Scheduler.DailyCron)
		if err != nil {
			log.Fatal("Invalid scheduler.daily_cron", zap.Error(err))
		}
		jobScheduler = scheduler.NewScheduler(scheduler.SchedulerConfig{
			MaxConcurrentJobs: cfg.Scheduler.Workers,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
			LookbackDays:      cfg.Scheduler.LookbackDays,
		}, analyticsapp.NewNightlyJobRunner(forecastService, anomalyService, log), log)
		if err := jobScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start analytics scheduler", zap.Error(err))
		}
		triggerCfg := scheduler.CronTriggerConfig{
			DailyHour:     hour,
			DailyMinute:   minute,
			CheckInterval: time.Minute,
		}
		// Replicas sharing Redis run each night's jobs once
		if redisStore, ok := idempotencyStore.(*cache.RedisIdempotencyStore); ok {
			triggerCfg.Guard = cache.NewRedisRunGuard(redisStore.Client(), "")
		}
		cronTrigger = scheduler.NewCronTrigger(triggerCfg, jobScheduler, log)
		if err := cronTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start cron trigger", zap.Error(err))
		}
	}

	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.NewEngine(router.EngineConfig{
		Logger: log,
		HTTP:   cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tracerProvider.IsEnabled(),
		},
		Metrics: middleware.HTTPMetricsConfig{
			MeterProvider: meterProvider,
			Enabled:       meterProvider.IsEnabled(),
			Logger:        log,
		},
		Profiling: middleware.ProfilingConfig{
			Enabled:   profiler != nil && profiler.IsEnabled(),
			SkipPaths: []string{"/health", "/api/v1/health"},
		},
		Idempotency: middleware.IdempotencyConfig{
			Store:  idempotencyStore,
			TTL:    cfg.Idempotency.TTL,
			Logger: log,
		},
	}, router.Handlers{
		System:     handler.NewSystemHandler(db, version),
		Invoice:    handler.NewInvoiceHandler(invoiceService),
		Ledger:     handler.NewLedgerHandler(ledgerService),
		Report:     handler.NewReportHandler(reportService),
		Partner:    handler.NewPartnerHandler(partnerService),
		Pricing:    handler.NewPricingHandler(previewService),
		Product:    handler.NewProductHandler(productService),
		StockMove:  handler.NewStockMoveHandler(moveService),
		SalesOrder: handler.NewSalesOrderHandler(salesOrderService),
		POS:        handler.NewPOSHandler(posService),
		Analytics:  handler.NewAnalyticsHandler(forecastService, anomalyService),
		Document:   handler.NewDocumentHandler(intakeService, archiveLinker),
		Event:      handler.NewEventHandler(journal),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if cronTrigger != nil {
		if err := cronTrigger.Stop(shutdownCtx); err != nil {
			log.Warn("Cron trigger stop failed", zap.Error(err))
		}
	}
	if jobScheduler != nil {
		if err := jobScheduler.Stop(shutdownCtx); err != nil {
			log.Warn("Analytics scheduler stop failed", zap.Error(err))
		}
	}
	stopMetrics()
	businessMetrics.Stop()
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus stop failed", zap.Error(err))
	}
	if profiler != nil {
		if err := profiler.Stop(); err != nil {
			log.Warn("Profiler stop failed", zap.Error(err))
		}
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if logProvider != nil {
		if err := logProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Log provider shutdown failed", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// applyMigrations runs the embedded schema migrations up to the latest version
func applyMigrations(db *persistence.Database, log *zap.Logger) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, ".", log)
	if err != nil {
		return err
	}
	return m.Up()
}
