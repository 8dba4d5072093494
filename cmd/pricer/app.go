package main

import (
	"context"
	"fmt"
	"io"
	"os"

	pricingapp "github.com/pricesetter/backend/internal/application/pricing"
	"github.com/pricesetter/backend/internal/infrastructure/cache"
	"github.com/pricesetter/backend/internal/infrastructure/config"
	"github.com/pricesetter/backend/internal/infrastructure/event"
	"github.com/pricesetter/backend/internal/infrastructure/logger"
	"github.com/pricesetter/backend/internal/infrastructure/persistence"
	"github.com/pricesetter/backend/internal/infrastructure/storefront"
	"github.com/pricesetter/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the wired services of one invocation
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	out     io.Writer
	errOut  io.Writer
	jsonOut bool

	settings *pricingapp.SettingsService
	pricing  *pricingapp.PricingService
	writer   *storefront.LoggingPriceWriter

	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, opts globalOptions, out, errOut io.Writer) (a *app, err error) {
	a = &app{cfg: cfg, log: log, out: out, errOut: errOut, jsonOut: opts.jsonOut}
	defer func() {
		if err != nil {
			a.close(ctx)
		}
	}()

	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
		Level:             level,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("log export: %w", err)
	}
	a.closers = append(a.closers, lp.Shutdown)
	log = lp.Bridge(log)
	a.log = log

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	a.closers = append(a.closers, tp.Shutdown)

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	a.closers = append(a.closers, mp.Shutdown)

	metrics, err := telemetry.NewPricingMetrics(mp.Meter(telemetry.TracerName), log)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	dbOpts := []persistence.DatabaseOption{
		persistence.WithLogger(log, logger.MapGormLogLevel(cfg.Log.Level)),
		persistence.WithSlowQueryThreshold(cfg.Telemetry.DBSlowQueryThresh),
	}
	if cfg.Telemetry.DBTraceEnabled {
		dbOpts = append(dbOpts, persistence.WithTracing(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        cfg.Database.Driver,
		}, log)))
	}
	db, err := persistence.NewDatabase(&cfg.Database, dbOpts...)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })

	// postgres schemas are owned by cmd/migrate
	if db.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			return nil, err
		}
	}

	settingsCache, closeCache, err := cache.NewSettingsCacheFactory(
		cfg.Redis, cfg.Pricing.SettingsCacheTTL, cache.WithLogger(log),
	).CreateCache()
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return closeCache() })

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(pricingapp.NewSettingsChangedHandler(settingsCache, log))
	bus.Subscribe(pricingapp.NewPriceAppliedHandler(log))
	if opts.journal != "" {
		f, err := os.OpenFile(opts.journal, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open event journal: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return f.Close() })
		bus.Subscribe(event.NewJournalHandler(f, event.NewPricingEventSerializer()))
	}

	defaults, err := cfg.Pricing.Settings()
	if err != nil {
		return nil, err
	}

	optionRepo := persistence.NewGormPricingOptionRepository(db.DB)
	recordRepo := persistence.NewGormPriceRecordRepository(db.DB)

	a.settings = pricingapp.NewSettingsService(optionRepo, settingsCache, bus, defaults, log)
	a.settings.SetPricingMetrics(metrics)

	a.writer = storefront.NewLoggingPriceWriter(log)
	a.pricing = pricingapp.NewPricingService(
		a.settings,
		recordRepo,
		persistence.NewRecordCatalog(recordRepo),
		a.writer,
		bus,
		log,
	)
	a.pricing.SetPricingMetrics(metrics)
	a.pricing.SetBatchConcurrency(cfg.Pricing.BatchConcurrency)

	return a, nil
}

// close releases resources in reverse order of acquisition
func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn("shutdown step failed", zap.Error(err))
		}
	}
	a.closers = nil
}
