package telemetry

import (
	"context"
	"time"

	"github.com/pricesetter/backend/internal/domain/pricing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Attribute keys of the pricing instruments.
var (
	AttrMode           = attribute.Key("mode")
	AttrOutcome        = attribute.Key("outcome")
	AttrStage          = attribute.Key("stage")
	AttrSkipReason     = attribute.Key("skip_reason")
	AttrSettingsSource = attribute.Key("settings_source")
)

// SmallDurationBuckets are histogram bounds in seconds for in-process work.
var SmallDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5}

// Calculation modes used as the mode label.
const (
	ModeDryRun      = "dry_run"
	ModeApply       = "apply"
	ModeRecalculate = "recalculate"
)

// Calculation outcomes used as the outcome label.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalidInput = "invalid_input"
	OutcomeError        = "error"
)

// Settings lookup sources.
const (
	SettingsSourceCache = "cache"
	SettingsSourceStore = "store"
)

// PricingMetrics records price pipeline activity.
type PricingMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	calculationsTotal   *Counter
	calculationDuration *Histogram
	stageSkippedTotal   *Counter
	batchProductsTotal  *Counter
	batchLastFailed     *Gauge
	settingsLookups     *Counter
}

// NewPricingMetrics creates the pricing instruments on the given meter.
func NewPricingMetrics(meter metric.Meter, logger *zap.Logger) (*PricingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pm := &PricingMetrics{meter: meter, logger: logger}

	var err error
	pm.calculationsTotal, err = NewCounter(
		meter,
		"waps_price_calculations_total",
		"Total number of price pipeline runs",
		"{calculations}",
	)
	if err != nil {
		return nil, err
	}

	pm.calculationDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "waps_price_calculation_duration_seconds",
		Description: "Duration of a price calculation including persistence",
		Unit:        "s",
		Boundaries:  SmallDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	pm.stageSkippedTotal, err = NewCounter(
		meter,
		"waps_price_stage_skipped_total",
		"Total number of skipped pipeline stages",
		"{stages}",
	)
	if err != nil {
		return nil, err
	}

	pm.batchProductsTotal, err = NewCounter(
		meter,
		"waps_recalculate_products_total",
		"Total number of products processed by bulk recalculation",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	pm.batchLastFailed, err = NewGauge(
		meter,
		"waps_recalculate_last_failed",
		"Failed products in the most recent bulk recalculation",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	pm.settingsLookups, err = NewCounter(
		meter,
		"waps_settings_lookups_total",
		"Total number of pricing settings lookups",
		"{lookups}",
	)
	if err != nil {
		return nil, err
	}

	return pm, nil
}

// RecordCalculation records one pipeline run and its latency.
func (pm *PricingMetrics) RecordCalculation(ctx context.Context, mode, outcome string, d time.Duration) {
	pm.calculationsTotal.Inc(ctx, AttrMode.String(mode), AttrOutcome.String(outcome))
	pm.calculationDuration.RecordDuration(ctx, d, AttrMode.String(mode))
}

// RecordSkippedStages counts every skipped stage in a calculation log.
func (pm *PricingMetrics) RecordSkippedStages(ctx context.Context, log []pricing.StageRecord) {
	for _, rec := range log {
		if !rec.Skipped() {
			continue
		}
		pm.stageSkippedTotal.Inc(ctx,
			AttrStage.String(string(rec.Stage)),
			AttrSkipReason.String(string(rec.Reason)),
		)
	}
}

// RecordBatch records the totals of a bulk recalculation.
func (pm *PricingMetrics) RecordBatch(ctx context.Context, succeeded, failed int) {
	if succeeded > 0 {
		pm.batchProductsTotal.Add(ctx, int64(succeeded), AttrOutcome.String(OutcomeSuccess))
	}
	if failed > 0 {
		pm.batchProductsTotal.Add(ctx, int64(failed), AttrOutcome.String(OutcomeError))
		pm.logger.Warn("Bulk recalculation finished with failures",
			zap.Int("succeeded", succeeded),
			zap.Int("failed", failed),
		)
	}
	pm.batchLastFailed.Record(ctx, int64(failed))
}

// RecordSettingsLookup counts where a settings read was served from.
func (pm *PricingMetrics) RecordSettingsLookup(ctx context.Context, source string) {
	pm.settingsLookups.Inc(ctx, AttrSettingsSource.String(source))
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewPricingMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
