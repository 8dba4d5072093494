package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/pricing"
	"github.com/pricesetter/backend/internal/domain/shared"
	"github.com/pricesetter/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency bounds the number of products priced in parallel
const DefaultBatchConcurrency = 4

// recalculatePageSize is the number of records read per page during a batch
const recalculatePageSize = 200

// PricingService runs price calculations and applies them to products
type PricingService struct {
	settings    SettingsProvider
	recordRepo  pricing.PriceRecordRepository
	catalog     ProductCatalog
	writer      ProductPriceWriter
	publisher   shared.EventPublisher
	logger      *zap.Logger
	metrics     *telemetry.PricingMetrics
	concurrency int
}

// NewPricingService creates a new PricingService.
// catalog may be nil when every request carries its product inline.
func NewPricingService(
	settings SettingsProvider,
	recordRepo pricing.PriceRecordRepository,
	catalog ProductCatalog,
	writer ProductPriceWriter,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *PricingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricingService{
		settings:    settings,
		recordRepo:  recordRepo,
		catalog:     catalog,
		writer:      writer,
		publisher:   publisher,
		logger:      logger,
		concurrency: DefaultBatchConcurrency,
	}
}

// SetPricingMetrics sets the pricing metrics collector
func (s *PricingService) SetPricingMetrics(m *telemetry.PricingMetrics) {
	s.metrics = m
}

// SetBatchConcurrency sets how many products RecalculateAll prices at once
func (s *PricingService) SetBatchConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

// DryRun calculates prices with the full stage log and persists nothing
func (s *PricingService) DryRun(ctx context.Context, req CalculateRequest) (*CalculationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "pricing", "dry_run")
	defer span.End()
	start := time.Now()

	basePrice, product, settings, err := s.prepare(ctx, req)
	if err != nil {
		s.recordCalculation(ctx, telemetry.ModeDryRun, err, start)
		telemetry.RecordError(span, err)
		return nil, err
	}

	result, err := pricing.NewPipeline(*settings, pricing.WithVerbose()).Run(basePrice, product)
	s.recordCalculation(ctx, telemetry.ModeDryRun, err, start)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recordSkips(ctx, result)

	s.logger.Debug("dry run calculated",
		zap.String("product_id", req.ProductID.String()),
		zap.String("base_price", basePrice.String()),
		zap.String("wholesale_price", result.WholesalePrice.String()),
	)

	resp := ToCalculationResponse(req.ProductID, basePrice, result, true)
	return &resp, nil
}

// Apply calculates prices, writes them to the product and records the run
func (s *PricingService) Apply(ctx context.Context, req CalculateRequest) (*CalculationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "pricing", "apply",
		telemetry.WithAttribute(telemetry.SpanAttrProductID, req.ProductID.String()))
	defer span.End()
	start := time.Now()

	if req.ProductID == uuid.Nil {
		err := shared.NewDomainError(shared.CodeInvalidInput, "Product ID is required")
		s.recordCalculation(ctx, telemetry.ModeApply, err, start)
		return nil, err
	}

	basePrice, product, settings, err := s.prepare(ctx, req)
	if err != nil {
		s.recordCalculation(ctx, telemetry.ModeApply, err, start)
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp, err := s.apply(ctx, req.ProductID, basePrice, product, settings)
	s.recordCalculation(ctx, telemetry.ModeApply, err, start)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}

// RecalculateAll re-applies the stored base price of every priced product
// against the current settings and product data. Failures of single
// products are collected in the response.
func (s *PricingService) RecalculateAll(ctx context.Context) (*BatchResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "pricing", "recalculate_all")
	defer span.End()

	if s.catalog == nil {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Bulk recalculation needs a product catalog")
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	records, err := s.latestRecords(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		mu   sync.Mutex
		resp = &BatchResponse{Total: len(records)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range records {
		record := records[i]
		g.Go(func() error {
			start := time.Now()
			err := s.recalculate(gctx, &record, settings)
			s.recordCalculation(gctx, telemetry.ModeRecalculate, err, start)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				resp.Failed++
				resp.Failures = append(resp.Failures, BatchFailure{ProductID: record.ProductID, Error: err.Error()})
				s.logger.Warn("recalculation failed",
					zap.String("product_id", record.ProductID.String()),
					zap.Error(err),
				)
				return nil
			}
			resp.Succeeded++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordBatch(ctx, resp.Succeeded, resp.Failed)
	}
	telemetry.SetAttributes(span, "total", resp.Total, "failed", resp.Failed)
	s.logger.Info("recalculation finished",
		zap.Int("total", resp.Total),
		zap.Int("succeeded", resp.Succeeded),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

// ListPricedProducts returns the latest record of every product with a base price
func (s *PricingService) ListPricedProducts(ctx context.Context, filter shared.Filter) (*shared.Paginated[PriceRecordResponse], error) {
	records, err := s.recordRepo.FindLatestPerProduct(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.recordRepo.CountProducts(ctx)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToPriceRecordResponses(records), total, filter.Page, filter.Limit())
	return &page, nil
}

// History returns the records of one product, newest first
func (s *PricingService) History(ctx context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[PriceRecordResponse], error) {
	records, err := s.recordRepo.FindByProduct(ctx, productID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.recordRepo.CountByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToPriceRecordResponses(records), total, filter.Page, filter.Limit())
	return &page, nil
}

// ClearBasePrice forgets the base price of a product so it drops out of the
// priced product list and bulk recalculation
func (s *PricingService) ClearBasePrice(ctx context.Context, productID uuid.UUID) error {
	deleted, err := s.recordRepo.DeleteByProduct(ctx, productID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return shared.ErrNotFound
	}
	s.logger.Info("base price cleared",
		zap.String("product_id", productID.String()),
		zap.Int64("records", deleted),
	)
	return nil
}

func (s *PricingService) prepare(ctx context.Context, req CalculateRequest) (decimal.Decimal, pricing.Product, *pricing.Settings, error) {
	if err := validateRequest(req); err != nil {
		return decimal.Zero, nil, nil, err
	}

	if strings.TrimSpace(req.BasePrice) == "" {
		return decimal.Zero, nil, nil, fmt.Errorf("%w: base price is missing", pricing.ErrInvalidInputPrice)
	}
	basePrice, err := pricing.ParseDecimal(req.BasePrice)
	if err != nil {
		return decimal.Zero, nil, nil, fmt.Errorf("%w: %q is not a number", pricing.ErrInvalidInputPrice, req.BasePrice)
	}
	if !basePrice.IsPositive() {
		return decimal.Zero, nil, nil, fmt.Errorf("%w: got %s", pricing.ErrInvalidInputPrice, basePrice)
	}

	product, err := s.resolveProduct(ctx, req)
	if err != nil {
		return decimal.Zero, nil, nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return decimal.Zero, nil, nil, err
	}
	return basePrice, product, settings, nil
}

func (s *PricingService) resolveProduct(ctx context.Context, req CalculateRequest) (pricing.Product, error) {
	if req.Product != nil {
		snap, err := req.Product.Snapshot()
		if err != nil {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, err.Error())
		}
		return snap, nil
	}
	if s.catalog == nil || req.ProductID == uuid.Nil {
		// Nothing known about the product: weight, sale and family stages skip
		return pricing.Snapshot{}, nil
	}
	product, err := s.catalog.FindProduct(ctx, req.ProductID)
	if errors.Is(err, shared.ErrNotFound) {
		s.logger.Debug("product not in catalog, pricing without product data",
			zap.String("product_id", req.ProductID.String()),
		)
		return pricing.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", req.ProductID, err)
	}
	return product, nil
}

func (s *PricingService) apply(ctx context.Context, productID uuid.UUID, basePrice decimal.Decimal, product pricing.Product, settings *pricing.Settings) (*CalculationResponse, error) {
	result, err := pricing.NewPipeline(*settings, pricing.WithVerbose()).Run(basePrice, product)
	if err != nil {
		return nil, err
	}
	s.recordSkips(ctx, result)

	update := pricing.NewPriceUpdate(productID, basePrice, product, *settings, result)
	if err := s.writer.WritePrices(ctx, update); err != nil {
		s.logger.Error("failed to write product prices",
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to write prices of product %s: %w", productID, err)
	}

	record, err := pricing.NewPriceRecord(productID, basePrice, product, *settings, result)
	if err != nil {
		return nil, err
	}
	if err := s.recordRepo.Save(ctx, record); err != nil {
		s.logger.Error("failed to save price record",
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to save price record: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, record.GetDomainEvents()...); err != nil {
			s.logger.Warn("failed to publish price events", zap.Error(err))
		}
	}
	record.ClearDomainEvents()

	s.logger.Info("prices applied",
		zap.String("product_id", productID.String()),
		zap.String("base_price", basePrice.String()),
		zap.String("wholesale_price", result.WholesalePrice.String()),
		zap.String("retail_price", result.RetailText()),
	)

	resp := ToCalculationResponse(productID, basePrice, result, false)
	resp.RecordID = &record.ID
	return &resp, nil
}

func (s *PricingService) recalculate(ctx context.Context, record *pricing.PriceRecord, settings *pricing.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	product, err := s.catalog.FindProduct(ctx, record.ProductID)
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}
	_, err = s.apply(ctx, record.ProductID, record.BasePrice, product, settings)
	return err
}

func (s *PricingService) latestRecords(ctx context.Context) ([]pricing.PriceRecord, error) {
	var all []pricing.PriceRecord
	filter := shared.Filter{Page: 1, PageSize: recalculatePageSize, OrderBy: "product_id", OrderDir: "asc"}
	for {
		page, err := s.recordRepo.FindLatestPerProduct(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list priced products: %w", err)
		}
		all = append(all, page...)
		if len(page) < recalculatePageSize {
			return all, nil
		}
		filter.Page++
	}
}

func (s *PricingService) recordCalculation(ctx context.Context, mode string, err error, start time.Time) {
	if s.metrics == nil {
		return
	}
	outcome := telemetry.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, pricing.ErrInvalidInputPrice):
		outcome = telemetry.OutcomeInvalidInput
	default:
		outcome = telemetry.OutcomeError
	}
	s.metrics.RecordCalculation(ctx, mode, outcome, time.Since(start))
}

func (s *PricingService) recordSkips(ctx context.Context, result *pricing.Result) {
	if s.metrics != nil {
		s.metrics.RecordSkippedStages(ctx, result.Log)
	}
}
