package pricing

import (
	"context"
	"fmt"

	"github.com/pricesetter/backend/internal/domain/pricing"
	"github.com/pricesetter/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// SettingsChangedHandler drops cached settings when they change
type SettingsChangedHandler struct {
	cache  SettingsCache
	logger *zap.Logger
}

// NewSettingsChangedHandler creates a new handler for settings change events
func NewSettingsChangedHandler(cache SettingsCache, logger *zap.Logger) *SettingsChangedHandler {
	return &SettingsChangedHandler{
		cache:  cache,
		logger: logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *SettingsChangedHandler) EventTypes() []string {
	return []string{pricing.EventTypePricingSettingsChanged}
}

// Handle processes a PricingSettingsChangedEvent
func (h *SettingsChangedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*pricing.PricingSettingsChangedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			pricing.EventTypePricingSettingsChanged, event.EventType())
	}

	if err := h.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to invalidate settings cache: %w", err)
	}
	h.logger.Debug("settings cache invalidated",
		zap.Strings("keys", changed.ChangedKeys),
		zap.Bool("reset", changed.Reset),
	)
	return nil
}

// PriceAppliedHandler reports applied prices so the priced product list
// can be refreshed by its consumers
type PriceAppliedHandler struct {
	logger *zap.Logger
}

// NewPriceAppliedHandler creates a new handler for price applied events
func NewPriceAppliedHandler(logger *zap.Logger) *PriceAppliedHandler {
	return &PriceAppliedHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *PriceAppliedHandler) EventTypes() []string {
	return []string{pricing.EventTypePriceApplied}
}

// Handle processes a PriceAppliedEvent
func (h *PriceAppliedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	applied, ok := event.(*pricing.PriceAppliedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			pricing.EventTypePriceApplied, event.EventType())
	}

	fields := []zap.Field{
		zap.String("product_id", applied.ProductID.String()),
		zap.String("base_price", applied.BasePrice.String()),
		zap.String("wholesale_price", applied.WholesalePrice.String()),
	}
	if applied.SalePrice.Valid {
		fields = append(fields, zap.String("sale_price", applied.SalePrice.Decimal.String()))
	}
	if applied.RetailText != "" {
		fields = append(fields, zap.String("retail_price", applied.RetailText))
	}
	if applied.ParentID != nil {
		fields = append(fields, zap.String("parent_id", applied.ParentID.String()))
	}
	h.logger.Info("price applied", fields...)
	return nil
}
