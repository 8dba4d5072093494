// Package storefront adapts calculated prices to the host shop catalog
package storefront

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/pricing"
	"github.com/pricesetter/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LoggingPriceWriter reports price updates instead of writing them to a shop.
// It keeps the last update per product so callers can inspect what would
// have been written.
type LoggingPriceWriter struct {
	logger *zap.Logger

	mu      sync.RWMutex
	written map[uuid.UUID]pricing.PriceUpdate
}

// NewLoggingPriceWriter creates a new LoggingPriceWriter
func NewLoggingPriceWriter(l *zap.Logger) *LoggingPriceWriter {
	if l == nil {
		l = zap.NewNop()
	}
	return &LoggingPriceWriter{
		logger:  l,
		written: make(map[uuid.UUID]pricing.PriceUpdate),
	}
}

// WritePrices logs the update at info level
func (w *LoggingPriceWriter) WritePrices(ctx context.Context, update pricing.PriceUpdate) error {
	fields := []zap.Field{
		zap.String("product_id", update.ProductID.String()),
		zap.String("base_price", update.BasePrice.String()),
		zap.String("regular_price", update.RegularPrice.String()),
		zap.String("active_price", update.ActivePrice.String()),
	}
	if update.SalePrice.Valid {
		fields = append(fields, zap.String("sale_price", update.SalePrice.Decimal.String()))
	}
	if update.WritesRetail() {
		fields = append(fields,
			zap.String("retail_target", update.RetailTarget.String()),
			zap.String("retail_attribute", update.RetailAttribute),
			zap.String("retail_price", update.RetailText),
		)
	}
	logger.WithTraceContext(ctx, w.logger).Info("product prices written", fields...)

	w.mu.Lock()
	w.written[update.ProductID] = update
	w.mu.Unlock()
	return nil
}

// Last returns the most recent update of a product
func (w *LoggingPriceWriter) Last(productID uuid.UUID) (pricing.PriceUpdate, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	u, ok := w.written[productID]
	return u, ok
}
