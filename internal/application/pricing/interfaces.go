package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/pricing"
)

// ProductCatalog gives read access to products owned by the host shop
type ProductCatalog interface {
	// FindProduct returns the current state of a product.
	// Returns shared.ErrNotFound for unknown products.
	FindProduct(ctx context.Context, productID uuid.UUID) (pricing.Product, error)
}

// ProductPriceWriter persists calculated prices on host products
type ProductPriceWriter interface {
	WritePrices(ctx context.Context, update pricing.PriceUpdate) error
}

// SettingsCache caches the merged flat settings
type SettingsCache interface {
	// Get returns the cached settings; ok is false on a miss
	Get(ctx context.Context) (values map[string]string, ok bool, err error)
	Set(ctx context.Context, values map[string]string) error
	Invalidate(ctx context.Context) error
}

// SettingsProvider returns the effective pricing settings
type SettingsProvider interface {
	Get(ctx context.Context) (*pricing.Settings, error)
}
