package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/shared"
)

// PriceRecordRepository defines the interface for price record persistence
type PriceRecordRepository interface {
	// Save stores a new record
	Save(ctx context.Context, record *PriceRecord) error

	// FindByID finds a record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*PriceRecord, error)

	// FindLatestByProduct returns the newest record of a product
	FindLatestByProduct(ctx context.Context, productID uuid.UUID) (*PriceRecord, error)

	// FindByProduct returns the records of a product, newest first
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]PriceRecord, error)

	// CountByProduct counts the records of a product
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)

	// FindLatestPerProduct returns the newest record of every product
	FindLatestPerProduct(ctx context.Context, filter shared.Filter) ([]PriceRecord, error)

	// CountProducts counts products having at least one record
	CountProducts(ctx context.Context) (int64, error)

	// DeleteByProduct removes every record of a product and returns how many were deleted
	DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}

// PricingOptionRepository stores the flat settings form
type PricingOptionRepository interface {
	// Load returns every stored option
	Load(ctx context.Context) (map[string]string, error)

	// SaveAll upserts the given options
	SaveAll(ctx context.Context, values map[string]string) error

	// DeleteAll removes every stored option
	DeleteAll(ctx context.Context) error
}
