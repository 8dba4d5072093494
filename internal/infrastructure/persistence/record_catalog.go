package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/pricing"
)

// RecordCatalog serves products from their latest price record. It backs
// bulk recalculation when no storefront catalog is reachable: the product
// is taken as it looked right after the last applied run.
type RecordCatalog struct {
	records pricing.PriceRecordRepository
}

// NewRecordCatalog creates a new RecordCatalog
func NewRecordCatalog(records pricing.PriceRecordRepository) *RecordCatalog {
	return &RecordCatalog{records: records}
}

// FindProduct returns the applied snapshot of the product's latest record.
// Products without records yield shared.ErrNotFound.
func (c *RecordCatalog) FindProduct(ctx context.Context, productID uuid.UUID) (pricing.Product, error) {
	record, err := c.records.FindLatestByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return record.AppliedSnapshot(), nil
}
