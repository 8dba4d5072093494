package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/pricing"
	"github.com/pricesetter/backend/internal/domain/shared"
	"github.com/pricesetter/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPriceRecordRepository implements PriceRecordRepository using GORM
type GormPriceRecordRepository struct {
	db *gorm.DB
}

// NewGormPriceRecordRepository creates a new GormPriceRecordRepository
func NewGormPriceRecordRepository(db *gorm.DB) *GormPriceRecordRepository {
	return &GormPriceRecordRepository{db: db}
}

// WithTx returns a new repository instance with the given transaction
func (r *GormPriceRecordRepository) WithTx(tx *gorm.DB) *GormPriceRecordRepository {
	return &GormPriceRecordRepository{db: tx}
}

// Save stores a new record
func (r *GormPriceRecordRepository) Save(ctx context.Context, record *pricing.PriceRecord) error {
	model, err := models.PriceRecordModelFromDomain(record)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save price record: %w", err)
	}
	return nil
}

// FindByID finds a record by its ID
func (r *GormPriceRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.PriceRecord, error) {
	var model models.PriceRecordModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindLatestByProduct returns the newest record of a product
func (r *GormPriceRecordRepository) FindLatestByProduct(ctx context.Context, productID uuid.UUID) (*pricing.PriceRecord, error) {
	var model models.PriceRecordModel
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Order("id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByProduct returns the records of a product, newest first
func (r *GormPriceRecordRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]pricing.PriceRecord, error) {
	var rows []models.PriceRecordModel
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainRecords(rows)
}

// CountByProduct counts the records of a product
func (r *GormPriceRecordRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PriceRecordModel{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}

// FindLatestPerProduct returns the newest record of every product.
// Results are ordered by product_id unless the filter names another
// allowed sort field.
func (r *GormPriceRecordRepository) FindLatestPerProduct(ctx context.Context, filter shared.Filter) ([]pricing.PriceRecord, error) {
	db := r.db.WithContext(ctx)
	ranked := db.Model(&models.PriceRecordModel{}).
		Select("*, ROW_NUMBER() OVER (PARTITION BY product_id ORDER BY created_at DESC, id DESC) AS rn")

	var rows []models.PriceRecordModel
	err := db.Table("(?) AS latest", ranked).
		Where("rn = 1").
		Order(latestOrder(filter)).
		Order("product_id ASC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainRecords(rows)
}

// CountProducts counts products having at least one record
func (r *GormPriceRecordRepository) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PriceRecordModel{}).
		Distinct("product_id").
		Count(&count).Error
	return count, err
}

// DeleteByProduct removes every record of a product
func (r *GormPriceRecordRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.PriceRecordModel{})
	return result.RowsAffected, result.Error
}

func latestOrder(filter shared.Filter) string {
	field := ValidateSortField(filter.OrderBy, PriceRecordSortFields, "product_id")
	return field + " " + ValidateSortOrder(filter.OrderDir, "ASC")
}

func toDomainRecords(rows []models.PriceRecordModel) ([]pricing.PriceRecord, error) {
	out := make([]pricing.PriceRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// Ensure GormPriceRecordRepository implements PriceRecordRepository
var _ pricing.PriceRecordRepository = (*GormPriceRecordRepository)(nil)
