package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/pricesetter/backend/internal/domain/pricing"
	"github.com/pricesetter/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPricingOptionRepository stores the flat settings form as one row per option
type GormPricingOptionRepository struct {
	db *gorm.DB
}

// NewGormPricingOptionRepository creates a new GormPricingOptionRepository
func NewGormPricingOptionRepository(db *gorm.DB) *GormPricingOptionRepository {
	return &GormPricingOptionRepository{db: db}
}

// Load returns every stored option
func (r *GormPricingOptionRepository) Load(ctx context.Context) (map[string]string, error) {
	var rows []models.PricingOptionModel
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load pricing options: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Name] = row.Value
	}
	return out, nil
}

// SaveAll upserts the given options in one transaction
func (r *GormPricingOptionRepository) SaveAll(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]models.PricingOptionModel, 0, len(values))
	for name, value := range values {
		rows = append(rows, models.PricingOptionModel{Name: name, Value: value, UpdatedAt: now})
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&rows).Error
	})
}

// DeleteAll removes every stored option
func (r *GormPricingOptionRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.PricingOptionModel{}).Error
}

// Ensure GormPricingOptionRepository implements PricingOptionRepository
var _ pricing.PricingOptionRepository = (*GormPricingOptionRepository)(nil)
