package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// PricingOptionModel is one row of the flat settings form
type PricingOptionModel struct {
	Name      string    `gorm:"type:varchar(64);primaryKey"`
	Value     string    `gorm:"type:varchar(255);not null;default:''"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PricingOptionModel) TableName() string {
	return "pricing_options"
}

// PriceRecordModel is the persistence model for the PriceRecord aggregate
type PriceRecordModel struct {
	AggregateModel
	ProductID       uuid.UUID           `gorm:"type:uuid;not null;index:idx_price_records_product_created,priority:1"`
	ParentID        *uuid.UUID          `gorm:"type:uuid;index"`
	BasePrice       decimal.Decimal     `gorm:"type:decimal(20,8);not null"`
	WholesalePrice  decimal.Decimal     `gorm:"type:decimal(20,8);not null"`
	RawPrice        decimal.Decimal     `gorm:"type:decimal(20,8);not null"`
	SalePrice       decimal.NullDecimal `gorm:"type:decimal(20,8)"`
	RetailMin       decimal.NullDecimal `gorm:"type:decimal(20,8)"`
	RetailMax       decimal.NullDecimal `gorm:"type:decimal(20,8)"`
	RetailText      string              `gorm:"type:varchar(100);not null;default:''"`
	RetailAttribute string              `gorm:"type:varchar(100);not null;default:''"`
	Precision       int32               `gorm:"not null"`
	InputJSON       string              `gorm:"column:input;type:jsonb;not null"`
	LogJSON         string              `gorm:"column:log;type:jsonb;not null"`
}

// TableName returns the table name for GORM
func (PriceRecordModel) TableName() string {
	return "price_records"
}

// PriceRecordModelFromDomain converts a PriceRecord to its persistence model
func PriceRecordModelFromDomain(r *pricing.PriceRecord) (*PriceRecordModel, error) {
	input, err := json.Marshal(r.Input)
	if err != nil {
		return nil, fmt.Errorf("encode input snapshot: %w", err)
	}
	log := r.Log
	if log == nil {
		log = []pricing.StageRecord{}
	}
	logJSON, err := json.Marshal(log)
	if err != nil {
		return nil, fmt.Errorf("encode stage log: %w", err)
	}

	m := &PriceRecordModel{
		ProductID:       r.ProductID,
		ParentID:        r.ParentID,
		BasePrice:       r.BasePrice,
		WholesalePrice:  r.WholesalePrice,
		RawPrice:        r.RawPrice,
		SalePrice:       r.SalePrice,
		RetailMin:       r.RetailMin,
		RetailMax:       r.RetailMax,
		RetailText:      r.RetailText,
		RetailAttribute: r.RetailAttribute,
		Precision:       r.Precision,
		InputJSON:       string(input),
		LogJSON:         string(logJSON),
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m, nil
}

// ToDomain converts the persistence model back to a PriceRecord
func (m *PriceRecordModel) ToDomain() (*pricing.PriceRecord, error) {
	r := &pricing.PriceRecord{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ProductID:       m.ProductID,
		ParentID:        m.ParentID,
		BasePrice:       m.BasePrice,
		WholesalePrice:  m.WholesalePrice,
		RawPrice:        m.RawPrice,
		SalePrice:       m.SalePrice,
		RetailMin:       m.RetailMin,
		RetailMax:       m.RetailMax,
		RetailText:      m.RetailText,
		RetailAttribute: m.RetailAttribute,
		Precision:       m.Precision,
	}
	if m.InputJSON != "" {
		if err := json.Unmarshal([]byte(m.InputJSON), &r.Input); err != nil {
			return nil, fmt.Errorf("decode input snapshot of record %s: %w", m.ID, err)
		}
	}
	if m.LogJSON != "" {
		if err := json.Unmarshal([]byte(m.LogJSON), &r.Log); err != nil {
			return nil, fmt.Errorf("decode stage log of record %s: %w", m.ID, err)
		}
	}
	return r, nil
}
