// Package models contains the GORM models of the pricing tables.
//
// Domain types in internal/domain/pricing carry no ORM tags; the models here
// own the table mapping and convert to and from the domain:
//
//   - PricingOptionModel: one row per flat settings key (pricing_options)
//   - PriceRecordModel: one row per applied calculation (price_records), with
//     the input snapshot and the stage log stored as JSON
package models
