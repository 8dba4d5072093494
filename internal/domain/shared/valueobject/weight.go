package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// WeightUnit is the unit a product weight is recorded in
type WeightUnit string

// Supported weight units
const (
	WeightUnitKG  WeightUnit = "kg"  // Kilograms (base unit)
	WeightUnitG   WeightUnit = "g"   // Grams
	WeightUnitLBS WeightUnit = "lbs" // Pounds
	WeightUnitOZ  WeightUnit = "oz"  // Ounces
)

// kilogramsPer holds how many kilograms one of each unit weighs
var kilogramsPer = map[WeightUnit]decimal.Decimal{
	WeightUnitKG:  decimal.NewFromInt(1),
	WeightUnitG:   decimal.RequireFromString("0.001"),
	WeightUnitLBS: decimal.RequireFromString("0.45359237"),
	WeightUnitOZ:  decimal.RequireFromString("0.028349523125"),
}

// ParseWeightUnit normalizes a unit string (case-insensitive, "lb" accepted for pounds)
func ParseWeightUnit(s string) (WeightUnit, error) {
	u := WeightUnit(strings.ToLower(strings.TrimSpace(s)))
	if u == "lb" {
		u = WeightUnitLBS
	}
	if _, ok := kilogramsPer[u]; !ok {
		return "", fmt.Errorf("unsupported weight unit %q", s)
	}
	return u, nil
}

// String returns the unit code
func (u WeightUnit) String() string {
	return string(u)
}

// IsValid returns true if the unit is supported
func (u WeightUnit) IsValid() bool {
	_, ok := kilogramsPer[u]
	return ok
}

// Weight is a value object representing a product weight in a given unit.
// It is immutable - all operations return new Weight instances.
// The zero Weight means "weight unknown".
type Weight struct {
	value decimal.Decimal
	unit  WeightUnit
}

// NewWeight creates a Weight.
// Returns error if the value is negative or the unit is unsupported.
func NewWeight(value decimal.Decimal, unit WeightUnit) (Weight, error) {
	if value.IsNegative() {
		return Weight{}, errors.New("weight cannot be negative")
	}
	if !unit.IsValid() {
		return Weight{}, fmt.Errorf("unsupported weight unit %q", unit)
	}
	return Weight{value: value, unit: unit}, nil
}

// NewWeightFromFloat creates a Weight from a float64 value
func NewWeightFromFloat(value float64, unit WeightUnit) (Weight, error) {
	return NewWeight(decimal.NewFromFloat(value), unit)
}

// MustNewWeight creates a Weight and panics on error.
// Use only when you're certain the inputs are valid.
func MustNewWeight(value decimal.Decimal, unit WeightUnit) Weight {
	w, err := NewWeight(value, unit)
	if err != nil {
		panic(err)
	}
	return w
}

// Kilograms creates a Weight in kilograms
func Kilograms(value decimal.Decimal) Weight {
	return MustNewWeight(value, WeightUnitKG)
}

// Value returns the weight in its own unit
func (w Weight) Value() decimal.Decimal {
	return w.value
}

// Unit returns the weight unit
func (w Weight) Unit() WeightUnit {
	return w.unit
}

// IsZero returns true if the weight is unknown or zero
func (w Weight) IsZero() bool {
	return w.value.IsZero()
}

// IsPositive returns true if the weight is greater than zero
func (w Weight) IsPositive() bool {
	return w.value.IsPositive() && w.unit.IsValid()
}

// InKilograms converts the weight to kilograms.
// Unknown weights convert to zero.
func (w Weight) InKilograms() decimal.Decimal {
	rate, ok := kilogramsPer[w.unit]
	if !ok {
		return decimal.Zero
	}
	return w.value.Mul(rate)
}

// Equals returns true if both weights describe the same mass
func (w Weight) Equals(other Weight) bool {
	return w.InKilograms().Equal(other.InKilograms())
}

// String returns a string representation of the Weight
func (w Weight) String() string {
	if w.unit == "" {
		return w.value.String()
	}
	return fmt.Sprintf("%s %s", w.value.String(), w.unit)
}

// MarshalJSON implements json.Marshaler.
func (w Weight) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.ToDTO())
}

// UnmarshalJSON implements json.Unmarshaler.
func (w *Weight) UnmarshalJSON(data []byte) error {
	var dto WeightDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return err
	}
	parsed, err := dto.ToWeight()
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// WeightDTO is a data transfer object for Weight (for serialization/deserialization).
type WeightDTO struct {
	Value decimal.Decimal `json:"value"`
	Unit  string          `json:"unit"`
}

// ToWeight converts WeightDTO to a Weight value object.
// An empty unit with a zero value yields the unknown weight.
func (dto WeightDTO) ToWeight() (Weight, error) {
	if dto.Unit == "" && dto.Value.IsZero() {
		return Weight{}, nil
	}
	unit, err := ParseWeightUnit(dto.Unit)
	if err != nil {
		return Weight{}, err
	}
	return NewWeight(dto.Value, unit)
}

// ToDTO converts Weight to WeightDTO.
func (w Weight) ToDTO() WeightDTO {
	return WeightDTO{
		Value: w.value,
		Unit:  string(w.unit),
	}
}
