package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TierName selects one of the two segment tables
type TierName string

const (
	TierWholesale TierName = "wholesale"
	TierRetail    TierName = "retail"
)

// IsValid returns true if the tier name is known
func (t TierName) IsValid() bool {
	return t == TierWholesale || t == TierRetail
}

// SegmentsPerTier is the number of brackets configurable per tier
const SegmentsPerTier = 3

// Segment is a [From, To) price bracket with a multiplicative mark.
// An invalid To means the bracket has no upper bound.
type Segment struct {
	From decimal.Decimal
	To   decimal.NullDecimal
	Mark decimal.Decimal
}

// NewSegment creates a validated bounded segment
func NewSegment(from, to, mark decimal.Decimal) (Segment, error) {
	return newSegment(from, decimal.NewNullDecimal(to), mark)
}

// NewOpenSegment creates a validated segment without an upper bound
func NewOpenSegment(from, mark decimal.Decimal) (Segment, error) {
	return newSegment(from, decimal.NullDecimal{}, mark)
}

func newSegment(from decimal.Decimal, to decimal.NullDecimal, mark decimal.Decimal) (Segment, error) {
	s := Segment{From: from, To: to, Mark: mark}
	if err := s.Validate(); err != nil {
		return Segment{}, err
	}
	return s, nil
}

// MustSegment creates a segment and panics on error.
// An empty to string means unbounded.
func MustSegment(from, to, mark string) Segment {
	var (
		s   Segment
		err error
	)
	if to == "" {
		s, err = NewOpenSegment(decimal.RequireFromString(from), decimal.RequireFromString(mark))
	} else {
		s, err = NewSegment(decimal.RequireFromString(from), decimal.RequireFromString(to), decimal.RequireFromString(mark))
	}
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks the segment bounds and mark
func (s Segment) Validate() error {
	if s.From.IsNegative() {
		return fmt.Errorf("%w: lower bound %s cannot be negative", ErrInvalidSegment, s.From)
	}
	if s.To.Valid && s.To.Decimal.LessThanOrEqual(s.From) {
		return fmt.Errorf("%w: upper bound %s must be greater than lower bound %s", ErrInvalidSegment, s.To.Decimal, s.From)
	}
	if !s.Mark.IsPositive() {
		return fmt.Errorf("%w: mark must be positive", ErrInvalidSegment)
	}
	return nil
}

// Unbounded returns true if the segment has no upper bound
func (s Segment) Unbounded() bool {
	return !s.To.Valid
}

// Contains reports whether From <= price < To
func (s Segment) Contains(price decimal.Decimal) bool {
	if price.LessThan(s.From) {
		return false
	}
	return !s.To.Valid || price.LessThan(s.To.Decimal)
}

// Apply multiplies price by the segment mark
func (s Segment) Apply(price decimal.Decimal) decimal.Decimal {
	return price.Mul(s.Mark)
}

// String renders the segment as "[from, to) x mark"
func (s Segment) String() string {
	upper := "∞"
	if s.To.Valid {
		upper = s.To.Decimal.String()
	}
	return fmt.Sprintf("[%s, %s) x %s", s.From, upper, s.Mark)
}

// SegmentTable is an ordered list of brackets evaluated first-match-wins.
// Overlapping brackets are allowed; the earlier one shadows the later.
type SegmentTable []Segment

// Resolve returns the first segment containing price.
// ok is false when no segment matches.
func (t SegmentTable) Resolve(price decimal.Decimal) (seg Segment, ok bool) {
	for _, s := range t {
		if s.Contains(price) {
			return s, true
		}
	}
	return Segment{}, false
}

// Validate validates every segment of the table
func (t SegmentTable) Validate() error {
	if len(t) > SegmentsPerTier {
		return fmt.Errorf("%w: at most %d segments allowed, got %d", ErrInvalidSettings, SegmentsPerTier, len(t))
	}
	for i, s := range t {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("segment %d: %w", i+1, err)
		}
	}
	return nil
}

// Clone returns a copy that shares no backing array with t
func (t SegmentTable) Clone() SegmentTable {
	if t == nil {
		return nil
	}
	out := make(SegmentTable, len(t))
	copy(out, t)
	return out
}
