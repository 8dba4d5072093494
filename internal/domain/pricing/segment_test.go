package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSegment(t *testing.T) {
	tests := []struct {
		name        string
		from        string
		to          string
		mark        string
		wantErr     bool
		errContains string
	}{
		{name: "bounded segment", from: "0", to: "1200", mark: "1.25"},
		{name: "open segment", from: "2000", to: "", mark: "1.18"},
		{name: "negative lower bound", from: "-1", to: "10", mark: "1", wantErr: true, errContains: "cannot be negative"},
		{name: "upper bound equals lower bound", from: "10", to: "10", mark: "1", wantErr: true, errContains: "must be greater"},
		{name: "upper bound below lower bound", from: "10", to: "5", mark: "1", wantErr: true, errContains: "must be greater"},
		{name: "zero mark", from: "0", to: "10", mark: "0", wantErr: true, errContains: "mark must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				seg Segment
				err error
			)
			if tt.to == "" {
				seg, err = NewOpenSegment(dec(tt.from), dec(tt.mark))
			} else {
				seg, err = NewSegment(dec(tt.from), dec(tt.to), dec(tt.mark))
			}
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidSegment))
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to == "", seg.Unbounded())
		})
	}
}

func TestSegment_Contains(t *testing.T) {
	bounded := MustSegment("300", "1000", "2")
	open := MustSegment("1000", "", "1.9")

	assert.True(t, bounded.Contains(dec("300")), "lower bound is inclusive")
	assert.True(t, bounded.Contains(dec("999.99")))
	assert.False(t, bounded.Contains(dec("1000")), "upper bound is exclusive")
	assert.False(t, bounded.Contains(dec("299.99")))

	assert.True(t, open.Contains(dec("1000")))
	assert.True(t, open.Contains(dec("99999999999999999999")))
	assert.False(t, open.Contains(dec("999.99")))
}

func TestSegmentTable_Resolve(t *testing.T) {
	table := DefaultSettings().Wholesale

	tests := []struct {
		name     string
		price    string
		wantMark string
	}{
		{name: "tier 1 lower bound", price: "0", wantMark: "1.25"},
		{name: "inside tier 1", price: "1199.99", wantMark: "1.25"},
		{name: "tier 1 upper bound falls into tier 2", price: "1200", wantMark: "1.2"},
		{name: "inside tier 2", price: "1240", wantMark: "1.2"},
		{name: "tier 2 upper bound falls into tier 3", price: "2000", wantMark: "1.18"},
		{name: "far above tier 3 lower bound", price: "5000000", wantMark: "1.18"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, ok := table.Resolve(dec(tt.price))
			require.True(t, ok)
			assertDecimal(t, tt.wantMark, seg.Mark)
		})
	}

	t.Run("gap between segments is an explicit miss", func(t *testing.T) {
		gapped := SegmentTable{
			MustSegment("0", "100", "2"),
			MustSegment("200", "300", "3"),
		}
		seg, ok := gapped.Resolve(dec("150"))
		assert.False(t, ok)
		assert.Equal(t, Segment{}, seg)
	})

	t.Run("price below every segment misses", func(t *testing.T) {
		_, ok := SegmentTable{MustSegment("10", "20", "2")}.Resolve(dec("5"))
		assert.False(t, ok)
	})

	t.Run("overlapping segments resolve to the first declared", func(t *testing.T) {
		overlapping := SegmentTable{
			MustSegment("0", "500", "1.5"),
			MustSegment("100", "1000", "3"),
		}
		seg, ok := overlapping.Resolve(dec("200"))
		require.True(t, ok)
		assertDecimal(t, "1.5", seg.Mark)
	})

	t.Run("empty table never matches", func(t *testing.T) {
		_, ok := SegmentTable(nil).Resolve(dec("1"))
		assert.False(t, ok)
	})
}

func TestSegmentTable_Validate(t *testing.T) {
	t.Run("default tables are valid", func(t *testing.T) {
		assert.NoError(t, DefaultSettings().Wholesale.Validate())
		assert.NoError(t, DefaultSettings().Retail.Validate())
	})

	t.Run("too many segments", func(t *testing.T) {
		table := SegmentTable{
			MustSegment("0", "1", "1"),
			MustSegment("1", "2", "1"),
			MustSegment("2", "3", "1"),
			MustSegment("3", "", "1"),
		}
		err := table.Validate()
		assert.True(t, errors.Is(err, ErrInvalidSettings))
	})

	t.Run("reports the offending segment", func(t *testing.T) {
		table := SegmentTable{
			MustSegment("0", "1", "1"),
			{From: decimal.Zero, Mark: decimal.Zero},
		}
		err := table.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "segment 2")
	})
}

func TestSegmentTable_Clone(t *testing.T) {
	original := DefaultSettings().Retail
	clone := original.Clone()
	clone[0].Mark = dec("9")

	assertDecimal(t, "2.1", original[0].Mark)
	assert.Nil(t, SegmentTable(nil).Clone())
}

func TestSegment_String(t *testing.T) {
	assert.Equal(t, "[0, 1200) x 1.25", MustSegment("0", "1200", "1.25").String())
	assert.Equal(t, "[2000, ∞) x 1.18", MustSegment("2000", "", "1.18").String())
}
