package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductInput_Snapshot(t *testing.T) {
	t.Run("weight defaults to kilograms", func(t *testing.T) {
		snap, err := ProductInput{Weight: ptr("1.5")}.Snapshot()
		require.NoError(t, err)
		assert.Equal(t, valueobject.WeightUnitKG, snap.Weight().Unit())
	})

	t.Run("pound alias is accepted", func(t *testing.T) {
		snap, err := ProductInput{Weight: ptr("2"), WeightUnit: "LB"}.Snapshot()
		require.NoError(t, err)
		assert.Equal(t, valueobject.WeightUnitLBS, snap.Weight().Unit())
	})

	t.Run("negative weight is rejected", func(t *testing.T) {
		_, err := ProductInput{Weight: ptr("-1")}.Snapshot()
		assert.Error(t, err)
	})

	t.Run("variant family", func(t *testing.T) {
		parent := uuid.New()
		snap, err := ProductInput{
			RegularPrice:  ptr("100"),
			SalePrice:     ptr("80"),
			ParentID:      &parent,
			VariantPrices: []decimal.Decimal{decimal.NewFromInt(90)},
		}.Snapshot()
		require.NoError(t, err)

		fam, ok := snap.Family()
		require.True(t, ok)
		assert.Equal(t, parent, fam.ParentID())
		assert.Len(t, fam.VariantPrices(), 1)
		sale, ok := snap.SalePrice()
		require.True(t, ok)
		assert.Equal(t, "80", sale.String())
	})

	t.Run("empty input has no weight and no sale", func(t *testing.T) {
		snap, err := ProductInput{}.Snapshot()
		require.NoError(t, err)
		assert.True(t, snap.Weight().IsZero())
		_, ok := snap.SalePrice()
		assert.False(t, ok)
	})
}
