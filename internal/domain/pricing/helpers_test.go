package pricing

import (
	"testing"

	"github.com/pricesetter/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "expected %s, got %s", want, got.String())
}

func kg(s string) valueobject.Weight {
	return valueobject.Kilograms(dec(s))
}

// bareSettings disables every optional stage
func bareSettings() Settings {
	return Settings{Precision: DefaultPrecision}
}
