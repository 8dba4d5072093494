package pricing

import "github.com/pricesetter/backend/internal/domain/shared"

// Pricing domain errors
var (
	// ErrInvalidInputPrice aborts a pipeline run before any stage executes
	ErrInvalidInputPrice = shared.NewDomainError("INVALID_INPUT_PRICE", "Input price must be greater than zero")
	ErrInvalidSettings   = shared.NewDomainError("INVALID_SETTINGS", "Invalid pricing settings")
	ErrInvalidSegment    = shared.NewDomainError("INVALID_SEGMENT", "Invalid price segment")
)
