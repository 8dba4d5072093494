package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/pricesetter/backend/internal/domain/pricing"
	"github.com/pricesetter/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordingHandler implements EventHandler for testing
type recordingHandler struct {
	eventTypes []string
	err        error
	panicMsg   string

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func settingsChanged() *pricing.PricingSettingsChangedEvent {
	return pricing.NewPricingSettingsChangedEvent([]string{pricing.OptionDollarRate}, false)
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	settingsHandler := newRecordingHandler(pricing.EventTypePricingSettingsChanged)
	appliedHandler := newRecordingHandler(pricing.EventTypePriceApplied)
	everything := newRecordingHandler()

	bus.Subscribe(settingsHandler)
	bus.Subscribe(appliedHandler)
	bus.Subscribe(everything)

	require.NoError(t, bus.Publish(context.Background(), settingsChanged(), settingsChanged()))

	assert.Equal(t, 2, settingsHandler.count())
	assert.Zero(t, appliedHandler.count())
	assert.Equal(t, 2, everything.count())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandlerTypes(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := newRecordingHandler(pricing.EventTypePriceApplied)

	bus.Subscribe(handler, pricing.EventTypePricingSettingsChanged)
	require.NoError(t, bus.Publish(context.Background(), settingsChanged()))

	assert.Equal(t, 1, handler.count())
}

func TestInMemoryEventBus_FailingHandlerDoesNotStopOthers(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newRecordingHandler(pricing.EventTypePricingSettingsChanged)
	failing.err = errors.New("cache down")
	panicking := newRecordingHandler(pricing.EventTypePricingSettingsChanged)
	panicking.panicMsg = "boom"
	healthy := newRecordingHandler(pricing.EventTypePricingSettingsChanged)

	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), settingsChanged())

	require.Error(t, err)
	assert.ErrorIs(t, err, failing.err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, 2, logs.FilterMessage("handler failed to process event").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newRecordingHandler(pricing.EventTypePricingSettingsChanged)

	bus.Subscribe(handler)
	bus.Unsubscribe(handler)
	require.NoError(t, bus.Publish(context.Background(), settingsChanged()))

	assert.Zero(t, handler.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	assert.NoError(t, bus.Start(context.Background()))
	assert.NoError(t, bus.Stop(context.Background()))
}
