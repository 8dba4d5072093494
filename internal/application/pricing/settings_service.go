package pricing

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pricesetter/backend/internal/domain/pricing"
	"github.com/pricesetter/backend/internal/domain/shared"
	"github.com/pricesetter/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SettingsService manages the pricing settings
type SettingsService struct {
	optionRepo pricing.PricingOptionRepository
	cache      SettingsCache
	publisher  shared.EventPublisher
	defaults   pricing.Settings
	logger     *zap.Logger
	metrics    *telemetry.PricingMetrics
}

// NewSettingsService creates a new SettingsService.
// cache and publisher are optional.
func NewSettingsService(
	optionRepo pricing.PricingOptionRepository,
	cache SettingsCache,
	publisher shared.EventPublisher,
	defaults pricing.Settings,
	logger *zap.Logger,
) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{
		optionRepo: optionRepo,
		cache:      cache,
		publisher:  publisher,
		defaults:   defaults.Clone(),
		logger:     logger,
	}
}

// SetPricingMetrics sets the pricing metrics collector
func (s *SettingsService) SetPricingMetrics(m *telemetry.PricingMetrics) {
	s.metrics = m
}

// Get returns the effective settings: stored options laid over the defaults
func (s *SettingsService) Get(ctx context.Context) (*pricing.Settings, error) {
	values, err := s.Values(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := pricing.SettingsFromMap(values)
	if err != nil {
		return nil, fmt.Errorf("stored pricing settings are unreadable: %w", err)
	}
	return &settings, nil
}

// Values returns the effective settings in flat form
func (s *SettingsService) Values(ctx context.Context) (map[string]string, error) {
	if s.cache != nil {
		values, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("settings cache lookup failed", zap.Error(err))
		} else if ok {
			s.recordLookup(ctx, telemetry.SettingsSourceCache)
			return values, nil
		}
	}

	stored, err := s.optionRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing options: %w", err)
	}
	values := pricing.MergeOptions(s.defaults.ToMap(), stored)
	s.recordLookup(ctx, telemetry.SettingsSourceStore)

	if s.cache != nil {
		if err := s.cache.Set(ctx, values); err != nil {
			s.logger.Warn("failed to cache pricing settings", zap.Error(err))
		}
	}
	return values, nil
}

// GetResponse returns the effective settings as a response
func (s *SettingsService) GetResponse(ctx context.Context) (*SettingsResponse, error) {
	values, err := s.Values(ctx)
	if err != nil {
		return nil, err
	}
	return &SettingsResponse{Values: values}, nil
}

// Update stores the given options after validating the settings they produce
func (s *SettingsService) Update(ctx context.Context, req UpdateSettingsRequest) (*pricing.Settings, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var unknown []string
	changes := make(map[string]string, len(req.Values))
	for key, value := range req.Values {
		if !pricing.IsOptionKey(key) {
			unknown = append(unknown, key)
			continue
		}
		changes[key] = normalizeOption(key, value)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown pricing options: "+strings.Join(unknown, ", "))
	}

	stored, err := s.optionRepo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing options: %w", err)
	}
	merged := pricing.MergeOptions(s.defaults.ToMap(), pricing.MergeOptions(stored, changes))
	settings, err := pricing.SettingsFromMap(merged)
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	if err := s.optionRepo.SaveAll(ctx, changes); err != nil {
		s.logger.Error("failed to save pricing options", zap.Error(err))
		return nil, fmt.Errorf("failed to save pricing options: %w", err)
	}

	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s.logger.Info("pricing settings updated", zap.Strings("keys", keys))
	s.settingsChanged(ctx, pricing.NewPricingSettingsChangedEvent(keys, false))

	return &settings, nil
}

// Reset removes every stored option so the defaults apply again
func (s *SettingsService) Reset(ctx context.Context) (*pricing.Settings, error) {
	if err := s.optionRepo.DeleteAll(ctx); err != nil {
		s.logger.Error("failed to reset pricing options", zap.Error(err))
		return nil, fmt.Errorf("failed to reset pricing options: %w", err)
	}
	s.logger.Info("pricing settings reset to defaults")
	s.settingsChanged(ctx, pricing.NewPricingSettingsChangedEvent(nil, true))

	settings := s.defaults.Clone()
	return &settings, nil
}

// settingsChanged publishes the change; without a publisher the cache is
// dropped directly
func (s *SettingsService) settingsChanged(ctx context.Context, event *pricing.PricingSettingsChangedEvent) {
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish settings change", zap.Error(err))
		}
		return
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("failed to invalidate settings cache", zap.Error(err))
		}
	}
}

func (s *SettingsService) recordLookup(ctx context.Context, source string) {
	if s.metrics != nil {
		s.metrics.RecordSettingsLookup(ctx, source)
	}
}

// normalizeOption trims the value and turns decimal commas into dots for
// numeric options
func normalizeOption(key, value string) string {
	value = strings.TrimSpace(value)
	if key == pricing.OptionRetailPriceAttribute {
		return value
	}
	return strings.ReplaceAll(value, ",", ".")
}
