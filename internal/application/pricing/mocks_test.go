package pricing

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pricesetter/backend/internal/domain/pricing"
	"github.com/pricesetter/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockPriceRecordRepository is a mock implementation of PriceRecordRepository
type MockPriceRecordRepository struct {
	mock.Mock
}

func (m *MockPriceRecordRepository) Save(ctx context.Context, record *pricing.PriceRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockPriceRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.PriceRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.PriceRecord), args.Error(1)
}

func (m *MockPriceRecordRepository) FindLatestByProduct(ctx context.Context, productID uuid.UUID) (*pricing.PriceRecord, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.PriceRecord), args.Error(1)
}

func (m *MockPriceRecordRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]pricing.PriceRecord, error) {
	args := m.Called(ctx, productID, filter)
	return args.Get(0).([]pricing.PriceRecord), args.Error(1)
}

func (m *MockPriceRecordRepository) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPriceRecordRepository) FindLatestPerProduct(ctx context.Context, filter shared.Filter) ([]pricing.PriceRecord, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]pricing.PriceRecord), args.Error(1)
}

func (m *MockPriceRecordRepository) CountProducts(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPriceRecordRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPricingOptionRepository is a mock implementation of PricingOptionRepository
type MockPricingOptionRepository struct {
	mock.Mock
}

func (m *MockPricingOptionRepository) Load(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockPricingOptionRepository) SaveAll(ctx context.Context, values map[string]string) error {
	args := m.Called(ctx, values)
	return args.Error(0)
}

func (m *MockPricingOptionRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockProductCatalog is a mock implementation of ProductCatalog
type MockProductCatalog struct {
	mock.Mock
}

func (m *MockProductCatalog) FindProduct(ctx context.Context, productID uuid.UUID) (pricing.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pricing.Product), args.Error(1)
}

// recordingWriter collects every update it receives
type recordingWriter struct {
	mu      sync.Mutex
	updates []pricing.PriceUpdate
	failFor map[uuid.UUID]error
}

func (w *recordingWriter) WritePrices(ctx context.Context, update pricing.PriceUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err, ok := w.failFor[update.ProductID]; ok {
		return err
	}
	w.updates = append(w.updates, update)
	return nil
}

// memoryCache is a SettingsCache backed by a map
type memoryCache struct {
	values      map[string]string
	invalidated int
	getErr      error
}

func (c *memoryCache) Get(ctx context.Context) (map[string]string, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	if c.values == nil {
		return nil, false, nil
	}
	return c.values, true, nil
}

func (c *memoryCache) Set(ctx context.Context, values map[string]string) error {
	c.values = values
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context) error {
	c.values = nil
	c.invalidated++
	return nil
}

// capturingPublisher records published events
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// staticSettings is a SettingsProvider returning fixed settings
type staticSettings struct {
	settings pricing.Settings
	err      error
}

func (s staticSettings) Get(ctx context.Context) (*pricing.Settings, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := s.settings.Clone()
	return &out, nil
}
