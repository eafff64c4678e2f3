package usecase

import (
	"context"
	"time"

	"github.com/cartpilot/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data     map[string]interface{}
	getError error
	setError error
	getCalls int
	setCalls int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.getCalls++
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalls++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockLookupClient is a mock implementation of domain.ProductLookupClient
type MockLookupClient struct {
	product *domain.OFFProduct
	err     error
	calls   int
}

func (m *MockLookupClient) GetProduct(ctx context.Context, barcode string) (*domain.OFFProduct, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.product, nil
}

// MockStoreRepository is a mock implementation of domain.StoreRepository
type MockStoreRepository struct {
	stores    []domain.StoreLocation
	err       error
	lastQuery domain.StoreQuery
	calls     int
}

func (m *MockStoreRepository) ListStores(ctx context.Context, query domain.StoreQuery) ([]domain.StoreLocation, error) {
	m.calls++
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.stores, nil
}

// staticCatalog is a swappable domain.CatalogSource
type staticCatalog struct {
	catalog *domain.Catalog
}

func (s *staticCatalog) Current() *domain.Catalog {
	return s.catalog
}
