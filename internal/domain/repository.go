package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ProductLookupClient defines the interface for the external product/nutrition API
type ProductLookupClient interface {
	GetProduct(ctx context.Context, barcode string) (*OFFProduct, error)
}

// StoreRepository returns candidate stores, already coarsely scoped upstream
type StoreRepository interface {
	ListStores(ctx context.Context, query StoreQuery) ([]StoreLocation, error)
}

// CatalogSource hands out the current immutable catalog snapshot
type CatalogSource interface {
	Current() *Catalog
}
