// Package memory provides an in-memory store repository backed by a YAML file.
package memory

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cartpilot/backend/internal/domain"
)

// storeRecord is the YAML layout of one store
type storeRecord struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Chain    string  `yaml:"chain"`
	Address  string  `yaml:"address"`
	Postcode string  `yaml:"postcode"`
	Lat      float64 `yaml:"lat"`
	Lng      float64 `yaml:"lng"`
}

type storesFile struct {
	Stores []storeRecord `yaml:"stores"`
}

// ParseStores decodes store YAML. Records missing an id or name are skipped and
// counted; coordinates are passed through untouched for the ranker to judge.
func ParseStores(data []byte, logger *zap.Logger) ([]domain.StoreLocation, int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var file storesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, 0, fmt.Errorf("decoding stores yaml: %w", err)
	}

	stores := make([]domain.StoreLocation, 0, len(file.Stores))
	skipped := 0
	for i, r := range file.Stores {
		store := domain.StoreLocation{
			ID:       strings.TrimSpace(r.ID),
			Name:     strings.TrimSpace(r.Name),
			Chain:    strings.TrimSpace(r.Chain),
			Address:  strings.TrimSpace(r.Address),
			Postcode: strings.TrimSpace(r.Postcode),
			Lat:      r.Lat,
			Lng:      r.Lng,
		}
		if err := store.Validate(); err != nil {
			skipped++
			logger.Warn("skipping store record", zap.Int("index", i), zap.Error(err))
			continue
		}
		stores = append(stores, store)
	}

	return stores, skipped, nil
}

// LoadStoresFile reads and parses a store YAML file
func LoadStoresFile(path string, logger *zap.Logger) ([]domain.StoreLocation, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("reading stores %s: %w", path, err)
	}
	return ParseStores(data, logger)
}

// StoreRepository serves a fixed store list from memory
type StoreRepository struct {
	stores []domain.StoreLocation
}

// NewStoreRepository creates a repository over stores
func NewStoreRepository(stores []domain.StoreLocation) *StoreRepository {
	owned := make([]domain.StoreLocation, len(stores))
	copy(owned, stores)
	return &StoreRepository{stores: owned}
}

// ListStores returns every store, optionally filtered by chain (case-insensitive).
// Distance scoping is left to the ranker.
func (r *StoreRepository) ListStores(ctx context.Context, query domain.StoreQuery) ([]domain.StoreLocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.StoreLocation, 0, len(r.stores))
	for _, s := range r.stores {
		if query.Chain != "" && !strings.EqualFold(s.Chain, query.Chain) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Len returns the number of stores held
func (r *StoreRepository) Len() int {
	return len(r.stores)
}
