package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cartpilot/backend/internal/domain"
)

// StoreLocatorConfig holds configuration for the store locator
type StoreLocatorConfig struct {
	DefaultRadiusMiles float64
}

// StoreLocatorService finds stores near a shopper
type StoreLocatorService struct {
	stores        domain.StoreRepository
	ranker        *DistanceRanker
	defaultRadius float64
	logger        *zap.Logger
}

// NewStoreLocatorService creates a store locator
func NewStoreLocatorService(
	stores domain.StoreRepository,
	ranker *DistanceRanker,
	config StoreLocatorConfig,
	logger *zap.Logger,
) *StoreLocatorService {
	radius := config.DefaultRadiusMiles
	if radius <= 0 {
		radius = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreLocatorService{
		stores:        stores,
		ranker:        ranker,
		defaultRadius: radius,
		logger:        logger,
	}
}

// DefaultRadius returns the radius used when callers pass zero
func (s *StoreLocatorService) DefaultRadius() float64 {
	return s.defaultRadius
}

// FindNearby returns stores within radiusMiles of origin, nearest first.
// A zero radius uses the configured default; chain optionally filters by chain name.
func (s *StoreLocatorService) FindNearby(
	ctx context.Context,
	origin domain.Coordinate,
	radiusMiles float64,
	chain string,
) (*domain.RankResult, error) {
	// Reject a bad origin before touching the store source
	if err := ValidateOrigin(origin); err != nil {
		return nil, err
	}
	if radiusMiles == 0 {
		radiusMiles = s.defaultRadius
	}

	candidates, err := s.stores.ListStores(ctx, domain.StoreQuery{
		Near:        &origin,
		RadiusMiles: radiusMiles,
		Chain:       strings.TrimSpace(chain),
	})
	if err != nil {
		return nil, fmt.Errorf("listing stores: %w", err)
	}

	result, err := s.ranker.RankByDistance(origin, candidates, radiusMiles)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("ranked nearby stores",
		zap.Float64("lat", origin.Lat),
		zap.Float64("lng", origin.Lng),
		zap.Float64("radius_miles", radiusMiles),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(result.Stores)),
		zap.Int("excluded", result.Excluded))

	return result, nil
}
