package usecase

import (
	"cmp"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/cartpilot/backend/internal/domain"
)

// EarthRadiusMiles is the mean Earth radius used for great-circle distance
const EarthRadiusMiles = 3959.0

// HaversineMiles returns the great-circle distance between a and b in miles
func HaversineMiles(a, b domain.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ValidateOrigin checks that a caller coordinate can anchor a ranking
func ValidateOrigin(origin domain.Coordinate) error {
	reason := coordinateProblem(origin)
	if reason == "" {
		return nil
	}
	return &domain.InvalidOriginError{Origin: origin, Reason: reason}
}

// coordinateProblem describes why c is unusable, or returns "" when it is fine
func coordinateProblem(c domain.Coordinate) string {
	switch {
	case math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0):
		return "latitude is not finite"
	case math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0):
		return "longitude is not finite"
	case c.Lat == 0 && c.Lng == 0:
		return "coordinate is unset (0, 0)"
	case c.Lat < -90 || c.Lat > 90:
		return "latitude out of range"
	case c.Lng < -180 || c.Lng > 180:
		return "longitude out of range"
	}
	return ""
}

// DistanceRanker filters and orders stores by distance from an origin
type DistanceRanker struct {
	bounds domain.BoundingBox
	logger *zap.Logger
}

// NewDistanceRanker creates a ranker that treats store coordinates outside
// bounds as invalid. A zero bounding box accepts any valid coordinate.
func NewDistanceRanker(bounds domain.BoundingBox, logger *zap.Logger) *DistanceRanker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DistanceRanker{bounds: bounds, logger: logger}
}

// Bounds returns the configured operating region
func (r *DistanceRanker) Bounds() domain.BoundingBox {
	return r.bounds
}

// RankByDistance returns copies of stores within radiusMiles of origin, nearest
// first, each annotated with DistanceMiles. Stores with unusable coordinates are
// excluded and counted rather than given a placeholder distance. An invalid
// origin fails the whole call with *domain.InvalidOriginError.
func (r *DistanceRanker) RankByDistance(
	origin domain.Coordinate,
	stores []domain.StoreLocation,
	radiusMiles float64,
) (*domain.RankResult, error) {
	if err := ValidateOrigin(origin); err != nil {
		return nil, err
	}
	if math.IsNaN(radiusMiles) || math.IsInf(radiusMiles, 0) || radiusMiles <= 0 {
		return nil, domain.ErrInvalidRadius
	}

	result := &domain.RankResult{Stores: make([]domain.StoreLocation, 0, len(stores))}

	for _, store := range stores {
		pos := store.Coordinate()

		reason := coordinateProblem(pos)
		if reason == "" && !r.bounds.Contains(pos) {
			reason = "outside operating region"
		}
		if reason != "" {
			result.Excluded++
			r.logger.Debug("excluding store with invalid coordinates",
				zap.String("store_id", store.ID),
				zap.Float64("lat", store.Lat),
				zap.Float64("lng", store.Lng),
				zap.String("reason", reason))
			continue
		}

		distance := HaversineMiles(origin, pos)
		if distance > radiusMiles {
			result.OutOfRadius++
			continue
		}

		store.DistanceMiles = distance
		result.Stores = append(result.Stores, store)
	}

	slices.SortStableFunc(result.Stores, func(a, b domain.StoreLocation) int {
		return cmp.Compare(a.DistanceMiles, b.DistanceMiles)
	})

	if result.Excluded > 0 {
		r.logger.Info("stores excluded from ranking",
			zap.Int("excluded", result.Excluded),
			zap.Int("candidates", len(stores)))
	}

	return result, nil
}
