package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound is returned when the product lookup API has no record for a barcode
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidBarcode is returned when a barcode is not a valid GTIN
	ErrInvalidBarcode = errors.New("invalid barcode")

	// ErrInvalidOrigin is returned when the caller's coordinate cannot be used for ranking
	ErrInvalidOrigin = errors.New("invalid origin coordinate")

	// ErrInvalidRadius is returned when a search radius is not a positive finite number
	ErrInvalidRadius = errors.New("invalid search radius")

	// ErrInvalidCatalogEntry is returned when a catalog record fails validation at load time
	ErrInvalidCatalogEntry = errors.New("invalid catalog entry")

	// ErrInvalidStoreRecord is returned when a store record is missing required fields
	ErrInvalidStoreRecord = errors.New("invalid store record")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrLookupFailure is returned when the product lookup API request fails
	ErrLookupFailure = errors.New("product lookup request failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)

// InvalidOriginError describes why an origin coordinate was rejected.
type InvalidOriginError struct {
	Origin Coordinate
	Reason string
}

func (e *InvalidOriginError) Error() string {
	return fmt.Sprintf("invalid origin (%v, %v): %s", e.Origin.Lat, e.Origin.Lng, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidOrigin) match any *InvalidOriginError.
func (e *InvalidOriginError) Is(target error) bool {
	return target == ErrInvalidOrigin
}
