package domain

import (
	"fmt"
	"strings"
)

// Coordinate is a WGS 84 latitude/longitude pair in degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox limits the region in which store coordinates are plausible.
// The zero value places no regional restriction.
type BoundingBox struct {
	MinLat float64 `json:"minLat" mapstructure:"min_lat"`
	MaxLat float64 `json:"maxLat" mapstructure:"max_lat"`
	MinLng float64 `json:"minLng" mapstructure:"min_lng"`
	MaxLng float64 `json:"maxLng" mapstructure:"max_lng"`
}

// IsZero reports whether the box is unset
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// Contains reports whether c lies inside the box. An unset box contains everything.
func (b BoundingBox) Contains(c Coordinate) bool {
	if b.IsZero() {
		return true
	}
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}

// Validate checks that the box bounds are ordered and within global ranges
func (b BoundingBox) Validate() error {
	if b.IsZero() {
		return nil
	}
	if b.MinLat >= b.MaxLat || b.MinLng >= b.MaxLng {
		return fmt.Errorf("bounding box min must be below max: %+v", b)
	}
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLng < -180 || b.MaxLng > 180 {
		return fmt.Errorf("bounding box outside global range: %+v", b)
	}
	return nil
}

// StoreLocation is a grocery store as returned by the store data source.
// DistanceMiles is only set on copies returned by the distance ranker.
type StoreLocation struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Chain         string  `json:"chain"`
	Address       string  `json:"address,omitempty"`
	Postcode      string  `json:"postcode,omitempty"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	DistanceMiles float64 `json:"distanceMiles"`
}

// Coordinate returns the store position
func (s StoreLocation) Coordinate() Coordinate {
	return Coordinate{Lat: s.Lat, Lng: s.Lng}
}

// Validate checks required identity fields. Coordinates are checked by the ranker.
func (s StoreLocation) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidStoreRecord)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: store %q missing name", ErrInvalidStoreRecord, s.ID)
	}
	return nil
}

// StoreQuery scopes a store data source lookup
type StoreQuery struct {
	Near        *Coordinate
	RadiusMiles float64
	Chain       string
}

// RankResult is the output of a distance ranking call
type RankResult struct {
	Stores      []StoreLocation `json:"stores"`
	Excluded    int             `json:"excluded"`    // invalid coordinates
	OutOfRadius int             `json:"outOfRadius"` // valid but farther than the radius
}
