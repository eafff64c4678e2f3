package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingBox(t *testing.T) {
	uk := BoundingBox{MinLat: 49.8, MaxLat: 60.9, MinLng: -8.7, MaxLng: 1.8}

	t.Run("contains", func(t *testing.T) {
		assert.True(t, uk.Contains(Coordinate{Lat: 51.5074, Lng: -0.1278}))
		assert.True(t, uk.Contains(Coordinate{Lat: 49.8, Lng: 1.8}), "edges are inclusive")
		assert.False(t, uk.Contains(Coordinate{Lat: 48.8566, Lng: 2.3522}))
		assert.True(t, BoundingBox{}.Contains(Coordinate{Lat: -33.9, Lng: 151.2}), "zero box is unrestricted")
	})

	t.Run("validate", func(t *testing.T) {
		assert.NoError(t, uk.Validate())
		assert.NoError(t, BoundingBox{}.Validate())
		assert.Error(t, BoundingBox{MinLat: 60, MaxLat: 50, MinLng: -8, MaxLng: 1}.Validate())
		assert.Error(t, BoundingBox{MinLat: -95, MaxLat: 50, MinLng: -8, MaxLng: 1}.Validate())
	})
}

func TestStoreLocation_Validate(t *testing.T) {
	assert.NoError(t, StoreLocation{ID: "a", Name: "A"}.Validate())
	assert.ErrorIs(t, StoreLocation{Name: "A"}.Validate(), ErrInvalidStoreRecord)
	assert.ErrorIs(t, StoreLocation{ID: "a", Name: "  "}.Validate(), ErrInvalidStoreRecord)
}

func TestStoreLocation_JSONKeepsZeroDistance(t *testing.T) {
	data, err := json.Marshal(StoreLocation{ID: "here", Name: "Corner Shop", Lat: 51.5, Lng: -0.12})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"distanceMiles":0`)
}
