package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cartpilot/backend/internal/domain"
)

const storesYAML = `stores:
  - id: tesco-kensington
    name: Tesco Extra Kensington
    chain: Tesco
    address: " 1 Warwick Road "
    postcode: W14 8PU
    lat: 51.4946
    lng: -0.2000
  - id: sainsburys-holborn
    name: Sainsbury's Holborn
    chain: Sainsbury's
    lat: 51.5176
    lng: -0.1200
  - name: No ID Store
    chain: Tesco
    lat: 51.5
    lng: -0.1
  - id: null-island
    name: Broken Coordinates
    chain: Tesco
    lat: 0
    lng: 0
`

func TestParseStores(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	stores, skipped, err := ParseStores([]byte(storesYAML), zap.New(core))

	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, stores, 3)
	assert.Equal(t, "tesco-kensington", stores[0].ID)
	assert.Equal(t, "1 Warwick Road", stores[0].Address)
	assert.Equal(t, 51.4946, stores[0].Lat)
	// Coordinates are left for the ranker to judge
	assert.Equal(t, "null-island", stores[2].ID)
	assert.Equal(t, 1, logs.FilterMessage("skipping store record").Len())
}

func TestParseStores_InvalidYAML(t *testing.T) {
	_, _, err := ParseStores([]byte("stores: [unterminated"), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding stores yaml")
}

func TestLoadStoresFile(t *testing.T) {
	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stores.yaml")
		require.NoError(t, os.WriteFile(path, []byte(storesYAML), 0o644))

		stores, skipped, err := LoadStoresFile(path, nil)

		require.NoError(t, err)
		assert.Len(t, stores, 3)
		assert.Equal(t, 1, skipped)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := LoadStoresFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading stores")
	})
}

func TestStoreRepository_ListStores(t *testing.T) {
	stores, _, err := ParseStores([]byte(storesYAML), nil)
	require.NoError(t, err)
	repo := NewStoreRepository(stores)

	tests := []struct {
		name  string
		query domain.StoreQuery
		want  []string
	}{
		{"all stores", domain.StoreQuery{}, []string{"tesco-kensington", "sainsburys-holborn", "null-island"}},
		{"chain filter ignores case", domain.StoreQuery{Chain: "tesco"}, []string{"tesco-kensington", "null-island"}},
		{"unknown chain", domain.StoreQuery{Chain: "Lidl"}, []string{}},
		{"near is not applied", domain.StoreQuery{Near: &domain.Coordinate{Lat: 53.4, Lng: -2.2}, RadiusMiles: 1}, []string{"tesco-kensington", "sainsburys-holborn", "null-island"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListStores(context.Background(), tt.query)
			require.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, s := range got {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestStoreRepository_CopiesInput(t *testing.T) {
	stores := []domain.StoreLocation{{ID: "a", Name: "A"}}
	repo := NewStoreRepository(stores)
	stores[0].Name = "mutated"

	got, err := repo.ListStores(context.Background(), domain.StoreQuery{})

	require.NoError(t, err)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, 1, repo.Len())
}

func TestStoreRepository_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStoreRepository(nil).ListStores(ctx, domain.StoreQuery{})

	assert.ErrorIs(t, err, context.Canceled)
}
