package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartpilot/backend/internal/domain"
	"github.com/cartpilot/backend/internal/infrastructure/cache"
	"github.com/cartpilot/backend/internal/infrastructure/catalog"
)

func newTestCatalog(t *testing.T, version string, entries []domain.ProductCatalogEntry) *domain.Catalog {
	t.Helper()
	c, err := domain.NewCatalog(version, entries)
	require.NoError(t, err)
	return c
}

func TestSuggest(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ranked matches", func(t *testing.T) {
		source := &staticCatalog{catalog: newTestCatalog(t, "v1", testCatalogEntries())}
		svc := NewSuggestionService(source, NewMatcher(MatchConfig{}, nil), nil, SuggestionServiceConfig{}, nil)

		results, version, err := svc.Suggest(ctx, "mil", 0)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.Equal(t, "milk", results[0].Entry.ID)
		assert.Equal(t, "v1", version)
	})

	t.Run("memoizes per query and limit", func(t *testing.T) {
		cache := NewMockCacheRepository()
		source := &staticCatalog{catalog: newTestCatalog(t, "v1", testCatalogEntries())}
		svc := NewSuggestionService(source, NewMatcher(MatchConfig{}, nil), cache, SuggestionServiceConfig{}, nil)

		first, _, err := svc.Suggest(ctx, "Milk", 2)
		require.NoError(t, err)
		second, _, err := svc.Suggest(ctx, "  milk ", 2)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, cache.setCalls, "normalized query hits the same key")
		assert.Contains(t, cache.data, "suggest:v1:0.3:2:milk")

		_, _, err = svc.Suggest(ctx, "milk", 1)
		require.NoError(t, err)
		assert.Equal(t, 2, cache.setCalls, "different limit is a different key")
	})

	t.Run("cached results are not shared with callers", func(t *testing.T) {
		cache := NewMockCacheRepository()
		source := &staticCatalog{catalog: newTestCatalog(t, "v1", testCatalogEntries())}
		svc := NewSuggestionService(source, NewMatcher(MatchConfig{}, nil), cache, SuggestionServiceConfig{}, nil)

		first, _, err := svc.Suggest(ctx, "milk", 2)
		require.NoError(t, err)
		first[0].Score = -1

		second, _, err := svc.Suggest(ctx, "milk", 2)
		require.NoError(t, err)
		assert.Equal(t, 1.0, second[0].Score)
	})

	t.Run("catalog reload invalidates cached suggestions", func(t *testing.T) {
		cache := NewMockCacheRepository()
		source := &staticCatalog{catalog: newTestCatalog(t, "v1", testCatalogEntries())}
		svc := NewSuggestionService(source, NewMatcher(MatchConfig{}, nil), cache, SuggestionServiceConfig{}, nil)

		before, version, err := svc.Suggest(ctx, "oat", 0)
		require.NoError(t, err)
		assert.NotContains(t, resultIDs(before), "oat-milk")
		assert.Equal(t, "v1", version)

		entries := append(testCatalogEntries(), domain.ProductCatalogEntry{
			ID: "oat-milk", Name: "Oat Milk", Category: "Dairy & Eggs", Keywords: []string{"oat milk"},
		})
		source.catalog = newTestCatalog(t, "v2", entries)

		after, version, err := svc.Suggest(ctx, "oat", 0)
		require.NoError(t, err)
		require.NotEmpty(t, after)
		assert.Equal(t, "oat-milk", after[0].Entry.ID)
		assert.Equal(t, "v2", version)
	})

	t.Run("file catalog edited without version bump", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		write := func(name string) {
			content := "version: v1\nproducts:\n  - id: dairy-item\n    name: " + name + "\n    category: Dairy & Eggs\n"
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		}
		write("Milk")
		provider, err := catalog.NewProvider(path, nil)
		require.NoError(t, err)
		svc := NewSuggestionService(provider, NewMatcher(MatchConfig{}, nil), cache.NewMemoryCache(), SuggestionServiceConfig{}, nil)

		before, beforeVersion, err := svc.Suggest(ctx, "milk", 0)
		require.NoError(t, err)
		require.Len(t, before, 1)
		assert.Equal(t, "Milk", before[0].Entry.Name)

		write("Butter")
		require.NoError(t, provider.Reload())

		after, afterVersion, err := svc.Suggest(ctx, "milk", 0)
		require.NoError(t, err)
		assert.Empty(t, after)
		assert.NotEqual(t, beforeVersion, afterVersion)
		assert.Equal(t, provider.Current().Version, afterVersion)
	})

	t.Run("nil catalog yields no suggestions", func(t *testing.T) {
		svc := NewSuggestionService(&staticCatalog{}, NewMatcher(MatchConfig{}, nil), nil, SuggestionServiceConfig{}, nil)

		results, version, err := svc.Suggest(ctx, "milk", 0)
		require.NoError(t, err)
		assert.Empty(t, results)
		assert.Empty(t, version)
	})

	t.Run("cancelled context", func(t *testing.T) {
		source := &staticCatalog{catalog: newTestCatalog(t, "v1", testCatalogEntries())}
		svc := NewSuggestionService(source, NewMatcher(MatchConfig{}, nil), nil, SuggestionServiceConfig{}, nil)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, _, err := svc.Suggest(cancelled, "milk", 0)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
