package usecase

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cartpilot/backend/internal/domain"
)

func testCatalogEntries() []domain.ProductCatalogEntry {
	return []domain.ProductCatalogEntry{
		{ID: "almond-milk", Name: "Almond Milk", Category: "Dairy & Eggs", Keywords: []string{"almond milk", "plant milk"}},
		{ID: "milk", Name: "Milk", Category: "Dairy & Eggs", Keywords: []string{"milk", "semi skimmed"}},
		{ID: "cheddar", Name: "Cheddar Cheese", Category: "Dairy & Eggs", Keywords: []string{"cheese", "cheddar"}},
		{ID: "bread", Name: "White Bread", Category: "Bakery", Keywords: []string{"bread", "loaf"}},
		{ID: "bananas", Name: "Bananas", Category: "Fruit & Vegetables", Keywords: []string{"banana", "fruit"}},
	}
}

func resultIDs(results []domain.MatchResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Entry.ID
	}
	return ids
}

func TestMatch_ExactMatchRanksFirst(t *testing.T) {
	entries := testCatalogEntries()

	for _, query := range []string{"Milk", "milk", "  MILK ", "cheddar cheese"} {
		t.Run(query, func(t *testing.T) {
			results := Match(query, entries, DefaultMinScore, DefaultMatchLimit)
			require.NotEmpty(t, results)
			assert.Equal(t, 1.0, results[0].Score)
			assert.Equal(t, normalizeText(query), normalizeText(results[0].Entry.Name))
		})
	}
}

func TestMatch_PrefixOutranksSubstring(t *testing.T) {
	results := Match("mil", testCatalogEntries(), DefaultMinScore, DefaultMatchLimit)

	require.GreaterOrEqual(t, len(results), 2)
	assert.Equal(t, "milk", results[0].Entry.ID)
	assert.Equal(t, scorePrefix, results[0].Score)
	assert.Equal(t, "almond-milk", results[1].Entry.ID)
	assert.Less(t, results[1].Score, results[0].Score)
}

func TestMatch_ThresholdExclusion(t *testing.T) {
	entries := testCatalogEntries()

	t.Run("unrelated query returns nothing", func(t *testing.T) {
		results := Match("xyz123", entries, 0.3, DefaultMatchLimit)
		assert.Empty(t, results)
	})

	t.Run("no result at or below min score", func(t *testing.T) {
		for _, q := range []string{"ch", "bred", "banan", "mlk", "dairy"} {
			for _, r := range Match(q, entries, 0.5, 0) {
				assert.Greater(t, r.Score, 0.5, "query %q entry %s", q, r.Entry.ID)
			}
		}
	})

	t.Run("score equal to min score is dropped", func(t *testing.T) {
		// "mil" is a prefix of "milk" (0.9)
		results := Match("mil", entries, scorePrefix, 0)
		assert.Empty(t, results)
	})
}

func TestMatch_LimitKeepsHighestScores(t *testing.T) {
	entries := make([]domain.ProductCatalogEntry, 0, 20)
	for i := 0; i < 20; i++ {
		entries = append(entries, domain.ProductCatalogEntry{
			ID:       fmt.Sprintf("apple-%02d", i),
			Name:     fmt.Sprintf("Apple Variety %02d", i),
			Category: "Fruit & Vegetables",
		})
	}
	entries = append(entries, domain.ProductCatalogEntry{ID: "apple", Name: "Apple", Category: "Fruit & Vegetables"})

	results := Match("apple", entries, DefaultMinScore, 8)

	require.Len(t, results, 8)
	assert.Equal(t, "apple", results[0].Entry.ID)
	assert.Equal(t, 1.0, results[0].Score)
	// Remaining slots go to prefix matches in catalog order
	want := []string{"apple", "apple-00", "apple-01", "apple-02", "apple-03", "apple-04", "apple-05", "apple-06"}
	if diff := cmp.Diff(want, resultIDs(results)); diff != "" {
		t.Errorf("result order mismatch (-want +got):\n%s", diff)
	}
}

func TestMatch_Deterministic(t *testing.T) {
	entries := testCatalogEntries()

	first := Match("che", entries, DefaultMinScore, DefaultMatchLimit)
	second := Match("che", entries, DefaultMinScore, DefaultMatchLimit)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated match differs (-first +second):\n%s", diff)
	}
}

func TestMatch_PartialKeyword(t *testing.T) {
	results := Match("chees", testCatalogEntries(), DefaultMinScore, DefaultMatchLimit)

	require.NotEmpty(t, results)
	assert.Equal(t, "cheddar", results[0].Entry.ID)
	assert.GreaterOrEqual(t, results[0].Score, scoreSubstring*weightKeyword)
}

func TestMatch_EdgeCases(t *testing.T) {
	entries := testCatalogEntries()

	tests := []struct {
		name  string
		query string
	}{
		{"empty query", ""},
		{"whitespace query", "   "},
		{"single character", "m"},
		{"single character padded", " m "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := Match(tt.query, entries, DefaultMinScore, DefaultMatchLimit)
			assert.NotNil(t, results)
			assert.Empty(t, results)
		})
	}

	t.Run("empty catalog", func(t *testing.T) {
		assert.Empty(t, Match("milk", nil, DefaultMinScore, DefaultMatchLimit))
	})

	t.Run("entries without a name are skipped", func(t *testing.T) {
		broken := []domain.ProductCatalogEntry{{ID: "ghost", Keywords: []string{"milk"}}}
		assert.Empty(t, Match("milk", broken, DefaultMinScore, DefaultMatchLimit))
	})

	t.Run("zero limit means no cap", func(t *testing.T) {
		results := Match("milk", entries, DefaultMinScore, 0)
		assert.Len(t, results, 2)
	})
}

func TestMatch_FieldWeights(t *testing.T) {
	entries := []domain.ProductCatalogEntry{
		{ID: "by-category", Name: "Sourdough", Category: "Bakery"},
		{ID: "by-keyword", Name: "Baguette", Category: "Food Cupboard", Keywords: []string{"bakery"}},
		{ID: "by-name", Name: "Bakery", Category: "Frozen"},
	}

	results := Match("bakery", entries, DefaultMinScore, 0)

	require.Len(t, results, 3)
	assert.Equal(t, []string{"by-name", "by-keyword", "by-category"}, resultIDs(results))
	assert.InDelta(t, weightName, results[0].Score, 1e-9)
	assert.InDelta(t, weightKeyword, results[1].Score, 1e-9)
	assert.InDelta(t, weightCategory, results[2].Score, 1e-9)
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		want      float64
	}{
		{"exact", "milk", "milk", 1.0},
		{"case insensitive exact", "MILK", "milk", 1.0},
		{"prefix", "mil", "milk", 0.9},
		{"substring", "ilk", "milk", 0.7},
		{"one edit", "mulk", "milk", 0.75},
		{"transposition costs two edits", "mikl", "milk", 0.5},
		{"completely different", "abc", "xyz", 0},
		{"empty query", "", "milk", 0},
		{"empty candidate", "milk", "", 0},
		{"both empty", "", "", 0},
		{"longer query than candidate", "milkshake", "milk", 1 - 5.0/9.0},
		{"non-ascii", "crème", "crème fraîche", 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.query, tt.candidate), 1e-9)
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"café", "cafe", 1},
		{"same", "same", 0},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"_"+tt.s2, func(t *testing.T) {
			assert.Equal(t, tt.want, levenshteinDistance(tt.s1, tt.s2))
			assert.Equal(t, tt.want, levenshteinDistance(tt.s2, tt.s1))
		})
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "semi skimmed milk", normalizeText("  Semi   SKIMMED\tMilk "))
	// NFKC folds the full-width form
	assert.Equal(t, "milk", normalizeText("ＭＩＬＫ"))
}

func TestNewMatcher(t *testing.T) {
	t.Run("uses defaults when unset", func(t *testing.T) {
		m := NewMatcher(MatchConfig{}, nil)
		assert.Equal(t, DefaultMinScore, m.MinScore())
		assert.Equal(t, DefaultMatchLimit, m.Limit())
		assert.Equal(t, DefaultMinQueryLength, m.minQueryLength)
	})

	t.Run("keeps provided values", func(t *testing.T) {
		m := NewMatcher(MatchConfig{MinScore: 0.5, Limit: 3, MinQueryLength: 4}, nil)
		assert.Equal(t, 0.5, m.MinScore())
		assert.Equal(t, 3, m.Limit())
		assert.Equal(t, 4, m.minQueryLength)
	})
}

func TestMatcher_MatchLimit(t *testing.T) {
	c, err := domain.NewCatalog("test-1", testCatalogEntries())
	require.NoError(t, err)

	t.Run("applies configured limit", func(t *testing.T) {
		m := NewMatcher(MatchConfig{Limit: 1}, nil)
		assert.Len(t, m.Match("milk", c), 1)
	})

	t.Run("explicit limit overrides default", func(t *testing.T) {
		m := NewMatcher(MatchConfig{Limit: 1}, nil)
		assert.Len(t, m.MatchLimit("milk", c, 2), 2)
	})

	t.Run("respects configured min query length", func(t *testing.T) {
		m := NewMatcher(MatchConfig{MinQueryLength: 4}, nil)
		assert.Empty(t, m.Match("mil", c))
		assert.NotEmpty(t, m.Match("milk", c))
	})

	t.Run("nil catalog returns empty", func(t *testing.T) {
		m := NewMatcher(MatchConfig{}, nil)
		assert.Empty(t, m.Match("milk", nil))
	})

	t.Run("debug logging records the match", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		m := NewMatcher(MatchConfig{EnableDebugLogging: true}, zap.New(core))

		m.Match("milk", c)

		entries := logs.FilterMessage("catalog match").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "test-1", entries[0].ContextMap()["catalog_version"])
	})
}
