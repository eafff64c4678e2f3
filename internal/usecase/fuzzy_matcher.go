package usecase

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/cartpilot/backend/internal/domain"
)

// Matching defaults
const (
	DefaultMinScore       = 0.3
	DefaultMatchLimit     = 8
	DefaultMinQueryLength = 2
)

// Shortcut scores checked before falling back to edit distance
const (
	scoreExact     = 1.0
	scorePrefix    = 0.9
	scoreSubstring = 0.7
)

// Candidate weights per field of a catalog entry
const (
	weightName     = 1.0
	weightKeyword  = 0.9
	weightCategory = 0.8
)

// Match ranks catalog entries against a free-text query.
// Queries shorter than two characters return no results. Entries scoring at or
// below minScore are dropped, the rest are sorted by descending score with ties
// kept in catalog order, and at most limit are returned (limit <= 0 means no cap).
func Match(query string, entries []domain.ProductCatalogEntry, minScore float64, limit int) []domain.MatchResult {
	q := normalizeText(query)
	if utf8.RuneCountInString(q) < DefaultMinQueryLength {
		return []domain.MatchResult{}
	}
	return rankEntries(q, entries, minScore, limit)
}

// rankEntries expects an already normalized query
func rankEntries(q string, entries []domain.ProductCatalogEntry, minScore float64, limit int) []domain.MatchResult {
	results := make([]domain.MatchResult, 0, min(len(entries), max(limit, 0)))

	for i := range entries {
		entry := &entries[i]
		if entry.Name == "" {
			continue
		}

		score := scoreEntry(q, entry)
		if score <= minScore {
			continue
		}
		results = append(results, domain.MatchResult{Entry: entry, Score: score})
	}

	slices.SortStableFunc(results, func(a, b domain.MatchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// scoreEntry returns the best weighted similarity across name, keywords and category
func scoreEntry(q string, entry *domain.ProductCatalogEntry) float64 {
	best := similarity(q, normalizeText(entry.Name)) * weightName

	for _, kw := range entry.Keywords {
		if s := similarity(q, normalizeText(kw)) * weightKeyword; s > best {
			best = s
		}
	}

	if s := similarity(q, normalizeText(entry.Category)) * weightCategory; s > best {
		best = s
	}

	return best
}

// Similarity scores how well query matches candidate, in [0,1].
// Comparison is case-insensitive.
func Similarity(query, candidate string) float64 {
	return similarity(normalizeText(query), normalizeText(candidate))
}

// similarity expects both inputs normalized
func similarity(q, c string) float64 {
	if q == "" || c == "" {
		return 0
	}

	switch {
	case q == c:
		return scoreExact
	case strings.HasPrefix(c, q):
		return scorePrefix
	case strings.Contains(c, q):
		return scoreSubstring
	}

	longest := max(utf8.RuneCountInString(q), utf8.RuneCountInString(c))
	sim := 1 - float64(levenshteinDistance(q, c))/float64(longest)
	if sim < 0 {
		return 0
	}
	return sim
}

// normalizeText applies NFKC, lowercases and collapses whitespace
func normalizeText(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	m := len(r1)
	n := len(r2)

	// Two rows instead of the full matrix
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}

// MatchConfig holds configuration for the matcher
type MatchConfig struct {
	MinScore           float64
	Limit              int
	MinQueryLength     int
	EnableDebugLogging bool
}

// Matcher applies Match with configured defaults
type Matcher struct {
	minScore           float64
	limit              int
	minQueryLength     int
	enableDebugLogging bool
	logger             *zap.Logger
}

// NewMatcher creates a matcher, falling back to defaults for unset values
func NewMatcher(config MatchConfig, logger *zap.Logger) *Matcher {
	minScore := config.MinScore
	if minScore <= 0 {
		minScore = DefaultMinScore
	}

	limit := config.Limit
	if limit <= 0 {
		limit = DefaultMatchLimit
	}

	minLen := config.MinQueryLength
	if minLen <= 0 {
		minLen = DefaultMinQueryLength
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Matcher{
		minScore:           minScore,
		limit:              limit,
		minQueryLength:     minLen,
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger,
	}
}

// MinScore returns the configured relevance threshold
func (m *Matcher) MinScore() float64 {
	return m.minScore
}

// Limit returns the configured default result cap
func (m *Matcher) Limit() int {
	return m.limit
}

// Match ranks the catalog against query using the configured limit
func (m *Matcher) Match(query string, catalog *domain.Catalog) []domain.MatchResult {
	return m.MatchLimit(query, catalog, m.limit)
}

// MatchLimit ranks the catalog against query returning at most limit results.
// A non-positive limit uses the configured default.
func (m *Matcher) MatchLimit(query string, catalog *domain.Catalog, limit int) []domain.MatchResult {
	if limit <= 0 {
		limit = m.limit
	}

	q := normalizeText(query)
	if utf8.RuneCountInString(q) < m.minQueryLength || catalog.Len() == 0 {
		return []domain.MatchResult{}
	}

	results := rankEntries(q, catalog.Entries, m.minScore, limit)

	if m.enableDebugLogging {
		fields := []zap.Field{
			zap.String("query", q),
			zap.String("catalog_version", catalog.Version),
			zap.Int("results", len(results)),
		}
		if len(results) > 0 {
			fields = append(fields,
				zap.String("top", results[0].Entry.Name),
				zap.Float64("top_score", results[0].Score))
		}
		m.logger.Debug("catalog match", fields...)
	}

	return results
}
