package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cartpilot/backend/internal/domain"
)

// SuggestionServiceConfig holds configuration for the suggestion service
type SuggestionServiceConfig struct {
	CacheTTL time.Duration
}

// SuggestionService serves live product suggestions from the current catalog
type SuggestionService struct {
	catalog  domain.CatalogSource
	matcher  *Matcher
	cache    domain.CacheRepository
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewSuggestionService creates a suggestion service. cache may be nil to disable memoization.
func NewSuggestionService(
	catalog domain.CatalogSource,
	matcher *Matcher,
	cache domain.CacheRepository,
	config SuggestionServiceConfig,
	logger *zap.Logger,
) *SuggestionService {
	ttl := config.CacheTTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SuggestionService{
		catalog:  catalog,
		matcher:  matcher,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger,
	}
}

// Suggest returns ranked catalog matches for query along with the version of
// the catalog snapshot they were computed from.
// A non-positive limit uses the matcher default.
func (s *SuggestionService) Suggest(ctx context.Context, query string, limit int) ([]domain.MatchResult, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	catalog := s.catalog.Current()
	if catalog == nil {
		return []domain.MatchResult{}, "", nil
	}
	if limit <= 0 {
		limit = s.matcher.Limit()
	}

	key := s.cacheKey(catalog.Version, query, limit)
	if cached, ok := s.getFromCache(ctx, key); ok {
		return cached, catalog.Version, nil
	}

	results := s.matcher.MatchLimit(query, catalog, limit)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, results, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache suggestions", zap.String("key", key), zap.Error(err))
		}
	}

	return copyResults(results), catalog.Version, nil
}

// cacheKey scopes memoized results to one catalog snapshot.
// Format: "suggest:{catalogVersion}:{minScore}:{limit}:{normalizedQuery}"
func (s *SuggestionService) cacheKey(version, query string, limit int) string {
	return fmt.Sprintf("suggest:%s:%g:%d:%s", version, s.matcher.MinScore(), limit, normalizeText(query))
}

func (s *SuggestionService) getFromCache(ctx context.Context, key string) ([]domain.MatchResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	results, ok := value.([]domain.MatchResult)
	if !ok {
		return nil, false
	}
	return copyResults(results), true
}

func copyResults(results []domain.MatchResult) []domain.MatchResult {
	out := make([]domain.MatchResult, len(results))
	copy(out, results)
	return out
}
