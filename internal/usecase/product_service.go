package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cartpilot/backend/internal/domain"
	"github.com/cartpilot/backend/internal/infrastructure/openfoodfacts"
)

// maxCategorizeKeywords caps how many extracted keywords are matched on top of the full name
const maxCategorizeKeywords = 4

// ProductServiceConfig holds configuration for the product service
type ProductServiceConfig struct {
	CacheTTL           time.Duration
	EnableDebugLogging bool
}

// ProductService resolves scanned barcodes to products and catalog entries
type ProductService struct {
	cache        domain.CacheRepository
	lookup       domain.ProductLookupClient
	catalog      domain.CatalogSource
	matcher      *Matcher
	preprocessor *QueryPreprocessor
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewProductService creates a new product service with dependencies
func NewProductService(
	cache domain.CacheRepository,
	lookup domain.ProductLookupClient,
	catalog domain.CatalogSource,
	matcher *Matcher,
	config ProductServiceConfig,
	logger *zap.Logger,
) *ProductService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 720 * time.Hour // 30 days
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ProductService{
		cache:        cache,
		lookup:       lookup,
		catalog:      catalog,
		matcher:      matcher,
		preprocessor: NewQueryPreprocessor(config.EnableDebugLogging, logger),
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// LookupBarcode resolves a barcode to product details.
// Flow: validate -> cache -> lookup API -> cache -> categorize against catalog -> return.
// Only the lookup result is cached; categorization always runs against the
// current catalog snapshot.
func (s *ProductService) LookupBarcode(ctx context.Context, barcode string) (*domain.ScannedProduct, error) {
	barcode = strings.TrimSpace(barcode)
	if err := ValidateBarcode(barcode); err != nil {
		return nil, err
	}

	cacheKey := "product:" + barcode

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		result := *cached
		result.Source = "Cache"
		result.CatalogMatch = s.Categorize(result.Name, result.Brand)
		return &result, nil
	}

	offProduct, err := s.lookup.GetProduct(ctx, barcode)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if errors.Is(err, domain.ErrLookupFailure) || errors.Is(err, domain.ErrRateLimited) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrLookupFailure, err)
	}

	product := openfoodfacts.MapToScannedProduct(barcode, offProduct)
	if err := s.setInCache(ctx, cacheKey, product); err != nil {
		s.logger.Warn("failed to cache product", zap.String("barcode", barcode), zap.Error(err))
	}
	product.CatalogMatch = s.Categorize(product.Name, product.Brand)

	return product, nil
}

// Categorize finds the catalog entry that best describes a retail product title.
// The cleaned full name and its most important keywords are each matched; the
// entry with the highest summed score wins. Returns nil when nothing clears the
// matcher threshold.
func (s *ProductService) Categorize(productName, brand string) *domain.MatchResult {
	catalog := s.catalog.Current()
	if catalog.Len() == 0 {
		return nil
	}

	cleaned := s.preprocessor.CleanProductName(productName, brand)
	if cleaned == "" {
		return nil
	}

	queries := []string{cleaned}
	keywords := s.preprocessor.ExtractFoodKeywords(cleaned)
	if len(keywords) > maxCategorizeKeywords {
		keywords = keywords[:maxCategorizeKeywords]
	}
	queries = append(queries, keywords...)

	totals := make(map[*domain.ProductCatalogEntry]float64)
	best := make(map[*domain.ProductCatalogEntry]float64)
	for _, q := range queries {
		for _, m := range s.matcher.MatchLimit(q, catalog, catalog.Len()) {
			totals[m.Entry] += m.Score
			best[m.Entry] = max(best[m.Entry], m.Score)
		}
	}

	// Iterate in catalog order so ties resolve deterministically
	var winner *domain.ProductCatalogEntry
	for i := range catalog.Entries {
		entry := &catalog.Entries[i]
		if totals[entry] > totals[winner] {
			winner = entry
		}
	}
	if winner == nil {
		return nil
	}

	s.logger.Debug("categorized product",
		zap.String("name", productName),
		zap.String("cleaned", cleaned),
		zap.String("entry", winner.ID),
		zap.Float64("score", best[winner]))

	return &domain.MatchResult{Entry: winner, Score: best[winner]}
}

// ValidateBarcode checks that code is an 8, 12, 13 or 14 digit GTIN with a valid check digit
func ValidateBarcode(code string) error {
	switch len(code) {
	case 8, 12, 13, 14:
	default:
		return fmt.Errorf("%w: %q must have 8, 12, 13 or 14 digits", domain.ErrInvalidBarcode, code)
	}

	sum := 0
	for i := 0; i < len(code)-1; i++ {
		c := code[i]
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: %q contains non-digits", domain.ErrInvalidBarcode, code)
		}
		// Weights alternate 3,1 starting from the digit next to the check digit
		weight := 1
		if (len(code)-2-i)%2 == 0 {
			weight = 3
		}
		sum += int(c-'0') * weight
	}

	last := code[len(code)-1]
	if last < '0' || last > '9' {
		return fmt.Errorf("%w: %q contains non-digits", domain.ErrInvalidBarcode, code)
	}
	if want := (10 - sum%10) % 10; int(last-'0') != want {
		return fmt.Errorf("%w: %q has bad check digit", domain.ErrInvalidBarcode, code)
	}
	return nil
}

func (s *ProductService) getFromCache(ctx context.Context, key string) (*domain.ScannedProduct, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	product, ok := value.(*domain.ScannedProduct)
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return product, nil
}

func (s *ProductService) setInCache(ctx context.Context, key string, product *domain.ScannedProduct) error {
	if s.cache == nil {
		return nil
	}
	stored := *product
	stored.CatalogMatch = nil
	stored.CachedAt = time.Now()
	return s.cache.Set(ctx, key, &stored, s.cacheTTL)
}
