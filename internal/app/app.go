// Package app wires configuration into the services shared by the HTTP
// server and the command line tool.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/cartpilot/backend/config"
	"github.com/cartpilot/backend/internal/domain"
	"github.com/cartpilot/backend/internal/infrastructure/cache"
	"github.com/cartpilot/backend/internal/infrastructure/catalog"
	"github.com/cartpilot/backend/internal/infrastructure/openfoodfacts"
	"github.com/cartpilot/backend/internal/infrastructure/storage/memory"
	"github.com/cartpilot/backend/internal/infrastructure/storage/sqlite"
	"github.com/cartpilot/backend/internal/usecase"
)

// App holds the assembled services
type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	Catalog     *catalog.Provider
	Cache       *cache.MemoryCache
	Matcher     *usecase.Matcher
	Ranker      *usecase.DistanceRanker
	Suggestions *usecase.SuggestionService
	Locator     *usecase.StoreLocatorService
	Products    *usecase.ProductService

	closers []func() error
}

// New builds every service from cfg. Callers must Close the result.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider, err := catalog.NewProvider(cfg.Catalog.Path, logger.Named("catalog"))
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	stores, closeStores, err := OpenStoreRepository(ctx, cfg.Stores, logger.Named("stores"))
	if err != nil {
		return nil, err
	}

	memoryCache := cache.NewMemoryCache()

	matcher := usecase.NewMatcher(usecase.MatchConfig{
		MinScore:           cfg.Matching.MinScore,
		Limit:              cfg.Matching.Limit,
		MinQueryLength:     cfg.Matching.MinQueryLength,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	}, logger.Named("matcher"))

	ranker := usecase.NewDistanceRanker(cfg.Geo.BoundingBox, logger.Named("ranker"))

	lookup := openfoodfacts.NewClient(openfoodfacts.Config{
		BaseURL:           cfg.Lookup.BaseURL,
		UserAgent:         cfg.Lookup.UserAgent,
		Timeout:           cfg.Lookup.Timeout,
		RequestsPerMinute: cfg.RateLimit.Lookup,
	}, logger.Named("openfoodfacts"))
	if cfg.Server.Environment == "development" {
		lookup.SetDebug(true)
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Catalog: provider,
		Cache:   memoryCache,
		Matcher: matcher,
		Ranker:  ranker,
		Suggestions: usecase.NewSuggestionService(provider, matcher, memoryCache,
			usecase.SuggestionServiceConfig{CacheTTL: cfg.Cache.SuggestTTL}, logger.Named("suggest")),
		Locator: usecase.NewStoreLocatorService(stores, ranker,
			usecase.StoreLocatorConfig{DefaultRadiusMiles: cfg.Geo.DefaultRadiusMiles}, logger.Named("locator")),
		Products: usecase.NewProductService(memoryCache, lookup, provider, matcher,
			usecase.ProductServiceConfig{
				CacheTTL:           cfg.Cache.TTL,
				EnableDebugLogging: cfg.Matching.EnableDebugLogging,
			}, logger.Named("products")),
	}
	if closeStores != nil {
		a.closers = append(a.closers, closeStores)
	}

	return a, nil
}

// WatchCatalog reloads the catalog on file changes until ctx is done.
// It returns immediately when watching is disabled or the catalog is embedded.
func (a *App) WatchCatalog(ctx context.Context) error {
	if !a.Config.Catalog.Watch {
		return nil
	}
	err := a.Catalog.Watch(ctx)
	if errors.Is(err, catalog.ErrNoCatalogFile) {
		a.Logger.Warn("catalog watch requested but no catalog path is configured")
		return nil
	}
	return err
}

// Close releases store connections
func (a *App) Close() error {
	var err error
	for _, c := range a.closers {
		err = multierr.Append(err, c())
	}
	return err
}

// OpenStoreRepository opens the configured store source. The returned close
// function is nil for the memory backend. An empty SQLite database is seeded
// from cfg.File when one is configured.
func OpenStoreRepository(ctx context.Context, cfg config.StoresConfig, logger *zap.Logger) (domain.StoreRepository, func() error, error) {
	switch cfg.Backend {
	case "sqlite":
		repo, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening store database: %w", err)
		}

		count, err := repo.Count(ctx)
		if err != nil {
			return nil, nil, multierr.Append(err, repo.Close())
		}
		if count == 0 && cfg.File != "" {
			stores, skipped, err := memory.LoadStoresFile(cfg.File, logger)
			if err != nil {
				return nil, nil, multierr.Append(err, repo.Close())
			}
			n, err := repo.UpsertStores(ctx, stores)
			if err != nil {
				return nil, nil, multierr.Append(err, repo.Close())
			}
			logger.Info("seeded store database",
				zap.String("file", cfg.File),
				zap.Int("stores", n),
				zap.Int("skipped", skipped))
		} else {
			logger.Info("store database opened", zap.String("path", cfg.SQLitePath), zap.Int("stores", count))
		}
		return repo, repo.Close, nil

	default:
		if cfg.File == "" {
			logger.Warn("no store file configured, nearby search will return nothing")
			return memory.NewStoreRepository(nil), nil, nil
		}
		stores, skipped, err := memory.LoadStoresFile(cfg.File, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("stores loaded",
			zap.String("file", cfg.File),
			zap.Int("stores", len(stores)),
			zap.Int("skipped", skipped))
		return memory.NewStoreRepository(stores), nil, nil
	}
}
