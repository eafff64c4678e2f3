package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/cartpilot/backend/config"
	"github.com/cartpilot/backend/internal/app"
	httpDelivery "github.com/cartpilot/backend/internal/delivery/http"
	"github.com/cartpilot/backend/internal/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Server.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync fails on some platforms

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting CartPilot backend",
		zap.String("version", httpDelivery.ServiceVersion),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("stores_backend", cfg.Stores.Backend))

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing resources", zap.Error(err))
		}
	}()

	logger.Info("matching configured",
		zap.Float64("min_score", a.Matcher.MinScore()),
		zap.Int("limit", a.Matcher.Limit()),
		zap.Float64("default_radius_miles", a.Locator.DefaultRadius()),
		zap.Any("bounding_box", a.Ranker.Bounds()),
		zap.Bool("debug", cfg.Matching.EnableDebugLogging))

	go func() {
		if err := a.WatchCatalog(ctx); err != nil {
			logger.Error("catalog watcher stopped", zap.Error(err))
		}
	}()

	handler := httpDelivery.NewHandler(httpDelivery.HandlerDeps{
		Suggestions:    a.Suggestions,
		Locator:        a.Locator,
		Products:       a.Products,
		Catalog:        a.Catalog,
		MaxRadiusMiles: cfg.Geo.MaxRadiusMiles,
		Logger:         logger.Named("http"),
	})

	router := httpDelivery.SetupRouter(cfg, handler, logger.Named("http"))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
