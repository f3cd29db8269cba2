// Package main is the entry point for the EcoMarket gateway.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/clients/acl"
	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/http"
	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/http/handlers"
	"github.com/jsamuelsen/ecomarket-gateway/internal/adapters/http/middleware"
	"github.com/jsamuelsen/ecomarket-gateway/internal/app"
	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/config"
	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/logging"
	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/retry"
	"github.com/jsamuelsen/ecomarket-gateway/internal/platform/telemetry"
	"github.com/jsamuelsen/ecomarket-gateway/internal/ports"
)

// Set at build time with -ldflags "-X main.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting gateway",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("upstream", cfg.Services.EcoMarket.BaseURL),
	)

	tel, err := telemetry.New(ctx, telemetry.ConfigFrom(cfg))
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := tel.Shutdown(ctx); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	upstream := cfg.Services.EcoMarket

	httpClient, err := clients.New(&clients.Config{
		BaseURL:       upstream.BaseURL,
		ServiceName:   upstream.Name,
		Timeout:       cfg.Client.Timeout,
		Circuit:       cfg.Client.CircuitBreaker,
		RateLimit:     cfg.Client.RateLimit,
		Transport:     cfg.Client.Transport,
		SlowThreshold: cfg.Log.SlowRequestThreshold,
		ClientVersion: upstream.ClientVersion,
		AuthFunc:      middleware.BearerAuth(upstream.Token),
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("creating ecomarket client: %w", err)
	}

	retryEngine, err := retry.New(cfg.Client.Retry.Policy(),
		retry.WithObserver(retry.Observers(
			retry.LogObserver(logger),
			telemetry.NewRetryCollector(prometheus.DefaultRegisterer),
		)),
	)
	if err != nil {
		return fmt.Errorf("creating retry engine: %w", err)
	}

	ecomarket := acl.NewEcoMarketClient(acl.EcoMarketConfig{
		Client: httpClient,
		Retry:  retryEngine,
		Logger: logger,
	})

	healthRegistry := ports.NewHealthRegistry()
	if err := healthRegistry.Register(ecomarket); err != nil {
		return fmt.Errorf("registering ecomarket health check: %w", err)
	}

	catalog := app.NewCatalogService(app.CatalogServiceConfig{
		Upstream: ecomarket,
		Logger:   logger,
	})

	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)

	server := http.New(&cfg.Server, logger)

	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:         logger,
		ServiceName:    cfg.App.Name,
		HealthHandler:  handlers.NewHealthHandler(healthRegistry, buildInfo, telemetry.MetricsHandler(prometheus.DefaultGatherer)),
		CatalogHandler: handlers.NewCatalogHandler(catalog),
		Timeout:        cfg.Server.RequestTimeout,
	})

	serverErr := server.Start()

	return waitForShutdown(ctx, logger, server, serverErr, cfg.Server.ShutdownTimeout)
}

// waitForShutdown blocks until SIGINT/SIGTERM or a server error, then drains
// in-flight requests within shutdownTimeout.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("shutting down", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
