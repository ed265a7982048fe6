// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/cragnet/cragcache/internal/application/container"
	"github.com/cragnet/cragcache/internal/infrastructure/caching/cleanup"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/tracing"
	"github.com/cragnet/cragcache/internal/presentation/http/server"
	"github.com/cragnet/cragcache/pkg/config"
)

const serviceName = "cragcache"

// NewLogger builds the channeled logger described by cfg.
func NewLogger(cfg *config.Config) (*logging.ChanneledLogger, error) {
	loggerConfig := logging.DefaultLoggerConfig()
	loggerConfig.JSONFormat = cfg.LogJSON
	loggerConfig.DefaultLevel = logging.ParseLevel(cfg.LogLevel)
	if cfg.LogDir != "" {
		loggerConfig.OutputToFile = true
		loggerConfig.LogDirectory = cfg.LogDir
	}
	return logging.NewChanneledLogger(loggerConfig)
}

// Initialize runs the startup sequence and blocks until SIGINT or SIGTERM.
// It returns the HTTP server's error when the server stops on its own.
func Initialize(cfg *config.Config) error {
	setupGin()
	start := time.Now().UTC()

	// Step 1: Logging
	logger, err := NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()
	logger.Startup().Info("Starting cragcache", "port", cfg.Port, "dataDir", cfg.DataDir, "driver", cfg.DBDriver)

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Step 2: Tracing
	phase := time.Now()
	shutdownTracing, err := tracing.Setup(ctx, serviceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		logger.LogStartupPhase("tracing", time.Since(phase), false)
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	logger.LogStartupPhase("tracing", time.Since(phase), true)

	// Step 3: Store, registry, settings and services
	phase = time.Now()
	appContainer, err := container.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.LogStartupPhase("container", time.Since(phase), false)
		return err
	}
	logger.LogStartupPhase("container", time.Since(phase), true)
	logger.Startup().Info("Federation registry loaded", "backends", len(appContainer.Registry.List()), "path", appContainer.Registry.Path())

	// Background tasks use the store and must finish before it closes.
	var background errgroup.Group

	// Step 4: Cache warming runs in the background so an offline start is not delayed.
	if cfg.WarmOnStartup {
		background.Go(func() error {
			warmStart := time.Now()
			if _, err := appContainer.WarmingService.WarmAllBackends(ctx); err != nil {
				logger.Startup().Warn("Cache warming incomplete", "error", err.Error(), "duration", time.Since(warmStart))
			}
			return nil
		})
	}

	// Step 5: Background cleanup of removed backends
	worker := cleanup.NewWorker(appContainer.CacheManager, appContainer.Registry, cfg.CleanupInterval, logger)
	background.Go(func() error {
		worker.Start(ctx)
		return nil
	})

	// Step 6: HTTP server
	httpServer := server.New(appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(gracefulShutdown)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	logger.Startup().Info("Application startup complete", "totalDuration", time.Since(start), "address", httpServer.Addr())

	var runErr error
	select {
	case <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	case runErr = <-serverErr:
		if runErr != nil {
			logger.System().Error("HTTP server failed", "error", runErr.Error())
		}
	}

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	}
	_ = background.Wait()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error flushing traces", "error", err.Error())
	}
	if err := appContainer.Close(); err != nil {
		logger.Shutdown().Error("Error closing store", "error", err.Error())
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))
	return runErr
}

func setupGin() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
}
