// Package container provides dependency injection for all singleton services
package container

import (
	"context"
	"fmt"

	"github.com/cragnet/cragcache/internal/application/services"
	"github.com/cragnet/cragcache/internal/domain/freshness"
	"github.com/cragnet/cragcache/internal/infrastructure/caching/assets"
	"github.com/cragnet/cragcache/internal/infrastructure/caching/manager"
	"github.com/cragnet/cragcache/internal/infrastructure/federation"
	"github.com/cragnet/cragcache/internal/infrastructure/media"
	"github.com/cragnet/cragcache/internal/infrastructure/messaging"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/metrics"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/store"
	"github.com/cragnet/cragcache/internal/infrastructure/settings"
	"github.com/cragnet/cragcache/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application Services
	BrowseService     *services.BrowseService
	LogbookService    *services.LogbookService
	FederationService *services.FederationService
	CacheAdminService *services.CacheAdminService
	WarmingService    *services.WarmingService

	// Infrastructure Dependencies
	Config       *config.Config
	Logger       *logging.ChanneledLogger
	Metrics      *metrics.Metrics
	Store        *store.Store
	CacheManager *manager.Manager
	Events       *messaging.EventBroadcaster
	Registry     *federation.Registry
	Router       *federation.Router
	Settings     *settings.Store
}

// NewContainer opens the store, the registry and the settings file and wires
// every service on top of them.
func NewContainer(ctx context.Context, cfg *config.Config, logger *logging.ChanneledLogger) (*Container, error) {
	m := metrics.New()

	policy, err := freshness.DefaultPolicy().WithOverrides(cfg.TTLOverrides)
	if err != nil {
		return nil, fmt.Errorf("invalid TTL overrides: %w", err)
	}

	db, err := store.Open(ctx, store.Config{
		Driver:             cfg.DBDriver,
		Path:               cfg.DBPath,
		TursoURL:           cfg.TursoDatabaseURL,
		TursoToken:         cfg.TursoAuthToken,
		MaxOpenConns:       cfg.DBMaxOpenConns,
		MaxIdleConns:       cfg.DBMaxIdleConns,
		ConnMaxLifetime:    cfg.DBConnMaxLifetime,
		ConnMaxIdleTime:    cfg.DBConnMaxIdleTime,
		SlowQueryThreshold: cfg.SlowQueryThreshold,
	}, logger)
	if err != nil {
		return nil, err
	}

	registry, err := federation.LoadRegistry(cfg.BackendsFile)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	userSettings, err := settings.Open(cfg.SettingsFile)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	events := messaging.NewEventBroadcaster(logger, 64)
	cacheManager := manager.NewManager(db, manager.Options{
		Evaluator: freshness.NewEvaluator(policy, nil),
		Logger:    logger,
		Metrics:   m,
		Events:    events,
		Assets:    assets.NewMemoryTier(cfg.AssetMemoryEntries, cfg.AssetMemoryTTL, m),
	})

	router := federation.NewRouter(registry, federation.NewHTTPClientFactory(federation.HTTPOptions{
		Timeout: cfg.RemoteTimeout,
		Logger:  logger,
		Metrics: m,
	}), logger)

	browse := services.NewBrowseService(cacheManager, router, userSettings, media.NewPreviewRenderer(cfg.SchemaPreviewWidth), logger)

	return &Container{
		BrowseService:     browse,
		LogbookService:    services.NewLogbookService(cacheManager, router, logger),
		FederationService: services.NewFederationService(registry, router, cacheManager, logger),
		CacheAdminService: services.NewCacheAdminService(cacheManager, router, userSettings, logger),
		WarmingService:    services.NewWarmingService(browse, registry, cfg.WarmConcurrency, logger),

		Config:       cfg,
		Logger:       logger,
		Metrics:      m,
		Store:        db,
		CacheManager: cacheManager,
		Events:       events,
		Registry:     registry,
		Router:       router,
		Settings:     userSettings,
	}, nil
}

// Close releases the store and disconnects event subscribers.
func (c *Container) Close() error {
	c.Events.Close()
	return c.Store.Close()
}
