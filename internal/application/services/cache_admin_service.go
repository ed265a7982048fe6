package services

import (
	"context"

	"github.com/cragnet/cragcache/internal/infrastructure/caching/manager"
	"github.com/cragnet/cragcache/internal/infrastructure/federation"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
	"github.com/cragnet/cragcache/internal/infrastructure/settings"
)

// CacheStatus is what the admin API reports about the cache.
type CacheStatus struct {
	manager.Status
	CacheEnabled  bool `json:"cacheEnabled"`
	RemoteClients int  `json:"remoteClients"`
}

// CacheAdminService exposes cache inspection and maintenance.
type CacheAdminService struct {
	cache    *manager.Manager
	router   *federation.Router
	settings *settings.Store
	logger   *logging.ChanneledLogger
}

func NewCacheAdminService(cache *manager.Manager, router *federation.Router, settings *settings.Store, logger *logging.ChanneledLogger) *CacheAdminService {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &CacheAdminService{cache: cache, router: router, settings: settings, logger: logger}
}

func (s *CacheAdminService) Status(ctx context.Context) (CacheStatus, error) {
	st, err := s.cache.Status(ctx)
	if err != nil {
		return CacheStatus{}, err
	}
	return CacheStatus{
		Status:        st,
		CacheEnabled:  s.settings.CacheEnabled(),
		RemoteClients: s.router.Len(),
	}, nil
}

// ClearBackend drops everything cached for one backend. The backend does
// not have to be configured any more.
func (s *CacheAdminService) ClearBackend(ctx context.Context, backendID string) error {
	if err := s.cache.ClearScope(ctx, backendID); err != nil {
		return err
	}
	s.logger.Cache().Info("Backend cache cleared", "backendId", backendID)
	return nil
}

// ClearAll wipes the cache and the memoized remote clients.
func (s *CacheAdminService) ClearAll(ctx context.Context) error {
	if err := s.cache.ClearAll(ctx); err != nil {
		return err
	}
	s.router.ClearCache()
	s.logger.Cache().Info("Cache cleared")
	return nil
}

func (s *CacheAdminService) SetCacheEnabled(enabled bool) error {
	if err := s.settings.SetCacheEnabled(enabled); err != nil {
		return err
	}
	s.logger.Cache().Info("Cache toggled", "enabled", enabled)
	return nil
}
