package services

import (
	"context"
	"fmt"

	"github.com/cragnet/cragcache/internal/infrastructure/caching/interfaces"
	"github.com/cragnet/cragcache/internal/infrastructure/federation"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
)

// FederationService edits the set of backends. Every change is persisted
// to the registry file and invalidates the router's client for the backend.
type FederationService struct {
	registry *federation.Registry
	router   *federation.Router
	cache    interfaces.Clearer
	logger   *logging.ChanneledLogger
}

func NewFederationService(registry *federation.Registry, router *federation.Router, cache interfaces.Clearer, logger *logging.ChanneledLogger) *FederationService {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &FederationService{registry: registry, router: router, cache: cache, logger: logger}
}

func (s *FederationService) List() []federation.Backend {
	return s.registry.List()
}

func (s *FederationService) Get(id string) (federation.Backend, error) {
	return s.registry.Get(id)
}

// Upsert adds or updates a backend. An update with an empty token keeps
// the stored one.
func (s *FederationService) Upsert(b federation.Backend) (created bool, err error) {
	if b.AuthToken == "" {
		if existing, err := s.registry.Get(b.ID); err == nil {
			b.AuthToken = existing.AuthToken
		}
	}
	existed, err := s.registry.Upsert(b)
	if err != nil {
		return false, err
	}
	if err := s.registry.Save(); err != nil {
		return false, err
	}
	s.router.RemoveBackend(b.ID)
	s.logger.Federation().Info("Backend saved", "backendId", b.ID, "created", !existed, "enabled", b.Enabled)
	return !existed, nil
}

// Remove deletes a backend and everything cached for it.
func (s *FederationService) Remove(ctx context.Context, id string) error {
	if err := s.registry.Remove(id); err != nil {
		return err
	}
	if err := s.registry.Save(); err != nil {
		return err
	}
	s.router.RemoveBackend(id)
	if err := s.cache.ClearScope(ctx, id); err != nil {
		return fmt.Errorf("backend %s removed but its cache was not cleared: %w", id, err)
	}
	s.logger.Federation().Info("Backend removed", "backendId", id)
	return nil
}
