package federation

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/cragnet/cragcache/internal/domain/repositories"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
)

// ClientFactory builds the remote client of one backend.
type ClientFactory func(Backend) (repositories.RemoteClient, error)

// Router memoizes one remote client per backend id. Clients are built
// lazily on first use; concurrent first calls share one construction.
type Router struct {
	registry *Registry
	factory  ClientFactory
	logger   *logging.ChanneledLogger

	mu         sync.RWMutex
	clients    map[string]repositories.RemoteClient
	generation uint64
	group      singleflight.Group
}

func NewRouter(registry *Registry, factory ClientFactory, logger *logging.ChanneledLogger) *Router {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Router{
		registry: registry,
		factory:  factory,
		logger:   logger,
		clients:  make(map[string]repositories.RemoteClient),
	}
}

// Client returns the client of backendID, building it on first use.
func (r *Router) Client(ctx context.Context, backendID string) (repositories.RemoteClient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	client, ok := r.clients[backendID]
	generation := r.generation
	r.mu.RUnlock()
	if ok {
		return client, nil
	}

	v, err, _ := r.group.Do(backendID, func() (any, error) {
		backend, err := r.registry.Get(backendID)
		if err != nil {
			return nil, err
		}
		if !backend.Enabled {
			return nil, fmt.Errorf("%w: %s", ErrBackendDisabled, backendID)
		}
		client, err := r.factory(backend)
		if err != nil {
			return nil, fmt.Errorf("build client for %s: %w", backendID, err)
		}

		r.mu.Lock()
		// A clear that ran while building makes this client stale.
		if r.generation == generation {
			r.clients[backendID] = client
		}
		r.mu.Unlock()

		r.logger.Federation().Info("Remote client created", "backendId", backendID, "baseUrl", backend.BaseURL)
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(repositories.RemoteClient), nil
}

// ClearCache drops every memoized client.
func (r *Router) ClearCache() {
	r.mu.Lock()
	n := len(r.clients)
	r.clients = make(map[string]repositories.RemoteClient)
	r.generation++
	r.mu.Unlock()
	r.logger.Federation().Info("Remote clients cleared", "count", n)
}

// RemoveBackend evicts the client of one backend.
func (r *Router) RemoveBackend(backendID string) {
	r.mu.Lock()
	delete(r.clients, backendID)
	r.generation++
	r.mu.Unlock()
	r.logger.Federation().Info("Remote client evicted", "backendId", backendID)
}

// Len returns the number of memoized clients.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
