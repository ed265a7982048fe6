// Package cleanup provides the background worker that drops cached data of
// backends no longer in the federation.
package cleanup

import (
	"context"
	"slices"
	"time"

	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
)

// Cache is what the worker needs from the cache manager.
type Cache interface {
	CachedBackends(ctx context.Context) ([]string, error)
	ClearScope(ctx context.Context, backendID string) error
}

// Backends lists the configured backend ids.
type Backends interface {
	IDs() []string
}

// Worker handles background cache cleanup operations
type Worker struct {
	cache    Cache
	backends Backends
	interval time.Duration
	logger   *logging.ChanneledLogger
}

// NewWorker creates a worker running every interval.
func NewWorker(cache Cache, backends Backends, interval time.Duration, logger *logging.ChanneledLogger) *Worker {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Worker{cache: cache, backends: backends, interval: interval, logger: logger}
}

// Start runs cleanups until ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Cache().Info("Cache cleanup worker started", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			w.logger.Cache().Info("Cache cleanup worker stopping")
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.logger.Cache().Error("Cache cleanup failed", "error", err.Error())
			}
		}
	}
}

// RunOnce clears every cached backend that is not configured and returns
// the ids it cleared. Pending logs are not touched.
func (w *Worker) RunOnce(ctx context.Context) ([]string, error) {
	start := time.Now()
	cached, err := w.cache.CachedBackends(ctx)
	if err != nil {
		return nil, err
	}
	configured := w.backends.IDs()

	var cleared []string
	for _, id := range cached {
		if slices.Contains(configured, id) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return cleared, err
		}
		if err := w.cache.ClearScope(ctx, id); err != nil {
			return cleared, err
		}
		cleared = append(cleared, id)
	}
	if len(cleared) > 0 {
		w.logger.Cache().Info("Dropped cache of removed backends", "backends", cleared, "duration", time.Since(start))
	}
	return cleared, nil
}
