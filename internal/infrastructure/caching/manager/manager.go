// Package manager is the cache façade: typed reads, writes and clears over
// the persistent store, judged fresh or stale by the freshness policy.
// It never calls the network.
package manager

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cragnet/cragcache/internal/domain/freshness"
	"github.com/cragnet/cragcache/internal/infrastructure/caching"
	"github.com/cragnet/cragcache/internal/infrastructure/caching/assets"
	"github.com/cragnet/cragcache/internal/infrastructure/caching/interfaces"
	"github.com/cragnet/cragcache/internal/infrastructure/messaging"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/metrics"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/mapping"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/store"
)

var (
	_ interfaces.Cache   = (*Manager)(nil)
	_ interfaces.Logbook = (*Manager)(nil)
	_ interfaces.Clearer = (*Manager)(nil)
)

// Options carries the optional collaborators of a Manager.
type Options struct {
	Evaluator *freshness.Evaluator
	Logger    *logging.ChanneledLogger
	Metrics   *metrics.Metrics
	Events    messaging.Publisher
	Assets    *assets.MemoryTier
}

// Manager provides cache operations keyed by backend and entity.
type Manager struct {
	store     *store.Store
	evaluator *freshness.Evaluator
	logger    *logging.ChanneledLogger
	metrics   *metrics.Metrics
	events    messaging.Publisher
	assets    *assets.MemoryTier
}

func NewManager(s *store.Store, opts Options) *Manager {
	if opts.Evaluator == nil {
		opts.Evaluator = freshness.NewEvaluator(nil, nil)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewDiscardLogger()
	}

	opts.Logger.Cache().Info("Initializing cache manager", "driver", s.Driver())

	return &Manager{
		store:     s,
		evaluator: opts.Evaluator,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		events:    opts.Events,
		assets:    opts.Assets,
	}
}

// Evaluator returns the freshness evaluator in use.
func (m *Manager) Evaluator() *freshness.Evaluator { return m.evaluator }

func (m *Manager) nowMillis() int64 { return m.evaluator.Now().UnixMilli() }

func (m *Manager) publish(event messaging.CacheEvent) {
	if m.events == nil {
		return
	}
	event.At = m.evaluator.Now()
	m.events.Publish(event)
}

// collection describes a parent-scoped or backend-wide cached list.
type collection[T any] struct {
	mapper   mapping.Mapper[T]
	category freshness.Category
	sentinel store.SentinelKind
}

func cacheKey(c freshness.Category, scope store.Scope) string {
	if scope.Column == "" {
		return string(c)
	}
	return string(c) + ":" + strconv.FormatInt(scope.ParentID, 10)
}

func (m *Manager) record(category freshness.Category, key, backendID, outcome string, start time.Time) {
	m.metrics.CacheLookup(string(category), outcome)
	m.logger.LogCacheOperation("get", key, outcome == metrics.OutcomeHit, time.Since(start), backendID)
}

func (m *Manager) logDecodeFailures(table string, failures []mapping.DecodeFailure) {
	for _, f := range failures {
		m.logger.Cache().Warn("Skipping undecodable cached row",
			"table", table, "id", f.Key.ID, "backendId", f.Key.BackendID, "error", f.Err.Error())
	}
}

// readCollection loads the rows of scope and applies the validity rules.
// Sentinel-tracked collections are valid when the sentinel exists and is
// fresh and the rows are empty or all fresh. Other collections are valid
// when non-empty and all fresh.
func readCollection[T any](ctx context.Context, m *Manager, c collection[T], scope store.Scope, ignoreExpiration bool) ([]T, error) {
	start := time.Now()
	key := cacheKey(c.category, scope)
	table := c.mapper.Table()

	rows, err := m.store.QueryScope(ctx, table, scope)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	items, cachedAt, failures := c.mapper.FromRows(rows)
	m.logDecodeFailures(table.Name, failures)
	if len(rows) > 0 && len(items) == 0 {
		m.record(c.category, key, scope.BackendID, metrics.OutcomeMiss, start)
		return nil, fmt.Errorf("read %s: %w", key, caching.ErrUndecodable)
	}

	var (
		fetchedAt time.Time
		tracked   bool
	)
	if c.sentinel != "" {
		fetchedAt, tracked, err = m.store.WasFetched(ctx, store.ScopeKey{Kind: c.sentinel, ParentID: scope.ParentID}, scope.BackendID)
		if err != nil {
			return nil, fmt.Errorf("read %s sentinel: %w", key, err)
		}
	}

	if ignoreExpiration {
		if len(items) == 0 && !tracked {
			m.record(c.category, key, scope.BackendID, metrics.OutcomeMiss, start)
			return nil, caching.ErrNeverCached
		}
		m.record(c.category, key, scope.BackendID, metrics.OutcomeHit, start)
		return items, nil
	}

	ttl := m.evaluator.TTL(c.category)
	if c.sentinel != "" {
		switch {
		case !tracked:
			m.record(c.category, key, scope.BackendID, metrics.OutcomeMiss, start)
			return nil, caching.ErrNoValidCache
		case !m.evaluator.IsValid(fetchedAt.UnixMilli(), ttl):
			m.record(c.category, key, scope.BackendID, metrics.OutcomeStale, start)
			return nil, caching.ErrNoValidCache
		case len(items) == 0:
			m.record(c.category, key, scope.BackendID, metrics.OutcomeHit, start)
			return items, nil
		}
	}

	if len(items) == 0 {
		m.record(c.category, key, scope.BackendID, metrics.OutcomeMiss, start)
		return nil, caching.ErrNoValidCache
	}
	if !m.evaluator.AreFresh(cachedAt, c.category) {
		m.record(c.category, key, scope.BackendID, metrics.OutcomeStale, start)
		return nil, caching.ErrNoValidCache
	}
	m.record(c.category, key, scope.BackendID, metrics.OutcomeHit, start)
	return items, nil
}

// writeCollection replaces the rows of scope with items, stamping them with
// the current time and recording the sentinel when the collection is tracked.
func writeCollection[T any](ctx context.Context, m *Manager, c collection[T], scope store.Scope, items []T) error {
	now := m.nowMillis()
	rows, err := c.mapper.ToRows(scope.BackendID, items, now)
	if err != nil {
		return err
	}
	var mark *store.SentinelMark
	if c.sentinel != "" {
		mark = &store.SentinelMark{Key: store.ScopeKey{Kind: c.sentinel, ParentID: scope.ParentID}, FetchedAt: now}
	}
	if err := m.store.ReplaceScope(ctx, c.mapper.Table(), scope, rows, mark); err != nil {
		return fmt.Errorf("cache %s: %w", cacheKey(c.category, scope), err)
	}

	m.metrics.CacheWrite(string(c.category))
	m.logger.WithBackend(logging.ChannelCache, scope.BackendID).Debug("Cached collection",
		"category", c.category, "parentId", scope.ParentID, "rows", len(rows))
	m.publish(messaging.CacheEvent{
		Type:      messaging.EventWrite,
		Category:  string(c.category),
		BackendID: scope.BackendID,
		ParentID:  scope.ParentID,
		Rows:      len(rows),
	})
	return nil
}

// readOne loads one entity by key and applies the single-row validity rule.
func readOne[T any](ctx context.Context, m *Manager, mapper mapping.Mapper[T], category freshness.Category, key store.EntityKey, ignoreExpiration bool) (T, error) {
	var zero T
	start := time.Now()
	opKey := string(category) + ":" + strconv.FormatInt(key.ID, 10)

	row, err := m.store.Get(ctx, mapper.Table(), key)
	if errors.Is(err, store.ErrNotFound) {
		m.record(category, opKey, key.BackendID, metrics.OutcomeMiss, start)
		if ignoreExpiration {
			return zero, caching.ErrNeverCached
		}
		return zero, caching.ErrNoValidCache
	}
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", opKey, err)
	}

	v, err := mapper.FromRow(row)
	if err != nil {
		m.logDecodeFailures(mapper.Table().Name, []mapping.DecodeFailure{{Key: key, Err: err}})
		m.record(category, opKey, key.BackendID, metrics.OutcomeMiss, start)
		return zero, fmt.Errorf("read %s: %w", opKey, caching.ErrUndecodable)
	}

	if !ignoreExpiration && !m.evaluator.IsFresh(row.CachedAt, category) {
		m.record(category, opKey, key.BackendID, metrics.OutcomeStale, start)
		return zero, caching.ErrNoValidCache
	}
	m.record(category, opKey, key.BackendID, metrics.OutcomeHit, start)
	return v, nil
}

// writeOne upserts one entity stamped with the current time.
func writeOne[T any](ctx context.Context, m *Manager, mapper mapping.Mapper[T], category freshness.Category, backendID string, v T) error {
	row, err := mapper.ToRow(backendID, v, m.nowMillis())
	if err != nil {
		return err
	}
	if err := m.store.Upsert(ctx, mapper.Table(), row); err != nil {
		return fmt.Errorf("cache %s:%d: %w", category, row.Key.ID, err)
	}

	m.metrics.CacheWrite(string(category))
	m.publish(messaging.CacheEvent{
		Type:      messaging.EventWrite,
		Category:  string(category),
		BackendID: backendID,
		Rows:      1,
	})
	return nil
}
