package manager

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/cragnet/cragcache/internal/infrastructure/messaging"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/store"
)

// MarkFetched records that a sentinel-tracked list was fetched now.
func (m *Manager) MarkFetched(ctx context.Context, key store.ScopeKey, backendID string) error {
	return m.store.RecordFetched(ctx, key, backendID, m.evaluator.Now())
}

// WasFetched reports when a sentinel-tracked list was last fetched.
func (m *Manager) WasFetched(ctx context.Context, key store.ScopeKey, backendID string) (time.Time, bool, error) {
	return m.store.WasFetched(ctx, key, backendID)
}

// ClearScope removes every cached row and sentinel of one backend. URL-keyed
// assets and pending logs are kept. Clearing an unknown backend is a no-op.
func (m *Manager) ClearScope(ctx context.Context, backendID string) error {
	err := m.store.InTx(ctx, func(tx *store.Tx) error {
		for _, t := range store.EntityTables() {
			if err := tx.DeleteScope(ctx, t, backendID); err != nil {
				return err
			}
		}
		return tx.DeleteSentinels(ctx, backendID)
	})
	if err != nil {
		return fmt.Errorf("clear backend %s: %w", backendID, err)
	}

	m.metrics.CacheClear("backend")
	m.logger.WithBackend(logging.ChannelCache, backendID).Info("Cleared backend cache")
	m.publish(messaging.CacheEvent{Type: messaging.EventClear, BackendID: backendID})
	return nil
}

// ClearAll empties every cache table, sentinels and assets included.
func (m *Manager) ClearAll(ctx context.Context) error {
	err := m.store.InTx(ctx, func(tx *store.Tx) error {
		for _, t := range store.EntityTables() {
			if err := tx.DeleteAll(ctx, t); err != nil {
				return err
			}
		}
		if err := tx.DeleteAllSentinels(ctx); err != nil {
			return err
		}
		for _, t := range []store.AssetTable{store.AssetSVGMaps, store.AssetSchemaBackgrounds} {
			if err := tx.DeleteAssets(ctx, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	m.assets.Purge()

	m.metrics.CacheClear("all")
	m.logger.Cache().Info("Cleared all cached data")
	m.publish(messaging.CacheEvent{Type: messaging.EventClear})
	return nil
}

// Status summarises what the cache holds.
type Status struct {
	Tables       []store.TableCount `json:"tables"`
	Assets       map[string]int     `json:"assets"`
	MemoryAssets int                `json:"memoryAssets"`
}

func (m *Manager) Status(ctx context.Context) (Status, error) {
	counts, err := m.store.Counts(ctx)
	if err != nil {
		return Status{}, err
	}
	status := Status{Tables: counts, Assets: map[string]int{}, MemoryAssets: m.assets.Len()}
	for _, t := range []store.AssetTable{store.AssetSVGMaps, store.AssetSchemaBackgrounds} {
		n, err := m.store.CountAssets(ctx, t)
		if err != nil {
			return Status{}, err
		}
		status.Assets[string(t)] = n
	}
	return status, nil
}

// CachedBackends lists the backend ids that own at least one cached row or
// fetch sentinel, sorted.
func (m *Manager) CachedBackends(ctx context.Context) ([]string, error) {
	counts, err := m.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(counts))
	for _, c := range counts {
		ids = append(ids, c.BackendID)
	}
	slices.Sort(ids)
	return slices.Compact(ids), nil
}
