package manager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/freshness"
	"github.com/cragnet/cragcache/internal/infrastructure/caching"
	"github.com/cragnet/cragcache/internal/infrastructure/messaging"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/metrics"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/mapping"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/store"
)

func (m *Manager) GetCachedSVGMap(ctx context.Context, url string) (climbing.Asset, error) {
	return m.readAsset(ctx, store.AssetSVGMaps, freshness.CategorySVGMap, url, false)
}

func (m *Manager) GetCachedSVGMapIgnoreExpiration(ctx context.Context, url string) (climbing.Asset, error) {
	return m.readAsset(ctx, store.AssetSVGMaps, freshness.CategorySVGMap, url, true)
}

func (m *Manager) CacheSVGMap(ctx context.Context, url string, content []byte, contentType string) (climbing.Asset, error) {
	return m.writeAsset(ctx, store.AssetSVGMaps, freshness.CategorySVGMap, url, content, contentType)
}

func (m *Manager) GetCachedSchemaBackground(ctx context.Context, url string) (climbing.Asset, error) {
	return m.readAsset(ctx, store.AssetSchemaBackgrounds, freshness.CategorySchemaBackground, url, false)
}

func (m *Manager) GetCachedSchemaBackgroundIgnoreExpiration(ctx context.Context, url string) (climbing.Asset, error) {
	return m.readAsset(ctx, store.AssetSchemaBackgrounds, freshness.CategorySchemaBackground, url, true)
}

func (m *Manager) CacheSchemaBackground(ctx context.Context, url string, content []byte, contentType string) (climbing.Asset, error) {
	return m.writeAsset(ctx, store.AssetSchemaBackgrounds, freshness.CategorySchemaBackground, url, content, contentType)
}

// readAsset checks the memory tier before the store. Either way the asset's
// persistent cached-at decides freshness.
func (m *Manager) readAsset(ctx context.Context, table store.AssetTable, category freshness.Category, url string, ignoreExpiration bool) (climbing.Asset, error) {
	start := time.Now()
	asset, ok := m.assets.Get(string(table), url)
	if !ok {
		row, err := m.store.GetAsset(ctx, table, url)
		if errors.Is(err, store.ErrNotFound) {
			m.record(category, url, "", metrics.OutcomeMiss, start)
			if ignoreExpiration {
				return climbing.Asset{}, caching.ErrNeverCached
			}
			return climbing.Asset{}, caching.ErrNoValidCache
		}
		if err != nil {
			return climbing.Asset{}, fmt.Errorf("read %s %s: %w", category, url, err)
		}
		asset = mapping.AssetFromRow(row)
		m.assets.Set(string(table), asset)
	}

	if !ignoreExpiration && !m.evaluator.IsFresh(asset.CachedAt.UnixMilli(), category) {
		m.record(category, url, "", metrics.OutcomeStale, start)
		return climbing.Asset{}, caching.ErrNoValidCache
	}
	m.record(category, url, "", metrics.OutcomeHit, start)
	return asset, nil
}

func (m *Manager) writeAsset(ctx context.Context, table store.AssetTable, category freshness.Category, url string, content []byte, contentType string) (climbing.Asset, error) {
	asset := climbing.Asset{
		URL:         url,
		Content:     content,
		ContentType: contentType,
		CachedAt:    time.UnixMilli(m.nowMillis()).UTC(),
	}
	if err := m.store.UpsertAsset(ctx, table, mapping.AssetToRow(asset)); err != nil {
		return climbing.Asset{}, err
	}
	m.assets.Set(string(table), asset)

	m.metrics.CacheWrite(string(category))
	m.logger.Assets().Debug("Cached asset", "table", table, "url", url, "bytes", len(content))
	m.publish(messaging.CacheEvent{Type: messaging.EventWrite, Category: string(category), Rows: 1})
	return asset, nil
}
