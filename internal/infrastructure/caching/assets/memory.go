// Package assets keeps recently read raw assets in memory in front of the
// persistent store.
package assets

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/metrics"
)

// MemoryTier is an expirable LRU of assets keyed by table and URL. Entries
// carry their persistent cached-at so freshness is still judged by the
// cache policy, not by the LRU's own expiry.
type MemoryTier struct {
	cache   *expirable.LRU[string, climbing.Asset]
	metrics *metrics.Metrics
}

// NewMemoryTier creates a tier holding at most size assets for ttl each.
// A non-positive size disables the tier.
func NewMemoryTier(size int, ttl time.Duration, m *metrics.Metrics) *MemoryTier {
	if size <= 0 {
		return &MemoryTier{metrics: m}
	}
	return &MemoryTier{
		cache:   expirable.NewLRU[string, climbing.Asset](size, nil, ttl),
		metrics: m,
	}
}

func key(table, url string) string { return table + "|" + url }

// Get returns the asset held for url in table.
func (t *MemoryTier) Get(table, url string) (climbing.Asset, bool) {
	if t == nil || t.cache == nil {
		return climbing.Asset{}, false
	}
	asset, ok := t.cache.Get(key(table, url))
	t.metrics.AssetMemoryLookup(ok)
	return asset, ok
}

// Set adds or replaces an asset.
func (t *MemoryTier) Set(table string, asset climbing.Asset) {
	if t == nil || t.cache == nil {
		return
	}
	t.cache.Add(key(table, asset.URL), asset)
}

// Purge drops every asset.
func (t *MemoryTier) Purge() {
	if t == nil || t.cache == nil {
		return
	}
	t.cache.Purge()
}

// Len returns the number of assets held.
func (t *MemoryTier) Len() int {
	if t == nil || t.cache == nil {
		return 0
	}
	return t.cache.Len()
}
