package manager

import (
	"context"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/freshness"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/mapping"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/store"
)

var sitesList = collection[climbing.Site]{mapper: mapping.Sites, category: freshness.CategorySites}

func (m *Manager) GetCachedSites(ctx context.Context, backendID string) ([]climbing.Site, error) {
	return readCollection(ctx, m, sitesList, store.Scope{BackendID: backendID}, false)
}

func (m *Manager) GetCachedSitesIgnoreExpiration(ctx context.Context, backendID string) ([]climbing.Site, error) {
	return readCollection(ctx, m, sitesList, store.Scope{BackendID: backendID}, true)
}

// CacheSites replaces the backend's site list.
func (m *Manager) CacheSites(ctx context.Context, backendID string, sites []climbing.Site) error {
	return writeCollection(ctx, m, sitesList, store.Scope{BackendID: backendID}, sites)
}

func (m *Manager) GetCachedSite(ctx context.Context, backendID string, siteID int64) (climbing.Site, error) {
	return readOne(ctx, m, mapping.Sites, freshness.CategorySite, store.EntityKey{ID: siteID, BackendID: backendID}, false)
}

func (m *Manager) GetCachedSiteIgnoreExpiration(ctx context.Context, backendID string, siteID int64) (climbing.Site, error) {
	return readOne(ctx, m, mapping.Sites, freshness.CategorySite, store.EntityKey{ID: siteID, BackendID: backendID}, true)
}

func (m *Manager) CacheSite(ctx context.Context, backendID string, site climbing.Site) error {
	return writeOne(ctx, m, mapping.Sites, freshness.CategorySite, backendID, site)
}
