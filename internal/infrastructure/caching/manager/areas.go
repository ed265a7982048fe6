package manager

import (
	"context"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/freshness"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/mapping"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/store"
)

var (
	siteAreas = collection[climbing.Area]{mapper: mapping.Areas, category: freshness.CategorySiteAreas}
	allAreas  = collection[climbing.Area]{mapper: mapping.Areas, category: freshness.CategoryAreas}
)

func siteScope(backendID string, siteID int64) store.Scope {
	return store.Scope{BackendID: backendID, Column: "site_id", ParentID: siteID}
}

func (m *Manager) GetCachedAreasBySite(ctx context.Context, backendID string, siteID int64) ([]climbing.Area, error) {
	return readCollection(ctx, m, siteAreas, siteScope(backendID, siteID), false)
}

func (m *Manager) GetCachedAreasBySiteIgnoreExpiration(ctx context.Context, backendID string, siteID int64) ([]climbing.Area, error) {
	return readCollection(ctx, m, siteAreas, siteScope(backendID, siteID), true)
}

// CacheAreasForSite replaces the areas of siteID. Every area is assigned
// to siteID regardless of its payload.
func (m *Manager) CacheAreasForSite(ctx context.Context, backendID string, siteID int64, areas []climbing.Area) error {
	forced := make([]climbing.Area, len(areas))
	for i, a := range areas {
		a.SiteID = siteID
		forced[i] = a
	}
	return writeCollection(ctx, m, siteAreas, siteScope(backendID, siteID), forced)
}

func (m *Manager) GetCachedAreas(ctx context.Context, backendID string) ([]climbing.Area, error) {
	return readCollection(ctx, m, allAreas, store.Scope{BackendID: backendID}, false)
}

func (m *Manager) GetCachedAreasIgnoreExpiration(ctx context.Context, backendID string) ([]climbing.Area, error) {
	return readCollection(ctx, m, allAreas, store.Scope{BackendID: backendID}, true)
}

// CacheAreas replaces every area cached for the backend.
func (m *Manager) CacheAreas(ctx context.Context, backendID string, areas []climbing.Area) error {
	return writeCollection(ctx, m, allAreas, store.Scope{BackendID: backendID}, areas)
}

func (m *Manager) GetCachedArea(ctx context.Context, backendID string, areaID int64) (climbing.Area, error) {
	return readOne(ctx, m, mapping.Areas, freshness.CategoryArea, store.EntityKey{ID: areaID, BackendID: backendID}, false)
}

func (m *Manager) GetCachedAreaIgnoreExpiration(ctx context.Context, backendID string, areaID int64) (climbing.Area, error) {
	return readOne(ctx, m, mapping.Areas, freshness.CategoryArea, store.EntityKey{ID: areaID, BackendID: backendID}, true)
}

func (m *Manager) CacheArea(ctx context.Context, backendID string, area climbing.Area) error {
	return writeOne(ctx, m, mapping.Areas, freshness.CategoryArea, backendID, area)
}
