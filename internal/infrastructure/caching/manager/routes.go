package manager

import (
	"context"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/freshness"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/mapping"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/store"
)

var (
	siteRoutes   = collection[climbing.Route]{mapper: mapping.Routes, category: freshness.CategoryRoutes}
	sectorRoutes = collection[climbing.Route]{mapper: mapping.Routes, category: freshness.CategoryRoutes}
	lineRoutes   = collection[climbing.Route]{mapper: mapping.Routes, category: freshness.CategoryLineRoutes, sentinel: store.KindLineRoutes}
)

func lineScope(backendID string, lineID int64) store.Scope {
	return store.Scope{BackendID: backendID, Column: "line_id", ParentID: lineID}
}

func (m *Manager) GetCachedRoutesBySite(ctx context.Context, backendID string, siteID int64) ([]climbing.Route, error) {
	return readCollection(ctx, m, siteRoutes, siteScope(backendID, siteID), false)
}

func (m *Manager) GetCachedRoutesBySiteIgnoreExpiration(ctx context.Context, backendID string, siteID int64) ([]climbing.Route, error) {
	return readCollection(ctx, m, siteRoutes, siteScope(backendID, siteID), true)
}

// CacheRoutesForSite replaces the routes of siteID, forcing their site id.
func (m *Manager) CacheRoutesForSite(ctx context.Context, backendID string, siteID int64, routes []climbing.Route) error {
	forced := make([]climbing.Route, len(routes))
	for i, r := range routes {
		r.SiteID = siteID
		forced[i] = r
	}
	return writeCollection(ctx, m, siteRoutes, siteScope(backendID, siteID), forced)
}

func (m *Manager) GetCachedRoutesBySector(ctx context.Context, backendID string, sectorID int64) ([]climbing.Route, error) {
	return readCollection(ctx, m, sectorRoutes, sectorScope(backendID, sectorID), false)
}

func (m *Manager) GetCachedRoutesBySectorIgnoreExpiration(ctx context.Context, backendID string, sectorID int64) ([]climbing.Route, error) {
	return readCollection(ctx, m, sectorRoutes, sectorScope(backendID, sectorID), true)
}

// CacheRoutesForSector replaces the routes of sectorID, forcing their sector id.
func (m *Manager) CacheRoutesForSector(ctx context.Context, backendID string, sectorID int64, routes []climbing.Route) error {
	forced := make([]climbing.Route, len(routes))
	for i, r := range routes {
		r.SectorID = sectorID
		forced[i] = r
	}
	return writeCollection(ctx, m, sectorRoutes, sectorScope(backendID, sectorID), forced)
}

// GetCachedRoutesByLine is sentinel-tracked: a line fetched with no routes
// is a valid, empty hit.
func (m *Manager) GetCachedRoutesByLine(ctx context.Context, backendID string, lineID int64) ([]climbing.Route, error) {
	return readCollection(ctx, m, lineRoutes, lineScope(backendID, lineID), false)
}

func (m *Manager) GetCachedRoutesByLineIgnoreExpiration(ctx context.Context, backendID string, lineID int64) ([]climbing.Route, error) {
	return readCollection(ctx, m, lineRoutes, lineScope(backendID, lineID), true)
}

// CacheRoutesForLine replaces the routes of lineID, forcing their line id,
// and records the fetch even when routes is empty.
func (m *Manager) CacheRoutesForLine(ctx context.Context, backendID string, lineID int64, routes []climbing.Route) error {
	forced := make([]climbing.Route, len(routes))
	for i, r := range routes {
		r.LineID = lineID
		forced[i] = r
	}
	return writeCollection(ctx, m, lineRoutes, lineScope(backendID, lineID), forced)
}

func (m *Manager) GetCachedRoute(ctx context.Context, backendID string, routeID int64) (climbing.Route, error) {
	return readOne(ctx, m, mapping.Routes, freshness.CategoryRoute, store.EntityKey{ID: routeID, BackendID: backendID}, false)
}

func (m *Manager) GetCachedRouteIgnoreExpiration(ctx context.Context, backendID string, routeID int64) (climbing.Route, error) {
	return readOne(ctx, m, mapping.Routes, freshness.CategoryRoute, store.EntityKey{ID: routeID, BackendID: backendID}, true)
}

func (m *Manager) CacheRoute(ctx context.Context, backendID string, route climbing.Route) error {
	return writeOne(ctx, m, mapping.Routes, freshness.CategoryRoute, backendID, route)
}
