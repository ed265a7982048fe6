// Package interfaces defines the cache contracts the application layer
// depends on. manager.Manager satisfies them.
package interfaces

import (
	"context"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
)

// DirectoryCache covers the structural entities: sites down to lines and
// schemas.
type DirectoryCache interface {
	GetCachedSites(ctx context.Context, backendID string) ([]climbing.Site, error)
	GetCachedSitesIgnoreExpiration(ctx context.Context, backendID string) ([]climbing.Site, error)
	CacheSites(ctx context.Context, backendID string, sites []climbing.Site) error
	GetCachedSite(ctx context.Context, backendID string, siteID int64) (climbing.Site, error)
	GetCachedSiteIgnoreExpiration(ctx context.Context, backendID string, siteID int64) (climbing.Site, error)
	CacheSite(ctx context.Context, backendID string, site climbing.Site) error

	GetCachedAreasBySite(ctx context.Context, backendID string, siteID int64) ([]climbing.Area, error)
	GetCachedAreasBySiteIgnoreExpiration(ctx context.Context, backendID string, siteID int64) ([]climbing.Area, error)
	CacheAreasForSite(ctx context.Context, backendID string, siteID int64, areas []climbing.Area) error
	GetCachedAreas(ctx context.Context, backendID string) ([]climbing.Area, error)
	GetCachedAreasIgnoreExpiration(ctx context.Context, backendID string) ([]climbing.Area, error)
	CacheAreas(ctx context.Context, backendID string, areas []climbing.Area) error
	GetCachedArea(ctx context.Context, backendID string, areaID int64) (climbing.Area, error)
	GetCachedAreaIgnoreExpiration(ctx context.Context, backendID string, areaID int64) (climbing.Area, error)
	CacheArea(ctx context.Context, backendID string, area climbing.Area) error

	GetCachedSectorsByArea(ctx context.Context, backendID string, areaID int64) ([]climbing.Sector, error)
	GetCachedSectorsByAreaIgnoreExpiration(ctx context.Context, backendID string, areaID int64) ([]climbing.Sector, error)
	CacheSectorsForArea(ctx context.Context, backendID string, areaID int64, sectors []climbing.Sector) error
	GetCachedSector(ctx context.Context, backendID string, sectorID int64) (climbing.Sector, error)
	GetCachedSectorIgnoreExpiration(ctx context.Context, backendID string, sectorID int64) (climbing.Sector, error)
	CacheSector(ctx context.Context, backendID string, sector climbing.Sector) error

	GetCachedLinesBySector(ctx context.Context, backendID string, sectorID int64) ([]climbing.Line, error)
	GetCachedLinesBySectorIgnoreExpiration(ctx context.Context, backendID string, sectorID int64) ([]climbing.Line, error)
	CacheLinesForSector(ctx context.Context, backendID string, sectorID int64, lines []climbing.Line) error
	GetCachedLine(ctx context.Context, backendID string, lineID int64) (climbing.Line, error)
	GetCachedLineIgnoreExpiration(ctx context.Context, backendID string, lineID int64) (climbing.Line, error)
	CacheLine(ctx context.Context, backendID string, line climbing.Line) error

	GetCachedSchemasBySector(ctx context.Context, backendID string, sectorID int64) ([]climbing.SectorSchema, error)
	GetCachedSchemasBySectorIgnoreExpiration(ctx context.Context, backendID string, sectorID int64) ([]climbing.SectorSchema, error)
	CacheSchemasForSector(ctx context.Context, backendID string, sectorID int64, schemas []climbing.SectorSchema) error
}

// RouteCache covers routes, contests and logs.
type RouteCache interface {
	GetCachedRoutesBySite(ctx context.Context, backendID string, siteID int64) ([]climbing.Route, error)
	GetCachedRoutesBySiteIgnoreExpiration(ctx context.Context, backendID string, siteID int64) ([]climbing.Route, error)
	CacheRoutesForSite(ctx context.Context, backendID string, siteID int64, routes []climbing.Route) error
	GetCachedRoutesBySector(ctx context.Context, backendID string, sectorID int64) ([]climbing.Route, error)
	GetCachedRoutesBySectorIgnoreExpiration(ctx context.Context, backendID string, sectorID int64) ([]climbing.Route, error)
	CacheRoutesForSector(ctx context.Context, backendID string, sectorID int64, routes []climbing.Route) error
	GetCachedRoutesByLine(ctx context.Context, backendID string, lineID int64) ([]climbing.Route, error)
	GetCachedRoutesByLineIgnoreExpiration(ctx context.Context, backendID string, lineID int64) ([]climbing.Route, error)
	CacheRoutesForLine(ctx context.Context, backendID string, lineID int64, routes []climbing.Route) error
	GetCachedRoute(ctx context.Context, backendID string, routeID int64) (climbing.Route, error)
	GetCachedRouteIgnoreExpiration(ctx context.Context, backendID string, routeID int64) (climbing.Route, error)
	CacheRoute(ctx context.Context, backendID string, route climbing.Route) error

	GetCachedContestsBySite(ctx context.Context, backendID string, siteID int64) ([]climbing.Contest, error)
	GetCachedContestsBySiteIgnoreExpiration(ctx context.Context, backendID string, siteID int64) ([]climbing.Contest, error)
	CacheContestsForSite(ctx context.Context, backendID string, siteID int64, contests []climbing.Contest) error
	GetCachedContest(ctx context.Context, backendID string, contestID int64) (climbing.Contest, error)
	GetCachedContestIgnoreExpiration(ctx context.Context, backendID string, contestID int64) (climbing.Contest, error)
	CacheContest(ctx context.Context, backendID string, contest climbing.Contest) error
	GetCachedContestRankings(ctx context.Context, backendID string, contestID int64) ([]climbing.ContestRanking, error)
	GetCachedContestRankingsIgnoreExpiration(ctx context.Context, backendID string, contestID int64) ([]climbing.ContestRanking, error)
	CacheContestRankings(ctx context.Context, backendID string, contestID int64, rankings []climbing.ContestRanking) error

	GetCachedLogsByRoute(ctx context.Context, backendID string, routeID int64) ([]climbing.Log, error)
	GetCachedLogsByRouteIgnoreExpiration(ctx context.Context, backendID string, routeID int64) ([]climbing.Log, error)
	CacheLogsForRoute(ctx context.Context, backendID string, routeID int64, logs []climbing.Log) error
}

// AssetCache covers URL-keyed raw assets.
type AssetCache interface {
	GetCachedSVGMap(ctx context.Context, url string) (climbing.Asset, error)
	GetCachedSVGMapIgnoreExpiration(ctx context.Context, url string) (climbing.Asset, error)
	CacheSVGMap(ctx context.Context, url string, content []byte, contentType string) (climbing.Asset, error)
	GetCachedSchemaBackground(ctx context.Context, url string) (climbing.Asset, error)
	GetCachedSchemaBackgroundIgnoreExpiration(ctx context.Context, url string) (climbing.Asset, error)
	CacheSchemaBackground(ctx context.Context, url string, content []byte, contentType string) (climbing.Asset, error)
}

// Logbook covers the user's own logs written on this device.
type Logbook interface {
	AddPendingLog(ctx context.Context, backendID string, routeID int64, log climbing.Log) (climbing.PendingLog, error)
	PendingLogs(ctx context.Context, backendID string) ([]climbing.PendingLog, error)
	ConfirmPendingLog(ctx context.Context, pending climbing.PendingLog, accepted climbing.Log) error
	GetCachedLogsByRouteIgnoreExpiration(ctx context.Context, backendID string, routeID int64) ([]climbing.Log, error)
}

// Clearer wipes cached data.
type Clearer interface {
	ClearScope(ctx context.Context, backendID string) error
	ClearAll(ctx context.Context) error
}

// Cache is the full read-through surface.
type Cache interface {
	DirectoryCache
	RouteCache
	AssetCache
}
