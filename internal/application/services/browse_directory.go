package services

import (
	"context"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/repositories"
)

func (s *BrowseService) Sites(ctx context.Context, backendID string) (Result[[]climbing.Site], error) {
	return readThrough(ctx, s, readPlan[[]climbing.Site]{
		op:        "sites",
		backendID: backendID,
		cached: func(ctx context.Context) ([]climbing.Site, error) {
			return s.cache.GetCachedSites(ctx, backendID)
		},
		offline: func(ctx context.Context) ([]climbing.Site, error) {
			return s.cache.GetCachedSitesIgnoreExpiration(ctx, backendID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) ([]climbing.Site, error) {
			return c.FetchSites(ctx)
		},
		store: func(ctx context.Context, v []climbing.Site) error {
			return s.cache.CacheSites(ctx, backendID, v)
		},
	})
}

func (s *BrowseService) Site(ctx context.Context, backendID string, siteID int64) (Result[climbing.Site], error) {
	return readThrough(ctx, s, readPlan[climbing.Site]{
		op:        "site",
		backendID: backendID,
		cached: func(ctx context.Context) (climbing.Site, error) {
			return s.cache.GetCachedSite(ctx, backendID, siteID)
		},
		offline: func(ctx context.Context) (climbing.Site, error) {
			return s.cache.GetCachedSiteIgnoreExpiration(ctx, backendID, siteID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) (climbing.Site, error) {
			return c.FetchSite(ctx, siteID)
		},
		store: func(ctx context.Context, v climbing.Site) error {
			return s.cache.CacheSite(ctx, backendID, v)
		},
	})
}

func (s *BrowseService) AreasBySite(ctx context.Context, backendID string, siteID int64) (Result[[]climbing.Area], error) {
	return readThrough(ctx, s, readPlan[[]climbing.Area]{
		op:        "areas_by_site",
		backendID: backendID,
		cached: func(ctx context.Context) ([]climbing.Area, error) {
			return s.cache.GetCachedAreasBySite(ctx, backendID, siteID)
		},
		offline: func(ctx context.Context) ([]climbing.Area, error) {
			return s.cache.GetCachedAreasBySiteIgnoreExpiration(ctx, backendID, siteID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) ([]climbing.Area, error) {
			return c.FetchAreasBySite(ctx, siteID)
		},
		store: func(ctx context.Context, v []climbing.Area) error {
			return s.cache.CacheAreasForSite(ctx, backendID, siteID, v)
		},
	})
}

func (s *BrowseService) Areas(ctx context.Context, backendID string) (Result[[]climbing.Area], error) {
	return readThrough(ctx, s, readPlan[[]climbing.Area]{
		op:        "areas",
		backendID: backendID,
		cached: func(ctx context.Context) ([]climbing.Area, error) {
			return s.cache.GetCachedAreas(ctx, backendID)
		},
		offline: func(ctx context.Context) ([]climbing.Area, error) {
			return s.cache.GetCachedAreasIgnoreExpiration(ctx, backendID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) ([]climbing.Area, error) {
			return c.FetchAreas(ctx)
		},
		store: func(ctx context.Context, v []climbing.Area) error {
			return s.cache.CacheAreas(ctx, backendID, v)
		},
	})
}

func (s *BrowseService) Area(ctx context.Context, backendID string, areaID int64) (Result[climbing.Area], error) {
	return readThrough(ctx, s, readPlan[climbing.Area]{
		op:        "area",
		backendID: backendID,
		cached: func(ctx context.Context) (climbing.Area, error) {
			return s.cache.GetCachedArea(ctx, backendID, areaID)
		},
		offline: func(ctx context.Context) (climbing.Area, error) {
			return s.cache.GetCachedAreaIgnoreExpiration(ctx, backendID, areaID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) (climbing.Area, error) {
			return c.FetchArea(ctx, areaID)
		},
		store: func(ctx context.Context, v climbing.Area) error {
			return s.cache.CacheArea(ctx, backendID, v)
		},
	})
}

func (s *BrowseService) SectorsByArea(ctx context.Context, backendID string, areaID int64) (Result[[]climbing.Sector], error) {
	return readThrough(ctx, s, readPlan[[]climbing.Sector]{
		op:        "sectors_by_area",
		backendID: backendID,
		cached: func(ctx context.Context) ([]climbing.Sector, error) {
			return s.cache.GetCachedSectorsByArea(ctx, backendID, areaID)
		},
		offline: func(ctx context.Context) ([]climbing.Sector, error) {
			return s.cache.GetCachedSectorsByAreaIgnoreExpiration(ctx, backendID, areaID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) ([]climbing.Sector, error) {
			return c.FetchSectorsByArea(ctx, areaID)
		},
		store: func(ctx context.Context, v []climbing.Sector) error {
			return s.cache.CacheSectorsForArea(ctx, backendID, areaID, v)
		},
	})
}

func (s *BrowseService) Sector(ctx context.Context, backendID string, sectorID int64) (Result[climbing.Sector], error) {
	return readThrough(ctx, s, readPlan[climbing.Sector]{
		op:        "sector",
		backendID: backendID,
		cached: func(ctx context.Context) (climbing.Sector, error) {
			return s.cache.GetCachedSector(ctx, backendID, sectorID)
		},
		offline: func(ctx context.Context) (climbing.Sector, error) {
			return s.cache.GetCachedSectorIgnoreExpiration(ctx, backendID, sectorID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) (climbing.Sector, error) {
			return c.FetchSector(ctx, sectorID)
		},
		store: func(ctx context.Context, v climbing.Sector) error {
			return s.cache.CacheSector(ctx, backendID, v)
		},
	})
}

func (s *BrowseService) LinesBySector(ctx context.Context, backendID string, sectorID int64) (Result[[]climbing.Line], error) {
	return readThrough(ctx, s, readPlan[[]climbing.Line]{
		op:        "lines_by_sector",
		backendID: backendID,
		cached: func(ctx context.Context) ([]climbing.Line, error) {
			return s.cache.GetCachedLinesBySector(ctx, backendID, sectorID)
		},
		offline: func(ctx context.Context) ([]climbing.Line, error) {
			return s.cache.GetCachedLinesBySectorIgnoreExpiration(ctx, backendID, sectorID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) ([]climbing.Line, error) {
			return c.FetchLinesBySector(ctx, sectorID)
		},
		store: func(ctx context.Context, v []climbing.Line) error {
			return s.cache.CacheLinesForSector(ctx, backendID, sectorID, v)
		},
	})
}

func (s *BrowseService) Line(ctx context.Context, backendID string, lineID int64) (Result[climbing.Line], error) {
	return readThrough(ctx, s, readPlan[climbing.Line]{
		op:        "line",
		backendID: backendID,
		cached: func(ctx context.Context) (climbing.Line, error) {
			return s.cache.GetCachedLine(ctx, backendID, lineID)
		},
		offline: func(ctx context.Context) (climbing.Line, error) {
			return s.cache.GetCachedLineIgnoreExpiration(ctx, backendID, lineID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) (climbing.Line, error) {
			return c.FetchLine(ctx, lineID)
		},
		store: func(ctx context.Context, v climbing.Line) error {
			return s.cache.CacheLine(ctx, backendID, v)
		},
	})
}
