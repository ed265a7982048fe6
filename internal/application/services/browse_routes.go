package services

import (
	"context"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/repositories"
)

func (s *BrowseService) RoutesBySite(ctx context.Context, backendID string, siteID int64) (Result[[]climbing.Route], error) {
	return readThrough(ctx, s, readPlan[[]climbing.Route]{
		op:        "routes_by_site",
		backendID: backendID,
		cached: func(ctx context.Context) ([]climbing.Route, error) {
			return s.cache.GetCachedRoutesBySite(ctx, backendID, siteID)
		},
		offline: func(ctx context.Context) ([]climbing.Route, error) {
			return s.cache.GetCachedRoutesBySiteIgnoreExpiration(ctx, backendID, siteID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) ([]climbing.Route, error) {
			return c.FetchRoutesBySite(ctx, siteID)
		},
		store: func(ctx context.Context, v []climbing.Route) error {
			return s.cache.CacheRoutesForSite(ctx, backendID, siteID, v)
		},
	})
}

func (s *BrowseService) RoutesBySector(ctx context.Context, backendID string, sectorID int64) (Result[[]climbing.Route], error) {
	return readThrough(ctx, s, readPlan[[]climbing.Route]{
		op:        "routes_by_sector",
		backendID: backendID,
		cached: func(ctx context.Context) ([]climbing.Route, error) {
			return s.cache.GetCachedRoutesBySector(ctx, backendID, sectorID)
		},
		offline: func(ctx context.Context) ([]climbing.Route, error) {
			return s.cache.GetCachedRoutesBySectorIgnoreExpiration(ctx, backendID, sectorID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) ([]climbing.Route, error) {
			return c.FetchRoutesBySector(ctx, sectorID)
		},
		store: func(ctx context.Context, v []climbing.Route) error {
			return s.cache.CacheRoutesForSector(ctx, backendID, sectorID, v)
		},
	})
}

func (s *BrowseService) RoutesByLine(ctx context.Context, backendID string, lineID int64) (Result[[]climbing.Route], error) {
	return readThrough(ctx, s, readPlan[[]climbing.Route]{
		op:        "routes_by_line",
		backendID: backendID,
		cached: func(ctx context.Context) ([]climbing.Route, error) {
			return s.cache.GetCachedRoutesByLine(ctx, backendID, lineID)
		},
		offline: func(ctx context.Context) ([]climbing.Route, error) {
			return s.cache.GetCachedRoutesByLineIgnoreExpiration(ctx, backendID, lineID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) ([]climbing.Route, error) {
			return c.FetchRoutesByLine(ctx, lineID)
		},
		store: func(ctx context.Context, v []climbing.Route) error {
			return s.cache.CacheRoutesForLine(ctx, backendID, lineID, v)
		},
	})
}

func (s *BrowseService) Route(ctx context.Context, backendID string, routeID int64) (Result[climbing.Route], error) {
	return readThrough(ctx, s, readPlan[climbing.Route]{
		op:        "route",
		backendID: backendID,
		cached: func(ctx context.Context) (climbing.Route, error) {
			return s.cache.GetCachedRoute(ctx, backendID, routeID)
		},
		offline: func(ctx context.Context) (climbing.Route, error) {
			return s.cache.GetCachedRouteIgnoreExpiration(ctx, backendID, routeID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) (climbing.Route, error) {
			return c.FetchRoute(ctx, routeID)
		},
		store: func(ctx context.Context, v climbing.Route) error {
			return s.cache.CacheRoute(ctx, backendID, v)
		},
	})
}

func (s *BrowseService) ContestsBySite(ctx context.Context, backendID string, siteID int64) (Result[[]climbing.Contest], error) {
	return readThrough(ctx, s, readPlan[[]climbing.Contest]{
		op:        "contests_by_site",
		backendID: backendID,
		cached: func(ctx context.Context) ([]climbing.Contest, error) {
			return s.cache.GetCachedContestsBySite(ctx, backendID, siteID)
		},
		offline: func(ctx context.Context) ([]climbing.Contest, error) {
			return s.cache.GetCachedContestsBySiteIgnoreExpiration(ctx, backendID, siteID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) ([]climbing.Contest, error) {
			return c.FetchContestsBySite(ctx, siteID)
		},
		store: func(ctx context.Context, v []climbing.Contest) error {
			return s.cache.CacheContestsForSite(ctx, backendID, siteID, v)
		},
	})
}

func (s *BrowseService) Contest(ctx context.Context, backendID string, contestID int64) (Result[climbing.Contest], error) {
	return readThrough(ctx, s, readPlan[climbing.Contest]{
		op:        "contest",
		backendID: backendID,
		cached: func(ctx context.Context) (climbing.Contest, error) {
			return s.cache.GetCachedContest(ctx, backendID, contestID)
		},
		offline: func(ctx context.Context) (climbing.Contest, error) {
			return s.cache.GetCachedContestIgnoreExpiration(ctx, backendID, contestID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) (climbing.Contest, error) {
			return c.FetchContest(ctx, contestID)
		},
		store: func(ctx context.Context, v climbing.Contest) error {
			return s.cache.CacheContest(ctx, backendID, v)
		},
	})
}

func (s *BrowseService) ContestRankings(ctx context.Context, backendID string, contestID int64) (Result[[]climbing.ContestRanking], error) {
	return readThrough(ctx, s, readPlan[[]climbing.ContestRanking]{
		op:        "contest_rankings",
		backendID: backendID,
		cached: func(ctx context.Context) ([]climbing.ContestRanking, error) {
			return s.cache.GetCachedContestRankings(ctx, backendID, contestID)
		},
		offline: func(ctx context.Context) ([]climbing.ContestRanking, error) {
			return s.cache.GetCachedContestRankingsIgnoreExpiration(ctx, backendID, contestID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) ([]climbing.ContestRanking, error) {
			return c.FetchContestRankings(ctx, contestID)
		},
		store: func(ctx context.Context, v []climbing.ContestRanking) error {
			return s.cache.CacheContestRankings(ctx, backendID, contestID, v)
		},
	})
}

func (s *BrowseService) LogsByRoute(ctx context.Context, backendID string, routeID int64) (Result[[]climbing.Log], error) {
	return readThrough(ctx, s, readPlan[[]climbing.Log]{
		op:        "logs_by_route",
		backendID: backendID,
		cached: func(ctx context.Context) ([]climbing.Log, error) {
			return s.cache.GetCachedLogsByRoute(ctx, backendID, routeID)
		},
		offline: func(ctx context.Context) ([]climbing.Log, error) {
			return s.cache.GetCachedLogsByRouteIgnoreExpiration(ctx, backendID, routeID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) ([]climbing.Log, error) {
			return c.FetchLogsByRoute(ctx, routeID)
		},
		store: func(ctx context.Context, v []climbing.Log) error {
			return s.cache.CacheLogsForRoute(ctx, backendID, routeID, v)
		},
	})
}
