// Package repositories defines the contracts of the data sources the
// application reads from. The cache layer never calls them; orchestration
// does, on a cache miss.
package repositories

import (
	"context"
	"errors"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
)

// ErrRemoteNotFound is returned when a backend answers 404 for an entity.
var ErrRemoteNotFound = errors.New("not found on backend")

// RemoteClient fetches directory data from one federation backend.
type RemoteClient interface {
	BackendID() string

	FetchSites(ctx context.Context) ([]climbing.Site, error)
	FetchSite(ctx context.Context, siteID int64) (climbing.Site, error)
	FetchAreasBySite(ctx context.Context, siteID int64) ([]climbing.Area, error)
	FetchAreas(ctx context.Context) ([]climbing.Area, error)
	FetchArea(ctx context.Context, areaID int64) (climbing.Area, error)
	FetchSectorsByArea(ctx context.Context, areaID int64) ([]climbing.Sector, error)
	FetchSector(ctx context.Context, sectorID int64) (climbing.Sector, error)
	FetchLinesBySector(ctx context.Context, sectorID int64) ([]climbing.Line, error)
	FetchLine(ctx context.Context, lineID int64) (climbing.Line, error)
	FetchSchemasBySector(ctx context.Context, sectorID int64) ([]climbing.SectorSchema, error)
	FetchRoutesBySite(ctx context.Context, siteID int64) ([]climbing.Route, error)
	FetchRoutesBySector(ctx context.Context, sectorID int64) ([]climbing.Route, error)
	FetchRoutesByLine(ctx context.Context, lineID int64) ([]climbing.Route, error)
	FetchRoute(ctx context.Context, routeID int64) (climbing.Route, error)
	FetchContestsBySite(ctx context.Context, siteID int64) ([]climbing.Contest, error)
	FetchContest(ctx context.Context, contestID int64) (climbing.Contest, error)
	FetchContestRankings(ctx context.Context, contestID int64) ([]climbing.ContestRanking, error)
	FetchLogsByRoute(ctx context.Context, routeID int64) ([]climbing.Log, error)

	// PostLog submits a log and returns it as accepted by the backend.
	PostLog(ctx context.Context, routeID int64, log climbing.Log, clientRef string) (climbing.Log, error)

	// FetchAsset downloads raw content from an absolute URL.
	FetchAsset(ctx context.Context, url string) (content []byte, contentType string, err error)
}
