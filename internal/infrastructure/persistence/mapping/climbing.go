package mapping

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/store"
)

var (
	Sites = NewMapper(store.TableSites,
		func(s climbing.Site) int64 { return s.ID }, nil, nil)

	Areas = NewMapper(store.TableAreas,
		func(a climbing.Area) int64 { return a.ID },
		func(a climbing.Area) map[string]int64 { return map[string]int64{"site_id": a.SiteID} },
		nil).
		WithParents(func(a climbing.Area, p map[string]int64) climbing.Area {
			a.SiteID = parent(p, "site_id", a.SiteID)
			return a
		})

	Sectors = NewMapper(store.TableSectors,
		func(s climbing.Sector) int64 { return s.ID },
		func(s climbing.Sector) map[string]int64 {
			return map[string]int64{"area_id": s.AreaID, "site_id": s.SiteID}
		},
		nil).
		WithParents(func(s climbing.Sector, p map[string]int64) climbing.Sector {
			s.AreaID = parent(p, "area_id", s.AreaID)
			s.SiteID = parent(p, "site_id", s.SiteID)
			return s
		})

	Lines = NewMapper(store.TableLines,
		func(l climbing.Line) int64 { return l.ID },
		func(l climbing.Line) map[string]int64 { return map[string]int64{"sector_id": l.SectorID} },
		nil)

	// Schemas never persist the derived preview.
	Schemas = NewMapper(store.TableSchemas,
		func(s climbing.SectorSchema) int64 { return s.ID },
		func(s climbing.SectorSchema) map[string]int64 { return map[string]int64{"sector_id": s.SectorID} },
		func(s climbing.SectorSchema) climbing.SectorSchema {
			s.Preview = nil
			return s
		})

	Routes = NewMapper(store.TableRoutes,
		func(r climbing.Route) int64 { return r.ID },
		func(r climbing.Route) map[string]int64 {
			return map[string]int64{"site_id": r.SiteID, "sector_id": r.SectorID, "line_id": r.LineID}
		},
		nil).
		WithParents(func(r climbing.Route, p map[string]int64) climbing.Route {
			r.SiteID = parent(p, "site_id", r.SiteID)
			r.SectorID = parent(p, "sector_id", r.SectorID)
			r.LineID = parent(p, "line_id", r.LineID)
			return r
		})

	// Contest steps live in their own table.
	Contests = NewMapper(store.TableContests,
		func(c climbing.Contest) int64 { return c.ID },
		func(c climbing.Contest) map[string]int64 { return map[string]int64{"site_id": c.SiteID} },
		func(c climbing.Contest) climbing.Contest {
			c.Steps = nil
			return c
		})

	ContestSteps = NewMapper(store.TableContestSteps,
		func(s climbing.ContestStep) int64 { return s.ID },
		func(s climbing.ContestStep) map[string]int64 { return map[string]int64{"contest_id": s.ContestID} },
		nil)

	ContestRankings = NewMapper(store.TableContestRankings,
		func(r climbing.ContestRanking) int64 { return r.ID },
		func(r climbing.ContestRanking) map[string]int64 { return map[string]int64{"contest_id": r.ContestID} },
		nil)

	Logs = NewMapper(store.TableLogs,
		func(l climbing.Log) int64 { return l.ID },
		func(l climbing.Log) map[string]int64 { return map[string]int64{"route_id": l.RouteID} },
		nil)
)

func parent(parents map[string]int64, column string, fallback int64) int64 {
	if id := parents[column]; id != 0 {
		return id
	}
	return fallback
}

// AssetToRow converts an asset for the store.
func AssetToRow(a climbing.Asset) store.AssetRow {
	return store.AssetRow{
		URL:         a.URL,
		Content:     a.Content,
		ContentType: a.ContentType,
		CachedAt:    a.CachedAt.UTC().UnixMilli(),
	}
}

// AssetFromRow converts a stored asset.
func AssetFromRow(row store.AssetRow) climbing.Asset {
	return climbing.Asset{
		URL:         row.URL,
		Content:     row.Content,
		ContentType: row.ContentType,
		CachedAt:    time.UnixMilli(row.CachedAt).UTC(),
	}
}

// PendingLogToRow encodes a pending log. The log body is stored as JSON.
func PendingLogToRow(p climbing.PendingLog) (store.PendingLogRow, error) {
	payload, err := json.Marshal(p.Log)
	if err != nil {
		return store.PendingLogRow{}, fmt.Errorf("encode pending log %s: %w", p.ClientRef, err)
	}
	return store.PendingLogRow{
		ClientRef: p.ClientRef,
		BackendID: p.BackendID,
		RouteID:   p.RouteID,
		Payload:   payload,
		CreatedAt: p.CreatedAt.UTC().UnixMilli(),
	}, nil
}

// PendingLogFromRow decodes a stored pending log.
func PendingLogFromRow(row store.PendingLogRow) (climbing.PendingLog, error) {
	var log climbing.Log
	if err := json.Unmarshal(row.Payload, &log); err != nil {
		return climbing.PendingLog{}, fmt.Errorf("decode pending log %s: %w", row.ClientRef, err)
	}
	return climbing.PendingLog{
		ClientRef: row.ClientRef,
		BackendID: row.BackendID,
		RouteID:   row.RouteID,
		Log:       log,
		CreatedAt: time.UnixMilli(row.CreatedAt).UTC(),
	}, nil
}
