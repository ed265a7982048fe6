// Package freshness decides how long cached climbing data stays trustworthy.
package freshness

import (
	"fmt"
	"time"
)

// Category names a kind of cached read; each category carries its own TTL.
type Category string

const (
	CategorySites            Category = "sites"
	CategorySite             Category = "site"
	CategorySiteAreas        Category = "site-areas"
	CategoryAreas            Category = "areas"
	CategoryArea             Category = "area"
	CategorySectors          Category = "sectors"
	CategorySector           Category = "sector"
	CategoryLines            Category = "lines"
	CategoryLine             Category = "line"
	CategorySchemas          Category = "schemas"
	CategoryRoutes           Category = "routes"
	CategoryLineRoutes       Category = "line-routes"
	CategoryRoute            Category = "route"
	CategoryContests         Category = "contests"
	CategoryContest          Category = "contest"
	CategoryContestSteps     Category = "contest-steps"
	CategoryContestRankings  Category = "contest-rankings"
	CategoryLogs             Category = "logs"
	CategorySVGMap           Category = "svg-map"
	CategorySchemaBackground Category = "schema-background"
)

const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

// Policy maps a category to its time-to-live.
type Policy map[Category]time.Duration

// DefaultPolicy returns the stock TTL table. Structural entities change rarely,
// listings edited by site operators get shorter TTLs, raw assets the longest.
func DefaultPolicy() Policy {
	return Policy{
		CategorySites:            Week,
		CategorySite:             Week,
		CategorySiteAreas:        Week,
		CategoryAreas:            3 * Day,
		CategoryArea:             3 * Day,
		CategorySectors:          3 * Day,
		CategorySector:           3 * Day,
		CategoryLines:            3 * Day,
		CategoryLine:             3 * Day,
		CategorySchemas:          3 * Day,
		CategoryRoutes:           3 * Day,
		CategoryLineRoutes:       Week,
		CategoryRoute:            Week,
		CategoryContests:         Week,
		CategoryContest:          Week,
		CategoryContestSteps:     Week,
		CategoryContestRankings:  time.Hour,
		CategoryLogs:             Day,
		CategorySVGMap:           Week,
		CategorySchemaBackground: 2 * Week,
	}
}

// Categories lists every known category in a stable order.
func Categories() []Category {
	return []Category{
		CategorySites, CategorySite, CategorySiteAreas, CategoryAreas, CategoryArea,
		CategorySectors, CategorySector, CategoryLines, CategoryLine, CategorySchemas,
		CategoryRoutes, CategoryLineRoutes, CategoryRoute,
		CategoryContests, CategoryContest, CategoryContestSteps, CategoryContestRankings,
		CategoryLogs, CategorySVGMap, CategorySchemaBackground,
	}
}

// TTL returns the duration configured for c. Unknown categories get zero,
// which makes every row stale.
func (p Policy) TTL(c Category) time.Duration {
	return p[c]
}

// WithOverrides returns a copy of p with the given categories replaced.
func (p Policy) WithOverrides(overrides map[Category]time.Duration) (Policy, error) {
	out := make(Policy, len(p))
	for c, d := range p {
		out[c] = d
	}
	for c, d := range overrides {
		if _, known := p[c]; !known {
			return nil, fmt.Errorf("unknown cache category %q", c)
		}
		if d <= 0 {
			return nil, fmt.Errorf("ttl for %q must be positive, got %s", c, d)
		}
		out[c] = d
	}
	return out, nil
}
