package manager

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/freshness"
	"github.com/cragnet/cragcache/internal/infrastructure/caching"
	"github.com/cragnet/cragcache/internal/infrastructure/caching/assets"
	"github.com/cragnet/cragcache/internal/infrastructure/messaging"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	m     *Manager
	store *store.Store
	clock *fakeClock
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{
		Driver: store.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "cache.db"),
	}, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	clock := &fakeClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	opts.Evaluator = freshness.NewEvaluator(nil, clock.Now)
	return fixture{m: NewManager(s, opts), store: s, clock: clock}
}

func TestSiteExpiresAfterAWeek(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	site := climbing.Site{ID: 1, Name: "Fontainebleau", Country: "FR", RouteCount: 3}
	if err := f.m.CacheSite(ctx, "alpha", site); err != nil {
		t.Fatalf("cache site: %v", err)
	}

	f.clock.Advance(6 * freshness.Day)
	got, err := f.m.GetCachedSite(ctx, "alpha", 1)
	if err != nil {
		t.Fatalf("get after 6 days: %v", err)
	}
	if got != site {
		t.Fatalf("site = %+v, want %+v", got, site)
	}

	f.clock.Advance(2 * freshness.Day)
	if _, err := f.m.GetCachedSite(ctx, "alpha", 1); !errors.Is(err, caching.ErrNoValidCache) {
		t.Fatalf("get after 8 days = %v, want ErrNoValidCache", err)
	}
	got, err = f.m.GetCachedSiteIgnoreExpiration(ctx, "alpha", 1)
	if err != nil {
		t.Fatalf("get ignoring expiration: %v", err)
	}
	if got != site {
		t.Fatalf("offline site = %+v, want %+v", got, site)
	}
}

func TestTTLBoundaryIsStale(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	if err := f.m.CacheSites(ctx, "alpha", []climbing.Site{{ID: 1}, {ID: 2}}); err != nil {
		t.Fatalf("cache sites: %v", err)
	}
	f.clock.Advance(freshness.Week - time.Millisecond)
	if _, err := f.m.GetCachedSites(ctx, "alpha"); err != nil {
		t.Fatalf("get just before ttl: %v", err)
	}
	f.clock.Advance(time.Millisecond)
	if _, err := f.m.GetCachedSites(ctx, "alpha"); !errors.Is(err, caching.ErrNoValidCache) {
		t.Fatalf("get at ttl = %v, want ErrNoValidCache", err)
	}
}

func TestNeverCached(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	if _, err := f.m.GetCachedSites(ctx, "alpha"); !errors.Is(err, caching.ErrNoValidCache) {
		t.Fatalf("get = %v, want ErrNoValidCache", err)
	}
	if _, err := f.m.GetCachedSitesIgnoreExpiration(ctx, "alpha"); !errors.Is(err, caching.ErrNeverCached) {
		t.Fatalf("get ignoring expiration = %v, want ErrNeverCached", err)
	}
	if _, err := f.m.GetCachedRouteIgnoreExpiration(ctx, "alpha", 4); !errors.Is(err, caching.ErrNeverCached) {
		t.Fatalf("route ignoring expiration = %v, want ErrNeverCached", err)
	}
}

func TestAreasAreScopedByBackend(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	if err := f.m.CacheAreasForSite(ctx, "alpha", 1, []climbing.Area{{ID: 1, SiteID: 1, Name: "Bas Cuvier"}}); err != nil {
		t.Fatalf("cache alpha: %v", err)
	}
	if err := f.m.CacheAreasForSite(ctx, "beta", 1, []climbing.Area{{ID: 1, SiteID: 1, Name: "Apremont"}}); err != nil {
		t.Fatalf("cache beta: %v", err)
	}

	got, err := f.m.GetCachedAreasBySite(ctx, "alpha", 1)
	if err != nil {
		t.Fatalf("get alpha: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Bas Cuvier" {
		t.Fatalf("alpha areas = %+v, want Bas Cuvier only", got)
	}
}

func TestParentIDIsForced(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	lines := []climbing.Line{{ID: 10, SectorID: 99, Name: "L1"}, {ID: 11, SectorID: 0, Name: "L2"}}
	if err := f.m.CacheLinesForSector(ctx, "alpha", 5, lines); err != nil {
		t.Fatalf("cache lines: %v", err)
	}
	got, err := f.m.GetCachedLinesBySector(ctx, "alpha", 5)
	if err != nil {
		t.Fatalf("get lines: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("lines = %d, want 2", len(got))
	}
	for _, l := range got {
		if l.SectorID != 5 {
			t.Fatalf("line %d sector = %d, want 5", l.ID, l.SectorID)
		}
	}
	if lines[0].SectorID != 99 {
		t.Fatal("caller's slice was modified")
	}
	if _, err := f.m.GetCachedLinesBySector(ctx, "alpha", 99); !errors.Is(err, caching.ErrNoValidCache) {
		t.Fatalf("payload sector = %v, want ErrNoValidCache", err)
	}
}

func TestCollectionKeepsRemoteOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	routes := []climbing.Route{{ID: 30, Name: "c"}, {ID: 10, Name: "a"}, {ID: 20, Name: "b"}}
	if err := f.m.CacheRoutesForSector(ctx, "alpha", 2, routes); err != nil {
		t.Fatalf("cache routes: %v", err)
	}
	got, err := f.m.GetCachedRoutesBySector(ctx, "alpha", 2)
	if err != nil {
		t.Fatalf("get routes: %v", err)
	}
	for i, want := range []int64{30, 10, 20} {
		if got[i].ID != want {
			t.Fatalf("route %d = %d, want %d", i, got[i].ID, want)
		}
	}
}

func TestRewriteDropsRoutesGoneUpstream(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	if err := f.m.CacheRoutesForSite(ctx, "alpha", 1, []climbing.Route{{ID: 1}, {ID: 2}}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	f.clock.Advance(4 * freshness.Day)
	if err := f.m.CacheRoutesForSite(ctx, "alpha", 1, []climbing.Route{{ID: 1}}); err != nil {
		t.Fatalf("second write: %v", err)
	}
	got, err := f.m.GetCachedRoutesBySite(ctx, "alpha", 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("routes = %+v, want route 1", got)
	}
}

func TestRouteScopesDoNotOverwriteEachOther(t *testing.T) {
	t.Parallel()

	t.Run("site write keeps line membership", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, Options{})
		ctx := context.Background()

		if err := f.m.CacheRoutesForLine(ctx, "alpha", 7, []climbing.Route{{ID: 10, SiteID: 1}}); err != nil {
			t.Fatalf("cache line routes: %v", err)
		}
		if err := f.m.CacheRoutesForSite(ctx, "alpha", 1, []climbing.Route{{ID: 10}}); err != nil {
			t.Fatalf("cache site routes: %v", err)
		}
		if err := f.m.CacheRoute(ctx, "alpha", climbing.Route{ID: 10, Name: "Dalle grise"}); err != nil {
			t.Fatalf("cache route: %v", err)
		}

		got, err := f.m.GetCachedRoutesByLine(ctx, "alpha", 7)
		if err != nil {
			t.Fatalf("get line routes: %v", err)
		}
		if len(got) != 1 || got[0].ID != 10 {
			t.Fatalf("line routes = %+v, want route 10", got)
		}
		if got[0].LineID != 7 || got[0].SiteID != 1 || got[0].Name != "Dalle grise" {
			t.Fatalf("route = %+v, want line 7, site 1 and the detail name", got[0])
		}
	})

	t.Run("line write keeps site membership", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, Options{})
		ctx := context.Background()

		if err := f.m.CacheRoutesForSite(ctx, "alpha", 1, []climbing.Route{{ID: 10}, {ID: 11}}); err != nil {
			t.Fatalf("cache site routes: %v", err)
		}
		if err := f.m.CacheRoutesForLine(ctx, "alpha", 8, []climbing.Route{{ID: 11}}); err != nil {
			t.Fatalf("cache line routes: %v", err)
		}

		got, err := f.m.GetCachedRoutesBySite(ctx, "alpha", 1)
		if err != nil {
			t.Fatalf("get site routes: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("site routes = %+v, want 2", got)
		}
		for _, r := range got {
			if r.SiteID != 1 {
				t.Fatalf("route %d site = %d, want 1", r.ID, r.SiteID)
			}
		}
	})

	t.Run("route leaving a line stays in its sector", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, Options{})
		ctx := context.Background()

		if err := f.m.CacheRoutesForSector(ctx, "alpha", 2, []climbing.Route{{ID: 10, LineID: 7}, {ID: 11, LineID: 7}}); err != nil {
			t.Fatalf("cache sector routes: %v", err)
		}
		if err := f.m.CacheRoutesForLine(ctx, "alpha", 7, []climbing.Route{{ID: 11}}); err != nil {
			t.Fatalf("cache line routes: %v", err)
		}

		line, err := f.m.GetCachedRoutesByLine(ctx, "alpha", 7)
		if err != nil {
			t.Fatalf("get line routes: %v", err)
		}
		if len(line) != 1 || line[0].ID != 11 {
			t.Fatalf("line routes = %+v, want route 11", line)
		}
		sector, err := f.m.GetCachedRoutesBySector(ctx, "alpha", 2)
		if err != nil {
			t.Fatalf("get sector routes: %v", err)
		}
		if len(sector) != 2 {
			t.Fatalf("sector routes = %+v, want 2", sector)
		}
	})
}

func TestLineRoutesDistinguishEmptyFromNeverFetched(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	if _, err := f.m.GetCachedRoutesByLine(ctx, "alpha", 7); !errors.Is(err, caching.ErrNoValidCache) {
		t.Fatalf("unfetched = %v, want ErrNoValidCache", err)
	}
	if _, err := f.m.GetCachedRoutesByLineIgnoreExpiration(ctx, "alpha", 7); !errors.Is(err, caching.ErrNeverCached) {
		t.Fatalf("unfetched offline = %v, want ErrNeverCached", err)
	}

	if err := f.m.CacheRoutesForLine(ctx, "alpha", 7, nil); err != nil {
		t.Fatalf("cache empty: %v", err)
	}
	got, err := f.m.GetCachedRoutesByLine(ctx, "alpha", 7)
	if err != nil {
		t.Fatalf("fetched empty = %v, want hit", err)
	}
	if len(got) != 0 {
		t.Fatalf("routes = %+v, want none", got)
	}
	if _, err := f.m.GetCachedRoutesByLineIgnoreExpiration(ctx, "alpha", 7); err != nil {
		t.Fatalf("fetched empty offline = %v, want hit", err)
	}
	if _, err := f.m.GetCachedRoutesByLine(ctx, "beta", 7); !errors.Is(err, caching.ErrNoValidCache) {
		t.Fatalf("other backend = %v, want ErrNoValidCache", err)
	}

	f.clock.Advance(freshness.Week)
	if _, err := f.m.GetCachedRoutesByLine(ctx, "alpha", 7); !errors.Is(err, caching.ErrNoValidCache) {
		t.Fatalf("expired sentinel = %v, want ErrNoValidCache", err)
	}
}

func TestUntrackedEmptyCollectionIsMiss(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	if err := f.m.CacheRoutesForSite(ctx, "alpha", 1, nil); err != nil {
		t.Fatalf("cache empty: %v", err)
	}
	if _, err := f.m.GetCachedRoutesBySite(ctx, "alpha", 1); !errors.Is(err, caching.ErrNoValidCache) {
		t.Fatalf("get = %v, want ErrNoValidCache", err)
	}
}

func TestUndecodableRows(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	if err := f.m.CacheSites(ctx, "alpha", []climbing.Site{{ID: 1, Name: "ok"}}); err != nil {
		t.Fatalf("cache sites: %v", err)
	}
	bad := store.EntityRow{
		Key:      store.EntityKey{ID: 2, BackendID: "alpha"},
		Payload:  []byte("{broken"),
		CachedAt: f.clock.Now().UnixMilli(),
	}
	if err := f.store.Upsert(ctx, store.TableSites, bad); err != nil {
		t.Fatalf("insert bad row: %v", err)
	}

	got, err := f.m.GetCachedSites(ctx, "alpha")
	if err != nil {
		t.Fatalf("get with one bad row: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("sites = %+v, want site 1", got)
	}

	bad.Key.BackendID = "beta"
	if err := f.store.Upsert(ctx, store.TableSites, bad); err != nil {
		t.Fatalf("insert bad beta row: %v", err)
	}
	if _, err := f.m.GetCachedSites(ctx, "beta"); !errors.Is(err, caching.ErrUndecodable) {
		t.Fatalf("all bad = %v, want ErrUndecodable", err)
	}
}

func TestSchemaPreviewNotCached(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	schema := climbing.SectorSchema{ID: 1, Name: "Main", BackgroundURL: "https://alpha.example/bg.jpg", Preview: []byte{1}}
	if err := f.m.CacheSchemasForSector(ctx, "alpha", 3, []climbing.SectorSchema{schema}); err != nil {
		t.Fatalf("cache schemas: %v", err)
	}
	got, err := f.m.GetCachedSchemasBySector(ctx, "alpha", 3)
	if err != nil {
		t.Fatalf("get schemas: %v", err)
	}
	if got[0].Preview != nil || got[0].SectorID != 3 {
		t.Fatalf("schema = %+v, want sector 3 without preview", got[0])
	}
}

func TestContestStepsFollowContest(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	contest := climbing.Contest{
		ID:     4,
		SiteID: 1,
		Name:   "Summer cup",
		Steps:  []climbing.ContestStep{{ID: 1, Name: "Qualifiers"}, {ID: 2, Name: "Final"}},
	}
	if err := f.m.CacheContest(ctx, "alpha", contest); err != nil {
		t.Fatalf("cache contest: %v", err)
	}
	if err := f.m.CacheContestsForSite(ctx, "alpha", 1, []climbing.Contest{{ID: 4, Name: "Summer cup"}}); err != nil {
		t.Fatalf("cache listing: %v", err)
	}

	got, err := f.m.GetCachedContest(ctx, "alpha", 4)
	if err != nil {
		t.Fatalf("get contest: %v", err)
	}
	if len(got.Steps) != 2 || got.Steps[1].Name != "Final" || got.Steps[0].ContestID != 4 {
		t.Fatalf("steps = %+v, want both steps of contest 4", got.Steps)
	}

	steps, err := f.m.GetCachedContestSteps(ctx, "alpha", 4)
	if err != nil || len(steps) != 2 {
		t.Fatalf("steps = %+v, %v; want 2 steps", steps, err)
	}

	contest.Steps = contest.Steps[:1]
	if err := f.m.CacheContest(ctx, "alpha", contest); err != nil {
		t.Fatalf("recache contest: %v", err)
	}
	got, err = f.m.GetCachedContest(ctx, "alpha", 4)
	if err != nil {
		t.Fatalf("get contest: %v", err)
	}
	if len(got.Steps) != 1 {
		t.Fatalf("steps = %+v, want 1", got.Steps)
	}
}

func TestRankingsExpireHourly(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	if err := f.m.CacheContestRankings(ctx, "alpha", 4, []climbing.ContestRanking{{ID: 1, Rank: 1, ClimberName: "Ada"}}); err != nil {
		t.Fatalf("cache rankings: %v", err)
	}
	f.clock.Advance(59 * time.Minute)
	if _, err := f.m.GetCachedContestRankings(ctx, "alpha", 4); err != nil {
		t.Fatalf("get after 59m: %v", err)
	}
	f.clock.Advance(time.Minute)
	if _, err := f.m.GetCachedContestRankings(ctx, "alpha", 4); !errors.Is(err, caching.ErrNoValidCache) {
		t.Fatalf("get after 1h = %v, want ErrNoValidCache", err)
	}
}

func TestPendingLogLifecycle(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	pending, err := f.m.AddPendingLog(ctx, "alpha", 11, climbing.Log{Style: "flash", Attempts: 1, ClimbedAt: f.clock.Now()})
	if err != nil {
		t.Fatalf("add pending: %v", err)
	}
	if pending.ClientRef == "" || pending.Log.RouteID != 11 {
		t.Fatalf("pending = %+v", pending)
	}

	list, err := f.m.PendingLogs(ctx, "alpha")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(list) != 1 || list[0].ClientRef != pending.ClientRef {
		t.Fatalf("pending logs = %+v, want %s", list, pending.ClientRef)
	}

	accepted := pending.Log
	accepted.ID = 55
	if err := f.m.ConfirmPendingLog(ctx, pending, accepted); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if list, _ := f.m.PendingLogs(ctx, "alpha"); len(list) != 0 {
		t.Fatalf("pending logs after confirm = %+v, want none", list)
	}
	logs, err := f.m.GetCachedLogsByRouteIgnoreExpiration(ctx, "alpha", 11)
	if err != nil {
		t.Fatalf("cached logs: %v", err)
	}
	if len(logs) != 1 || logs[0].ID != 55 {
		t.Fatalf("logs = %+v, want log 55", logs)
	}
	if err := f.m.ConfirmPendingLog(ctx, pending, accepted); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second confirm = %v, want ErrNotFound", err)
	}
}

func TestAssetFreshnessUsesPersistentTimestamp(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{Assets: assets.NewMemoryTier(8, time.Hour*24*365, nil)})
	ctx := context.Background()
	url := "https://alpha.example/bg/1.jpg"

	if _, err := f.m.CacheSchemaBackground(ctx, url, []byte("jpeg"), "image/jpeg"); err != nil {
		t.Fatalf("cache background: %v", err)
	}
	f.clock.Advance(13 * freshness.Day)
	got, err := f.m.GetCachedSchemaBackground(ctx, url)
	if err != nil {
		t.Fatalf("get after 13 days: %v", err)
	}
	if string(got.Content) != "jpeg" {
		t.Fatalf("content = %q", got.Content)
	}

	f.clock.Advance(2 * freshness.Day)
	if _, err := f.m.GetCachedSchemaBackground(ctx, url); !errors.Is(err, caching.ErrNoValidCache) {
		t.Fatalf("get after 15 days = %v, want ErrNoValidCache", err)
	}
	if _, err := f.m.GetCachedSchemaBackgroundIgnoreExpiration(ctx, url); err != nil {
		t.Fatalf("offline background: %v", err)
	}
	if _, err := f.m.GetCachedSVGMap(ctx, url); !errors.Is(err, caching.ErrNoValidCache) {
		t.Fatalf("svg under background url = %v, want ErrNoValidCache", err)
	}
}

func TestClearScope(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	fills := []struct {
		table string
		fill  func(backend string) error
	}{
		{"sites", func(b string) error { return f.m.CacheSites(ctx, b, []climbing.Site{{ID: 1}}) }},
		{"areas", func(b string) error { return f.m.CacheAreasForSite(ctx, b, 1, []climbing.Area{{ID: 2}}) }},
		{"sectors", func(b string) error { return f.m.CacheSectorsForArea(ctx, b, 2, []climbing.Sector{{ID: 3}}) }},
		{"lines", func(b string) error { return f.m.CacheLinesForSector(ctx, b, 3, []climbing.Line{{ID: 4}}) }},
		{"sector_schemas", func(b string) error {
			return f.m.CacheSchemasForSector(ctx, b, 3, []climbing.SectorSchema{{ID: 5}})
		}},
		{"routes", func(b string) error { return f.m.CacheRoutesForLine(ctx, b, 4, []climbing.Route{{ID: 6}}) }},
		{"contests", func(b string) error {
			return f.m.CacheContestsForSite(ctx, b, 1, []climbing.Contest{{ID: 7}})
		}},
		{"contest_steps", func(b string) error {
			return f.m.CacheContestSteps(ctx, b, 7, []climbing.ContestStep{{ID: 8}})
		}},
		{"contest_rankings", func(b string) error {
			return f.m.CacheContestRankings(ctx, b, 7, []climbing.ContestRanking{{ID: 9}})
		}},
		{"logs", func(b string) error { return f.m.CacheLogsForRoute(ctx, b, 6, []climbing.Log{{ID: 10}}) }},
	}
	for _, backend := range []string{"alpha", "beta"} {
		for _, tc := range fills {
			if err := tc.fill(backend); err != nil {
				t.Fatalf("fill %s for %s: %v", tc.table, backend, err)
			}
		}
	}
	if _, err := f.m.CacheSVGMap(ctx, "https://alpha.example/map.svg", []byte("<svg/>"), "image/svg+xml"); err != nil {
		t.Fatalf("cache svg: %v", err)
	}
	if _, err := f.m.AddPendingLog(ctx, "alpha", 3, climbing.Log{}); err != nil {
		t.Fatalf("add pending: %v", err)
	}

	if err := f.m.ClearScope(ctx, "alpha"); err != nil {
		t.Fatalf("clear alpha: %v", err)
	}

	status, err := f.m.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	rows := map[string]map[string]int{}
	for _, c := range status.Tables {
		if rows[c.BackendID] == nil {
			rows[c.BackendID] = map[string]int{}
		}
		rows[c.BackendID][c.Table] = c.Rows
	}
	if len(rows["alpha"]) != 0 {
		t.Fatalf("alpha rows after clear = %v, want none", rows["alpha"])
	}
	for _, tc := range fills {
		if got := rows["beta"][tc.table]; got != 1 {
			t.Errorf("beta %s rows = %d, want 1", tc.table, got)
		}
	}
	if rows["beta"]["fetch_sentinels"] == 0 {
		t.Error("beta sentinels were cleared")
	}

	if _, err := f.m.GetCachedRoutesByLineIgnoreExpiration(ctx, "alpha", 4); !errors.Is(err, caching.ErrNeverCached) {
		t.Fatalf("alpha line routes = %v, want ErrNeverCached", err)
	}
	if _, err := f.m.GetCachedRoutesByLine(ctx, "beta", 4); err != nil {
		t.Fatalf("beta line routes: %v", err)
	}
	if _, err := f.m.GetCachedSVGMap(ctx, "https://alpha.example/map.svg"); err != nil {
		t.Fatalf("svg after scope clear: %v", err)
	}
	if list, _ := f.m.PendingLogs(ctx, "alpha"); len(list) != 1 {
		t.Fatalf("pending logs after clear = %d, want 1", len(list))
	}
	if err := f.m.ClearScope(ctx, "gamma"); err != nil {
		t.Fatalf("clear unknown backend: %v", err)
	}
}

func TestClearAll(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{Assets: assets.NewMemoryTier(8, time.Hour, nil)})
	ctx := context.Background()

	if err := f.m.CacheSites(ctx, "alpha", []climbing.Site{{ID: 1}}); err != nil {
		t.Fatalf("cache sites: %v", err)
	}
	if err := f.m.CacheLogsForRoute(ctx, "beta", 2, []climbing.Log{{ID: 1}}); err != nil {
		t.Fatalf("cache logs: %v", err)
	}
	if _, err := f.m.CacheSVGMap(ctx, "https://alpha.example/map.svg", []byte("<svg/>"), "image/svg+xml"); err != nil {
		t.Fatalf("cache svg: %v", err)
	}

	if err := f.m.ClearAll(ctx); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	status, err := f.m.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(status.Tables) != 0 {
		t.Fatalf("tables after clear = %+v, want none", status.Tables)
	}
	if status.Assets["svg_maps"] != 0 || status.MemoryAssets != 0 {
		t.Fatalf("assets after clear = %+v, memory %d", status.Assets, status.MemoryAssets)
	}
	if _, err := f.m.GetCachedSVGMapIgnoreExpiration(ctx, "https://alpha.example/map.svg"); !errors.Is(err, caching.ErrNeverCached) {
		t.Fatalf("svg after clear = %v, want ErrNeverCached", err)
	}
}

func TestWritesPublishEvents(t *testing.T) {
	t.Parallel()
	events := messaging.NewEventBroadcaster(nil, 4)
	f := newFixture(t, Options{Events: events})
	ctx := context.Background()

	sub := events.Subscribe("alpha")
	defer events.Unsubscribe(sub)

	if err := f.m.CacheAreasForSite(ctx, "alpha", 1, []climbing.Area{{ID: 1}, {ID: 2}}); err != nil {
		t.Fatalf("cache areas: %v", err)
	}
	if err := f.m.CacheAreasForSite(ctx, "beta", 1, []climbing.Area{{ID: 1}}); err != nil {
		t.Fatalf("cache beta areas: %v", err)
	}

	select {
	case ev := <-sub.C:
		if ev.Type != messaging.EventWrite || ev.Category != string(freshness.CategorySiteAreas) || ev.Rows != 2 || ev.ParentID != 1 {
			t.Fatalf("event = %+v", ev)
		}
	default:
		t.Fatal("no event published")
	}
	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected event for other backend: %+v", ev)
	default:
	}
}

func TestMarkFetched(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()
	key := store.ScopeKey{Kind: store.KindRouteLogs, ParentID: 9}

	if err := f.m.MarkFetched(ctx, key, "alpha"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	at, ok, err := f.m.WasFetched(ctx, key, "alpha")
	if err != nil || !ok {
		t.Fatalf("was fetched = %v, %v", ok, err)
	}
	if !at.Equal(f.clock.Now()) {
		t.Fatalf("fetched at = %v, want %v", at, f.clock.Now())
	}
	logs, err := f.m.GetCachedLogsByRoute(ctx, "alpha", 9)
	if err != nil || len(logs) != 0 {
		t.Fatalf("logs = %+v, %v; want empty hit", logs, err)
	}
}

func TestCachedBackends(t *testing.T) {
	t.Parallel()
	f := newFixture(t, Options{})
	ctx := context.Background()

	if err := f.m.CacheSites(ctx, "beta", []climbing.Site{{ID: 1}}); err != nil {
		t.Fatalf("cache sites: %v", err)
	}
	if err := f.m.CacheRoutesForLine(ctx, "alpha", 3, nil); err != nil {
		t.Fatalf("cache line routes: %v", err)
	}

	got, err := f.m.CachedBackends(ctx)
	if err != nil {
		t.Fatalf("cached backends: %v", err)
	}
	if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Fatalf("backends = %v, want [alpha beta]", got)
	}
}
