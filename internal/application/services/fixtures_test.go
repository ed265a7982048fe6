package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/freshness"
	"github.com/cragnet/cragcache/internal/domain/repositories"
	"github.com/cragnet/cragcache/internal/infrastructure/caching/manager"
	"github.com/cragnet/cragcache/internal/infrastructure/media"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/store"
)

var errOffline = errors.New("dial tcp: network is unreachable")

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

// fakeRemote serves canned data. Methods not overridden panic through the
// nil embedded interface.
type fakeRemote struct {
	repositories.RemoteClient

	mu      sync.Mutex
	offline bool
	calls   map[string]int

	sites      []climbing.Site
	areas      map[int64][]climbing.Area
	lineRoutes map[int64][]climbing.Route
	schemas    map[int64][]climbing.SectorSchema
	assets     map[string][]byte
	rejectLogs map[int64]bool
	nextLogID  int64
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		calls:      map[string]int{},
		areas:      map[int64][]climbing.Area{},
		lineRoutes: map[int64][]climbing.Route{},
		schemas:    map[int64][]climbing.SectorSchema{},
		assets:     map[string][]byte{},
		rejectLogs: map[int64]bool{},
		nextLogID:  100,
	}
}

func (f *fakeRemote) call(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	if f.offline {
		return errOffline
	}
	return nil
}

func (f *fakeRemote) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRemote) SetOffline(offline bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = offline
}

func (f *fakeRemote) BackendID() string { return "alpha" }

func (f *fakeRemote) FetchSites(ctx context.Context) ([]climbing.Site, error) {
	if err := f.call("sites"); err != nil {
		return nil, err
	}
	return f.sites, nil
}

func (f *fakeRemote) FetchAreasBySite(ctx context.Context, siteID int64) ([]climbing.Area, error) {
	if err := f.call("areas"); err != nil {
		return nil, err
	}
	return f.areas[siteID], nil
}

func (f *fakeRemote) FetchRoutesByLine(ctx context.Context, lineID int64) ([]climbing.Route, error) {
	if err := f.call("line_routes"); err != nil {
		return nil, err
	}
	return f.lineRoutes[lineID], nil
}

func (f *fakeRemote) FetchSchemasBySector(ctx context.Context, sectorID int64) ([]climbing.SectorSchema, error) {
	if err := f.call("schemas"); err != nil {
		return nil, err
	}
	return f.schemas[sectorID], nil
}

func (f *fakeRemote) FetchAsset(ctx context.Context, url string) ([]byte, string, error) {
	if err := f.call("asset"); err != nil {
		return nil, "", err
	}
	content, ok := f.assets[url]
	if !ok {
		return nil, "", repositories.ErrRemoteNotFound
	}
	return content, "image/png", nil
}

func (f *fakeRemote) PostLog(ctx context.Context, routeID int64, log climbing.Log, clientRef string) (climbing.Log, error) {
	if err := f.call("post_log"); err != nil {
		return climbing.Log{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rejectLogs[routeID] {
		return climbing.Log{}, errors.New("backend rejected log")
	}
	f.nextLogID++
	log.ID = f.nextLogID
	log.RouteID = routeID
	return log, nil
}

type fakeProvider struct {
	remote *fakeRemote
	err    error
}

func (p fakeProvider) Client(ctx context.Context, backendID string) (repositories.RemoteClient, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.remote, nil
}

type toggle bool

func (t toggle) CacheEnabled() bool { return bool(t) }

type fixture struct {
	browse  *BrowseService
	cache   *manager.Manager
	remote  *fakeRemote
	clock   *fakeClock
	logbook *LogbookService
}

func newFixture(t *testing.T, enabled bool) fixture {
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
	cache := manager.NewManager(s, manager.Options{Evaluator: freshness.NewEvaluator(nil, clock.Now)})
	remote := newFakeRemote()
	provider := fakeProvider{remote: remote}

	return fixture{
		browse:  NewBrowseService(cache, provider, toggle(enabled), media.NewPreviewRenderer(64), nil),
		cache:   cache,
		remote:  remote,
		clock:   clock,
		logbook: NewLogbookService(cache, provider, nil),
	}
}
