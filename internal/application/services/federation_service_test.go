package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/repositories"
	"github.com/cragnet/cragcache/internal/infrastructure/caching"
	"github.com/cragnet/cragcache/internal/infrastructure/federation"
)

func newFederation(t *testing.T, f fixture) (*FederationService, *federation.Registry, *federation.Router) {
	t.Helper()
	registry, err := federation.LoadRegistry(filepath.Join(t.TempDir(), "backends.yaml"))
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	router := federation.NewRouter(registry, func(federation.Backend) (repositories.RemoteClient, error) {
		return f.remote, nil
	}, nil)
	return NewFederationService(registry, router, f.cache, nil), registry, router
}

func TestFederationUpsertKeepsToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	svc, registry, _ := newFederation(t, f)

	created, err := svc.Upsert(federation.Backend{ID: "alpha", BaseURL: "https://alpha.example", AuthToken: "s3cret", Enabled: true})
	if err != nil || !created {
		t.Fatalf("create = %v, %v", created, err)
	}
	created, err = svc.Upsert(federation.Backend{ID: "alpha", Name: "Alpha", BaseURL: "https://alpha.example", Enabled: true})
	if err != nil || created {
		t.Fatalf("update = %v, %v", created, err)
	}

	reloaded, err := federation.LoadRegistry(registry.Path())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	b, err := reloaded.Get("alpha")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b.AuthToken != "s3cret" || b.Name != "Alpha" {
		t.Fatalf("backend = %+v", b)
	}
}

func TestFederationUpsertEvictsClient(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	svc, _, router := newFederation(t, f)
	ctx := context.Background()

	if _, err := svc.Upsert(federation.Backend{ID: "alpha", BaseURL: "https://alpha.example", Enabled: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := router.Client(ctx, "alpha"); err != nil {
		t.Fatalf("client: %v", err)
	}
	if router.Len() != 1 {
		t.Fatalf("clients = %d, want 1", router.Len())
	}
	if _, err := svc.Upsert(federation.Backend{ID: "alpha", BaseURL: "https://alpha2.example", Enabled: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if router.Len() != 0 {
		t.Fatalf("clients after edit = %d, want 0", router.Len())
	}
}

func TestFederationRemoveClearsCache(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	svc, _, _ := newFederation(t, f)
	ctx := context.Background()

	if _, err := svc.Upsert(federation.Backend{ID: "alpha", BaseURL: "https://alpha.example", Enabled: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := f.cache.CacheSites(ctx, "alpha", []climbing.Site{{ID: 1}}); err != nil {
		t.Fatalf("cache sites: %v", err)
	}
	if err := svc.Remove(ctx, "alpha"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := f.cache.GetCachedSitesIgnoreExpiration(ctx, "alpha"); !errors.Is(err, caching.ErrNeverCached) {
		t.Fatalf("sites after remove = %v, want ErrNeverCached", err)
	}
	if err := svc.Remove(ctx, "alpha"); !errors.Is(err, federation.ErrUnknownBackend) {
		t.Fatalf("second remove = %v, want ErrUnknownBackend", err)
	}
}

func TestWarmBackend(t *testing.T) {
	t.Parallel()
	f := newFixture(t, true)
	svc, registry, _ := newFederation(t, f)
	ctx := context.Background()
	if _, err := svc.Upsert(federation.Backend{ID: "alpha", BaseURL: "https://alpha.example", Enabled: true}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	f.remote.sites = []climbing.Site{{ID: 1}, {ID: 2}}
	f.remote.areas[1] = []climbing.Area{{ID: 10, SiteID: 1}, {ID: 11, SiteID: 1}}
	f.remote.areas[2] = []climbing.Area{{ID: 20, SiteID: 2}}

	reports, err := NewWarmingService(f.browse, registry, 2, nil).WarmAllBackends(ctx)
	if err != nil {
		t.Fatalf("warm: %v", err)
	}
	if len(reports) != 1 || reports[0].Sites != 2 || reports[0].Areas != 3 || !reports[0].Fresh {
		t.Fatalf("reports = %+v", reports)
	}
	if _, err := f.cache.GetCachedAreasBySite(ctx, "alpha", 2); err != nil {
		t.Fatalf("areas not warmed: %v", err)
	}
}
