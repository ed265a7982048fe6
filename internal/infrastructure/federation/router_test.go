package federation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cragnet/cragcache/internal/domain/repositories"
)

func newTestRegistry(t *testing.T, backends ...Backend) *Registry {
	t.Helper()
	r, err := LoadRegistry(filepath.Join(t.TempDir(), "backends.yaml"))
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	for _, b := range backends {
		if _, err := r.Upsert(b); err != nil {
			t.Fatalf("upsert %s: %v", b.ID, err)
		}
	}
	return r
}

func countingFactory(builds *atomic.Int32, delay time.Duration) ClientFactory {
	return func(b Backend) (repositories.RemoteClient, error) {
		builds.Add(1)
		time.Sleep(delay)
		return NewHTTPClient(b, HTTPOptions{}), nil
	}
}

func TestRouterMemoizesClients(t *testing.T) {
	t.Parallel()

	var builds atomic.Int32
	registry := newTestRegistry(t,
		Backend{ID: "alpha", BaseURL: "https://alpha.example", Enabled: true},
		Backend{ID: "beta", BaseURL: "https://beta.example", Enabled: true},
	)
	router := NewRouter(registry, countingFactory(&builds, 0), nil)
	ctx := context.Background()

	a1, err := router.Client(ctx, "alpha")
	if err != nil {
		t.Fatalf("client alpha: %v", err)
	}
	a2, err := router.Client(ctx, "alpha")
	if err != nil {
		t.Fatalf("client alpha again: %v", err)
	}
	if a1 != a2 {
		t.Fatal("expected the memoized client")
	}
	b, err := router.Client(ctx, "beta")
	if err != nil {
		t.Fatalf("client beta: %v", err)
	}
	if b.BackendID() != "beta" {
		t.Fatalf("backend id = %s, want beta", b.BackendID())
	}
	if got := builds.Load(); got != 2 {
		t.Fatalf("builds = %d, want 2", got)
	}
}

func TestRouterCollapsesConcurrentBuilds(t *testing.T) {
	t.Parallel()

	var builds atomic.Int32
	registry := newTestRegistry(t, Backend{ID: "alpha", BaseURL: "https://alpha.example", Enabled: true})
	router := NewRouter(registry, countingFactory(&builds, 20*time.Millisecond), nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := router.Client(context.Background(), "alpha"); err != nil {
				t.Errorf("client: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := builds.Load(); got != 1 {
		t.Fatalf("builds = %d, want 1", got)
	}
}

func TestRouterEviction(t *testing.T) {
	t.Parallel()

	var builds atomic.Int32
	registry := newTestRegistry(t,
		Backend{ID: "alpha", BaseURL: "https://alpha.example", Enabled: true},
		Backend{ID: "beta", BaseURL: "https://beta.example", Enabled: true},
	)
	router := NewRouter(registry, countingFactory(&builds, 0), nil)
	ctx := context.Background()

	first, _ := router.Client(ctx, "alpha")
	_, _ = router.Client(ctx, "beta")

	router.RemoveBackend("alpha")
	if got := router.Len(); got != 1 {
		t.Fatalf("clients after remove = %d, want 1", got)
	}
	second, err := router.Client(ctx, "alpha")
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if first == second {
		t.Fatal("expected a fresh client after eviction")
	}

	router.ClearCache()
	if got := router.Len(); got != 0 {
		t.Fatalf("clients after clear = %d, want 0", got)
	}
	if got := builds.Load(); got != 3 {
		t.Fatalf("builds = %d, want 3", got)
	}
}

func TestRouterRejectsUnknownAndDisabled(t *testing.T) {
	t.Parallel()

	var builds atomic.Int32
	registry := newTestRegistry(t, Backend{ID: "off", BaseURL: "https://off.example"})
	router := NewRouter(registry, countingFactory(&builds, 0), nil)
	ctx := context.Background()

	if _, err := router.Client(ctx, "missing"); !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("unknown = %v, want ErrUnknownBackend", err)
	}
	if _, err := router.Client(ctx, "off"); !errors.Is(err, ErrBackendDisabled) {
		t.Fatalf("disabled = %v, want ErrBackendDisabled", err)
	}
	if got := builds.Load(); got != 0 {
		t.Fatalf("builds = %d, want 0", got)
	}
}
