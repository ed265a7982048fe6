package cleanup

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
)

type fakeCache struct {
	mu      sync.Mutex
	cached  []string
	cleared []string
	failOn  string
}

func (f *fakeCache) CachedBackends(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cached...), nil
}

func (f *fakeCache) ClearScope(_ context.Context, backendID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if backendID == f.failOn {
		return errors.New("disk full")
	}
	f.cleared = append(f.cleared, backendID)
	return nil
}

type staticBackends []string

func (b staticBackends) IDs() []string { return b }

func TestRunOnceClearsRemovedBackends(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{cached: []string{"alpha", "beta", "gamma"}}
	w := NewWorker(cache, staticBackends{"alpha", "delta"}, 0, nil)

	cleared, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{"beta", "gamma"}
	if !reflect.DeepEqual(cleared, want) {
		t.Fatalf("cleared = %v, want %v", cleared, want)
	}
	if !reflect.DeepEqual(cache.cleared, want) {
		t.Fatalf("cache cleared = %v, want %v", cache.cleared, want)
	}
}

func TestRunOnceStopsOnError(t *testing.T) {
	t.Parallel()

	cache := &fakeCache{cached: []string{"beta", "gamma"}, failOn: "beta"}
	w := NewWorker(cache, staticBackends{}, 0, nil)

	cleared, err := w.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(cleared) != 0 {
		t.Fatalf("cleared = %v, want none", cleared)
	}
}

func TestStartReturnsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewWorker(&fakeCache{}, staticBackends{}, 0, nil).Start(ctx)
		close(done)
	}()
	cancel()
	<-done
}
