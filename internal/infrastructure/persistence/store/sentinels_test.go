package store

import (
	"context"
	"testing"
	"time"
)

func TestSentinelLifecycle(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	ctx := context.Background()
	key := ScopeKey{Kind: KindLineRoutes, ParentID: 5}

	if _, ok, err := s.WasFetched(ctx, key, "alpha"); err != nil || ok {
		t.Fatalf("fresh store sentinel = %v (err %v), want absent", ok, err)
	}

	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := s.RecordFetched(ctx, key, "alpha", first); err != nil {
		t.Fatalf("record: %v", err)
	}
	second := first.Add(time.Hour)
	if err := s.RecordFetched(ctx, key, "alpha", second); err != nil {
		t.Fatalf("record again: %v", err)
	}

	got, ok, err := s.WasFetched(ctx, key, "alpha")
	if err != nil || !ok {
		t.Fatalf("was fetched = %v (err %v), want present", ok, err)
	}
	if !got.Equal(second) {
		t.Fatalf("fetched at = %v, want %v", got, second)
	}

	if _, ok, _ := s.WasFetched(ctx, key, "beta"); ok {
		t.Fatal("sentinel leaked to another backend")
	}
	if _, ok, _ := s.WasFetched(ctx, ScopeKey{Kind: KindRouteLogs, ParentID: 5}, "alpha"); ok {
		t.Fatal("sentinel leaked to another kind")
	}
}

func TestDeleteSentinels(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	ctx := context.Background()
	key := ScopeKey{Kind: KindSiteContests, ParentID: 1}
	now := time.Now()

	for _, backend := range []string{"alpha", "beta"} {
		if err := s.RecordFetched(ctx, key, backend, now); err != nil {
			t.Fatalf("record %s: %v", backend, err)
		}
	}

	if err := s.DeleteSentinels(ctx, "alpha"); err != nil {
		t.Fatalf("delete sentinels: %v", err)
	}
	if _, ok, _ := s.WasFetched(ctx, key, "alpha"); ok {
		t.Fatal("alpha sentinel survived scoped delete")
	}
	if _, ok, _ := s.WasFetched(ctx, key, "beta"); !ok {
		t.Fatal("beta sentinel removed by alpha delete")
	}

	if err := s.DeleteAllSentinels(ctx); err != nil {
		t.Fatalf("delete all sentinels: %v", err)
	}
	if _, ok, _ := s.WasFetched(ctx, key, "beta"); ok {
		t.Fatal("beta sentinel survived delete all")
	}
}

func TestRecordFetchedValidates(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	ctx := context.Background()
	if err := s.RecordFetched(ctx, ScopeKey{ParentID: 1}, "alpha", time.Now()); err == nil {
		t.Fatal("expected error for empty kind")
	}
	if err := s.RecordFetched(ctx, ScopeKey{Kind: KindLineRoutes, ParentID: 1}, " ", time.Now()); err == nil {
		t.Fatal("expected error for empty backend")
	}
}
