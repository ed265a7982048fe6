package assets

import (
	"testing"
	"time"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
)

func TestMemoryTierGetSet(t *testing.T) {
	t.Parallel()

	tier := NewMemoryTier(2, time.Minute, nil)
	asset := climbing.Asset{URL: "https://alpha.example/a.svg", Content: []byte("<svg/>")}
	tier.Set("svg_maps", asset)

	got, ok := tier.Get("svg_maps", asset.URL)
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got.Content) != "<svg/>" {
		t.Fatalf("content = %s, want <svg/>", got.Content)
	}
	if _, ok := tier.Get("schema_backgrounds", asset.URL); ok {
		t.Fatal("asset leaked across tables")
	}
}

func TestMemoryTierEvictsLeastRecent(t *testing.T) {
	t.Parallel()

	tier := NewMemoryTier(2, time.Minute, nil)
	for _, u := range []string{"a", "b", "c"} {
		tier.Set("svg_maps", climbing.Asset{URL: u})
	}
	if tier.Len() != 2 {
		t.Fatalf("len = %d, want 2", tier.Len())
	}
	if _, ok := tier.Get("svg_maps", "a"); ok {
		t.Fatal("oldest entry was not evicted")
	}

	tier.Purge()
	if tier.Len() != 0 {
		t.Fatalf("len after purge = %d, want 0", tier.Len())
	}
}

func TestDisabledMemoryTier(t *testing.T) {
	t.Parallel()

	tier := NewMemoryTier(0, time.Minute, nil)
	tier.Set("svg_maps", climbing.Asset{URL: "a"})
	if _, ok := tier.Get("svg_maps", "a"); ok {
		t.Fatal("disabled tier returned a hit")
	}
}
