package store

import (
	"context"
	"errors"
	"testing"
)

func TestAssets(t *testing.T) {
	t.Parallel()

	s := openTempStore(t)
	ctx := context.Background()
	url := "https://alpha.example/maps/site-1.svg"

	if _, err := s.GetAsset(ctx, AssetSVGMaps, url); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing asset = %v, want ErrNotFound", err)
	}

	asset := AssetRow{URL: url, Content: []byte("<svg/>"), ContentType: "image/svg+xml", CachedAt: 100}
	if err := s.UpsertAsset(ctx, AssetSVGMaps, asset); err != nil {
		t.Fatalf("upsert asset: %v", err)
	}
	got, err := s.GetAsset(ctx, AssetSVGMaps, url)
	if err != nil {
		t.Fatalf("get asset: %v", err)
	}
	if string(got.Content) != "<svg/>" || got.ContentType != "image/svg+xml" || got.CachedAt != 100 {
		t.Fatalf("asset = %+v", got)
	}

	if _, err := s.GetAsset(ctx, AssetSchemaBackgrounds, url); !errors.Is(err, ErrNotFound) {
		t.Fatalf("asset leaked across tables: %v", err)
	}

	n, err := s.CountAssets(ctx, AssetSVGMaps)
	if err != nil || n != 1 {
		t.Fatalf("count = %d (err %v), want 1", n, err)
	}

	if err := s.DeleteAssets(ctx, AssetSVGMaps); err != nil {
		t.Fatalf("delete assets: %v", err)
	}
	if _, err := s.GetAsset(ctx, AssetSVGMaps, url); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get deleted asset = %v, want ErrNotFound", err)
	}

	if err := s.UpsertAsset(ctx, AssetTable("users"), asset); err == nil {
		t.Fatal("expected error for unknown asset table")
	}
}
