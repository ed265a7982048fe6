package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// AssetTable names a URL-keyed raw asset table.
type AssetTable string

const (
	AssetSVGMaps           AssetTable = "svg_maps"
	AssetSchemaBackgrounds AssetTable = "schema_backgrounds"
)

func (t AssetTable) validate() error {
	switch t {
	case AssetSVGMaps, AssetSchemaBackgrounds:
		return nil
	}
	return fmt.Errorf("unknown asset table %q", string(t))
}

// AssetRow is one cached raw asset.
type AssetRow struct {
	URL         string
	Content     []byte
	ContentType string
	CachedAt    int64
}

// UpsertAsset stores content under its URL, replacing earlier content.
func (e *executor) UpsertAsset(ctx context.Context, table AssetTable, asset AssetRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := table.validate(); err != nil {
		return err
	}
	if strings.TrimSpace(asset.URL) == "" {
		return fmt.Errorf("asset url is required")
	}
	if asset.Content == nil {
		asset.Content = []byte{}
	}
	_, err := e.exec(ctx,
		`INSERT INTO `+string(table)+` (url, content, content_type, cached_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET content = excluded.content, content_type = excluded.content_type, cached_at = excluded.cached_at`,
		asset.URL, asset.Content, asset.ContentType, asset.CachedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert %s %s: %w", table, asset.URL, err)
	}
	return nil
}

// GetAsset returns the asset cached under url or ErrNotFound.
func (e *executor) GetAsset(ctx context.Context, table AssetTable, url string) (AssetRow, error) {
	if err := ctx.Err(); err != nil {
		return AssetRow{}, err
	}
	if err := table.validate(); err != nil {
		return AssetRow{}, err
	}
	var asset AssetRow
	err := e.queryRow(ctx,
		`SELECT url, content, content_type, cached_at FROM `+string(table)+` WHERE url = ?`, url,
	).Scan(&asset.URL, &asset.Content, &asset.ContentType, &asset.CachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AssetRow{}, ErrNotFound
	}
	if err != nil {
		return AssetRow{}, fmt.Errorf("get %s %s: %w", table, url, err)
	}
	return asset, nil
}

// DeleteAssets empties an asset table.
func (e *executor) DeleteAssets(ctx context.Context, table AssetTable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := table.validate(); err != nil {
		return err
	}
	if _, err := e.exec(ctx, `DELETE FROM `+string(table)); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// CountAssets returns the number of rows in an asset table.
func (e *executor) CountAssets(ctx context.Context, table AssetTable) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := table.validate(); err != nil {
		return 0, err
	}
	var n int
	if err := e.queryRow(ctx, `SELECT COUNT(*) FROM `+string(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
