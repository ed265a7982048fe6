package services

import (
	"context"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/repositories"
)

// SchemasBySector reads the topo schemas of a sector. With previews set,
// each schema gets a preview rendered from its background; previews are
// derived on every read and never cached.
func (s *BrowseService) SchemasBySector(ctx context.Context, backendID string, sectorID int64, previews bool) (Result[[]climbing.SectorSchema], error) {
	res, err := readThrough(ctx, s, readPlan[[]climbing.SectorSchema]{
		op:        "schemas_by_sector",
		backendID: backendID,
		cached: func(ctx context.Context) ([]climbing.SectorSchema, error) {
			return s.cache.GetCachedSchemasBySector(ctx, backendID, sectorID)
		},
		offline: func(ctx context.Context) ([]climbing.SectorSchema, error) {
			return s.cache.GetCachedSchemasBySectorIgnoreExpiration(ctx, backendID, sectorID)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) ([]climbing.SectorSchema, error) {
			return c.FetchSchemasBySector(ctx, sectorID)
		},
		store: func(ctx context.Context, v []climbing.SectorSchema) error {
			return s.cache.CacheSchemasForSector(ctx, backendID, sectorID, v)
		},
	})
	if err != nil || !previews || s.previews == nil {
		return res, err
	}

	for i := range res.Data {
		schema := &res.Data[i]
		if schema.BackgroundURL == "" {
			continue
		}
		bg, err := s.SchemaBackground(ctx, backendID, schema.BackgroundURL)
		if err != nil {
			s.logger.Assets().Debug("No background for schema preview", "schemaId", schema.ID, "error", err.Error())
			continue
		}
		preview, err := s.previews.Render(bg.Data.Content)
		if err != nil {
			s.logger.Assets().Warn("Failed to render schema preview", "schemaId", schema.ID, "url", schema.BackgroundURL, "error", err.Error())
			continue
		}
		schema.Preview = preview
	}
	return res, nil
}

// SVGMap reads a site's SVG map. The backend's client downloads it on a miss.
func (s *BrowseService) SVGMap(ctx context.Context, backendID, url string) (Result[climbing.Asset], error) {
	return readThrough(ctx, s, readPlan[climbing.Asset]{
		op:        "svg_map",
		backendID: backendID,
		cached: func(ctx context.Context) (climbing.Asset, error) {
			return s.cache.GetCachedSVGMap(ctx, url)
		},
		offline: func(ctx context.Context) (climbing.Asset, error) {
			return s.cache.GetCachedSVGMapIgnoreExpiration(ctx, url)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) (climbing.Asset, error) {
			content, contentType, err := c.FetchAsset(ctx, url)
			if err != nil {
				return climbing.Asset{}, err
			}
			return climbing.Asset{URL: url, Content: content, ContentType: contentType}, nil
		},
		store: func(ctx context.Context, v climbing.Asset) error {
			_, err := s.cache.CacheSVGMap(ctx, url, v.Content, v.ContentType)
			return err
		},
	})
}

// SchemaBackground reads a schema background image.
func (s *BrowseService) SchemaBackground(ctx context.Context, backendID, url string) (Result[climbing.Asset], error) {
	return readThrough(ctx, s, readPlan[climbing.Asset]{
		op:        "schema_background",
		backendID: backendID,
		cached: func(ctx context.Context) (climbing.Asset, error) {
			return s.cache.GetCachedSchemaBackground(ctx, url)
		},
		offline: func(ctx context.Context) (climbing.Asset, error) {
			return s.cache.GetCachedSchemaBackgroundIgnoreExpiration(ctx, url)
		},
		fetch: func(ctx context.Context, c repositories.RemoteClient) (climbing.Asset, error) {
			content, contentType, err := c.FetchAsset(ctx, url)
			if err != nil {
				return climbing.Asset{}, err
			}
			return climbing.Asset{URL: url, Content: content, ContentType: contentType}, nil
		},
		store: func(ctx context.Context, v climbing.Asset) error {
			_, err := s.cache.CacheSchemaBackground(ctx, url, v.Content, v.ContentType)
			return err
		},
	})
}
