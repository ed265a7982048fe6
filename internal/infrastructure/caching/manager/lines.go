package manager

import (
	"context"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/freshness"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/mapping"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/store"
)

var (
	sectorLines   = collection[climbing.Line]{mapper: mapping.Lines, category: freshness.CategoryLines}
	sectorSchemas = collection[climbing.SectorSchema]{mapper: mapping.Schemas, category: freshness.CategorySchemas}
)

func sectorScope(backendID string, sectorID int64) store.Scope {
	return store.Scope{BackendID: backendID, Column: "sector_id", ParentID: sectorID}
}

func (m *Manager) GetCachedLinesBySector(ctx context.Context, backendID string, sectorID int64) ([]climbing.Line, error) {
	return readCollection(ctx, m, sectorLines, sectorScope(backendID, sectorID), false)
}

func (m *Manager) GetCachedLinesBySectorIgnoreExpiration(ctx context.Context, backendID string, sectorID int64) ([]climbing.Line, error) {
	return readCollection(ctx, m, sectorLines, sectorScope(backendID, sectorID), true)
}

// CacheLinesForSector replaces the lines of sectorID, forcing their sector id.
func (m *Manager) CacheLinesForSector(ctx context.Context, backendID string, sectorID int64, lines []climbing.Line) error {
	forced := make([]climbing.Line, len(lines))
	for i, l := range lines {
		l.SectorID = sectorID
		forced[i] = l
	}
	return writeCollection(ctx, m, sectorLines, sectorScope(backendID, sectorID), forced)
}

func (m *Manager) GetCachedLine(ctx context.Context, backendID string, lineID int64) (climbing.Line, error) {
	return readOne(ctx, m, mapping.Lines, freshness.CategoryLine, store.EntityKey{ID: lineID, BackendID: backendID}, false)
}

func (m *Manager) GetCachedLineIgnoreExpiration(ctx context.Context, backendID string, lineID int64) (climbing.Line, error) {
	return readOne(ctx, m, mapping.Lines, freshness.CategoryLine, store.EntityKey{ID: lineID, BackendID: backendID}, true)
}

func (m *Manager) CacheLine(ctx context.Context, backendID string, line climbing.Line) error {
	return writeOne(ctx, m, mapping.Lines, freshness.CategoryLine, backendID, line)
}

// Schemas are returned without previews; previews are derived on read-through.

func (m *Manager) GetCachedSchemasBySector(ctx context.Context, backendID string, sectorID int64) ([]climbing.SectorSchema, error) {
	return readCollection(ctx, m, sectorSchemas, sectorScope(backendID, sectorID), false)
}

func (m *Manager) GetCachedSchemasBySectorIgnoreExpiration(ctx context.Context, backendID string, sectorID int64) ([]climbing.SectorSchema, error) {
	return readCollection(ctx, m, sectorSchemas, sectorScope(backendID, sectorID), true)
}

// CacheSchemasForSector replaces the schemas of sectorID, forcing their sector id.
func (m *Manager) CacheSchemasForSector(ctx context.Context, backendID string, sectorID int64, schemas []climbing.SectorSchema) error {
	forced := make([]climbing.SectorSchema, len(schemas))
	for i, s := range schemas {
		s.SectorID = sectorID
		forced[i] = s
	}
	return writeCollection(ctx, m, sectorSchemas, sectorScope(backendID, sectorID), forced)
}
