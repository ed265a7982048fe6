package manager

import (
	"context"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/freshness"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/mapping"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/store"
)

var areaSectors = collection[climbing.Sector]{mapper: mapping.Sectors, category: freshness.CategorySectors}

func areaScope(backendID string, areaID int64) store.Scope {
	return store.Scope{BackendID: backendID, Column: "area_id", ParentID: areaID}
}

func (m *Manager) GetCachedSectorsByArea(ctx context.Context, backendID string, areaID int64) ([]climbing.Sector, error) {
	return readCollection(ctx, m, areaSectors, areaScope(backendID, areaID), false)
}

func (m *Manager) GetCachedSectorsByAreaIgnoreExpiration(ctx context.Context, backendID string, areaID int64) ([]climbing.Sector, error) {
	return readCollection(ctx, m, areaSectors, areaScope(backendID, areaID), true)
}

// CacheSectorsForArea replaces the sectors of areaID, forcing their area id.
func (m *Manager) CacheSectorsForArea(ctx context.Context, backendID string, areaID int64, sectors []climbing.Sector) error {
	forced := make([]climbing.Sector, len(sectors))
	for i, s := range sectors {
		s.AreaID = areaID
		forced[i] = s
	}
	return writeCollection(ctx, m, areaSectors, areaScope(backendID, areaID), forced)
}

func (m *Manager) GetCachedSector(ctx context.Context, backendID string, sectorID int64) (climbing.Sector, error) {
	return readOne(ctx, m, mapping.Sectors, freshness.CategorySector, store.EntityKey{ID: sectorID, BackendID: backendID}, false)
}

func (m *Manager) GetCachedSectorIgnoreExpiration(ctx context.Context, backendID string, sectorID int64) (climbing.Sector, error) {
	return readOne(ctx, m, mapping.Sectors, freshness.CategorySector, store.EntityKey{ID: sectorID, BackendID: backendID}, true)
}

func (m *Manager) CacheSector(ctx context.Context, backendID string, sector climbing.Sector) error {
	return writeOne(ctx, m, mapping.Sectors, freshness.CategorySector, backendID, sector)
}
