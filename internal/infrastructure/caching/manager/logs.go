package manager

import (
	"context"
	"fmt"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/freshness"
	"github.com/cragnet/cragcache/internal/infrastructure/messaging"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/mapping"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/store"
	"github.com/cragnet/cragcache/internal/infrastructure/security"
)

var routeLogs = collection[climbing.Log]{mapper: mapping.Logs, category: freshness.CategoryLogs, sentinel: store.KindRouteLogs}

func routeScope(backendID string, routeID int64) store.Scope {
	return store.Scope{BackendID: backendID, Column: "route_id", ParentID: routeID}
}

func (m *Manager) GetCachedLogsByRoute(ctx context.Context, backendID string, routeID int64) ([]climbing.Log, error) {
	return readCollection(ctx, m, routeLogs, routeScope(backendID, routeID), false)
}

func (m *Manager) GetCachedLogsByRouteIgnoreExpiration(ctx context.Context, backendID string, routeID int64) ([]climbing.Log, error) {
	return readCollection(ctx, m, routeLogs, routeScope(backendID, routeID), true)
}

// CacheLogsForRoute replaces the logs of routeID and records the fetch.
func (m *Manager) CacheLogsForRoute(ctx context.Context, backendID string, routeID int64, logs []climbing.Log) error {
	forced := make([]climbing.Log, len(logs))
	for i, l := range logs {
		l.RouteID = routeID
		forced[i] = l
	}
	return writeCollection(ctx, m, routeLogs, routeScope(backendID, routeID), forced)
}

// AddPendingLog stores a log written on this device under a new client
// reference. Pending logs are not cache data and survive clears.
func (m *Manager) AddPendingLog(ctx context.Context, backendID string, routeID int64, log climbing.Log) (climbing.PendingLog, error) {
	now := m.evaluator.Now().UTC()
	log.RouteID = routeID
	pending := climbing.PendingLog{
		ClientRef: security.NewClientRef(now),
		BackendID: backendID,
		RouteID:   routeID,
		Log:       log,
		CreatedAt: now,
	}
	row, err := mapping.PendingLogToRow(pending)
	if err != nil {
		return climbing.PendingLog{}, err
	}
	if err := m.store.InsertPendingLog(ctx, row); err != nil {
		return climbing.PendingLog{}, err
	}
	m.logger.WithBackend(logging.ChannelCache, backendID).Info("Stored pending log", "clientRef", pending.ClientRef, "routeId", routeID)
	return pending, nil
}

// PendingLogs returns the backend's pending logs, oldest first. Undecodable
// rows are skipped.
func (m *Manager) PendingLogs(ctx context.Context, backendID string) ([]climbing.PendingLog, error) {
	rows, err := m.store.ListPendingLogs(ctx, backendID)
	if err != nil {
		return nil, err
	}
	out := make([]climbing.PendingLog, 0, len(rows))
	for _, row := range rows {
		p, err := mapping.PendingLogFromRow(row)
		if err != nil {
			m.logger.Cache().Warn("Skipping undecodable pending log", "clientRef", row.ClientRef, "error", err.Error())
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ConfirmPendingLog drops a pending log once its backend accepted it and
// caches the accepted log under the same route, in one transaction.
func (m *Manager) ConfirmPendingLog(ctx context.Context, pending climbing.PendingLog, accepted climbing.Log) error {
	accepted.RouteID = pending.RouteID
	row, err := mapping.Logs.ToRow(pending.BackendID, accepted, m.nowMillis())
	if err != nil {
		return err
	}
	err = m.store.InTx(ctx, func(tx *store.Tx) error {
		if err := tx.DeletePendingLog(ctx, pending.ClientRef, pending.BackendID); err != nil {
			return err
		}
		return tx.Upsert(ctx, store.TableLogs, row)
	})
	if err != nil {
		return fmt.Errorf("confirm pending log %s: %w", pending.ClientRef, err)
	}

	m.metrics.CacheWrite(string(freshness.CategoryLogs))
	m.publish(messaging.CacheEvent{
		Type:      messaging.EventWrite,
		Category:  string(freshness.CategoryLogs),
		BackendID: pending.BackendID,
		ParentID:  pending.RouteID,
		Rows:      1,
	})
	return nil
}
