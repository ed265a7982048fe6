package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SentinelKind names a collection whose fetches are tracked so that
// "fetched, empty" can be told apart from "never fetched".
type SentinelKind string

const (
	KindLineRoutes   SentinelKind = "line-routes"
	KindRouteLogs    SentinelKind = "route-logs"
	KindSiteContests SentinelKind = "site-contests"
)

// ScopeKey identifies one tracked collection of one parent.
type ScopeKey struct {
	Kind     SentinelKind
	ParentID int64
}

// RecordFetched marks key as fetched for backendID at the given time,
// replacing any earlier mark.
func (e *executor) RecordFetched(ctx context.Context, key ScopeKey, backendID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(string(key.Kind)) == "" {
		return fmt.Errorf("sentinel kind is required")
	}
	if strings.TrimSpace(backendID) == "" {
		return fmt.Errorf("backend id is required")
	}
	_, err := e.exec(ctx,
		`INSERT INTO fetch_sentinels (kind, parent_id, backend_id, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(kind, parent_id, backend_id) DO UPDATE SET fetched_at = excluded.fetched_at`,
		string(key.Kind), key.ParentID, backendID, toMillis(at),
	)
	if err != nil {
		return fmt.Errorf("record sentinel %s/%d/%s: %w", key.Kind, key.ParentID, backendID, err)
	}
	return nil
}

// WasFetched returns when key was last fetched for backendID. The bool is
// false when no fetch was ever recorded.
func (e *executor) WasFetched(ctx context.Context, key ScopeKey, backendID string) (time.Time, bool, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, false, err
	}
	var fetchedAt int64
	err := e.queryRow(ctx,
		`SELECT fetched_at FROM fetch_sentinels WHERE kind = ? AND parent_id = ? AND backend_id = ?`,
		string(key.Kind), key.ParentID, backendID,
	).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read sentinel %s/%d/%s: %w", key.Kind, key.ParentID, backendID, err)
	}
	return fromMillis(fetchedAt), true, nil
}

// DeleteSentinels forgets every fetch recorded for backendID.
func (e *executor) DeleteSentinels(ctx context.Context, backendID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := e.exec(ctx, `DELETE FROM fetch_sentinels WHERE backend_id = ?`, backendID); err != nil {
		return fmt.Errorf("delete sentinels for %s: %w", backendID, err)
	}
	return nil
}

// DeleteAllSentinels forgets every recorded fetch.
func (e *executor) DeleteAllSentinels(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := e.exec(ctx, `DELETE FROM fetch_sentinels`); err != nil {
		return fmt.Errorf("delete sentinels: %w", err)
	}
	return nil
}
