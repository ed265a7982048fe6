package store

import (
	"context"
	"fmt"
	"strings"
)

// PendingLogRow is a user log written locally and not yet accepted by its
// backend.
type PendingLogRow struct {
	ClientRef string
	BackendID string
	RouteID   int64
	Payload   []byte
	CreatedAt int64
}

// InsertPendingLog stores a pending log. Client references are unique per
// backend; inserting a duplicate fails.
func (e *executor) InsertPendingLog(ctx context.Context, row PendingLogRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(row.ClientRef) == "" {
		return fmt.Errorf("client ref is required")
	}
	if strings.TrimSpace(row.BackendID) == "" {
		return fmt.Errorf("backend id is required")
	}
	_, err := e.exec(ctx,
		`INSERT INTO pending_logs (client_ref, backend_id, route_id, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		row.ClientRef, row.BackendID, row.RouteID, row.Payload, row.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pending log %s: %w", row.ClientRef, err)
	}
	return nil
}

// ListPendingLogs returns the backend's pending logs, oldest first.
func (e *executor) ListPendingLogs(ctx context.Context, backendID string) ([]PendingLogRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := e.query(ctx,
		`SELECT client_ref, backend_id, route_id, payload, created_at FROM pending_logs
		 WHERE backend_id = ? ORDER BY created_at, client_ref`, backendID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending logs: %w", err)
	}
	defer rows.Close()

	var out []PendingLogRow
	for rows.Next() {
		var row PendingLogRow
		if err := rows.Scan(&row.ClientRef, &row.BackendID, &row.RouteID, &row.Payload, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending log: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending logs: %w", err)
	}
	return out, nil
}

// DeletePendingLog removes one pending log, returning ErrNotFound when it
// does not exist.
func (e *executor) DeletePendingLog(ctx context.Context, clientRef, backendID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := e.exec(ctx, `DELETE FROM pending_logs WHERE client_ref = ? AND backend_id = ?`, clientRef, backendID)
	if err != nil {
		return fmt.Errorf("delete pending log %s: %w", clientRef, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pending log %s: %w", clientRef, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
