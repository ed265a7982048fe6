package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// EntityKey is the primary identity of a cached entity row.
type EntityKey struct {
	ID        int64
	BackendID string
}

// EntityRow is one cached entity as stored: encoded payload, parent ids
// and the epoch-millisecond time it was written.
type EntityRow struct {
	Key      EntityKey
	Parents  map[string]int64
	Position int
	Payload  []byte
	CachedAt int64
}

// Scope selects the rows of one backend, optionally narrowed to one parent.
// An empty Column selects the backend's whole table.
type Scope struct {
	BackendID string
	Column    string
	ParentID  int64
}

// SentinelMark asks ReplaceScope to record a fetch sentinel in the same
// transaction as the rows.
type SentinelMark struct {
	Key       ScopeKey
	FetchedAt int64
}

func selectColumns(t TableSpec) string {
	cols := append([]string{"id", "backend_id"}, t.ParentColumns...)
	cols = append(cols, "position", "payload", "cached_at")
	return strings.Join(cols, ", ")
}

func upsertSQL(t TableSpec, keepPosition bool) string {
	cols := append([]string{"id", "backend_id"}, t.ParentColumns...)
	cols = append(cols, "position", "payload", "cached_at")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	// A zero parent id never overwrites a known one: the row may belong to
	// scopes the incoming payload does not describe.
	updates := make([]string, 0, len(t.ParentColumns)+3)
	for _, c := range t.ParentColumns {
		updates = append(updates, fmt.Sprintf("%s = CASE WHEN excluded.%s = 0 THEN %s ELSE excluded.%s END", c, c, c, c))
	}
	if !keepPosition {
		updates = append(updates, "position = excluded.position")
	}
	updates = append(updates, "payload = excluded.payload", "cached_at = excluded.cached_at")

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id, backend_id) DO UPDATE SET %s",
		t.Name, strings.Join(cols, ", "), placeholders, strings.Join(updates, ", "))
}

func upsertArgs(t TableSpec, row EntityRow) []any {
	args := make([]any, 0, len(t.ParentColumns)+5)
	args = append(args, row.Key.ID, row.Key.BackendID)
	for _, c := range t.ParentColumns {
		args = append(args, row.Parents[c])
	}
	return append(args, row.Position, row.Payload, row.CachedAt)
}

func validateRow(row EntityRow) error {
	if strings.TrimSpace(row.Key.BackendID) == "" {
		return fmt.Errorf("backend id is required")
	}
	if row.Payload == nil {
		return fmt.Errorf("payload is required for %d", row.Key.ID)
	}
	return nil
}

func scanEntityRow(t TableSpec, scanner interface{ Scan(...any) error }) (EntityRow, error) {
	var row EntityRow
	parents := make([]int64, len(t.ParentColumns))
	dest := make([]any, 0, len(t.ParentColumns)+5)
	dest = append(dest, &row.Key.ID, &row.Key.BackendID)
	for i := range parents {
		dest = append(dest, &parents[i])
	}
	dest = append(dest, &row.Position, &row.Payload, &row.CachedAt)
	if err := scanner.Scan(dest...); err != nil {
		return EntityRow{}, err
	}
	if len(parents) > 0 {
		row.Parents = make(map[string]int64, len(parents))
		for i, c := range t.ParentColumns {
			row.Parents[c] = parents[i]
		}
	}
	return row, nil
}

// Upsert writes one row, replacing any row with the same key. A replaced
// row keeps its position within collections and any parent id the new
// row leaves at zero.
func (e *executor) Upsert(ctx context.Context, t TableSpec, row EntityRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := knownTable(t); err != nil {
		return err
	}
	if err := validateRow(row); err != nil {
		return err
	}
	if _, err := e.exec(ctx, upsertSQL(t, true), upsertArgs(t, row)...); err != nil {
		return fmt.Errorf("upsert %s %d/%s: %w", t.Name, row.Key.ID, row.Key.BackendID, err)
	}
	return nil
}

// UpsertMany writes rows in one transaction.
func (s *Store) UpsertMany(ctx context.Context, t TableSpec, rows []EntityRow) error {
	if len(rows) == 0 {
		return ctx.Err()
	}
	return s.InTx(ctx, func(tx *Tx) error {
		return tx.UpsertMany(ctx, t, rows)
	})
}

// UpsertMany writes rows inside the transaction.
func (tx *Tx) UpsertMany(ctx context.Context, t TableSpec, rows []EntityRow) error {
	return tx.upsertBatch(ctx, t, rows)
}

func (e *executor) upsertBatch(ctx context.Context, t TableSpec, rows []EntityRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := knownTable(t); err != nil {
		return err
	}
	query := upsertSQL(t, false)
	for _, row := range rows {
		if err := validateRow(row); err != nil {
			return err
		}
		if _, err := e.exec(ctx, query, upsertArgs(t, row)...); err != nil {
			return fmt.Errorf("upsert %s %d/%s: %w", t.Name, row.Key.ID, row.Key.BackendID, err)
		}
	}
	return nil
}

// Get returns the row stored under key or ErrNotFound.
func (e *executor) Get(ctx context.Context, t TableSpec, key EntityKey) (EntityRow, error) {
	if err := ctx.Err(); err != nil {
		return EntityRow{}, err
	}
	if err := knownTable(t); err != nil {
		return EntityRow{}, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND backend_id = ?", selectColumns(t), t.Name)
	row, err := scanEntityRow(t, e.queryRow(ctx, query, key.ID, key.BackendID))
	if errors.Is(err, sql.ErrNoRows) {
		return EntityRow{}, ErrNotFound
	}
	if err != nil {
		return EntityRow{}, fmt.Errorf("get %s %d/%s: %w", t.Name, key.ID, key.BackendID, err)
	}
	return row, nil
}

// QueryByParent returns the backend's rows whose parent column equals
// parentID, in the order they were last written.
func (e *executor) QueryByParent(ctx context.Context, t TableSpec, column string, parentID int64, backendID string) ([]EntityRow, error) {
	return e.QueryScope(ctx, t, Scope{BackendID: backendID, Column: column, ParentID: parentID})
}

// QueryByBackend returns every row of the table cached for backendID.
func (e *executor) QueryByBackend(ctx context.Context, t TableSpec, backendID string) ([]EntityRow, error) {
	return e.QueryScope(ctx, t, Scope{BackendID: backendID})
}

// QueryScope returns the rows selected by scope.
func (e *executor) QueryScope(ctx context.Context, t TableSpec, scope Scope) ([]EntityRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	where, args, err := scopeFilter(t, scope)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY position, id", selectColumns(t), t.Name, where)
	rows, err := e.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.Name, err)
	}
	defer rows.Close()

	var out []EntityRow
	for rows.Next() {
		row, err := scanEntityRow(t, rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.Name, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.Name, err)
	}
	return out, nil
}

func scopeFilter(t TableSpec, scope Scope) (string, []any, error) {
	if err := knownTable(t); err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(scope.BackendID) == "" {
		return "", nil, fmt.Errorf("backend id is required")
	}
	if scope.Column == "" {
		return "backend_id = ?", []any{scope.BackendID}, nil
	}
	if !t.HasParent(scope.Column) {
		return "", nil, fmt.Errorf("table %s has no parent column %q", t.Name, scope.Column)
	}
	return "backend_id = ? AND " + scope.Column + " = ?", []any{scope.BackendID, scope.ParentID}, nil
}

// ReplaceScope atomically swaps the rows of scope for rows. Rows of the
// scope that are not in the batch leave it (see pruneSQL). When mark is
// non-nil the fetch sentinel is recorded in the same transaction.
func (s *Store) ReplaceScope(ctx context.Context, t TableSpec, scope Scope, rows []EntityRow, mark *SentinelMark) error {
	return s.InTx(ctx, func(tx *Tx) error {
		return tx.ReplaceScope(ctx, t, scope, rows, mark)
	})
}

// ReplaceScope is the transactional body of Store.ReplaceScope.
func (tx *Tx) ReplaceScope(ctx context.Context, t TableSpec, scope Scope, rows []EntityRow, mark *SentinelMark) error {
	where, args, err := scopeFilter(t, scope)
	if err != nil {
		return err
	}
	batch := make([]EntityRow, len(rows))
	for i, row := range rows {
		if row.Key.BackendID != scope.BackendID {
			return fmt.Errorf("row %d belongs to backend %q, not %q", row.Key.ID, row.Key.BackendID, scope.BackendID)
		}
		if scope.Column != "" && row.Parents[scope.Column] != scope.ParentID {
			return fmt.Errorf("row %d has %s=%d outside scope %d", row.Key.ID, scope.Column, row.Parents[scope.Column], scope.ParentID)
		}
		row.Position = i
		batch[i] = row
	}

	prune, pruneArgs := pruneSQL(t, scope, where, args, batch)
	if _, err := tx.exec(ctx, prune, pruneArgs...); err != nil {
		return fmt.Errorf("prune %s scope: %w", t.Name, err)
	}
	if err := tx.upsertBatch(ctx, t, batch); err != nil {
		return err
	}
	if mark != nil {
		if err := tx.RecordFetched(ctx, mark.Key, scope.BackendID, fromMillis(mark.FetchedAt)); err != nil {
			return err
		}
	}
	return nil
}

// pruneSQL drops the rows of scope that are missing from batch. On tables
// with several parent columns a row only leaves this scope: its column is
// zeroed and its other memberships are kept.
func pruneSQL(t TableSpec, scope Scope, where string, args []any, batch []EntityRow) (string, []any) {
	args = slices.Clone(args)
	if len(batch) > 0 {
		where += " AND id NOT IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(batch)), ", ") + ")"
		for _, row := range batch {
			args = append(args, row.Key.ID)
		}
	}
	if scope.Column != "" && len(t.ParentColumns) > 1 {
		return "UPDATE " + t.Name + " SET " + scope.Column + " = 0 WHERE " + where, args
	}
	return "DELETE FROM " + t.Name + " WHERE " + where, args
}

// DeleteScope removes every row of the table cached for backendID.
func (e *executor) DeleteScope(ctx context.Context, t TableSpec, backendID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := knownTable(t); err != nil {
		return err
	}
	if _, err := e.exec(ctx, "DELETE FROM "+t.Name+" WHERE backend_id = ?", backendID); err != nil {
		return fmt.Errorf("delete %s scope %s: %w", t.Name, backendID, err)
	}
	return nil
}

// DeleteAll empties the table.
func (e *executor) DeleteAll(ctx context.Context, t TableSpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := knownTable(t); err != nil {
		return err
	}
	if _, err := e.exec(ctx, "DELETE FROM "+t.Name); err != nil {
		return fmt.Errorf("delete %s: %w", t.Name, err)
	}
	return nil
}

// TableCount is the number of rows one backend has in one table.
type TableCount struct {
	Table     string `json:"table"`
	BackendID string `json:"backendId"`
	Rows      int    `json:"rows"`
}

// Counts reports row counts per entity table and backend, plus the sentinel
// table. Tables with no rows are omitted.
func (e *executor) Counts(ctx context.Context) ([]TableCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(EntityTables())+1)
	for _, t := range EntityTables() {
		names = append(names, t.Name)
	}
	names = append(names, "fetch_sentinels")

	var out []TableCount
	for _, name := range names {
		rows, err := e.query(ctx, "SELECT backend_id, COUNT(*) FROM "+name+" GROUP BY backend_id ORDER BY backend_id")
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		for rows.Next() {
			c := TableCount{Table: name}
			if err := rows.Scan(&c.BackendID, &c.Rows); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan %s count: %w", name, err)
			}
			out = append(out, c)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterate %s count: %w", name, err)
		}
	}
	return out, nil
}
