package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
)

// TableSpec describes one entity table: its name and the denormalized
// parent-id columns it carries.
type TableSpec struct {
	Name          string
	ParentColumns []string
}

// HasParent reports whether column is one of the table's parent columns.
func (t TableSpec) HasParent(column string) bool {
	for _, c := range t.ParentColumns {
		if c == column {
			return true
		}
	}
	return false
}

var (
	TableSites           = TableSpec{Name: "sites"}
	TableAreas           = TableSpec{Name: "areas", ParentColumns: []string{"site_id"}}
	TableSectors         = TableSpec{Name: "sectors", ParentColumns: []string{"area_id", "site_id"}}
	TableLines           = TableSpec{Name: "lines", ParentColumns: []string{"sector_id"}}
	TableSchemas         = TableSpec{Name: "sector_schemas", ParentColumns: []string{"sector_id"}}
	TableRoutes          = TableSpec{Name: "routes", ParentColumns: []string{"site_id", "sector_id", "line_id"}}
	TableContests        = TableSpec{Name: "contests", ParentColumns: []string{"site_id"}}
	TableContestSteps    = TableSpec{Name: "contest_steps", ParentColumns: []string{"contest_id"}}
	TableContestRankings = TableSpec{Name: "contest_rankings", ParentColumns: []string{"contest_id"}}
	TableLogs            = TableSpec{Name: "logs", ParentColumns: []string{"route_id"}}
)

// EntityTables lists every entity table in schema order.
func EntityTables() []TableSpec {
	return []TableSpec{
		TableSites, TableAreas, TableSectors, TableLines, TableSchemas,
		TableRoutes, TableContests, TableContestSteps, TableContestRankings, TableLogs,
	}
}

func knownTable(t TableSpec) error {
	for _, known := range EntityTables() {
		if known.Name == t.Name && slices.Equal(known.ParentColumns, t.ParentColumns) {
			return nil
		}
	}
	return fmt.Errorf("unknown entity table %q", t.Name)
}

// TableCreator builds the store schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all queries needed to build the tables and indexes.
func (tc *TableCreator) CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, tableSQL := range tables() {
		if _, err := db.ExecContext(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes() {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

func entityTableDDL(t TableSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (id INTEGER NOT NULL, backend_id TEXT NOT NULL, ", t.Name)
	for _, c := range t.ParentColumns {
		fmt.Fprintf(&b, "%s INTEGER NOT NULL DEFAULT 0, ", c)
	}
	b.WriteString("position INTEGER NOT NULL DEFAULT 0, payload BLOB NOT NULL, cached_at INTEGER NOT NULL, PRIMARY KEY (id, backend_id))")
	return b.String()
}

func tables() []string {
	out := make([]string, 0, len(EntityTables())+4)
	for _, t := range EntityTables() {
		out = append(out, entityTableDDL(t))
	}
	return append(out,
		`CREATE TABLE IF NOT EXISTS fetch_sentinels (kind TEXT NOT NULL, parent_id INTEGER NOT NULL, backend_id TEXT NOT NULL, fetched_at INTEGER NOT NULL, PRIMARY KEY (kind, parent_id, backend_id))`,
		`CREATE TABLE IF NOT EXISTS svg_maps (url TEXT PRIMARY KEY, content BLOB NOT NULL, content_type TEXT NOT NULL, cached_at INTEGER NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS schema_backgrounds (url TEXT PRIMARY KEY, content BLOB NOT NULL, content_type TEXT NOT NULL, cached_at INTEGER NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS pending_logs (client_ref TEXT NOT NULL, backend_id TEXT NOT NULL, route_id INTEGER NOT NULL, payload BLOB NOT NULL, created_at INTEGER NOT NULL, PRIMARY KEY (client_ref, backend_id))`,
	)
}

func indexes() []string {
	var out []string
	for _, t := range EntityTables() {
		out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_backend ON %s(backend_id)", t.Name, t.Name))
		for _, c := range t.ParentColumns {
			out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(backend_id, %s)", t.Name, c, t.Name, c))
		}
	}
	return append(out,
		`CREATE INDEX IF NOT EXISTS idx_fetch_sentinels_backend ON fetch_sentinels(backend_id)`,
		`CREATE INDEX IF NOT EXISTS idx_pending_logs_backend ON pending_logs(backend_id, created_at)`,
	)
}
