// Package store persists cached climbing data in an embedded SQL database.
// Every entity row is keyed by (remote id, backend id).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
)

var (
	// ErrNotFound is returned when a keyed lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrCorrupt is returned by Open when the database cannot be read.
	ErrCorrupt = errors.New("store is unreadable or corrupt")
)

const (
	DriverSQLite3 = "sqlite3"
	DriverSQLite  = "sqlite"
	DriverLibSQL  = "libsql"
)

// Config selects and tunes the database behind the store.
type Config struct {
	Driver string
	Path   string

	TursoURL   string
	TursoToken string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	SlowQueryThreshold time.Duration
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// executor carries the row operations shared by Store and Tx.
type executor struct {
	q         dbtx
	logger    *logging.ChanneledLogger
	slowQuery time.Duration
}

// Store is the persistent cache store.
type Store struct {
	executor
	sqlDB  *sql.DB
	driver string
}

// Tx exposes the store operations bound to one SQL transaction.
type Tx struct {
	executor
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the configured database, verifies it is readable and applies
// the schema. Any failure to read an existing file is reported as ErrCorrupt.
func Open(ctx context.Context, cfg Config, logger *logging.ChanneledLogger) (*Store, error) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	start := time.Now()

	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite3
	}

	dsn, err := dataSourceName(driver, cfg)
	if err != nil {
		return nil, err
	}

	logger.Database().Debug("Opening store", "driver", driver, "path", cfg.Path)
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		logger.Database().Error("Failed to open store", "error", err.Error(), "driver", driver)
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		logger.Database().Error("Store ping failed", "error", err.Error(), "driver", driver)
		return nil, fmt.Errorf("%w: ping: %w", ErrCorrupt, err)
	}

	if driver != DriverLibSQL {
		if err := quickCheck(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			logger.Database().Error("Store integrity check failed", "error", err.Error(), "path", cfg.Path)
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
	}

	if err := NewTableCreator().CreateSchema(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		logger.Database().Error("Failed to apply schema", "error", err.Error())
		return nil, fmt.Errorf("%w: apply schema: %w", ErrCorrupt, err)
	}

	s := &Store{
		executor: executor{q: sqlDB, logger: logger, slowQuery: cfg.SlowQueryThreshold},
		sqlDB:    sqlDB,
		driver:   driver,
	}

	logger.Database().Info("Store ready", "driver", driver, "duration", time.Since(start))
	return s, nil
}

func dataSourceName(driver string, cfg Config) (string, error) {
	switch driver {
	case DriverLibSQL:
		if strings.TrimSpace(cfg.TursoURL) == "" {
			return "", fmt.Errorf("libsql driver requires a database url")
		}
		if cfg.TursoToken == "" {
			return cfg.TursoURL, nil
		}
		return cfg.TursoURL + "?authToken=" + cfg.TursoToken, nil
	case DriverSQLite3, DriverSQLite:
		if strings.TrimSpace(cfg.Path) == "" {
			return "", fmt.Errorf("storage path is required")
		}
		cleanPath := filepath.Clean(cfg.Path)
		if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create database directory: %w", err)
		}
		if driver == DriverSQLite3 {
			return "file:" + cleanPath + "?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", nil
		}
		return cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", nil
	default:
		return "", fmt.Errorf("unsupported store driver %q", driver)
	}
}

func quickCheck(ctx context.Context, db *sql.DB) error {
	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("quick_check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("quick_check reported %q", result)
	}
	return nil
}

// Driver returns the database/sql driver name in use.
func (s *Store) Driver() string { return s.driver }

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// InTx runs fn inside one transaction, committing when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	tx := &Tx{executor: executor{q: sqlTx, logger: s.logger, slowQuery: s.slowQuery}}
	if err := fn(tx); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (e *executor) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := e.q.ExecContext(ctx, query, args...)
	e.observe(query, start)
	return res, err
}

func (e *executor) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := e.q.QueryContext(ctx, query, args...)
	e.observe(query, start)
	return rows, err
}

func (e *executor) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := e.q.QueryRowContext(ctx, query, args...)
	e.observe(query, start)
	return row
}

func (e *executor) observe(query string, start time.Time) {
	if e.slowQuery <= 0 {
		return
	}
	if d := time.Since(start); d > e.slowQuery {
		e.logger.LogSlowQuery(query, d, "")
	}
}
