// Package config provides centralized configuration for cragcache.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/cragnet/cragcache/internal/domain/freshness"
)

// Config holds every process-level setting. Values come from the
// environment, optionally seeded from a .env file in the working directory.
type Config struct {
	// Server Configuration
	Port               string        `env:"PORT" envDefault:"8080"`
	ServerReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	ServerWriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ServerIdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`

	DataDir string `env:"DATA_DIR" envDefault:"./data"`

	// Store
	DBDriver           string        `env:"DB_DRIVER" envDefault:"sqlite3"`
	DBPath             string        `env:"DB_PATH"`
	TursoDatabaseURL   string        `env:"TURSO_DATABASE_URL"`
	TursoAuthToken     string        `env:"TURSO_AUTH_TOKEN"`
	DBMaxOpenConns     int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns     int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime  time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBConnMaxIdleTime  time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	SlowQueryThreshold time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"100ms"`

	// Federation
	RemoteTimeout time.Duration `env:"REMOTE_TIMEOUT" envDefault:"15s"`
	BackendsFile  string        `env:"BACKENDS_FILE"`
	SettingsFile  string        `env:"SETTINGS_FILE"`

	// Warming
	WarmOnStartup   bool `env:"WARM_ON_STARTUP" envDefault:"true"`
	WarmConcurrency int  `env:"WARM_CONCURRENCY" envDefault:"4"`

	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`

	// Assets
	AssetMemoryEntries int           `env:"ASSET_MEMORY_ENTRIES" envDefault:"64"`
	AssetMemoryTTL     time.Duration `env:"ASSET_MEMORY_TTL" envDefault:"10m"`
	SchemaPreviewWidth int           `env:"SCHEMA_PREVIEW_WIDTH" envDefault:"480"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"true"`
	LogDir   string `env:"LOG_DIR"`

	// Admin API
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
	JWTSecret         string `env:"JWT_SECRET"`

	// Tracing
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`

	// TTL overrides keyed by cache category, read from TTL_<CATEGORY>.
	TTLOverrides map[freshness.Category]time.Duration
}

// Load reads .env (when present) and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	environ := map[string]string{}
	for _, key := range knownKeys() {
		if v, found := lookup(key); found {
			environ[key] = v
		}
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	overrides, err := ttlOverrides(lookup)
	if err != nil {
		return nil, err
	}
	cfg.TTLOverrides = overrides

	cfg.applyDerivedDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDerivedDefaults() {
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "cragcache.db")
	}
	if c.BackendsFile == "" {
		c.BackendsFile = filepath.Join(c.DataDir, "backends.yaml")
	}
	if c.SettingsFile == "" {
		c.SettingsFile = filepath.Join(c.DataDir, "settings.yaml")
	}
}

// Validate rejects settings the process cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "sqlite":
	case "libsql":
		if c.TursoDatabaseURL == "" {
			return fmt.Errorf("DB_DRIVER=libsql requires TURSO_DATABASE_URL")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("REMOTE_TIMEOUT must be positive")
	}
	if c.SchemaPreviewWidth <= 0 {
		return fmt.Errorf("SCHEMA_PREVIEW_WIDTH must be positive")
	}
	return nil
}

// TTLEnvKey returns the environment variable that overrides category c,
// e.g. TTL_LINE_ROUTES for "line-routes".
func TTLEnvKey(c freshness.Category) string {
	return "TTL_" + strings.ToUpper(strings.ReplaceAll(string(c), "-", "_"))
}

func ttlOverrides(lookup func(string) (string, bool)) (map[freshness.Category]time.Duration, error) {
	defaults := freshness.DefaultPolicy()
	overrides := map[freshness.Category]time.Duration{}
	for _, c := range freshness.Categories() {
		key := TTLEnvKey(c)
		raw, ok := lookup(key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", key, err)
		}
		if d != defaults.TTL(c) {
			log.Printf("Config override: %s=%s (default: %s)", key, d, defaults.TTL(c))
		}
		overrides[c] = d
	}
	return overrides, nil
}

func knownKeys() []string {
	return []string{
		"PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT", "DATA_DIR",
		"DB_DRIVER", "DB_PATH", "TURSO_DATABASE_URL", "TURSO_AUTH_TOKEN",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME",
		"SLOW_QUERY_THRESHOLD", "REMOTE_TIMEOUT", "BACKENDS_FILE", "SETTINGS_FILE",
		"WARM_ON_STARTUP", "WARM_CONCURRENCY", "CLEANUP_INTERVAL",
		"ASSET_MEMORY_ENTRIES", "ASSET_MEMORY_TTL", "SCHEMA_PREVIEW_WIDTH",
		"LOG_LEVEL", "LOG_JSON", "LOG_DIR", "ADMIN_PASSWORD_HASH", "JWT_SECRET",
		"OTEL_ENDPOINT", "OTEL_ENABLED",
	}
}
