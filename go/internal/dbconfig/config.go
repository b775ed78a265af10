package dbconfig

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Config holds database connection settings. Driver is a database/sql
// driver name: "postgres" (lib/pq), "pgx" or "sqlite3".
type Config struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	// Path is the sqlite3 file; ":memory:" for a throwaway database.
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// NewConfigFromEnv reads DB_* environment variables (with defaults).
func NewConfigFromEnv() Config {
	return ApplyEnv(Config{})
}

// ApplyEnv overlays DB_* environment variables on cfg and fills defaults.
func ApplyEnv(cfg Config) Config {
	cfg.Driver = getEnv("DB_DRIVER", or(cfg.Driver, "postgres"))
	cfg.Host = getEnv("DB_HOST", or(cfg.Host, "localhost"))
	cfg.User = getEnv("DB_USER", or(cfg.User, "postgres"))
	cfg.Password = getEnv("DB_PASSWORD", or(cfg.Password, "postgres"))
	cfg.Database = getEnv("DB_NAME", or(cfg.Database, "fantasyflicks"))
	cfg.SSLMode = getEnv("DB_SSLMODE", or(cfg.SSLMode, "disable"))
	cfg.Path = getEnv("DB_PATH", or(cfg.Path, "fantasyflicks.db"))

	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if port, err := strconv.Atoi(os.Getenv("DB_PORT")); err == nil {
		cfg.Port = port
	}
	if n, err := strconv.Atoi(os.Getenv("DB_MAX_OPEN_CONNS")); err == nil {
		cfg.MaxOpenConns = n
	}
	return cfg
}

// DSN returns the connection string for the configured driver.
func (c Config) DSN() string {
	if c.Driver == "sqlite3" {
		// Immediate transactions make concurrent writers queue instead of
		// failing on lock upgrade.
		return fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on", c.Path)
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// IsPostgres reports whether the driver talks to Postgres.
func (c Config) IsPostgres() bool {
	return c.Driver == "postgres" || c.Driver == "pgx"
}

// Open connects and pings the database.
func (c Config) Open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(c.Driver, c.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", c.Driver, err)
	}

	maxOpen := c.MaxOpenConns
	if c.Driver == "sqlite3" {
		maxOpen = 1
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", c.Driver, err)
	}
	return db, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
