// Package database provides database connection management.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/at-ishikawa/cinelog/internal/config"
	"github.com/at-ishikawa/cinelog/schemas"
)

const pingRetryDelay = 100 * time.Millisecond

// Open opens a MySQL connection using the provided config.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	mysqlCfg := mysql.NewConfig()
	mysqlCfg.User = cfg.Username
	mysqlCfg.Passwd = cfg.Password
	mysqlCfg.Net = "tcp"
	mysqlCfg.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mysqlCfg.DBName = cfg.Database
	mysqlCfg.ParseTime = true
	mysqlCfg.MultiStatements = true
	if cfg.TLS {
		mysqlCfg.TLSConfig = "true"
	}
	if len(cfg.Params) > 0 {
		mysqlCfg.Params = cfg.Params
	}

	db, err := sqlx.Open("mysql", mysqlCfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("sqlx.Open() > %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	return db, nil
}

// OpenSQLite opens the SQLite file at path, creating its directory when needed.
func OpenSQLite(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("os.MkdirAll(%s) > %w", dir, err)
		}
	}

	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlx.Open() > %w", err)
	}
	// a single writer avoids SQLITE_BUSY between the cache and goose
	db.SetMaxOpenConns(1)
	return db, nil
}

// Ping checks the connection, retrying with backoff up to attempts times.
func Ping(ctx context.Context, db *sqlx.DB, attempts uint) error {
	if attempts == 0 {
		attempts = 1
	}
	if err := retry.Do(
		func() error {
			return db.PingContext(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(pingRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Default().Warn("database is not reachable yet", "attempt", n+1, "driver", db.DriverName(), "error", err)
		}),
	); err != nil {
		return fmt.Errorf("db.PingContext() > %w", err)
	}
	return nil
}

// Migrate applies the embedded migrations.
func Migrate(db *sqlx.DB) error {
	goose.SetBaseFS(schemas.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(db.DriverName()); err != nil {
		return fmt.Errorf("goose.SetDialect(%s) > %w", db.DriverName(), err)
	}
	if err := goose.Up(db.DB, schemas.MigrationsDir); err != nil {
		return fmt.Errorf("goose.Up() > %w", err)
	}

	version, err := goose.GetDBVersion(db.DB)
	if err != nil {
		return fmt.Errorf("goose.GetDBVersion() > %w", err)
	}
	slog.Default().Debug("database migrated", "driver", db.DriverName(), "version", version)
	return nil
}
