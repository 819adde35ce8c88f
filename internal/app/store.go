package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"github.com/at-ishikawa/cinelog/internal/config"
	"github.com/at-ishikawa/cinelog/internal/database"
	"github.com/at-ishikawa/cinelog/internal/kvstore"
)

const redisPingTimeout = 2 * time.Second

// CloseFunc releases a resource opened by the session.
type CloseFunc func(ctx context.Context) error

func noopClose(context.Context) error {
	return nil
}

// OpenStore opens the key-value store selected by cfg.Store.Driver.
// An unreachable redis server falls back to an in-memory store.
func OpenStore(ctx context.Context, cfg *config.Config) (kvstore.Store, CloseFunc, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		return kvstore.NewMemoryStore(), noopClose, nil

	case config.StoreDriverFile:
		return kvstore.NewFileStore(afero.NewOsFs(), cfg.Store.Directory), noopClose, nil

	case config.StoreDriverSQLite:
		db, err := database.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("database.OpenSQLite(%s) > %w", cfg.Store.SQLitePath, err)
		}
		return openSQLStore(ctx, db, 1)

	case config.StoreDriverMySQL:
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("database.Open() > %w", err)
		}
		return openSQLStore(ctx, db, cfg.Database.ConnectAttempts)

	case config.StoreDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			slog.Default().Warn("failed to connect to redis, falling back to an in-memory store",
				"addr", cfg.Redis.Addr,
				"error", err)
			_ = client.Close()
			return kvstore.NewMemoryStore(), noopClose, nil
		}
		return kvstore.NewRedisStore(client, cfg.Redis.Prefix), func(context.Context) error {
			return client.Close()
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func openSQLStore(ctx context.Context, db *sqlx.DB, attempts uint) (kvstore.Store, CloseFunc, error) {
	if err := database.Ping(ctx, db, attempts); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("database.Ping() > %w", err)
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("database.Migrate() > %w", err)
	}

	store := kvstore.NewSQLStore(db)
	if count, err := store.DeleteExpired(ctx); err != nil {
		slog.Default().Warn("failed to purge expired entries", "error", err)
	} else if count > 0 {
		slog.Default().Debug("purged expired entries", "count", count)
	}
	return store, func(context.Context) error {
		return db.Close()
	}, nil
}
