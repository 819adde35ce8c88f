package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	selectEntryQuery   = "SELECT value, expires_at FROM kv_entries WHERE entry_key = ?"
	deleteEntryQuery   = "DELETE FROM kv_entries WHERE entry_key = ?"
	deleteExpiredQuery = "DELETE FROM kv_entries WHERE expires_at IS NOT NULL AND expires_at <= ?"

	upsertMySQLQuery = "INSERT INTO kv_entries (entry_key, value, expires_at) VALUES (?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE value = VALUES(value), expires_at = VALUES(expires_at)"
	upsertSQLiteQuery = "INSERT INTO kv_entries (entry_key, value, expires_at) VALUES (?, ?, ?) " +
		"ON CONFLICT(entry_key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at"
)

type sqlEntry struct {
	Value     []byte       `db:"value"`
	ExpiresAt sql.NullTime `db:"expires_at"`
}

// SQLStore keeps entries in the kv_entries table of MySQL or SQLite.
type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{
		db:  db,
		now: time.Now,
	}
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry sqlEntry
	err := s.db.GetContext(ctx, &entry, selectEntryQuery, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("db.GetContext(%s) > %w", key, err)
	}

	if entry.ExpiresAt.Valid && expired(s.now(), &entry.ExpiresAt.Time) {
		return nil, false, nil
	}
	return entry.Value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := upsertMySQLQuery
	if s.db.DriverName() == "sqlite3" {
		query = upsertSQLiteQuery
	}

	var expires sql.NullTime
	if at := expiresAt(s.now(), ttl); at != nil {
		expires = sql.NullTime{Time: *at, Valid: true}
	}
	if _, err := s.db.ExecContext(ctx, query, key, value, expires); err != nil {
		return fmt.Errorf("db.ExecContext(%s) > %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, deleteEntryQuery, key); err != nil {
		return fmt.Errorf("db.ExecContext(%s) > %w", key, err)
	}
	return nil
}

// DeleteExpired removes every expired entry and returns how many were removed.
func (s *SQLStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, deleteExpiredQuery, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("db.ExecContext() > %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("result.RowsAffected() > %w", err)
	}
	return count, nil
}
