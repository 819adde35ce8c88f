package kvstore

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockSQLStore(t *testing.T, driverName string, now time.Time) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	store := NewSQLStore(sqlx.NewDb(db, driverName))
	store.now = func() time.Time { return now }
	return store, mock
}

func TestSQLStore_Get(t *testing.T) {
	now := time.Date(2024, 7, 4, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantValue string
		wantOK    bool
		wantErr   bool
	}{
		{
			name: "fresh entry",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"value", "expires_at"}).
					AddRow([]byte(`{"dateKey":"2024-07-04"}`), now.Add(time.Hour))
				mock.ExpectQuery(regexp.QuoteMeta(selectEntryQuery)).WithArgs("featured:daily").WillReturnRows(rows)
			},
			wantValue: `{"dateKey":"2024-07-04"}`,
			wantOK:    true,
		},
		{
			name: "entry without expiry",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"value", "expires_at"}).AddRow([]byte("v"), nil)
				mock.ExpectQuery(regexp.QuoteMeta(selectEntryQuery)).WithArgs("featured:daily").WillReturnRows(rows)
			},
			wantValue: "v",
			wantOK:    true,
		},
		{
			name: "expired entry",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"value", "expires_at"}).AddRow([]byte("v"), now)
				mock.ExpectQuery(regexp.QuoteMeta(selectEntryQuery)).WithArgs("featured:daily").WillReturnRows(rows)
			},
		},
		{
			name: "missing entry",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(selectEntryQuery)).
					WithArgs("featured:daily").
					WillReturnRows(sqlmock.NewRows([]string{"value", "expires_at"}))
			},
		},
		{
			name: "db error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(selectEntryQuery)).
					WithArgs("featured:daily").
					WillReturnError(fmt.Errorf("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockSQLStore(t, "mysql", now)
			tt.setupMock(mock)

			value, ok, err := store.Get(context.Background(), "featured:daily")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantValue, string(value))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLStore_Set(t *testing.T) {
	now := time.Date(2024, 7, 4, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		driverName string
		ttl        time.Duration
		wantQuery  string
		wantExpiry any
	}{
		{
			name:       "mysql upsert with ttl",
			driverName: "mysql",
			ttl:        24 * time.Hour,
			wantQuery:  upsertMySQLQuery,
			wantExpiry: now.Add(24 * time.Hour),
		},
		{
			name:       "sqlite upsert without ttl",
			driverName: "sqlite3",
			wantQuery:  upsertSQLiteQuery,
			wantExpiry: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockSQLStore(t, tt.driverName, now)
			mock.ExpectExec(regexp.QuoteMeta(tt.wantQuery)).
				WithArgs("featured:daily", []byte("v"), tt.wantExpiry).
				WillReturnResult(sqlmock.NewResult(0, 1))

			require.NoError(t, store.Set(context.Background(), "featured:daily", []byte("v"), tt.ttl))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLStore_Delete(t *testing.T) {
	store, mock := newMockSQLStore(t, "mysql", time.Now())
	mock.ExpectExec(regexp.QuoteMeta(deleteEntryQuery)).
		WithArgs("featured:daily").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Delete(context.Background(), "featured:daily"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_DeleteExpired(t *testing.T) {
	now := time.Date(2024, 7, 4, 9, 0, 0, 0, time.UTC)
	store, mock := newMockSQLStore(t, "sqlite3", now)
	mock.ExpectExec(regexp.QuoteMeta(deleteExpiredQuery)).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := store.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
