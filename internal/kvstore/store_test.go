package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

// backends returns every store whose expiry is driven by the given clock.
func backends(c *clock) map[string]Store {
	memory := NewMemoryStore()
	memory.now = c.Now

	file := NewFileStore(afero.NewMemMapFs(), "/cache/cinelog")
	file.now = c.Now

	return map[string]Store{
		"memory": memory,
		"file":   file,
	}
}

func TestStore_Backends(t *testing.T) {
	start := time.Date(2024, 7, 4, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		ttl     time.Duration
		advance time.Duration
		wantOK  bool
	}{
		{name: "fresh entry", ttl: 24 * time.Hour, advance: time.Hour, wantOK: true},
		{name: "expired entry", ttl: 24 * time.Hour, advance: 24 * time.Hour, wantOK: false},
		{name: "no ttl never expires", ttl: 0, advance: 365 * 24 * time.Hour, wantOK: true},
	}

	for _, tt := range tests {
		c := &clock{now: start}
		for name, store := range backends(c) {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				c.now = start
				ctx := context.Background()
				require.NoError(t, store.Set(ctx, "featured:daily", []byte(`{"dateKey":"2024-07-04"}`), tt.ttl))

				c.now = start.Add(tt.advance)
				value, ok, err := store.Get(ctx, "featured:daily")
				require.NoError(t, err)
				assert.Equal(t, tt.wantOK, ok)
				if tt.wantOK {
					assert.JSONEq(t, `{"dateKey":"2024-07-04"}`, string(value))
				} else {
					assert.Nil(t, value)
				}
			})
		}
	}
}

func TestStore_MissingAndDelete(t *testing.T) {
	for name, store := range backends(&clock{now: time.Now()}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := store.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "key", []byte("first"), 0))
			require.NoError(t, store.Set(ctx, "key", []byte("second"), 0))
			value, ok, err := store.Get(ctx, "key")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "second", string(value))

			require.NoError(t, store.Delete(ctx, "key"))
			require.NoError(t, store.Delete(ctx, "key"))
			_, ok, err = store.Get(ctx, "key")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	type entry struct {
		DateKey string `json:"dateKey"`
	}
	ctx := context.Background()
	store := NewMemoryStore()

	var got entry
	ok, err := GetJSON(ctx, store, "featured:daily", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, SetJSON(ctx, store, "featured:daily", entry{DateKey: "2024-07-04"}, time.Hour))
	ok, err = GetJSON(ctx, store, "featured:daily", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2024-07-04", got.DateKey)

	require.NoError(t, store.Set(ctx, "broken", []byte("{"), 0))
	_, err = GetJSON(ctx, store, "broken", &got)
	assert.Error(t, err)
}

func TestFileStore_KeysAreSafeFileNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileStore(fs, "/cache")
	require.NoError(t, store.Set(context.Background(), "featured:daily/../x", []byte("v"), 0))

	entries, err := afero.ReadDir(fs, "/cache")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), ":")
	assert.NotContains(t, entries[0].Name(), "/")
}

func TestMemoryStore_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
