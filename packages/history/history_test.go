package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_AddAndList(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := &Record{
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
			Name:       "get-user",
			Method:     "GET",
			URL:        "https://api.example.com/users/1",
			Outcome:    "success",
			StatusCode: 200,
			DurationMs: int64(10 + i),
		}
		require.NoError(t, store.Add(rec))
		assert.NotEmpty(t, rec.ID)
	}

	records, err := store.List(10)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Newest first.
	assert.EqualValues(t, 12, records[0].DurationMs)
	assert.EqualValues(t, 10, records[2].DurationMs)

	limited, err := store.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStore_Get(t *testing.T) {
	store := openTestStore(t)

	rec := &Record{Method: "POST", URL: "https://x/y", Outcome: "app_error", StatusCode: 422}
	require.NoError(t, store.Add(rec))

	got, err := store.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.URL, got.URL)
	assert.Equal(t, 422, got.StatusCode)

	// Unique prefix works too.
	got, err = store.Get(rec.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = store.Get("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Prune(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Add(&Record{
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			Method:    "GET",
			URL:       "https://x/y",
			Outcome:   "success",
		}))
	}

	deleted, err := store.Prune(2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	records, err := store.List(10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
