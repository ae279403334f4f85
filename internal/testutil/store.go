package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lepinkainen/marquee/internal/datastore"
	"github.com/lepinkainen/marquee/internal/movie"
)

// NewTestStore returns a store backed by a fresh database file in a temporary
// directory. The store is not opened.
func NewTestStore(t *testing.T, opts ...datastore.Option) *datastore.SQLiteStore {
	t.Helper()
	return datastore.NewSQLiteStore(filepath.Join(t.TempDir(), "marquee.db"), opts...)
}

// OpenTestStore returns an opened test store that is closed on cleanup.
func OpenTestStore(t *testing.T, opts ...datastore.Option) *datastore.SQLiteStore {
	t.Helper()

	store := NewTestStore(t, opts...)
	if err := store.Open(context.Background()); err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// SeedMovies inserts movies into an opened store and returns their ids in order.
func SeedMovies(t *testing.T, store datastore.Store, movies ...movie.Fields) []int64 {
	t.Helper()

	ids := make([]int64, 0, len(movies))
	for _, m := range movies {
		id, err := store.Insert(context.Background(), m)
		if err != nil {
			t.Fatalf("failed to seed movie %q: %v", m.Name, err)
		}
		ids = append(ids, id)
	}
	return ids
}
