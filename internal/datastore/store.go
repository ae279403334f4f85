package datastore

import (
	"context"
	stdErrors "errors"

	"github.com/lepinkainen/marquee/internal/movie"
)

// Store defines the record store for movies.
//
// Open and Close bracket each batch of operations. Every successful Open must be
// paired with exactly one Close; an unmatched Close is a no-op.
type Store interface {
	// Open acquires the storage handle, creating the database and schema on first use
	Open(ctx context.Context) error

	// Close releases the storage handle acquired by the matching Open
	Close() error

	// Insert persists a new movie and returns its assigned id
	Insert(ctx context.Context, fields movie.Fields) (int64, error)

	// Update overwrites every field of the movie with the given id and
	// returns the number of rows affected (0 when the id does not exist)
	Update(ctx context.Context, id int64, fields movie.Fields) (int64, error)

	// Delete removes the movie with the given id and returns the number of rows affected
	Delete(ctx context.Context, id int64) (int64, error)

	// GetOne returns a cursor over the zero or one movie matching id
	GetOne(ctx context.Context, id int64) (*Cursor, error)

	// GetAll returns a cursor over every movie ordered by ascending id
	GetAll(ctx context.Context) (*Cursor, error)
}

// ReadAll loads every movie from an opened store in ascending id order.
// The cursor is closed before ReadAll returns.
func ReadAll(ctx context.Context, store Store) (records []movie.Record, err error) {
	cursor, err := store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = stdErrors.Join(err, cursor.Close())
	}()

	records = []movie.Record{}
	for {
		ok, err := cursor.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return records, nil
		}
		rec, err := cursor.Record()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}
