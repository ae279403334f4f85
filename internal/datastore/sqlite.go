package datastore

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/lepinkainen/marquee/internal/errors"
	"github.com/lepinkainen/marquee/internal/movie"
)

// dsnPragmas lets concurrent batches wait on SQLite's own locking instead of failing fast.
const dsnPragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

var errStoreClosed = stdErrors.New("store is not open")

// SQLiteStore implements the Store interface for local SQLite storage.
//
// The underlying handle is reference counted: the first Open opens the database
// and applies the schema, and the Close matching the last outstanding Open
// releases it. This lets concurrent operation batches share one handle while
// still closing it between batches.
type SQLiteStore struct {
	dbPath string
	logger *slog.Logger

	mu      sync.Mutex
	db      *sql.DB
	refs    int
	cursors map[*Cursor]struct{}
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithLogger sets the logger used for lifecycle and leak warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLiteStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSQLiteStore creates a new SQLiteStore instance. Nothing is opened until Open.
func NewSQLiteStore(dbPath string, opts ...Option) *SQLiteStore {
	s := &SQLiteStore{
		dbPath:  dbPath,
		logger:  slog.Default(),
		cursors: make(map[*Cursor]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "datastore")
	return s
}

// Path returns the database path the store was created with.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Open acquires the database handle. Failures are reported as StorageUnavailableError.
func (s *SQLiteStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs > 0 {
		s.refs++
		return nil
	}

	if !isMemoryPath(s.dbPath) {
		if dir := filepath.Dir(s.dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return errors.NewStorageUnavailableError(s.dbPath, err)
			}
		}
	}

	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return errors.NewStorageUnavailableError(s.dbPath, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errors.NewStorageUnavailableError(s.dbPath, err)
	}
	if _, err := db.ExecContext(ctx, moviesSchema); err != nil {
		_ = db.Close()
		return errors.NewStorageUnavailableError(s.dbPath, fmt.Errorf("failed to create table: %w", err))
	}

	s.db = db
	s.refs = 1
	s.logger.Debug("Opened database", "path", s.dbPath)
	return nil
}

// Close releases one Open. When the last one is released the database is closed,
// force-closing any cursors that are still open. Calling Close on a closed store is a no-op.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if s.refs == 0 {
		s.mu.Unlock()
		return nil
	}
	s.refs--
	if s.refs > 0 {
		s.mu.Unlock()
		return nil
	}

	db := s.db
	s.db = nil
	leaked := make([]*Cursor, 0, len(s.cursors))
	for c := range s.cursors {
		leaked = append(leaked, c)
	}
	s.cursors = make(map[*Cursor]struct{})
	s.mu.Unlock()

	if len(leaked) > 0 {
		s.logger.Warn("Closing database with open cursors", "path", s.dbPath, "cursors", len(leaked))
		for _, c := range leaked {
			c.forceClose()
		}
	}

	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.logger.Debug("Closed database", "path", s.dbPath)
	return nil
}

// OpenCursors returns the number of cursors acquired and not yet closed.
func (s *SQLiteStore) OpenCursors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cursors)
}

// Insert persists a new movie and returns its id.
func (s *SQLiteStore) Insert(ctx context.Context, fields movie.Fields) (int64, error) {
	if err := fields.Validate(); err != nil {
		return 0, err
	}

	db, err := s.handle()
	if err != nil {
		return 0, err
	}

	res, err := db.ExecContext(ctx, insertSQL, fields.Values()...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert movie: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

// Update overwrites the fields of movie id and returns the number of rows affected.
func (s *SQLiteStore) Update(ctx context.Context, id int64, fields movie.Fields) (int64, error) {
	if err := fields.Validate(); err != nil {
		return 0, err
	}

	db, err := s.handle()
	if err != nil {
		return 0, err
	}

	args := append(fields.Values(), id)
	res, err := db.ExecContext(ctx, updateSQL, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update movie %d: %w", id, err)
	}
	return rowsAffected(res)
}

// Delete removes movie id and returns the number of rows affected.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) (int64, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}

	res, err := db.ExecContext(ctx, deleteSQL, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete movie %d: %w", id, err)
	}
	return rowsAffected(res)
}

// GetOne returns a cursor positioned before the movie matching id.
func (s *SQLiteStore) GetOne(ctx context.Context, id int64) (*Cursor, error) {
	return s.query(ctx, selectOneSQL, id)
}

// GetAll returns a cursor over all movies in ascending id order.
func (s *SQLiteStore) GetAll(ctx context.Context) (*Cursor, error) {
	return s.query(ctx, selectAllSQL)
}

// Get loads a single movie. It returns a RecordNotFoundError when id does not exist.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (rec movie.Record, err error) {
	cursor, err := s.GetOne(ctx, id)
	if err != nil {
		return movie.Record{}, err
	}
	defer func() {
		if closeErr := cursor.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	ok, err := cursor.MoveToFirst()
	if err != nil {
		return movie.Record{}, err
	}
	if !ok {
		return movie.Record{}, errors.NewRecordNotFoundError(id)
	}
	return cursor.Record()
}

// BatchInsert inserts all records in a single transaction and returns how many were written.
// Every record is validated first; one invalid record aborts the whole batch.
func (s *SQLiteStore) BatchInsert(ctx context.Context, records []movie.Fields) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	for i, r := range records {
		if err := r.Validate(); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
	}

	db, err := s.handle()
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback if we don't commit - ignore errors as they're expected if transaction was committed
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Values()...); err != nil {
			return 0, fmt.Errorf("failed to insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(records), nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) (*Cursor, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}

	cursor, err := newCursor(rows, s.forget)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cursors[cursor] = struct{}{}
	s.mu.Unlock()
	return cursor, nil
}

func (s *SQLiteStore) forget(c *Cursor) {
	s.mu.Lock()
	delete(s.cursors, c)
	s.mu.Unlock()
}

func (s *SQLiteStore) handle() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, errors.NewStorageUnavailableError(s.dbPath, errStoreClosed)
	}
	return s.db, nil
}

func (s *SQLiteStore) dsn() string {
	if strings.Contains(s.dbPath, "?") {
		return s.dbPath + "&" + dsnPragmas
	}
	return s.dbPath + "?" + dsnPragmas
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file:")
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}
