package datastore

import (
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	"github.com/lepinkainen/marquee/internal/errors"
	"github.com/lepinkainen/marquee/internal/movie"
)

// Cursor is a forward, closeable sequence over query results.
//
// Rows are read from the driver on demand and kept once read, so MoveToFirst
// can return to the first row at any time. Every Cursor must be closed exactly
// once; any use after Close returns errors.ErrCursorClosed.
type Cursor struct {
	mu        sync.Mutex
	rows      *sql.Rows
	columns   []string
	index     map[string]int
	buf       [][]string
	pos       int
	exhausted bool
	closed    bool
	release   func(*Cursor)
}

func newCursor(rows *sql.Rows, release func(*Cursor)) (*Cursor, error) {
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}

	return &Cursor{
		rows:    rows,
		columns: columns,
		index:   index,
		pos:     -1,
		release: release,
	}, nil
}

// Columns returns the column names of the result set.
func (c *Cursor) Columns() []string {
	out := make([]string, len(c.columns))
	copy(out, c.columns)
	return out
}

// MoveToFirst positions the cursor on the first row and reports whether one exists.
func (c *Cursor) MoveToFirst() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, errors.ErrCursorClosed
	}
	if len(c.buf) == 0 {
		ok, err := c.fetch()
		if err != nil || !ok {
			return false, err
		}
	}
	c.pos = 0
	return true, nil
}

// Next advances to the following row and reports whether there is one.
// On a fresh cursor the first call moves to the first row.
func (c *Cursor) Next() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, errors.ErrCursorClosed
	}

	next := c.pos + 1
	if next < len(c.buf) {
		c.pos = next
		return true, nil
	}

	ok, err := c.fetch()
	if err != nil {
		return false, err
	}
	if !ok {
		c.pos = len(c.buf)
		return false, nil
	}
	c.pos = next
	return true, nil
}

// String returns the value of column in the current row.
func (c *Cursor) String(column string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.valueLocked(column)
}

// ID returns the id column of the current row.
func (c *Cursor) ID() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.valueLocked(movie.ColumnID)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}

// Record builds a movie.Record from the current row. Columns missing from the
// result set are left empty.
func (c *Cursor) Record() (movie.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	row, err := c.currentLocked()
	if err != nil {
		return movie.Record{}, err
	}

	var rec movie.Record
	for i, column := range c.columns {
		if column == movie.ColumnID {
			id, err := strconv.ParseInt(row[i], 10, 64)
			if err != nil {
				return movie.Record{}, fmt.Errorf("invalid id %q: %w", row[i], err)
			}
			rec.ID = id
			continue
		}
		rec.Set(column, row[i])
	}
	return rec, nil
}

// Close releases the underlying result set. Closing twice returns errors.ErrCursorClosed.
func (c *Cursor) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.ErrCursorClosed
	}
	c.closed = true
	err := c.rows.Close()
	release := c.release
	c.mu.Unlock()

	if release != nil {
		release(c)
	}
	return err
}

// forceClose is used by the store when it is closed underneath an open cursor.
func (c *Cursor) forceClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	_ = c.rows.Close()
}

func (c *Cursor) valueLocked(column string) (string, error) {
	row, err := c.currentLocked()
	if err != nil {
		return "", err
	}
	i, ok := c.index[column]
	if !ok {
		return "", fmt.Errorf("unknown column %q", column)
	}
	return row[i], nil
}

func (c *Cursor) currentLocked() ([]string, error) {
	if c.closed {
		return nil, errors.ErrCursorClosed
	}
	if c.pos < 0 || c.pos >= len(c.buf) {
		return nil, fmt.Errorf("cursor is not positioned on a row")
	}
	return c.buf[c.pos], nil
}

// fetch reads one more row from the driver into the buffer.
func (c *Cursor) fetch() (bool, error) {
	if c.exhausted {
		return false, nil
	}
	if !c.rows.Next() {
		c.exhausted = true
		if err := c.rows.Err(); err != nil {
			return false, fmt.Errorf("failed to read row: %w", err)
		}
		return false, nil
	}

	values := make([]sql.NullString, len(c.columns))
	dest := make([]any, len(c.columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := c.rows.Scan(dest...); err != nil {
		return false, fmt.Errorf("failed to scan row: %w", err)
	}

	row := make([]string, len(values))
	for i, v := range values {
		row[i] = v.String
	}
	c.buf = append(c.buf, row)
	return true, nil
}
