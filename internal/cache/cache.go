// Package cache keeps responses from external lookup services in a local
// SQLite database so repeated runs do not spend API quota.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	// DefaultTTL is the default time-to-live for cached entries (30 days)
	DefaultTTL = 720 * time.Hour
	// DefaultNegativeTTL is the TTL for "not found" responses (7 days)
	DefaultNegativeTTL = 168 * time.Hour
)

var errClosed = errors.New("cache is closed")

// FetchFunc represents a function that fetches data from an external source
type FetchFunc[T any] func() (T, error)

// Cache manages the SQLite database connection for caching
type Cache struct {
	db          *sql.DB
	mu          sync.RWMutex
	path        string
	ttl         time.Duration
	negativeTTL time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets how long found entries stay valid. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithNegativeTTL sets how long "not found" entries stay valid. Non-positive values are ignored.
func WithNegativeTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.negativeTTL = ttl
		}
	}
}

// WithLogger sets the logger for cache hits, misses and write failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Open opens or creates the cache database at dbPath.
func Open(ctx context.Context, dbPath string, opts ...Option) (*Cache, error) {
	c := &Cache{
		path:        dbPath,
		ttl:         DefaultTTL,
		negativeTTL: DefaultNegativeTTL,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "cache")

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), db.Close())
	}
	if _, err := db.ExecContext(ctx, lookupsSchema); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create cache table: %w", err), db.Close())
	}

	c.db = db
	return c, nil
}

// Path returns the cache database path.
func (c *Cache) Path() string { return c.path }

// TTL is the lifetime of a found entry.
func (c *Cache) TTL() time.Duration { return c.ttl }

// NegativeTTL is the lifetime of a "not found" entry.
func (c *Cache) NegativeTTL() time.Duration { return c.negativeTTL }

// Close closes the database connection
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Get returns the cached data for key, or false when it is missing or expired.
func (c *Cache) Get(ctx context.Context, source, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return "", false, errClosed
	}

	var data string
	var expiresAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT data, expires_at FROM lookups WHERE source = ? AND cache_key = ?`,
		source, key,
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query cache: %w", err)
	}

	if c.now().Unix() >= expiresAt {
		c.logger.Debug("Cache expired", "source", source, "key", key)
		return "", false, nil
	}
	return data, true, nil
}

// Set stores data under key for ttl.
func (c *Cache) Set(ctx context.Context, source, key, data string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return errClosed
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO lookups (source, cache_key, data, expires_at) VALUES (?, ?, ?, ?)`,
		source, key, data, c.now().Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Invalidate deletes every entry of source, or of all sources when source is
// empty, and returns the number of entries removed.
func (c *Cache) Invalidate(ctx context.Context, source string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return 0, errClosed
	}

	query, args := `DELETE FROM lookups WHERE source = ?`, []any{source}
	if source == "" {
		query, args = `DELETE FROM lookups`, nil
	}

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count invalidated entries: %w", err)
	}
	c.logger.Info("Cache invalidated", "source", source, "rows_deleted", n)
	return n, nil
}

// ClearExpired removes entries whose TTL has passed.
func (c *Cache) ClearExpired(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return 0, errClosed
	}

	res, err := c.db.ExecContext(ctx, `DELETE FROM lookups WHERE expires_at <= ?`, c.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count expired entries: %w", err)
	}
	if n > 0 {
		c.logger.Info("Cleared expired cache entries", "count", n)
	}
	return n, nil
}

// GetOrFetch returns the cached value for key or calls fetch and caches its
// result for ttl(result). A nil Cache always fetches. Cache failures are logged
// and never fail the lookup; fetch errors are returned and not cached.
func GetOrFetch[T any](ctx context.Context, c *Cache, source, key string, fetch FetchFunc[T], ttl func(T) time.Duration) (T, bool, error) {
	if c == nil {
		data, err := fetch()
		return data, false, err
	}

	cached, ok, err := c.Get(ctx, source, key)
	switch {
	case err != nil:
		c.logger.Warn("Failed to read cache, fetching directly", "source", source, "key", key, "error", err)
	case ok:
		var result T
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			c.logger.Debug("Cache hit", "source", source, "key", key)
			return result, true, nil
		}
		c.logger.Warn("Failed to unmarshal cached data, will refetch", "source", source, "key", key, "error", err)
	}

	c.logger.Debug("Cache miss, fetching data", "source", source, "key", key)
	data, err := fetch()
	if err != nil {
		var zero T
		return zero, false, err
	}

	lifetime := c.ttl
	if ttl != nil {
		lifetime = ttl(data)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		c.logger.Warn("Failed to marshal data for caching", "source", source, "key", key, "error", err)
		return data, false, nil
	}
	if err := c.Set(ctx, source, key, string(payload), lifetime); err != nil {
		c.logger.Warn("Failed to cache data", "source", source, "key", key, "error", err)
	}
	return data, false, nil
}
