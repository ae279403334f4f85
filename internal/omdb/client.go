// Package omdb looks up movies in the Open Movie Database.
package omdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lepinkainen/marquee/internal/cache"
	"github.com/lepinkainen/marquee/internal/errors"
	"github.com/lepinkainen/marquee/internal/ratelimit"
)

// DefaultBaseURL is the public OMDb endpoint.
const DefaultBaseURL = "http://www.omdbapi.com"

const limitReachedMessage = "Request limit reached!"

// CacheSource names OMDb entries in the lookup cache.
const CacheSource = "omdb"

// Client fetches title data from OMDb. Once OMDb reports its request limit,
// every later call fails fast with a RateLimitError.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	cache   *cache.Cache

	limited atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the OMDb endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLimiter sets the outbound request limiter.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// WithCache keeps lookups, including misses, in c.
func WithCache(c *cache.Cache) Option {
	return func(client *Client) {
		client.cache = c
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates an OMDb client. The free tier allows 1000 requests a day,
// so the default limiter allows one request per second.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OMDB API key not configured (set omdb.api_key or OMDB_API_KEY)")
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: ratelimit.New("OMDB", 1),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "omdb")
	return c, nil
}

// RequestsAllowed reports whether OMDb has not yet refused us for the day.
func (c *Client) RequestsAllowed() bool {
	return !c.limited.Load()
}

// lookup is the cached form of a title lookup. A nil Response is a miss.
type lookup struct {
	Response *Response `json:"response,omitempty"`
}

// FetchByTitle looks up a movie by title, narrowed by year when year is not
// empty. It returns nil, nil when OMDb has no match.
func (c *Client) FetchByTitle(ctx context.Context, title, year string) (*Response, error) {
	if c.cache == nil {
		return c.fetchByTitle(ctx, title, year)
	}

	key := strings.ToLower(title) + "|" + year
	result, fromCache, err := cache.GetOrFetch(ctx, c.cache, CacheSource, key, func() (lookup, error) {
		resp, err := c.fetchByTitle(ctx, title, year)
		return lookup{Response: resp}, err
	}, func(l lookup) time.Duration {
		if l.Response == nil {
			return c.cache.NegativeTTL()
		}
		return c.cache.TTL()
	})
	if err != nil {
		return nil, err
	}
	if fromCache {
		c.logger.Debug("Using cached OMDB data", "title", title, "year", year)
	}
	return result.Response, nil
}

func (c *Client) fetchByTitle(ctx context.Context, title, year string) (*Response, error) {
	if !c.RequestsAllowed() {
		return nil, errors.NewRateLimitError("OMDB API request limit reached")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("t", title)
	query.Set("type", "movie")
	if year != "" {
		query.Set("y", year)
	}
	c.logger.Debug("Fetching OMDB data by title", "title", title, "year", year)

	// apikey is appended after logging so it never shows up in debug output
	query.Set("apikey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var omdbResp Response
	decodeErr := json.Unmarshal(body, &omdbResp)

	if omdbResp.Error == limitReachedMessage || resp.StatusCode == http.StatusTooManyRequests {
		return nil, c.markLimited(retryAfter(resp.Header.Get("Retry-After")))
	}
	if resp.StatusCode != http.StatusOK {
		if omdbResp.Error != "" {
			c.logger.Warn("OMDB API error", "error", omdbResp.Error)
		}
		return nil, fmt.Errorf("OMDB API returned non-200 status code: %d for title: %s", resp.StatusCode, title)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	if omdbResp.Response == "False" {
		if strings.Contains(strings.ToLower(omdbResp.Error), "not found") {
			c.logger.Debug("Movie not found in OMDB", "title", title, "year", year)
			return nil, nil
		}
		return nil, fmt.Errorf("OMDB API error: %s", omdbResp.Error)
	}

	if omdbResp.Title == "" {
		return nil, fmt.Errorf("invalid or empty response from OMDB API for title: %s", title)
	}

	return &omdbResp, nil
}

func (c *Client) markLimited(retry time.Duration) error {
	if c.limited.CompareAndSwap(false, true) {
		c.logger.Warn("OMDB API rate limit reached; skipping further OMDB requests for this run")
	}
	return errors.NewRateLimitErrorWithRetry("OMDB API request limit reached", retry)
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
