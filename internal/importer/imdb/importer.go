// Package imdb imports an IMDb ratings or list CSV export into the movie store.
package imdb

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/lepinkainen/marquee/internal/csvutil"
	"github.com/lepinkainen/marquee/internal/movie"
)

// BatchInserter stores a batch of movies atomically.
type BatchInserter interface {
	BatchInsert(ctx context.Context, records []movie.Fields) (int, error)
}

// Result summarises an import run.
type Result struct {
	Imported int
	Skipped  int
}

// Parse reads an IMDb export. Columns are located by header name, so both
// the ratings and the list export formats work. Rows without a title are
// skipped with a warning.
func Parse(r io.Reader, logger *slog.Logger) ([]movie.Fields, int, error) {
	return csvutil.Process(r, parseRow, csvutil.ProcessorOptions{SkipInvalid: true, Logger: logger})
}

// ParseFile is Parse for a file on disk.
func ParseFile(path string, logger *slog.Logger) ([]movie.Fields, int, error) {
	return csvutil.ProcessFile(path, parseRow, csvutil.ProcessorOptions{SkipInvalid: true, Logger: logger})
}

// Import parses path and inserts every valid row in a single batch.
func Import(ctx context.Context, store BatchInserter, path string, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "imdb")

	movies, skipped, err := ParseFile(path, logger)
	if err != nil {
		return Result{}, err
	}
	logger.Info("Found movies", "count", len(movies), "skipped", skipped)

	if len(movies) == 0 {
		return Result{Skipped: skipped}, nil
	}

	n, err := store.BatchInsert(ctx, movies)
	if err != nil {
		return Result{Skipped: skipped}, fmt.Errorf("failed to store imported movies: %w", err)
	}
	return Result{Imported: n, Skipped: skipped}, nil
}

func parseRow(row csvutil.Row) (movie.Fields, error) {
	fields := movie.Fields{
		Name:     row.Get("Title", "Original Title"),
		Director: row.Get("Directors", "Director"),
		Release:  row.Get("Release Date", "Year"),
	}.Normalized()

	if err := fields.Validate(); err != nil {
		return movie.Fields{}, err
	}
	return fields, nil
}
