// Package csvutil reads CSV exports whose columns are located by header name.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ProcessorOptions configures CSV processing behavior.
type ProcessorOptions struct {
	// SkipInvalid skips records the parser rejects instead of failing.
	SkipInvalid bool

	// Logger receives warnings about skipped records. Defaults to slog.Default().
	Logger *slog.Logger
}

// Row is one CSV record addressed by header name.
type Row struct {
	Line   int
	header map[string]int
	record []string
}

// Get returns the trimmed value of the first named column that is present
// and non-empty. Header names match case-insensitively.
func (r Row) Get(names ...string) string {
	for _, name := range names {
		idx, ok := r.header[normalizeHeader(name)]
		if !ok || idx >= len(r.record) {
			continue
		}
		if v := strings.TrimSpace(r.record[idx]); v != "" {
			return v
		}
	}
	return ""
}

// Has reports whether the header contains name.
func (r Row) Has(name string) bool {
	_, ok := r.header[normalizeHeader(name)]
	return ok
}

// ProcessFile opens filename and runs Process on it.
func ProcessFile[T any](filename string, parser func(Row) (T, error), opts ProcessorOptions) ([]T, int, error) {
	csvFile, err := os.Open(filename)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = csvFile.Close() }()

	if fi, err := csvFile.Stat(); err != nil || fi.Size() == 0 {
		return nil, 0, fmt.Errorf("CSV file is empty or cannot be read")
	}

	return Process(csvFile, parser, opts)
}

// Process parses every record after the header row into T. It returns the
// parsed items and the number of records that were skipped.
func Process[T any](r io.Reader, parser func(Row) (T, error), opts ProcessorOptions) ([]T, int, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headerRecord, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}
	header := make(map[string]int, len(headerRecord))
	for i, name := range headerRecord {
		header[normalizeHeader(name)] = i
	}

	var (
		items   []T
		skipped int
		line    = 1
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.Warn("Error reading record", "line", line, "error", err)
			skipped++
			continue
		}

		item, err := parser(Row{Line: line, header: header, record: record})
		if err != nil {
			if opts.SkipInvalid {
				logger.Warn("Skipping invalid record", "line", line, "error", err)
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("invalid record on line %d: %w", line, err)
		}

		items = append(items, item)
	}

	return items, skipped, nil
}

func normalizeHeader(name string) string {
	// spreadsheet exports often start with a byte order mark
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
}
