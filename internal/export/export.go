// Package export writes the movie collection to markdown notes or JSON.
package export

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/lepinkainen/marquee/internal/fileutil"
	"github.com/lepinkainen/marquee/internal/movie"
)

// Formats supported by Write.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// JSONFilename is the file written by JSON inside the output directory.
const JSONFilename = "movies.json"

// Options controls where and how the collection is written.
type Options struct {
	Dir       string
	Overwrite bool
	Logger    *slog.Logger
}

// Result counts written and skipped files.
type Result struct {
	Written int
	Skipped int
}

// Write exports records in the given format.
func Write(format string, records []movie.Record, opts Options) (Result, error) {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md":
		return Markdown(records, opts)
	case FormatJSON:
		return JSON(records, opts)
	default:
		return Result{}, fmt.Errorf("unknown export format %q (want %s or %s)", format, FormatMarkdown, FormatJSON)
	}
}

// Markdown writes one note per movie. Movies sharing a file name get their
// id appended so no note overwrites another from the same run.
func Markdown(records []movie.Record, opts Options) (Result, error) {
	logger := loggerFor(opts)

	var res Result
	seen := make(map[string]int, len(records))
	for _, rec := range records {
		name := fileutil.SanitizeFilename(rec.Name)
		seen[strings.ToLower(name)]++
		if seen[strings.ToLower(name)] > 1 {
			name = fmt.Sprintf("%s (%d)", name, rec.ID)
		}

		content, err := BuildNote(rec)
		if err != nil {
			return res, fmt.Errorf("movie %d: %w", rec.ID, err)
		}

		path := fileutil.MarkdownPath(name, opts.Dir)
		written, err := fileutil.WriteFileWithOverwrite(path, content, 0o644, opts.Overwrite)
		if err != nil {
			return res, err
		}
		if !written {
			logger.Debug("Note already exists, skipping", "filename", path)
			res.Skipped++
			continue
		}
		res.Written++
	}

	logger.Info("Exported markdown notes", "dir", opts.Dir, "written", res.Written, "skipped", res.Skipped)
	return res, nil
}

// JSON writes the whole collection to a single movies.json.
func JSON(records []movie.Record, opts Options) (Result, error) {
	logger := loggerFor(opts)
	path := filepath.Join(opts.Dir, JSONFilename)

	if records == nil {
		records = []movie.Record{}
	}
	written, err := fileutil.WriteJSONFile(records, path, opts.Overwrite)
	if err != nil {
		return Result{}, err
	}
	if !written {
		logger.Info("JSON file already exists, skipping", "filename", path)
		return Result{Skipped: 1}, nil
	}

	logger.Info("Exported JSON", "filename", path, "movies", len(records))
	return Result{Written: 1}, nil
}

// BuildNote renders a single movie as markdown with sorted frontmatter.
func BuildNote(rec movie.Record) ([]byte, error) {
	fm := NewFrontmatter()
	fm.Set("marquee_id", rec.ID)
	fm.Set("tags", []string{"movie"})

	var body strings.Builder
	fmt.Fprintf(&body, "\n# %s\n", rec.Name)

	first := true
	for _, column := range movie.FieldColumns {
		value, _ := rec.Get(column)
		fm.Set(column, value)

		if column == movie.ColumnName || value == "" {
			continue
		}
		if first {
			body.WriteString("\n")
			first = false
		}
		fmt.Fprintf(&body, "- **%s:** %s\n", label(column), value)
	}

	note := &Note{Frontmatter: fm, Body: body.String()}
	return note.Build()
}

func label(column string) string {
	return strings.ToUpper(column[:1]) + column[1:]
}

func loggerFor(opts Options) *slog.Logger {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", "export")
}
