package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/marquee/internal/config"
	"github.com/lepinkainen/marquee/internal/coordinator"
	"github.com/lepinkainen/marquee/internal/datastore"
	"github.com/lepinkainen/marquee/internal/export"
	"github.com/lepinkainen/marquee/internal/movie"
)

// ExportCmd writes the collection to disk.
type ExportCmd struct {
	Format    string `enum:"markdown,json" default:"markdown" help:"Output format (markdown or json)"`
	Out       string `short:"o" help:"Output directory (default from export.dir)"`
	Overwrite bool   `help:"Overwrite existing files"`
}

func (e *ExportCmd) Run(settings *config.Settings) error {
	s := newSession(settings)
	records, err := await(context.Background(), s, func(deliver func([]movie.Record, error)) *coordinator.Operation {
		return coordinator.Run(s.coord, "export", datastore.ReadAll, deliver)
	})
	if err != nil {
		return fmt.Errorf("failed to read movies: %w", err)
	}

	opts := export.Options{
		Dir:       settings.Export.Dir,
		Overwrite: e.Overwrite || settings.Export.Overwrite,
	}
	if e.Out != "" {
		opts.Dir = e.Out
	}

	res, err := export.Write(e.Format, records, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Exported %d files to %s (%d skipped)\n", res.Written, opts.Dir, res.Skipped)
	return nil
}
