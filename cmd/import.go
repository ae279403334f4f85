package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/marquee/internal/config"
	"github.com/lepinkainen/marquee/internal/coordinator"
	"github.com/lepinkainen/marquee/internal/datastore"
	"github.com/lepinkainen/marquee/internal/importer/imdb"
	"github.com/spf13/viper"
)

// ImportIMDBCmd imports an IMDb CSV export into the collection.
type ImportIMDBCmd struct {
	Input string `short:"f" help:"Path to IMDb CSV file"`
}

func (i *ImportIMDBCmd) Run(settings *config.Settings) error {
	// Read from config if value not provided via flag
	input := i.Input
	if input == "" {
		input = viper.GetString("imdb.csvfile")
	}
	if input == "" {
		return fmt.Errorf("input CSV file is required (provide via --input flag or imdb.csvfile in config)")
	}

	s := newSession(settings)
	res, err := await(context.Background(), s, func(deliver func(imdb.Result, error)) *coordinator.Operation {
		return coordinator.Run(s.coord, "import-imdb", func(ctx context.Context, _ datastore.Store) (imdb.Result, error) {
			return imdb.Import(ctx, s.store, input, slog.Default())
		}, deliver)
	})
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", input, err)
	}

	fmt.Fprintf(stdout, "Imported %d movies (%d skipped)\n", res.Imported, res.Skipped)
	return nil
}
