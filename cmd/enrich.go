package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/marquee/internal/config"
	"github.com/lepinkainen/marquee/internal/coordinator"
	"github.com/lepinkainen/marquee/internal/datastore"
	"github.com/lepinkainen/marquee/internal/errors"
	"github.com/lepinkainen/marquee/internal/movie"
	"github.com/lepinkainen/marquee/internal/omdb"
	"github.com/lepinkainen/marquee/internal/ratelimit"
)

// EnrichCmd fills empty movie fields with data from OMDb.
type EnrichCmd struct {
	ID     int64  `help:"Only enrich the movie with this id"`
	DryRun bool   `help:"Show what would change without saving"`
	APIKey  string `help:"OMDb API key (default from omdb.api_key or OMDB_API_KEY)"`
	NoCache bool   `help:"Query OMDb even for titles looked up recently"`
}

type enrichResult struct {
	Updated   int
	Unchanged int
	Failed    int
	Stopped   bool
}

func (e *EnrichCmd) Run(settings *config.Settings) error {
	apiKey := e.APIKey
	if apiKey == "" {
		apiKey = settings.OMDB.APIKey
	}

	opts := []omdb.Option{
		omdb.WithBaseURL(settings.OMDB.BaseURL),
		omdb.WithLimiter(ratelimit.New("OMDB", settings.OMDB.RequestsPerSecond)),
	}
	if settings.Cache.Enabled && !e.NoCache {
		lookups, err := openCache(settings)
		if err != nil {
			slog.Warn("Lookup cache unavailable, querying OMDb directly", "error", err)
		} else {
			defer func() { _ = lookups.Close() }()
			opts = append(opts, omdb.WithCache(lookups))
		}
	}

	client, err := omdb.NewClient(apiKey, opts...)
	if err != nil {
		return err
	}

	s := newSession(settings)
	res, err := await(context.Background(), s, func(deliver func(enrichResult, error)) *coordinator.Operation {
		return coordinator.Run(s.coord, "enrich", func(ctx context.Context, store datastore.Store) (enrichResult, error) {
			return e.enrich(ctx, store, client)
		}, deliver)
	})
	if err != nil {
		return fmt.Errorf("failed to enrich movies: %w", err)
	}

	verb := "Updated"
	if e.DryRun {
		verb = "Would update"
	}
	fmt.Fprintf(stdout, "%s %d movies (%d unchanged, %d failed)\n", verb, res.Updated, res.Unchanged, res.Failed)
	if res.Stopped {
		fmt.Fprintln(stdout, "Stopped early: OMDb request limit reached")
	}
	return nil
}

func (e *EnrichCmd) enrich(ctx context.Context, store datastore.Store, client *omdb.Client) (enrichResult, error) {
	var res enrichResult

	records, err := datastore.ReadAll(ctx, store)
	if err != nil {
		return res, err
	}
	if e.ID != 0 {
		records = selectID(records, e.ID)
		if len(records) == 0 {
			return res, errors.NewRecordNotFoundError(e.ID)
		}
	}

	for _, rec := range records {
		fields, changed, err := client.Enrich(ctx, rec)
		switch {
		case errors.IsRateLimitError(err):
			slog.Warn("OMDb request limit reached, stopping", "error", err)
			res.Stopped = true
			return res, nil
		case err != nil:
			slog.Warn("Failed to enrich movie", "id", rec.ID, "name", rec.Name, "error", err)
			res.Failed++
			continue
		case len(changed) == 0:
			slog.Debug("Nothing to enrich", "id", rec.ID, "name", rec.Name)
			res.Unchanged++
			continue
		}

		slog.Info("Enriching movie", "id", rec.ID, "name", rec.Name, "fields", changed, "dry_run", e.DryRun)
		if !e.DryRun {
			if _, err := store.Update(ctx, rec.ID, fields); err != nil {
				return res, fmt.Errorf("failed to save movie %d: %w", rec.ID, err)
			}
		}
		res.Updated++
	}

	return res, nil
}

func selectID(records []movie.Record, id int64) []movie.Record {
	for _, rec := range records {
		if rec.ID == id {
			return []movie.Record{rec}
		}
	}
	return nil
}
