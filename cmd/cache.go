package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/marquee/internal/cache"
	"github.com/lepinkainen/marquee/internal/config"
	"github.com/lepinkainen/marquee/internal/omdb"
)

// CacheCmd manages the local lookup cache.
type CacheCmd struct {
	Clear CacheClearCmd `cmd:"" help:"Remove cached lookups"`
}

// CacheClearCmd deletes cached lookups.
type CacheClearCmd struct {
	Source  string `arg:"" optional:"" enum:"omdb,all" default:"all" help:"Cache source to clear: omdb or all"`
	Expired bool   `help:"Only remove entries whose TTL has passed"`
}

func (c *CacheClearCmd) Run(settings *config.Settings) error {
	lookups, err := openCache(settings)
	if err != nil {
		return err
	}
	defer func() { _ = lookups.Close() }()

	ctx := context.Background()
	var n int64
	switch {
	case c.Expired:
		n, err = lookups.ClearExpired(ctx)
	case c.Source == omdb.CacheSource:
		n, err = lookups.Invalidate(ctx, omdb.CacheSource)
	default:
		n, err = lookups.Invalidate(ctx, "")
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Removed %d cached lookups\n", n)
	return nil
}

func openCache(settings *config.Settings) (*cache.Cache, error) {
	return cache.Open(context.Background(), settings.Cache.DBFile,
		cache.WithTTL(settings.Cache.TTL),
		cache.WithNegativeTTL(settings.Cache.NegativeTTL),
	)
}
