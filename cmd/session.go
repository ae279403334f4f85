package cmd

import (
	"context"
	"log/slog"

	"github.com/lepinkainen/marquee/internal/config"
	"github.com/lepinkainen/marquee/internal/coordinator"
	"github.com/lepinkainen/marquee/internal/datastore"
)

// session wires the store and coordinator for a single command. The command
// goroutine is the interactive context: results arrive on loop.
type session struct {
	store *datastore.SQLiteStore
	loop  *coordinator.Loop
	coord *coordinator.Coordinator
}

func newSession(settings *config.Settings) *session {
	logger := slog.Default()
	store := datastore.NewSQLiteStore(settings.DatabasePath, datastore.WithLogger(logger))
	loop := coordinator.NewLoop()

	return &session{
		store: store,
		loop:  loop,
		coord: coordinator.New(store, loop,
			coordinator.WithWorkers(settings.Workers),
			coordinator.WithLogger(logger),
		),
	}
}

// await submits one operation and runs the loop until its result is delivered.
func await[T any](ctx context.Context, s *session, submit func(deliver func(T, error)) *coordinator.Operation) (T, error) {
	var (
		result    T
		resultErr error
	)
	submit(func(v T, err error) {
		result, resultErr = v, err
		s.loop.Stop()
	})

	if err := s.loop.Run(ctx); err != nil {
		return result, err
	}
	return result, resultErr
}
