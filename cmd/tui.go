package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lepinkainen/humanlog"
	"github.com/lepinkainen/marquee/internal/config"
	"github.com/lepinkainen/marquee/internal/coordinator"
	"github.com/lepinkainen/marquee/internal/datastore"
	"github.com/lepinkainen/marquee/internal/tui"
)

var runTUI = tui.Run

// TUICmd opens the interactive terminal UI.
type TUICmd struct {
	LogFile string `help:"Write logs to this file while the UI is open"`
}

func (t *TUICmd) Run(settings *config.Settings) error {
	// The UI owns the terminal, so logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if t.LogFile != "" {
		f, err := os.OpenFile(t.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	logger := slog.New(humanlog.NewHandler(out, &humanlog.Options{
		Level: config.ParseLevel(settings.LogLevel),
	}))
	previous := slog.Default()
	slog.SetDefault(logger)
	defer slog.SetDefault(previous)

	store := datastore.NewSQLiteStore(settings.DatabasePath, datastore.WithLogger(logger))
	return runTUI(context.Background(), store,
		coordinator.WithWorkers(settings.Workers),
		coordinator.WithLogger(logger),
	)
}
