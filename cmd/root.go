package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/lepinkainen/marquee/internal/config"
	"github.com/spf13/viper"
)

// stdout receives command output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// Globals holds flags shared by every command. Non-zero values override viper.
type Globals struct {
	DB       string `help:"Path to the movie database (default ./marquee.db)"`
	LogLevel string `help:"Log level: debug, info, warn or error"`
	Workers  int    `help:"Maximum number of background operations running at once"`
}

// CLI represents the complete command structure for the marquee application
type CLI struct {
	Globals

	List   ListCmd   `cmd:"" help:"List every movie"`
	Show   ShowCmd   `cmd:"" help:"Show all fields of a movie"`
	Add    AddCmd    `cmd:"" help:"Add a movie"`
	Edit   EditCmd   `cmd:"" help:"Change fields of a movie"`
	Remove RemoveCmd `cmd:"" help:"Remove a movie"`
	TUI    TUICmd    `cmd:"" name:"tui" help:"Browse and edit movies in a terminal UI"`
	Import ImportCmd `cmd:"" help:"Import movies from other services"`
	Enrich EnrichCmd `cmd:"" help:"Fill empty movie fields from OMDb"`
	Export ExportCmd `cmd:"" help:"Export movies as markdown notes or JSON"`
	Cache  CacheCmd  `cmd:"" help:"Manage the OMDb lookup cache"`
}

// ImportCmd groups the import sources.
type ImportCmd struct {
	IMDB ImportIMDBCmd `cmd:"" name:"imdb" help:"Import movies from an IMDb ratings or list CSV export"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(slog.LevelInfo)
	if err := initConfig(); err != nil {
		slog.Error("Fatal error in config file", "error", err)
		os.Exit(1)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("marquee"),
		kong.Description("Keep a personal collection of movies."),
		kong.UsageOnError(),
	)

	updateGlobalConfig(&cli.Globals)
	settings := config.Load()
	initLogging(config.ParseLevel(settings.LogLevel))

	if err := ctx.Run(&settings); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// initConfig registers defaults and reads an optional config.yaml from the
// working directory.
func initConfig() error {
	config.SetDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Debug("Config file not found, using defaults")
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	slog.Debug("Loaded config", "file", viper.ConfigFileUsed())
	return nil
}

func updateGlobalConfig(g *Globals) {
	if g.DB != "" {
		viper.Set(config.KeyDatabasePath, g.DB)
	}
	if g.LogLevel != "" {
		viper.Set(config.KeyLogLevel, g.LogLevel)
	}
	if g.Workers > 0 {
		viper.Set(config.KeyWorkers, g.Workers)
	}
}

func initLogging(level slog.Level) {
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
