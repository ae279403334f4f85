package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration keys
const (
	KeyDatabasePath     = "database.path"
	KeyWorkers          = "coordinator.workers"
	KeyLogLevel         = "log.level"
	KeyOMDBAPIKey       = "omdb.api_key"
	KeyOMDBBaseURL      = "omdb.base_url"
	KeyOMDBRequestsPerS = "omdb.requests_per_second"
	KeyExportDir        = "export.dir"
	KeyExportOverwrite  = "export.overwrite"
	KeyCacheEnabled     = "cache.enabled"
	KeyCacheDBFile      = "cache.dbfile"
	KeyCacheTTL         = "cache.ttl"
	KeyCacheNegativeTTL = "cache.negative_ttl"
)

// EnvPrefix is prepended to every automatically bound environment variable,
// so database.path is read from MARQUEE_DATABASE_PATH.
const EnvPrefix = "MARQUEE"

// Settings is the typed view of the viper configuration.
type Settings struct {
	DatabasePath string
	Workers      int
	LogLevel     string
	OMDB         OMDBSettings
	Export       ExportSettings
	Cache        CacheSettings
}

// OMDBSettings configures the OMDb client used by enrich.
type OMDBSettings struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond int
}

// ExportSettings configures markdown and JSON export.
type ExportSettings struct {
	Dir       string
	Overwrite bool
}

// CacheSettings configures the lookup cache for OMDb responses.
type CacheSettings struct {
	Enabled     bool
	DBFile      string
	TTL         time.Duration
	NegativeTTL time.Duration
}

// SetDefaults registers default values and environment bindings with viper.
func SetDefaults() {
	viper.SetDefault(KeyDatabasePath, "./marquee.db")
	viper.SetDefault(KeyWorkers, 4)
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyOMDBAPIKey, "")
	viper.SetDefault(KeyOMDBBaseURL, "http://www.omdbapi.com")
	viper.SetDefault(KeyOMDBRequestsPerS, 1)
	viper.SetDefault(KeyExportDir, "./markdown")
	viper.SetDefault(KeyExportOverwrite, false)
	viper.SetDefault(KeyCacheEnabled, true)
	viper.SetDefault(KeyCacheDBFile, "./cache.db")
	viper.SetDefault(KeyCacheTTL, "720h")
	viper.SetDefault(KeyCacheNegativeTTL, "168h")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// The OMDb key is commonly exported without the prefix
	if err := viper.BindEnv(KeyOMDBAPIKey, EnvPrefix+"_OMDB_API_KEY", "OMDB_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}
}

// Load reads the current viper state into Settings.
func Load() Settings {
	return Settings{
		DatabasePath: viper.GetString(KeyDatabasePath),
		Workers:      viper.GetInt(KeyWorkers),
		LogLevel:     viper.GetString(KeyLogLevel),
		OMDB: OMDBSettings{
			APIKey:            viper.GetString(KeyOMDBAPIKey),
			BaseURL:           strings.TrimRight(viper.GetString(KeyOMDBBaseURL), "/"),
			RequestsPerSecond: viper.GetInt(KeyOMDBRequestsPerS),
		},
		Export: ExportSettings{
			Dir:       viper.GetString(KeyExportDir),
			Overwrite: viper.GetBool(KeyExportOverwrite),
		},
		Cache: CacheSettings{
			Enabled:     viper.GetBool(KeyCacheEnabled),
			DBFile:      viper.GetString(KeyCacheDBFile),
			TTL:         viper.GetDuration(KeyCacheTTL),
			NegativeTTL: viper.GetDuration(KeyCacheNegativeTTL),
		},
	}
}

// ParseLevel maps a log level name to a slog.Level, defaulting to Info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
