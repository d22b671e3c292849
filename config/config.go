package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	DB      DBConfig
	HTTP    HTTPConfig
	Catalog CatalogConfig
	Log     LogConfig
	Remotes RemotesConfig
}

type DBConfig struct {
	DBPath string // Path to store db file
	DBFile string // Name of database file
	Bucket string // Prefix of the bucket names
}

type HTTPConfig struct {
	Port string // Port to listen on
}

type CatalogConfig struct {
	Arch            string        // Architecture whose table is served
	TableFile       string        // Optional YAML catalog replacing the built-in one
	RefreshSchedule string        // Cron spec for periodic refreshes
	ManifestTTL     time.Duration // Age after which a scheduled refresh rebuilds
	FetchTimeout    time.Duration // Per-request timeout of the file server client
	UserAgent       string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
}

type RemotesConfig struct {
	Supported          []string            // Remotes the validator recognizes
	UnsupportedAliases map[string][]string // Aliases refused per remote
}

// Defaults holds the default configuration values which can be overridden by environment variables
var Defaults = Config{
	DB: DBConfig{
		DBPath: getEnv("CORECATALOG_DB_PATH", "./"),
		DBFile: getEnv("CORECATALOG_DB_FILE", "corecatalog.db"),
		Bucket: getEnv("CORECATALOG_DB_BUCKET", "corecatalog"),
	},
	HTTP: HTTPConfig{
		Port: getEnv("CORECATALOG_HTTP_PORT", "8080"),
	},
	Catalog: CatalogConfig{
		Arch:            getEnv("CORECATALOG_ARCH", "x86_64"),
		TableFile:       getEnv("CORECATALOG_TABLE_FILE", ""),
		RefreshSchedule: getEnv("CORECATALOG_REFRESH_SCHEDULE", "@every 6h"),
		ManifestTTL:     5 * time.Minute,
		FetchTimeout:    30 * time.Second,
		UserAgent:       getEnv("CORECATALOG_USER_AGENT", "corecatalog/1.0"),
	},
	Log: LogConfig{
		Level:  getEnv("CORECATALOG_LOG_LEVEL", "info"),
		Format: getEnv("CORECATALOG_LOG_FORMAT", "console"),
	},
	Remotes: RemotesConfig{
		Supported:          []string{""},
		UnsupportedAliases: map[string][]string{},
	},
}

// LoadDefault returns a copy of Defaults with the duration and list
// overrides from the environment applied.
func LoadDefault() (*Config, error) {
	cfg := Defaults
	cfg.Remotes.Supported = append([]string(nil), Defaults.Remotes.Supported...)
	cfg.Remotes.UnsupportedAliases = make(map[string][]string, len(Defaults.Remotes.UnsupportedAliases))
	for remote, aliases := range Defaults.Remotes.UnsupportedAliases {
		cfg.Remotes.UnsupportedAliases[remote] = append([]string(nil), aliases...)
	}

	var err error
	if cfg.Catalog.ManifestTTL, err = getEnvDuration("CORECATALOG_MANIFEST_TTL", cfg.Catalog.ManifestTTL); err != nil {
		return nil, err
	}
	if cfg.Catalog.FetchTimeout, err = getEnvDuration("CORECATALOG_FETCH_TIMEOUT", cfg.Catalog.FetchTimeout); err != nil {
		return nil, err
	}
	if aliases := getEnv("CORECATALOG_UNSUPPORTED_ALIASES", ""); aliases != "" {
		cfg.Remotes.UnsupportedAliases[""] = splitList(aliases)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that cannot be defaulted
func (c *Config) Validate() error {
	if c.Catalog.Arch == "" {
		return fmt.Errorf("catalog architecture is required")
	}
	if c.DB.DBFile == "" {
		return fmt.Errorf("database file is required")
	}
	if c.DB.Bucket == "" {
		return fmt.Errorf("database bucket is required")
	}
	if c.Catalog.ManifestTTL < 0 {
		return fmt.Errorf("manifest TTL must not be negative")
	}
	return nil
}

// getEnv returns the value of the environment variable key if it exists, otherwise it returns the fallback value
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration in %s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
