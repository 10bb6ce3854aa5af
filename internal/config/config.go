// Package config loads the service configuration from defaults, an optional
// YAML file, a .env file and APIFOOTBALL_* environment variables (in
// increasing precedence). Command-line flags bound to the returned viper
// instance win over all of them.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/apifootball-client/pkg/client"
	"github.com/Sternrassler/apifootball-client/pkg/logging"
	"github.com/Sternrassler/apifootball-client/pkg/quota"
	"github.com/Sternrassler/apifootball-client/pkg/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. APIFOOTBALL_API_KEY.
const EnvPrefix = "APIFOOTBALL"

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config is the full service configuration.
type Config struct {
	APIKey            string        `mapstructure:"api-key"`
	BaseURL           string        `mapstructure:"base-url"`
	DailyLimit        int           `mapstructure:"daily-limit"`
	RequestsPerMinute int           `mapstructure:"requests-per-minute"`
	MaxRetries        int           `mapstructure:"max-retries"`
	RetryBackoff      time.Duration `mapstructure:"retry-backoff"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Season            int           `mapstructure:"season"`

	Storage    string `mapstructure:"storage"`
	SQLitePath string `mapstructure:"sqlite-path"`
	RedisAddr  string `mapstructure:"redis-addr"`
	RedisDB    int    `mapstructure:"redis-db"`

	LogLevel  string `mapstructure:"log-level"`
	LogPretty bool   `mapstructure:"log-pretty"`

	ListenAddr  string   `mapstructure:"listen-addr"`
	CORSOrigins []string `mapstructure:"cors-origins"`
}

// NewViper returns a viper instance with defaults and environment binding
// set up. Bind flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api-key", "")
	v.SetDefault("base-url", client.DefaultBaseURL)
	v.SetDefault("daily-limit", quota.DefaultDailyLimit)
	v.SetDefault("requests-per-minute", client.DefaultRequestsPerMinute)
	v.SetDefault("max-retries", 2)
	v.SetDefault("retry-backoff", client.DefaultRetryBackoff)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("season", client.DefaultSeason)

	v.SetDefault("storage", StorageSQLite)
	v.SetDefault("sqlite-path", "apifootball.db")
	v.SetDefault("redis-addr", "localhost:6379")
	v.SetDefault("redis-db", 0)

	v.SetDefault("log-level", string(logging.LevelInfo))
	v.SetDefault("log-pretty", false)

	v.SetDefault("listen-addr", ":8080")
	v.SetDefault("cors-origins", []string{"http://localhost:5173"})
	return v
}

// Load reads the optional config file at path (a missing file is fine) and
// an optional .env file from the working directory, then unmarshals and
// validates the result.
func Load(v *viper.Viper, path string) (Config, error) {
	var cfg Config

	// Variables already set in the environment are not overridden.
	_ = godotenv.Load(".env")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges. A missing API key is allowed; the client
// then reports itself as not configured and every call fails upstream.
func (c Config) Validate() error {
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base-url must be an absolute URL (got %q)", c.BaseURL)
	}
	if c.DailyLimit < 1 {
		return fmt.Errorf("daily-limit must be >= 1 (got %d)", c.DailyLimit)
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests-per-minute must be >= 0 (got %d)", c.RequestsPerMinute)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max-retries must be >= 0 (got %d)", c.MaxRetries)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry-backoff must be >= 0 (got %s)", c.RetryBackoff)
	}
	if c.Season < 1 {
		return fmt.Errorf("season must be set (got %d)", c.Season)
	}

	switch c.Storage {
	case StorageSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite-path is required for sqlite storage")
		}
	case StorageRedis:
		if c.RedisAddr == "" {
			return errors.New("redis-addr is required for redis storage")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("storage must be one of sqlite, redis, memory (got %q)", c.Storage)
	}

	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("log-level must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}
	return nil
}

// Logging returns the logger configuration.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.LogLevel)
	cfg.Pretty = c.LogPretty
	return cfg
}

// Client returns the API client configuration on top of store.
func (c Config) Client(store storage.Store) client.Config {
	cfg := client.DefaultConfig(store, c.APIKey)
	cfg.BaseURL = c.BaseURL
	cfg.DailyLimit = c.DailyLimit
	cfg.RequestsPerMinute = c.RequestsPerMinute
	cfg.MaxRetries = c.MaxRetries
	cfg.RetryBackoff = c.RetryBackoff
	cfg.Timeout = c.Timeout
	cfg.Season = c.Season
	return cfg
}
