// Package config loads runtime settings for cricketstats from defaults, an
// optional config file, a .env file, and CRICKET_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. CRICKET_LOG_LEVEL.
const EnvPrefix = "CRICKET"

// DefaultDownloadURL is the Cricsheet one-day international archive.
const DefaultDownloadURL = "https://cricsheet.org/downloads/odis_json.zip"

// Config is the full set of runtime settings.
type Config struct {
	DatabasePath string         `mapstructure:"database_path"`
	DataDir      string         `mapstructure:"data_dir"`
	DownloadURL  string         `mapstructure:"download_url"`
	Database     DatabaseConfig `mapstructure:"database"`
	Log          LogConfig      `mapstructure:"log"`
	HTTP         HTTPConfig     `mapstructure:"http"`
	Ingest       IngestConfig   `mapstructure:"ingest"`
	Metrics      MetricsConfig  `mapstructure:"metrics"`
}

// DatabaseConfig tunes the SQLite connection.
type DatabaseConfig struct {
	// ForeignKeys enforces the innings -> matches reference. When on, a
	// document whose match row was rejected fails as a whole.
	ForeignKeys bool `mapstructure:"foreign_keys"`
}

// LogConfig selects the zap logger level and encoder.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// HTTPConfig controls archive downloads: per-request timeout and the retry
// schedule for transient failures.
type HTTPConfig struct {
	Timeout            time.Duration `mapstructure:"timeout"`
	MaxRetries         int           `mapstructure:"max_retries"`
	InitialBackoff     time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff         time.Duration `mapstructure:"max_backoff"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// IngestConfig holds ingestion policy.
type IngestConfig struct {
	// DeliveryPolicy is "always" or "new_match_only".
	DeliveryPolicy string `mapstructure:"delivery_policy"`
}

// MetricsConfig picks where ingestion counters are sent. Backend "none"
// disables reporting.
type MetricsConfig struct {
	Backend          string `mapstructure:"backend"` // none, pushgateway, datadog
	Job              string `mapstructure:"job"`
	PushgatewayURL   string `mapstructure:"pushgateway_url"`
	DatadogAddr      string `mapstructure:"datadog_addr"`
	DatadogNamespace string `mapstructure:"datadog_namespace"`
}

// defaults lists every key. Keys must be registered here for AutomaticEnv to
// apply during Unmarshal.
var defaults = map[string]any{
	"database_path":             "odi_cricket.db",
	"data_dir":                  "./data",
	"download_url":              DefaultDownloadURL,
	"database.foreign_keys":     false,
	"log.level":                 "info",
	"log.format":                "console",
	"http.timeout":              60 * time.Second,
	"http.max_retries":          3,
	"http.initial_backoff":      500 * time.Millisecond,
	"http.max_backoff":          10 * time.Second,
	"http.insecure_skip_verify": false,
	"ingest.delivery_policy":    "always",
	"metrics.backend":           "none",
	"metrics.job":               "cricketstats",
	"metrics.pushgateway_url":   "",
	"metrics.datadog_addr":      "",
	"metrics.datadog_namespace": "",
}

// NewViper returns a viper instance with defaults and env binding applied.
// Callers may bind command-line flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads .env (if present) into the process environment, then the
// config file at path (if non-empty), and decodes everything into a Config.
// Precedence, highest first: flags bound to v, environment, file, defaults.
func Load(v *viper.Viper, path string) (Config, error) {
	// .env is optional; existing environment variables win.
	_ = godotenv.Load()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "config: read %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "config: decode")
	}
	return cfg, nil
}

// Default returns the configuration with no file, env, or flag input.
func Default() Config {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return cfg
}
