// Package config loads incident-console configuration from defaults, an
// optional YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables. Nested keys are
// separated by a double underscore, e.g. INCIDENTCTL_API__BASE_URL.
const EnvPrefix = "INCIDENTCTL_"

// DefaultEnvFile is loaded when present.
const DefaultEnvFile = ".env"

// Config holds application configuration.
type Config struct {
	API      APIConfig      `koanf:"api"`
	Session  SessionConfig  `koanf:"session"`
	Fallback FallbackConfig `koanf:"fallback"`
	Activity ActivityConfig `koanf:"activity"`
	Log      LogConfig      `koanf:"log"`
	Server   ServerConfig   `koanf:"server"`
}

// APIConfig configures the incident API client.
type APIConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"`
	Burst     int           `koanf:"burst"`
}

// SessionConfig configures where the session is persisted.
type SessionConfig struct {
	Path string `koanf:"path"`
}

// FallbackConfig toggles demo data and provisional records when the API is
// unavailable.
type FallbackConfig struct {
	Enabled bool `koanf:"enabled"`
}

// ActivityConfig configures the recent activity feed.
type ActivityConfig struct {
	Limit int `koanf:"limit"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ServerConfig configures the console gateway.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// Options selects the files Load reads. Empty fields use the defaults.
type Options struct {
	File    string
	EnvFile string
}

func defaults() map[string]any {
	return map[string]any{
		"api.base_url":   "http://localhost:5000/api",
		"api.timeout":    "15s",
		"api.rate_limit": 0,
		"api.burst":      1,

		"session.path": defaultSessionPath(),

		"fallback.enabled": true,
		"activity.limit":   10,

		"log.level":  "info",
		"log.format": "text",

		"server.host":                "127.0.0.1",
		"server.port":                "8088",
		"server.metrics_port":        "9090",
		"server.read_timeout":        "15s",
		"server.read_header_timeout": "5s",
		"server.write_timeout":       "30s",
		"server.idle_timeout":        "60s",
		"server.shutdown_timeout":    "10s",
		"server.cors_origins":        []string{"http://localhost:3000"},
	}
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "incident-console", "session.json")
}

// Load reads configuration. Later sources override earlier ones: defaults,
// the YAML file, then environment variables (including those from the env
// file).
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", opts.File, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)

	return &cfg, nil
}

func loadEnvFile(name string) error {
	explicit := name != ""
	if !explicit {
		name = DefaultEnvFile
	}
	err := godotenv.Load(name)
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", name, err)
}

// envKey maps INCIDENTCTL_SERVER__METRICS_PORT to server.metrics_port.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// splitList flattens comma-separated items, as produced by environment
// variables, and drops blanks.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout must be positive"))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("api.rate_limit must not be negative"))
	}
	if c.API.Burst < 0 {
		errs = append(errs, errors.New("api.burst must not be negative"))
	}
	if strings.TrimSpace(c.Session.Path) == "" {
		errs = append(errs, errors.New("session.path is required"))
	}
	if c.Activity.Limit <= 0 {
		errs = append(errs, errors.New("activity.limit must be positive"))
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}

	return errors.Join(errs...)
}
