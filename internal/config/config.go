package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// store
	Store                string `toml:"store"`
	PostgresHost         string `toml:"postgres_host"`
	PostgresPort         string `toml:"postgres_port"`
	PostgresDBName       string `toml:"postgres_db_name"`
	PostgresUser         string `toml:"postgres_user"`
	PostgresEnsureSchema bool   `toml:"postgres_ensure_schema"`
	// redis, used for rate limiting; disabled when host is empty
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// guestbook
	SubmitRateLimitPerMin int      `toml:"submit_rate_limit_per_min"`
	SessionTTLMinutes     int      `toml:"session_ttl_minutes"`
	DisplayTimezone       string   `toml:"display_timezone"`
	AllowedOrigins        []string `toml:"allowed_origins"`
	// client IP for rate limiting is taken from X-Real-IP / X-Forwarded-For;
	// only set when a reverse proxy in front overwrites those headers
	TrustProxyHeaders bool `toml:"trust_proxy_headers"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section for env [%s] missing", env)
	}
	return cfg, nil
}

// Load reads the TOML config file and returns the section for the given env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Store == "" {
		c.Store = StorePostgres
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.RedisHost != "" && c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.DisplayTimezone == "" {
		c.DisplayTimezone = "UTC"
	}
}

func (c *Config) Validate() error {
	if c.Port <= 0 {
		return fmt.Errorf("port must be set, got %d", c.Port)
	}
	switch c.Store {
	case StorePostgres:
		if c.PostgresHost == "" || c.PostgresDBName == "" {
			return fmt.Errorf("postgres store needs postgres_host and postgres_db_name")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store: %s", c.Store)
	}
	if c.SubmitRateLimitPerMin < 0 {
		return fmt.Errorf("submit_rate_limit_per_min must not be negative")
	}
	return nil
}
