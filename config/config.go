package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// HTTP server
	Server ServerConfig `mapstructure:"server"`

	// Redis (slug registry + quota counters)
	Redis RedisConfig `mapstructure:"redis"`

	// PostgreSQL (registration audit trail)
	Postgres PostgresConfig `mapstructure:"postgres"`

	// NATS (registration event stream)
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`

	// Shortener core
	Shortener ShortenerConfig `mapstructure:"shortener"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Port     int    `mapstructure:"port"`
	SSLMode  string `mapstructure:"sslmode"`
}

type NATSConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type PrometheusConfig struct {
	Port int `mapstructure:"port"`
}

// ShortenerConfig carries the core tuning knobs: quota per caller and window,
// default link lifetime, the generated-slug keyspace and retry cap, and the
// sizing of the local collision pre-filter.
type ShortenerConfig struct {
	Quota           int64         `mapstructure:"quota"`
	QuotaWindow     time.Duration `mapstructure:"quota_window"`
	QuotaFailMode   string        `mapstructure:"quota_fail_mode"`
	DefaultTTLHours int           `mapstructure:"default_ttl_hours"`
	Keyspace        uint64        `mapstructure:"keyspace"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	BloomCapacity   uint          `mapstructure:"bloom_capacity"`
	BloomFPRate     float64       `mapstructure:"bloom_fp_rate"`
}

// Quota fail modes: what the tracker does when its store is unreachable.
const (
	QuotaFailOpen   = "open"
	QuotaFailClosed = "closed"
)

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Shortener.QuotaFailMode != QuotaFailOpen && cfg.Shortener.QuotaFailMode != QuotaFailClosed {
		return nil, fmt.Errorf("shortener.quota_fail_mode must be %q or %q, got %q",
			QuotaFailOpen, QuotaFailClosed, cfg.Shortener.QuotaFailMode)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("shortener.quota", 10)
	v.SetDefault("shortener.quota_window", "30m")
	// Fail open on quota-store outage: a rate-limiter outage must not become
	// a registration outage. Stricter deployments set "closed".
	v.SetDefault("shortener.quota_fail_mode", QuotaFailOpen)
	v.SetDefault("shortener.default_ttl_hours", 24)
	// 62^8, roughly 218 trillion generated slugs of at most 8 symbols.
	v.SetDefault("shortener.keyspace", uint64(218340105584896))
	v.SetDefault("shortener.max_attempts", 5)
	v.SetDefault("shortener.bloom_capacity", uint(10_000_000))
	v.SetDefault("shortener.bloom_fp_rate", 0.01)
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// NATS
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")

	// Prometheus
	v.BindEnv("prometheus.port", "PROM_PORT")

	// Shortener
	v.BindEnv("shortener.quota", "QUOTA")
	v.BindEnv("shortener.quota_window", "QUOTA_WINDOW")
	v.BindEnv("shortener.quota_fail_mode", "QUOTA_FAIL_MODE")
	v.BindEnv("shortener.default_ttl_hours", "DEFAULT_TTL_HOURS")
	v.BindEnv("shortener.keyspace", "KEYSPACE")
	v.BindEnv("shortener.max_attempts", "MAX_ATTEMPTS")
}
