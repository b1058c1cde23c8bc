package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Config aggregates application configuration values loaded from the environment
// and an optional config.yaml.
type Config struct {
	Env                string          `mapstructure:"APP_ENV"`
	HTTPAddr           string          `mapstructure:"HTTP_ADDR"`
	StoreDriver        string          `mapstructure:"STORE_DRIVER"`
	PostgresDSN        string          `mapstructure:"POSTGRES_DSN"`
	MongoURI           string          `mapstructure:"MONGO_URI"`
	MongoDB            string          `mapstructure:"MONGO_DB"`
	RedisAddr          string          `mapstructure:"REDIS_ADDR"`
	RedisPassword      string          `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int             `mapstructure:"REDIS_DB"`
	KafkaBrokers       []string        `mapstructure:"KAFKA_BROKERS"`
	KafkaTopicPrefix   string          `mapstructure:"KAFKA_TOPIC_PREFIX"`
	KafkaClientID      string          `mapstructure:"KAFKA_CLIENT_ID"`
	JWTSecret          string          `mapstructure:"JWT_SECRET"`
	SweepSchedule      string          `mapstructure:"SWEEP_SCHEDULE"`
	RateLimitPerMinute int             `mapstructure:"RATE_LIMIT_PER_MIN"`
	RateLimitBurst     int             `mapstructure:"RATE_LIMIT_BURST"`
	IdempotencyTTL     time.Duration   `mapstructure:"IDEMP_TTL"`
	OutboxPollInterval time.Duration   `mapstructure:"OUTBOX_POLL_INTERVAL"`
	RetryBackoff       []time.Duration `mapstructure:"-"`
	CORSOrigins        []string        `mapstructure:"CORS_ORIGINS"`
	NotifierQueue      string          `mapstructure:"NOTIFIER_QUEUE"`
	NotifierWorkers    int             `mapstructure:"NOTIFIER_CONCURRENCY"`
}

var defaults = map[string]any{
	"APP_ENV":              "dev",
	"HTTP_ADDR":            ":8080",
	"STORE_DRIVER":         DriverMemory,
	"MONGO_DB":             "venuebook",
	"REDIS_DB":             0,
	"KAFKA_CLIENT_ID":      "venuebook",
	"SWEEP_SCHEDULE":       "@every 15m",
	"RATE_LIMIT_PER_MIN":   200,
	"RATE_LIMIT_BURST":     50,
	"IDEMP_TTL":            "168h",
	"OUTBOX_POLL_INTERVAL": "500ms",
	"RETRY_BACKOFF":        "1s,5s,30s",
	"CORS_ORIGINS":         "*",
	"NOTIFIER_QUEUE":       "notifications",
	"NOTIFIER_CONCURRENCY": 10,
}

// Load reads configuration from config.yaml (current dir or ./config) and the environment.
// Environment variables win over the file.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper binds defaults and environment variables on v and decodes the result.
func FromViper(v *viper.Viper) (Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	for key := range defaults {
		_ = v.BindEnv(key)
	}
	for _, key := range []string{"POSTGRES_DSN", "MONGO_URI", "REDIS_ADDR", "REDIS_PASSWORD", "KAFKA_BROKERS", "KAFKA_TOPIC_PREFIX", "JWT_SECRET"} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	backoff, err := parseBackoff(v.GetString("RETRY_BACKOFF"))
	if err != nil {
		return Config{}, err
	}
	cfg.RetryBackoff = backoff

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("config: POSTGRES_DSN is required for the postgres driver")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("config: MONGO_URI is required for the mongo driver")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" && !c.IsDev() {
		return fmt.Errorf("config: JWT_SECRET is required outside dev")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("config: RATE_LIMIT_PER_MIN must be positive")
	}
	return nil
}

func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "local", "debug", "test":
		return true
	}
	return false
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBackoff(raw string) ([]time.Duration, error) {
	var out []time.Duration
	for _, part := range splitList(raw) {
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", part, err)
		}
		out = append(out, d)
	}
	return out, nil
}
