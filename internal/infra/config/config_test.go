package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != DriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.StoreDriver)
	}
	if cfg.SweepSchedule != "@every 15m" {
		t.Fatalf("unexpected sweep schedule %q", cfg.SweepSchedule)
	}
	if cfg.IdempotencyTTL != 168*time.Hour {
		t.Fatalf("unexpected idempotency ttl %s", cfg.IdempotencyTTL)
	}
	if len(cfg.RetryBackoff) != 3 || cfg.RetryBackoff[2] != 30*time.Second {
		t.Fatalf("unexpected backoff %v", cfg.RetryBackoff)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSOrigins)
	}
}

func TestFromViperReadsEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Postgres")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/venuebook?sslmode=disable")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("IDEMP_TTL", "2h")
	t.Setenv("SWEEP_SCHEDULE", "*/5 * * * *")

	cfg, err := FromViper(viper.New())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreDriver != DriverPostgres {
		t.Fatalf("expected postgres driver, got %q", cfg.StoreDriver)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.IdempotencyTTL != 2*time.Hour {
		t.Fatalf("unexpected ttl %s", cfg.IdempotencyTTL)
	}
	if cfg.SweepSchedule != "*/5 * * * *" {
		t.Fatalf("unexpected schedule %q", cfg.SweepSchedule)
	}
}

func TestFromViperRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "sqlite"}, want: "unknown STORE_DRIVER"},
		{name: "postgres without dsn", env: map[string]string{"STORE_DRIVER": "postgres"}, want: "POSTGRES_DSN"},
		{name: "mongo without uri", env: map[string]string{"STORE_DRIVER": "mongo"}, want: "MONGO_URI"},
		{name: "production without secret", env: map[string]string{"APP_ENV": "production"}, want: "JWT_SECRET"},
		{name: "bad backoff", env: map[string]string{"RETRY_BACKOFF": "1s,soon"}, want: "RETRY_BACKOFF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromViper(viper.New())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
