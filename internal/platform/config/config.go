// Package config builds runtime configuration from environment variables so
// main stays lean. Empty Redis/Postgres/Kafka sections mean the in-memory
// implementations are used.
package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	TokenTTL      time.Duration
	DevMode       bool

	Redis    RedisConfig
	Postgres PostgresConfig
	Kafka    KafkaConfig
}

// RedisConfig configures the optional Redis correlation-table backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the optional Postgres record/event backend.
type PostgresConfig struct {
	DSN string
}

// KafkaConfig configures the optional Kafka event sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:          envOr("AIDLEDGER_ADDR", ":8080"),
		JWTSigningKey: os.Getenv("AIDLEDGER_JWT_SIGNING_KEY"),
		TokenTTL:      durationOr("AIDLEDGER_TOKEN_TTL", time.Hour),
		DevMode:       os.Getenv("AIDLEDGER_DEV_MODE") == "true",
		Redis: RedisConfig{
			URL:          os.Getenv("AIDLEDGER_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("AIDLEDGER_POSTGRES_DSN"),
		},
		Kafka: KafkaConfig{
			Topic: envOr("AIDLEDGER_KAFKA_TOPIC", "aidledger.events"),
		},
	}

	if brokers := os.Getenv("AIDLEDGER_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}

	if cfg.JWTSigningKey == "" {
		// Dev default, must be overridden in production.
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
