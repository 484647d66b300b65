// Package config builds runtime configuration from environment variables so
// main stays lean. Every knob has a development default; production overrides
// via PROVENA_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures the full service configuration.
type Config struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string

	PostgresDSN string
	Redis       Redis
	Kafka       Kafka

	// ReasonMinLength is the floor applied to caller-supplied change
	// reasons on critical fields.
	ReasonMinLength int

	// BulkConcurrency bounds parallel workers inside a bulk operation.
	BulkConcurrency int
}

// Redis holds connection settings for the review queue backend. An empty URL
// means Redis is not configured and the in-memory queue is used.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka holds settings for the audit event stream. Empty seed brokers mean
// audit events stay in the primary store only.
type Kafka struct {
	SeedBrokers []string
	AuditTopic  string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("PROVENA_ADDR", ":8080"),
		JWTSigningKey: envOr("PROVENA_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envOr("PROVENA_JWT_ISSUER", "provena"),
		PostgresDSN:   os.Getenv("PROVENA_POSTGRES_DSN"),
		Redis: Redis{
			URL:          os.Getenv("PROVENA_REDIS_URL"),
			PoolSize:     envIntOr("PROVENA_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("PROVENA_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{
			AuditTopic: envOr("PROVENA_KAFKA_AUDIT_TOPIC", "provena.audit.events"),
		},
		ReasonMinLength: envIntOr("PROVENA_REASON_MIN_LENGTH", 10),
		BulkConcurrency: envIntOr("PROVENA_BULK_CONCURRENCY", 8),
	}

	if seeds := os.Getenv("PROVENA_KAFKA_SEED_BROKERS"); seeds != "" {
		for _, broker := range strings.Split(seeds, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.Kafka.SeedBrokers = append(cfg.Kafka.SeedBrokers, broker)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
