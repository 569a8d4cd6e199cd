package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean; the country rule table is the one
// file-based input (see internal/rules).
type Server struct {
	Addr            string
	AdminToken      string
	JWTSigningKey   string
	PostgresURL     string
	RulesPath       string
	RegistryTimeout time.Duration
	// SeedDemo loads a small demo dataset into the in-memory stores.
	// Ignored when Postgres is configured.
	SeedDemo bool
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// RedisConfig configures the optional registry-check cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional audit fan-out.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:            getEnv("MEDIDROP_ADDR", ":8080"),
		AdminToken:      os.Getenv("MEDIDROP_ADMIN_TOKEN"),
		JWTSigningKey:   os.Getenv("MEDIDROP_JWT_SIGNING_KEY"),
		PostgresURL:     os.Getenv("MEDIDROP_POSTGRES_URL"),
		RulesPath:       os.Getenv("MEDIDROP_RULES_PATH"),
		RegistryTimeout: getDuration("MEDIDROP_REGISTRY_TIMEOUT", 5*time.Second),
		SeedDemo:        os.Getenv("MEDIDROP_SEED_DEMO") == "true",
		Redis: RedisConfig{
			URL:          os.Getenv("MEDIDROP_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("MEDIDROP_KAFKA_BROKERS")),
			AuditTopic: getEnv("MEDIDROP_KAFKA_AUDIT_TOPIC", "medidrop.audit"),
		},
	}
	if cfg.JWTSigningKey == "" {
		// Use a default for development - should be overridden in production
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
