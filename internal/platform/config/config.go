// Package config builds runtime configuration from environment variables so
// main stays lean. Every knob has a development default; production deploys
// override via env.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	stringsutil "takaful/pkg/platform/strings"
)

// Config is the full service configuration.
type Config struct {
	HTTP     HTTPConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
}

// HTTPConfig captures HTTP server level configuration.
type HTTPConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// PostgresConfig captures the database connection settings.
// An empty DSN means "run on in-memory stores" (dev and unit tests).
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig captures Redis connection settings for the OTP store.
// An empty URL means Redis is not configured and the memory OTP store is used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig captures the audit pipeline settings. Empty seed brokers disable
// the outbox worker; audit events still persist to the outbox table.
type KafkaConfig struct {
	SeedBrokers  []string
	AuditTopic   string
	DrainEvery   time.Duration
	DrainBatch   int
	TopicReplica int
}

// AuthConfig captures token and OTP settings.
type AuthConfig struct {
	JWTSigningKey  string
	TokenIssuer    string
	AccessTokenTTL time.Duration
	OTPTTL         time.Duration
	OTPLength      int
	OTPMaxAttempts int
	OTPResendAfter time.Duration
	// SMSGatewayURL is the webhook codes are delivered through. Empty means
	// no gateway; dev runs log codes at debug instead.
	SMSGatewayURL string
	// Bootstrap admin credentials, seeded on first start so the system is
	// reachable before any user exists.
	AdminEmail    string
	AdminPassword string
}

// FromEnv builds the configuration from environment variables.
func FromEnv() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            getenv("TAKAFUL_ADDR", ":8080"),
			ShutdownTimeout: getduration("TAKAFUL_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("TAKAFUL_POSTGRES_DSN"),
			MaxOpenConns:    getint("TAKAFUL_POSTGRES_MAX_OPEN", 25),
			MaxIdleConns:    getint("TAKAFUL_POSTGRES_MAX_IDLE", 5),
			ConnMaxLifetime: getduration("TAKAFUL_POSTGRES_CONN_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("TAKAFUL_REDIS_URL"),
			PoolSize:     getint("TAKAFUL_REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("TAKAFUL_REDIS_MIN_IDLE", 2),
			DialTimeout:  getduration("TAKAFUL_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getduration("TAKAFUL_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getduration("TAKAFUL_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			SeedBrokers:  splitList(os.Getenv("TAKAFUL_KAFKA_BROKERS")),
			AuditTopic:   getenv("TAKAFUL_AUDIT_TOPIC", "takaful.audit.events"),
			DrainEvery:   getduration("TAKAFUL_AUDIT_DRAIN_EVERY", 2*time.Second),
			DrainBatch:   getint("TAKAFUL_AUDIT_DRAIN_BATCH", 100),
			TopicReplica: getint("TAKAFUL_AUDIT_TOPIC_REPLICAS", 1),
		},
		Auth: AuthConfig{
			JWTSigningKey:  getenv("TAKAFUL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			TokenIssuer:    getenv("TAKAFUL_TOKEN_ISSUER", "takaful"),
			AccessTokenTTL: getduration("TAKAFUL_ACCESS_TOKEN_TTL", time.Hour),
			OTPTTL:         getduration("TAKAFUL_OTP_TTL", 5*time.Minute),
			OTPLength:      getint("TAKAFUL_OTP_LENGTH", 6),
			OTPMaxAttempts: getint("TAKAFUL_OTP_MAX_ATTEMPTS", 5),
			OTPResendAfter: getduration("TAKAFUL_OTP_RESEND_AFTER", time.Minute),
			SMSGatewayURL:  os.Getenv("TAKAFUL_SMS_GATEWAY_URL"),
			AdminEmail:     getenv("TAKAFUL_ADMIN_EMAIL", "admin@takaful.local"),
			AdminPassword:  os.Getenv("TAKAFUL_ADMIN_PASSWORD"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// splitList parses a comma-separated env value, dropping blanks and
// duplicate entries.
func splitList(v string) []string {
	if v == "" {
		return nil
	}
	return stringsutil.DedupeAndTrim(strings.Split(v, ","))
}
