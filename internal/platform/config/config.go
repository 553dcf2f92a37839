package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	// IngestKeyHash is the bcrypt hash of the event ingest API key.
	// Empty disables API key checks (development only).
	IngestKeyHash string
}

// Postgres captures database configuration. An empty DSN selects the
// in-memory stores.
type Postgres struct {
	DSN string
}

// Redis captures the optional alert dedup store. Empty URL disables it.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures the optional alert publishing topic. No brokers
// disables the kafka alert type.
type Kafka struct {
	Brokers []string
	Topic   string
}

// SMTP captures the optional alert email relay. Empty Addr disables the
// email alert type.
type SMTP struct {
	Addr     string
	From     string
	Username string
	Password string
}

// Stream captures logging pipeline behavior.
type Stream struct {
	// CronTracking logs background-job events when true.
	CronTracking bool
	// DevMode makes summary formatting strict and is intended for
	// development environments.
	DevMode bool
	// Backtraces stamps records with the capture-site stack.
	Backtraces bool
	// AlertSendTimeout bounds each notifier call.
	AlertSendTimeout time.Duration
	// DedupTTL is the retention window for alert delivery claims.
	DedupTTL time.Duration
}

// Config is the full service configuration.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	SMTP     SMTP
	Stream   Stream
}

// FromEnv builds the configuration from environment variables so main
// stays lean. Every value has a development-friendly default.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envString("STREAMLOG_ADDR", ":8080"),
			JWTSigningKey: envString("STREAMLOG_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			IngestKeyHash: os.Getenv("STREAMLOG_INGEST_KEY_HASH"),
		},
		Postgres: Postgres{
			DSN: os.Getenv("STREAMLOG_POSTGRES_DSN"),
		},
		Redis: Redis{
			URL:          os.Getenv("STREAMLOG_REDIS_URL"),
			PoolSize:     envInt("STREAMLOG_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("STREAMLOG_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("STREAMLOG_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("STREAMLOG_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("STREAMLOG_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers: envList("STREAMLOG_KAFKA_BROKERS"),
			Topic:   envString("STREAMLOG_KAFKA_TOPIC", "streamlog.alerts"),
		},
		SMTP: SMTP{
			Addr:     os.Getenv("STREAMLOG_SMTP_ADDR"),
			From:     envString("STREAMLOG_SMTP_FROM", "alerts@localhost"),
			Username: os.Getenv("STREAMLOG_SMTP_USERNAME"),
			Password: os.Getenv("STREAMLOG_SMTP_PASSWORD"),
		},
		Stream: Stream{
			CronTracking:     envBool("STREAMLOG_CRON_TRACKING", false),
			DevMode:          envBool("STREAMLOG_DEV_MODE", false),
			Backtraces:       envBool("STREAMLOG_BACKTRACES", false),
			AlertSendTimeout: envDuration("STREAMLOG_ALERT_SEND_TIMEOUT", 10*time.Second),
			DedupTTL:         envDuration("STREAMLOG_ALERT_DEDUP_TTL", 24*time.Hour),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
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

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
