package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Data backends.
const (
	BackendGateway  = "gateway"
	BackendPostgres = "postgres"
)

const defaultJWTSecret = "bfa-default-dev-secret-change-me"

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port            int
	LogLevel        string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Data backend: the remote commission API or a local postgres.
	DataBackend string
	GatewayURL  string
	DatabaseURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Snapshot cache
	CacheTTL time.Duration

	// Sessions: redis when RedisURL is set, in-memory otherwise.
	RedisURL string

	// Sale events: disabled when AMQPURL is empty.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Observability
	OTLPEndpoint string

	// JWT / Auth
	JWTSecret    string
	JWTAccessTTL time.Duration

	// Postgres only: admin account created on startup when missing.
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	BootstrapAdminName     string

	Production bool
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:            getEnvInt("PORT", 8080),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		CORSOrigins:     getEnvList("CORS_ALLOWED_ORIGINS"),

		DataBackend: strings.ToLower(getEnv("DATA_BACKEND", BackendGateway)),
		GatewayURL:  strings.TrimRight(getEnv("GATEWAY_URL", "http://localhost:3000/api"), "/"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		RedisURL: getEnv("REDIS_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "commissions"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "commissions.sale-events"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		JWTSecret:    getEnv("JWT_SECRET", defaultJWTSecret),
		JWTAccessTTL: getEnvDuration("JWT_ACCESS_TTL", 8*time.Hour),

		BootstrapAdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
		BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		BootstrapAdminName:     getEnv("BOOTSTRAP_ADMIN_NAME", "Administrador"),

		Production: getEnv("APP_ENV", "development") == "production",
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}

	switch c.DataBackend {
	case BackendGateway:
		if u, err := url.Parse(c.GatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("GATEWAY_URL is not a valid URL: %q", c.GatewayURL))
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when DATA_BACKEND=postgres"))
		}
		if c.BootstrapAdminEmail != "" && len(c.BootstrapAdminPassword) < 6 {
			errs = append(errs, errors.New("BOOTSTRAP_ADMIN_PASSWORD must have at least 6 characters"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATA_BACKEND must be %q or %q, got %q", BackendGateway, BackendPostgres, c.DataBackend))
	}

	if c.JWTAccessTTL <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TTL must be positive"))
	}
	if c.Production && (c.JWTSecret == defaultJWTSecret || len(c.JWTSecret) < 32) {
		errs = append(errs, errors.New("JWT_SECRET must be set to at least 32 characters in production"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("MAX_RETRIES cannot be negative"))
	}

	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
