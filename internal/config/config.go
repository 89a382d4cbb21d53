package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Socket       SocketConfig
	Mail         MailConfig
	Events       EventsConfig
	Bootstrap    BootstrapConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	URL      string
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	JWTIssuer             string
	AccessTokenTTLMinutes int
	ResetTokenTTLSeconds  int64
	BcryptCost            int
	ResetRequestLimit     int
	ResetWindowSeconds    int
}

// SocketConfig controls the realtime gateway.
type SocketConfig struct {
	Host                    string
	Port                    string
	HandshakeTimeoutSeconds int
	AllowedOrigins          []string
}

// MailConfig holds SMTP settings. An empty host logs mails instead of sending them.
type MailConfig struct {
	SMTPHost     string
	SMTPPort     int
	Username     string
	Password     string
	From         string
	ResetURLBase string
}

// EventsConfig sizes the async dispatcher.
type EventsConfig struct {
	Workers   int
	QueueSize int
}

// BootstrapConfig seeds the first super-admin. Empty email disables it.
type BootstrapConfig struct {
	SuperAdminEmail    string
	SuperAdminPassword string
	SuperAdminName     string
}

const (
	defaultJWTSecret     = "dev-secret"
	defaultResetTokenTTL = 3 * 24 * 60 * 60
)

// ErrInsecureSecret is returned when production runs with the development JWT secret.
var ErrInsecureSecret = errors.New("AUTH_JWT_SECRET must be set to a non-default value in production")

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "account-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 0),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", defaultJWTSecret),
			JWTIssuer:             getEnv("AUTH_JWT_ISSUER", ""),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			ResetTokenTTLSeconds:  int64(getEnvAsInt("AUTH_RESET_TOKEN_TTL_SECONDS", defaultResetTokenTTL)),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			ResetRequestLimit:     getEnvAsInt("AUTH_RESET_REQUEST_LIMIT", 5),
			ResetWindowSeconds:    getEnvAsInt("AUTH_RESET_WINDOW_SECONDS", 900),
		},
		Socket: SocketConfig{
			Host:                    getEnv("SOCKET_HOST", "0.0.0.0"),
			Port:                    getEnv("SOCKET_PORT", "8081"),
			HandshakeTimeoutSeconds: getEnvAsInt("SOCKET_HANDSHAKE_TIMEOUT_SECONDS", 10),
			AllowedOrigins:          getEnvAsList("SOCKET_ALLOWED_ORIGINS"),
		},
		Mail: MailConfig{
			SMTPHost:     os.Getenv("SMTP_HOST"),
			SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
			Username:     os.Getenv("SMTP_USERNAME"),
			Password:     os.Getenv("SMTP_PASSWORD"),
			From:         getEnv("MAIL_FROM", "noreply@example.com"),
			ResetURLBase: getEnv("MAIL_RESET_URL_BASE", "http://localhost:3000/reset-password"),
		},
		Events: EventsConfig{
			Workers:   getEnvAsInt("EVENTS_WORKERS", 4),
			QueueSize: getEnvAsInt("EVENTS_QUEUE_SIZE", 256),
		},
		Bootstrap: BootstrapConfig{
			SuperAdminEmail:    os.Getenv("BOOTSTRAP_SUPER_ADMIN_EMAIL"),
			SuperAdminPassword: os.Getenv("BOOTSTRAP_SUPER_ADMIN_PASSWORD"),
			SuperAdminName:     getEnv("BOOTSTRAP_SUPER_ADMIN_NAME", "Super Admin"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that must not reach a running server.
func (c *Config) Validate() error {
	if c.App.IsProduction() && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == defaultJWTSecret) {
		return ErrInsecureSecret
	}
	if c.Auth.ResetTokenTTLSeconds <= 0 {
		return fmt.Errorf("invalid AUTH_RESET_TOKEN_TTL_SECONDS: %d", c.Auth.ResetTokenTTLSeconds)
	}
	if c.Bootstrap.SuperAdminEmail != "" && c.Bootstrap.SuperAdminPassword == "" {
		return errors.New("BOOTSTRAP_SUPER_ADMIN_PASSWORD is required when BOOTSTRAP_SUPER_ADMIN_EMAIL is set")
	}
	return nil
}

// IsProduction reports whether the service runs in the production environment.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// Addr returns the socket gateway bind address.
func (s SocketConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// HandshakeTimeout bounds how long a socket may stay unauthenticated.
func (s SocketConfig) HandshakeTimeout() time.Duration {
	if s.HandshakeTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.HandshakeTimeoutSeconds) * time.Second
}

// ResetWindow returns the reset-request throttle window.
func (a AuthConfig) ResetWindow() time.Duration {
	return time.Duration(a.ResetWindowSeconds) * time.Second
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
