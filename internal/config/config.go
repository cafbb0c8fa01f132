package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Mail      MailConfig
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
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	// SessionSecret is the process-wide signing secret, loaded once at
	// startup and immutable for the process lifetime.
	SessionSecret     string
	SessionCookieName string
	SessionTTLDays    int
	SessionRenewDays  int
	OTPCodeTTLSeconds int
	ResetGraceSeconds int
	BcryptCost        int
}

// RateLimitConfig defines fixed-window budgets keyed by client IP.
type RateLimitConfig struct {
	AuthPoints        int
	AuthWindowSeconds int
	APIPoints         int
	APIWindowSeconds  int
}

// MailConfig holds SMTP transport settings for OTP delivery.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	secret := os.Getenv("AUTH_SESSION_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("AUTH_SESSION_SECRET is required")
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "admin-backoffice"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			SessionSecret:     secret,
			SessionCookieName: getEnv("AUTH_SESSION_COOKIE", "adminSessionToken"),
			SessionTTLDays:    getEnvAsInt("AUTH_SESSION_TTL_DAYS", 30),
			SessionRenewDays:  getEnvAsInt("AUTH_SESSION_RENEW_DAYS", 7),
			OTPCodeTTLSeconds: getEnvAsInt("AUTH_OTP_CODE_TTL_SECONDS", 30),
			ResetGraceSeconds: getEnvAsInt("AUTH_RESET_GRACE_SECONDS", 30),
			BcryptCost:        getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		RateLimit: RateLimitConfig{
			AuthPoints:        getEnvAsInt("RATE_LIMIT_AUTH_POINTS", 5),
			AuthWindowSeconds: getEnvAsInt("RATE_LIMIT_AUTH_WINDOW_SECONDS", 900),
			APIPoints:         getEnvAsInt("RATE_LIMIT_API_POINTS", 100),
			APIWindowSeconds:  getEnvAsInt("RATE_LIMIT_API_WINDOW_SECONDS", 60),
		},
		Mail: MailConfig{
			Host:     getEnv("SMTP_HOST", "127.0.0.1"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "noreply@example.com"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns the absolute session lifetime.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLDays) * 24 * time.Hour
}

// SessionRenewWindow returns the idle window within which a session is slide-renewed.
func (a AuthConfig) SessionRenewWindow() time.Duration {
	return time.Duration(a.SessionRenewDays) * 24 * time.Hour
}

// OTPCodeTTL returns the one-time-code validity window.
func (a AuthConfig) OTPCodeTTL() time.Duration {
	return time.Duration(a.OTPCodeTTLSeconds) * time.Second
}

// ResetGrace returns the window after OTP verification in which a password reset is accepted.
func (a AuthConfig) ResetGrace() time.Duration {
	return time.Duration(a.ResetGraceSeconds) * time.Second
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
