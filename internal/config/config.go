package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	RBAC         RBACConfig
	Pagination   PaginationConfig
	Seed         SeedConfig
	Notification NotificationConfig
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
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Service     string
	Development bool
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// RBACConfig controls caching of resolved permission sets.
type RBACConfig struct {
	CacheTTLSeconds int
}

// PaginationConfig bounds list endpoints.
type PaginationConfig struct {
	DefaultPerPage int
	MaxPerPage     int
}

// SeedConfig describes the administrator created by the seed command.
type SeedConfig struct {
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// NotificationConfig holds stub notification endpoints and worker sizing.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
	QueueSize  int
	Workers    int
}

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
			Name:                  getEnv("APP_NAME", "helpdesk-service"),
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
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Service:     getEnv("APP_NAME", "helpdesk-service"),
			Development: getEnv("APP_ENV", "development") == "development",
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", defaultJWTSecret),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		RBAC: RBACConfig{
			CacheTTLSeconds: getEnvAsInt("RBAC_CACHE_TTL_SECONDS", 300),
		},
		Pagination: PaginationConfig{
			DefaultPerPage: getEnvAsInt("PAGINATION_DEFAULT_PER_PAGE", 15),
			MaxPerPage:     getEnvAsInt("PAGINATION_MAX_PER_PAGE", 100),
		},
		Seed: SeedConfig{
			AdminName:     getEnv("SEED_ADMIN_NAME", "Super Admin"),
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", "superadmin@example.com"),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", "password"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
			QueueSize:  getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
			Workers:    getEnvAsInt("NOTIFY_WORKERS", 2),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const defaultJWTSecret = "dev-secret"

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []string
	if err := c.Auth.Validate(c.App.Env); err != nil {
		errs = append(errs, fmt.Sprintf("auth config: %v", err))
	}
	if err := c.Pagination.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("pagination config: %v", err))
	}
	if c.Notification.Workers < 1 {
		errs = append(errs, "notification config: NOTIFY_WORKERS must be at least 1")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks token and hashing settings. The default secret is refused in production.
func (a AuthConfig) Validate(env string) error {
	switch {
	case a.JWTSecret == "":
		return errors.New("AUTH_JWT_SECRET is required")
	case env == "production" && a.JWTSecret == defaultJWTSecret:
		return errors.New("AUTH_JWT_SECRET must be set in production")
	case a.AccessTokenTTLMinutes <= 0:
		return errors.New("AUTH_ACCESS_TOKEN_TTL_MINUTES must be positive")
	case a.BcryptCost < bcrypt.MinCost || a.BcryptCost > bcrypt.MaxCost:
		return fmt.Errorf("AUTH_BCRYPT_COST %d out of range %d..%d", a.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// Validate keeps per_page bounds usable.
func (p PaginationConfig) Validate() error {
	if p.MaxPerPage < 1 || p.MaxPerPage > 100 {
		return fmt.Errorf("PAGINATION_MAX_PER_PAGE %d out of range 1..100", p.MaxPerPage)
	}
	if p.DefaultPerPage < 1 || p.DefaultPerPage > p.MaxPerPage {
		return fmt.Errorf("PAGINATION_DEFAULT_PER_PAGE %d out of range 1..%d", p.DefaultPerPage, p.MaxPerPage)
	}
	return nil
}

// CacheTTL returns how long a resolved permission set may be cached.
func (r RBACConfig) CacheTTL() time.Duration {
	if r.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(r.CacheTTLSeconds) * time.Second
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
