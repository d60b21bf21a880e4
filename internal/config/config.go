// Package config loads application settings from the environment.
// A .env file in the working directory is read first when it exists, so local
// development does not need exported variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every setting the server and the command line tools read.
type Config struct {
	AppName     string `validate:"required"`
	AppVersion  string `validate:"required"`
	Environment string `validate:"oneof=local staging production"`
	Port        string `validate:"required,numeric"`

	APIVersion      string `validate:"required"`
	PaginationLimit int    `validate:"min=1,max=1000"`
	CORSOrigins     []string

	DatabaseURL       string `validate:"required"`
	DBMaxConns        int32  `validate:"min=1"`
	DBMinConns        int32  `validate:"min=0,ltefield=DBMaxConns"`
	DBConnectAttempts int    `validate:"min=1"`
	DBConnectWait     time.Duration
	MigrationsPath    string `validate:"required"`

	RedisAddr string
	CacheTTL  time.Duration

	LogLevel       string `validate:"oneof=trace debug info warn error"`
	WriteRateLimit int    `validate:"min=1"`

	FirstSuperuserEmail    string `validate:"omitempty,email"`
	FirstSuperuserPassword string
}

// APIPrefix returns the route prefix every endpoint is mounted under, e.g. /api/v1.
func (c *Config) APIPrefix() string {
	return "/api/" + c.APIVersion
}

// IsProduction reports whether the process runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads configuration from the environment (after an optional .env file)
// and validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	dbURL, err := databaseURL()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppName:     getString("APP_NAME", "school-schedule"),
		AppVersion:  getString("APP_VERSION", "0.1.0"),
		Environment: getString("ENVIRONMENT", "local"),
		Port:        getString("PORT", "8080"),

		APIVersion:  getString("API_VERSION", "v1"),
		CORSOrigins: getList("CORS_ORIGINS"),

		DatabaseURL:    dbURL,
		MigrationsPath: getString("MIGRATIONS_PATH", "file://migrations"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		LogLevel: strings.ToLower(getString("LOG_LEVEL", "info")),

		FirstSuperuserEmail:    os.Getenv("FIRST_SUPERUSER_EMAIL"),
		FirstSuperuserPassword: os.Getenv("FIRST_SUPERUSER_PASSWORD"),
	}

	var errs []error
	cfg.PaginationLimit, errs = getInt("PAGINATION_LIMIT", 100, errs)
	cfg.DBConnectAttempts, errs = getInt("DB_CONNECT_ATTEMPTS", 5, errs)
	cfg.WriteRateLimit, errs = getInt("WRITE_RATE_LIMIT", 60, errs)
	cfg.DBConnectWait, errs = getDuration("DB_CONNECT_WAIT", time.Second, errs)
	cfg.CacheTTL, errs = getDuration("CACHE_TTL", time.Minute, errs)

	var maxConns, minConns int
	maxConns, errs = getInt("DB_MAX_CONNS", 25, errs)
	minConns, errs = getInt("DB_MIN_CONNS", 5, errs)
	cfg.DBMaxConns, cfg.DBMinConns = int32(maxConns), int32(minConns)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// databaseURL prefers DATABASE_URL and otherwise assembles a URL from the
// POSTGRES_* parts. The password is escaped.
func databaseURL() (string, error) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v, nil
	}

	server := os.Getenv("POSTGRES_SERVER")
	if server == "" {
		return "", fmt.Errorf("DATABASE_URL or POSTGRES_SERVER environment variable must be set")
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(os.Getenv("POSTGRES_USER"), os.Getenv("POSTGRES_PASSWORD")),
		Host:   server + ":" + getString("POSTGRES_PORT", "5432"),
		Path:   "/" + os.Getenv("POSTGRES_DB"),
	}
	return u.String(), nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getInt(key string, fallback int, errs []error) (int, []error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, errs
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback, append(errs, fmt.Errorf("%s: %w", key, err))
	}
	return v, errs
}

func getDuration(key string, fallback time.Duration, errs []error) (time.Duration, []error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, errs
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, append(errs, fmt.Errorf("%s: %w", key, err))
	}
	return v, errs
}
