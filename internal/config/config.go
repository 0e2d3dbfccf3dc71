// Package config loads process configuration from the environment, after
// reading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/session-auth/internal/auth"
)

// Store drivers accepted in DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config aggregates runtime configuration.
type Config struct {
	App    AppConfig
	DB     DBConfig
	Auth   AuthConfig
	Cookie CookieConfig
}

// AppConfig controls server level behaviour.
type AppConfig struct {
	Port     int
	LogLevel string
}

// DBConfig selects and locates the user store.
type DBConfig struct {
	Driver      string
	Path        string // sqlite file
	PostgresDSN string
}

// AuthConfig holds the token and password settings.
type AuthConfig struct {
	SigningSecret     string
	SigningAlgorithm  string
	SessionTTLMinutes int
	DefaultTTLMinutes int
	HashWorkFactor    int
}

// CookieConfig holds the session cookie attributes.
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

// Load reads configuration from environment variables, applying defaults
// where a variable is unset. Malformed numbers and booleans are errors, not
// silently replaced by the default. Load does not call Validate.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error
	cfg := &Config{
		App: AppConfig{
			Port:     getEnvAsInt("PORT", 8080, &errs),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			Driver:      getEnv("DB_DRIVER", DriverSQLite),
			Path:        getEnv("DB_PATH", "data/users.db"),
			PostgresDSN: os.Getenv("POSTGRES_DSN"),
		},
		Auth: AuthConfig{
			SigningSecret:     os.Getenv("AUTH_SIGNING_SECRET"),
			SigningAlgorithm:  getEnv("AUTH_SIGNING_ALGORITHM", "HS256"),
			SessionTTLMinutes: getEnvAsInt("AUTH_SESSION_TTL_MINUTES", 30, &errs),
			DefaultTTLMinutes: getEnvAsInt("AUTH_DEFAULT_TOKEN_TTL_MINUTES", 15, &errs),
			HashWorkFactor:    getEnvAsInt("AUTH_HASH_WORK_FACTOR", auth.DefaultCost, &errs),
		},
		Cookie: CookieConfig{
			Name:   getEnv("COOKIE_NAME", auth.DefaultCookieName),
			Domain: os.Getenv("COOKIE_DOMAIN"),
			Secure: getEnvAsBool("COOKIE_SECURE", false, &errs),
		},
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem with cfg at once.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.App.Port))
	}

	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DB.PostgresDSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DB.Driver))
	}

	if c.Auth.SigningSecret == "" {
		errs = append(errs, errors.New("AUTH_SIGNING_SECRET is required"))
	} else if len(c.Auth.SigningSecret) < 16 {
		errs = append(errs, errors.New("AUTH_SIGNING_SECRET must be at least 16 characters"))
	}
	if !slices.Contains(auth.SupportedAlgorithms, c.Auth.SigningAlgorithm) {
		errs = append(errs, fmt.Errorf("AUTH_SIGNING_ALGORITHM %q not one of %s",
			c.Auth.SigningAlgorithm, strings.Join(auth.SupportedAlgorithms, ", ")))
	}
	if c.Auth.SessionTTLMinutes <= 0 {
		errs = append(errs, errors.New("AUTH_SESSION_TTL_MINUTES must be positive"))
	}
	if c.Auth.DefaultTTLMinutes <= 0 {
		errs = append(errs, errors.New("AUTH_DEFAULT_TOKEN_TTL_MINUTES must be positive"))
	}
	if c.Auth.HashWorkFactor < bcrypt.MinCost || c.Auth.HashWorkFactor > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("AUTH_HASH_WORK_FACTOR must be in [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if c.Cookie.Name == "" {
		errs = append(errs, errors.New("COOKIE_NAME must not be empty"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SessionTTL is the lifetime of tokens issued at signup and sign-in.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLMinutes) * time.Minute
}

// DefaultTTL is the token lifetime when issuance names none.
func (a AuthConfig) DefaultTTL() time.Duration {
	return time.Duration(a.DefaultTTLMinutes) * time.Minute
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf(":%d", a.Port)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int, errs *[]error) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q: not an integer", key, val))
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool, errs *[]error) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q: not a boolean", key, val))
		return fallback
	}
	return parsed
}
