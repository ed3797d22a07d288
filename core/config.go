package core

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Session backend names accepted by SESSION_BACKEND.
const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

const defaultSessionKey = "change-this-session-key"

// Config holds runtime settings for the gateway process.
type Config struct {
	Port           string // HTTP listen port (e.g., "3000")
	GinMode        string // debug/release/test
	SessionKey     string // HMAC key for the session cookie
	SessionBackend string // redis or memory
	SessionMaxAge  int    // session lifetime in seconds (cookie and backend TTL)
	CookieSecure   bool   // Whether to set Secure flag on session cookie
	CookieSameSite string // SameSite policy: Strict/Lax/None
	LogDir         string // Directory to write application logs; empty -> stdout only
	DatabaseURL    string // PostgreSQL DSN
	RedisURL       string // Redis URL (redis://host:port/db)
	BcryptCost     int    // bcrypt work factor
	MigrateOnStart bool   // apply embedded migrations before serving
	SeedUsersPath  string // optional YAML file of users created at startup
	MetricsEnabled bool   // expose /metrics
}

// Load populates Config from environment variables with sane defaults.
// A .env file in the working directory is read first when present; real
// environment variables win over it.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:           firstNonEmpty(os.Getenv("PORT"), "3000"),
		GinMode:        firstNonEmpty(os.Getenv("GIN_MODE"), gin.DebugMode),
		SessionKey:     firstNonEmpty(os.Getenv("SESSION_SECRET"), os.Getenv("SESSION_KEY"), defaultSessionKey),
		SessionBackend: strings.ToLower(firstNonEmpty(os.Getenv("SESSION_BACKEND"), SessionBackendRedis)),
		SessionMaxAge:  intFromEnv("SESSION_MAX_AGE", 18000), // 5h
		CookieSecure:   boolFromEnv("COOKIE_SECURE", false),
		CookieSameSite: firstNonEmpty(os.Getenv("COOKIE_SAMESITE"), "Lax"),
		LogDir:         os.Getenv("LOG_DIR"),
		DatabaseURL:    firstNonEmpty(os.Getenv("DATABASE_URL"), postgresURLFromEnv()),
		RedisURL:       firstNonEmpty(os.Getenv("REDIS_URL"), "redis://localhost:6379/0"),
		BcryptCost:     intFromEnv("BCRYPT_COST", DefaultBcryptCost),
		MigrateOnStart: boolFromEnv("MIGRATE_ON_START", true),
		SeedUsersPath:  os.Getenv("SEED_USERS_PATH"),
		MetricsEnabled: boolFromEnv("METRICS_ENABLED", true),
	}
}

// Validate reports settings the process cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.GinMode == gin.ReleaseMode {
		if c.SessionKey == "" || c.SessionKey == defaultSessionKey {
			errs = append(errs, errors.New("SESSION_SECRET is required in release mode"))
		} else if len(c.SessionKey) < 32 {
			errs = append(errs, errors.New("SESSION_SECRET must be at least 32 bytes in release mode"))
		}
	}
	switch c.SessionBackend {
	case SessionBackendRedis, SessionBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend))
	}
	if c.SessionMaxAge <= 0 {
		errs = append(errs, errors.New("SESSION_MAX_AGE must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	return errors.Join(errs...)
}

// postgresURLFromEnv builds a DSN from the discrete POSTGRES_* variables used
// by docker compose setups.
func postgresURLFromEnv() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(firstNonEmpty(os.Getenv("POSTGRES_USER"), "postgres"), firstNonEmpty(os.Getenv("POSTGRES_PASSWORD"), "postgres")),
		Host:     net.JoinHostPort(firstNonEmpty(os.Getenv("POSTGRES_HOST"), "db"), firstNonEmpty(os.Getenv("POSTGRES_PORT"), "5432")),
		Path:     "/" + firstNonEmpty(os.Getenv("POSTGRES_DB"), "postgres"),
		RawQuery: "sslmode=" + firstNonEmpty(os.Getenv("POSTGRES_SSLMODE"), "disable"),
	}
	return u.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// boolFromEnv reads a boolean from env var name, falling back to defaultVal when empty or invalid.
func boolFromEnv(name string, defaultVal bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// intFromEnv reads an int from env var name, falling back to defaultVal when empty or invalid.
func intFromEnv(name string, defaultVal int) int {
	if v := os.Getenv(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
