package core

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "GIN_MODE", "SESSION_SECRET", "SESSION_KEY", "SESSION_BACKEND", "SESSION_MAX_AGE",
		"COOKIE_SECURE", "COOKIE_SAMESITE", "LOG_DIR", "DATABASE_URL", "REDIS_URL", "BCRYPT_COST",
		"MIGRATE_ON_START", "SEED_USERS_PATH", "METRICS_ENABLED",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DB", "POSTGRES_SSLMODE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)
	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, gin.DebugMode, cfg.GinMode)
	assert.Equal(t, defaultSessionKey, cfg.SessionKey)
	assert.Equal(t, SessionBackendRedis, cfg.SessionBackend)
	assert.Equal(t, 18000, cfg.SessionMaxAge)
	assert.Equal(t, "Lax", cfg.CookieSameSite)
	assert.Equal(t, DefaultBcryptCost, cfg.BcryptCost)
	assert.True(t, cfg.MigrateOnStart)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, "postgres://postgres:postgres@db:5432/postgres?sslmode=disable", cfg.DatabaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SESSION_KEY", "legacy-key")
	t.Setenv("SESSION_SECRET", "preferred-key")
	t.Setenv("SESSION_BACKEND", "Memory")
	t.Setenv("SESSION_MAX_AGE", "60")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("BCRYPT_COST", "not-a-number")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("POSTGRES_HOST", "pg.internal")
	t.Setenv("POSTGRES_PASSWORD", "p@ss word")

	cfg := Load()
	assert.Equal(t, "preferred-key", cfg.SessionKey)
	assert.Equal(t, SessionBackendMemory, cfg.SessionBackend)
	assert.Equal(t, 60, cfg.SessionMaxAge)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, DefaultBcryptCost, cfg.BcryptCost)
	assert.False(t, cfg.MigrateOnStart)
	assert.Contains(t, cfg.DatabaseURL, "@pg.internal:5432/")
	assert.Contains(t, cfg.DatabaseURL, "p%40ss%20word")

	t.Setenv("DATABASE_URL", "postgres://u:p@elsewhere/db")
	assert.Equal(t, "postgres://u:p@elsewhere/db", Load().DatabaseURL)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "release with default key", mutate: func(c *Config) {
			c.GinMode = gin.ReleaseMode
			c.SessionKey = defaultSessionKey
		}, wantErr: "SESSION_SECRET is required"},
		{name: "release with short key", mutate: func(c *Config) {
			c.GinMode = gin.ReleaseMode
			c.SessionKey = "short"
		}, wantErr: "at least 32 bytes"},
		{name: "release with strong key", mutate: func(c *Config) {
			c.GinMode = gin.ReleaseMode
		}},
		{name: "unknown backend", mutate: func(c *Config) { c.SessionBackend = "memcached" }, wantErr: "unknown SESSION_BACKEND"},
		{name: "zero max age", mutate: func(c *Config) { c.SessionMaxAge = 0 }, wantErr: "SESSION_MAX_AGE"},
		{name: "cost too high", mutate: func(c *Config) { c.BcryptCost = 40 }, wantErr: "BCRYPT_COST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSameSiteFromString(t *testing.T) {
	assert.Equal(t, http.SameSiteStrictMode, sameSiteFromString("strict"))
	assert.Equal(t, http.SameSiteNoneMode, sameSiteFromString("None"))
	assert.Equal(t, http.SameSiteLaxMode, sameSiteFromString("bogus"))
}
