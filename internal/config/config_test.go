package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key Load reads so the host environment can't leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "ENV", "PORT", "BASE_URL", "LOG_LEVEL", "BACKEND_URL",
		"SESSION_PASSWORD", "SESSION_COOKIE_NAME", "SESSION_TTL", "SESSION_REMEMBER_TTL",
		"DB_HOST", "DB_USER", "DB_PASSWORD", "DB_NAME", "DATABASE_URL",
		"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
		"MIGRATIONS_PATH", "REDIS_URL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_DevelopmentDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://localhost:3001", cfg.Backend.URL)
	assert.Equal(t, "auth_session", cfg.Session.CookieName)
	assert.Equal(t, 15*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.RememberTTL)
	assert.GreaterOrEqual(t, len(cfg.Session.Password), MinSessionPasswordLength)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "Production")
	t.Setenv("BACKEND_URL", "https://api.example.com")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_PASSWORD")

	t.Setenv("SESSION_PASSWORD", "0123456789abcdef0123456789abcdef")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_ProductionRequiresBackendURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "prod")
	t.Setenv("SESSION_PASSWORD", "0123456789abcdef0123456789abcdef")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_URL")
}

func TestLoad_RejectsShortPassword(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_PASSWORD", "too-short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32")
}

func TestLoad_RejectsRelativeBackendURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_URL", "api.example.com")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_TrimsBackendTrailingSlash(t *testing.T) {
	clearEnv(t)
	t.Setenv("BACKEND_URL", "http://backend:3000/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://backend:3000", cfg.Backend.URL)
}

func TestLoad_YAMLFileWithEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "outreach.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9090
backend_url: http://from-file:3000
session_ttl: 30m
redis_url: redis://cache:6379
log_level: warn
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port, "env wins over file")
	assert.Equal(t, "http://from-file:3000", cfg.Backend.URL)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "mariadb", User: "u", Password: "p@ss", Name: "outreach"}
	assert.True(t, d.Enabled())
	assert.Contains(t, d.DSN(), "tcp(mariadb:3306)/outreach")
	assert.Contains(t, d.DSN(), "parseTime=true")

	override := DatabaseConfig{dsnOverride: "u:p@tcp(db:3307)/x"}
	assert.True(t, override.Enabled())
	assert.Equal(t, "u:p@tcp(db:3307)/x", override.DSN())
}
