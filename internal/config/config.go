// Package config handles loading application configuration. All config is
// centralized here so no other package reads env vars directly. Values come
// from built-in defaults, then an optional YAML file (CONFIG_FILE), then
// environment variables, with later sources winning.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

// MinSessionPasswordLength is the shortest accepted cookie sealing password.
const MinSessionPasswordLength = 32

// devSessionPassword lets local development run without any configuration.
const devSessionPassword = "dev-session-password-do-not-use-in-production"

// Config holds all application configuration. Built once at startup and
// passed to other packages via dependency injection. Read-only afterwards.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for CORS and absolute links.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Backend holds settings for the external auth/scan service.
	Backend BackendConfig

	// Session holds cookie session settings.
	Session SessionConfig

	// Database holds optional MariaDB settings for the activity log.
	Database DatabaseConfig

	// Redis holds optional Redis settings (rate limits, recent scans).
	Redis RedisConfig
}

// BackendConfig points at the service that owns authentication, password
// storage and scraping.
type BackendConfig struct {
	// URL is the backend base URL, without a trailing slash.
	URL string
}

// SessionConfig controls the sealed session cookie.
type SessionConfig struct {
	// Password seals and opens the cookie. Must be at least 32 characters.
	Password string

	// CookieName is the session cookie name (default: "auth_session").
	CookieName string

	// TTL is the lifetime of a normal session (default: 15m).
	TTL time.Duration

	// RememberTTL is the lifetime when "remember me" was ticked (default: 7 days).
	RememberTTL time.Duration
}

// DatabaseConfig holds MariaDB connection parameters. An empty Host with no
// DATABASE_URL disables the activity log entirely.
type DatabaseConfig struct {
	Host     string
	User     string
	Password string
	Name     string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string
}

// Enabled reports whether a database was configured at all.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != "" || d.dsnOverride != ""
}

// DSN returns the go-sql-driver/mysql connection string. DATABASE_URL wins
// when set; otherwise the DSN is built with the driver's FormatDSN so special
// characters in passwords survive.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	cfg.MultiStatements = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
func ensurePort(host, defaultPort string) string {
	if _, _, err := net.SplitHostPort(host); err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters. An empty URL disables
// Redis-backed features; rate limits fall back to in-process buckets.
type RedisConfig struct {
	URL string
}

// Enabled reports whether Redis was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// Load reads configuration from CONFIG_FILE (if set) and environment
// variables. Returns an error if required values are missing or invalid.
func Load() (*Config, error) {
	src, err := newSource(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:      src.str("ENV", "development"),
		Port:     src.int("PORT", 8080),
		BaseURL:  src.str("BASE_URL", "http://localhost:8080"),
		LogLevel: src.str("LOG_LEVEL", ""),

		Backend: BackendConfig{
			URL: strings.TrimRight(src.str("BACKEND_URL", ""), "/"),
		},

		Session: SessionConfig{
			Password:    src.str("SESSION_PASSWORD", ""),
			CookieName:  src.str("SESSION_COOKIE_NAME", "auth_session"),
			TTL:         src.duration("SESSION_TTL", 15*time.Minute),
			RememberTTL: src.duration("SESSION_REMEMBER_TTL", 7*24*time.Hour),
		},

		Database: DatabaseConfig{
			Host:            src.str("DB_HOST", ""),
			User:            src.str("DB_USER", "outreach"),
			Password:        src.str("DB_PASSWORD", "outreach"),
			Name:            src.str("DB_NAME", "outreach"),
			dsnOverride:     src.str("DATABASE_URL", ""),
			MaxOpenConns:    src.int("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    src.int("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: src.duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath:  src.str("MIGRATIONS_PATH", "db/migrations"),
		},

		Redis: RedisConfig{
			URL: src.str("REDIS_URL", ""),
		},
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
		if cfg.IsDevelopment() {
			cfg.LogLevel = "debug"
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate enforces required settings. Production refuses to start without
// an explicit backend URL and sealing password; development gets defaults.
func (c *Config) validate() error {
	if c.IsProduction() {
		if c.Session.Password == "" {
			return fmt.Errorf("SESSION_PASSWORD is required in production")
		}
		if c.Backend.URL == "" {
			return fmt.Errorf("BACKEND_URL is required in production")
		}
	}

	if c.Session.Password == "" {
		c.Session.Password = devSessionPassword
	}
	if len(c.Session.Password) < MinSessionPasswordLength {
		return fmt.Errorf("SESSION_PASSWORD must be at least %d characters", MinSessionPasswordLength)
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME must not be empty")
	}
	if c.Session.TTL <= 0 || c.Session.RememberTTL <= 0 {
		return fmt.Errorf("SESSION_TTL and SESSION_REMEMBER_TTL must be positive")
	}

	if c.Backend.URL == "" {
		c.Backend.URL = "http://localhost:3001"
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BACKEND_URL %q is not an absolute http(s) URL", c.Backend.URL)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// IsProduction returns true for "production" or "prod" in any letter case.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// source resolves a key from the environment first, then the YAML file.
// File keys are the lower-cased env names (e.g. backend_url).
type source struct {
	file map[string]string
}

// newSource reads the optional YAML file. An empty path means env only.
func newSource(path string) (*source, error) {
	s := &source{file: map[string]string{}}
	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	for k, v := range values {
		if v == nil {
			continue
		}
		s.file[strings.ToLower(k)] = fmt.Sprint(v)
	}
	return s, nil
}

func (s *source) lookup(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	val, ok := s.file[strings.ToLower(key)]
	return val, ok
}

// str reads a string value or returns the default.
func (s *source) str(key, defaultVal string) string {
	if val, ok := s.lookup(key); ok {
		return val
	}
	return defaultVal
}

// int reads an integer value or returns the default.
func (s *source) int(key string, defaultVal int) int {
	if val, ok := s.lookup(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// duration reads a duration value (e.g., "15m") or returns the default.
func (s *source) duration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := s.lookup(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
