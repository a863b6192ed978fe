// Package config loads server configuration from flags, environment variables
// and an optional .env file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// MemoryDatabase keeps the whole database in process memory.
const MemoryDatabase = ":memory:"

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Server   ServerConfig
	Session  SessionConfig
	Catalog  CatalogConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// DataPath holds the session key and, unless overridden, the database.
	DataPath string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DatabaseConfig holds SQLite configuration.
type DatabaseConfig struct {
	Path string // file path or ":memory:"
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	CORSAllowedOrigins []string
	// LoginRatePerMinute bounds POST /login and /signup per client IP. Zero means the default of 10.
	LoginRatePerMinute int
	// TrustedProxies are the reverse proxies allowed to report the client IP
	// through X-Forwarded-For or X-Real-IP. Empty ignores those headers.
	TrustedProxies []netip.Prefix
}

// SessionConfig holds login session configuration.
type SessionConfig struct {
	Duration     time.Duration
	CookieName   string
	CookieSecure bool
	// Key is the PASETO v4 symmetric key. Set by auth.LoadOrGenerateKey at startup.
	Key []byte
}

// CatalogConfig holds catalog configuration.
type CatalogConfig struct {
	SeedOnStartup bool
}

// Load builds the configuration with precedence:
// 1. Command-line flags.
// 2. Environment variables.
// 3. .env file.
// 4. Defaults.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("books-server", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for the database and session key")
	dbPath := fs.String("database-path", "", "SQLite database path, or :memory:")
	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	sessionDuration := fs.String("session-duration", "", "Login session lifetime (default: 720h)")
	cookieName := fs.String("session-cookie-name", "", "Session cookie name (default: session)")
	cookieSecure := fs.String("session-cookie-secure", "", "Mark the session cookie Secure (default: false)")
	seedCatalog := fs.String("seed-catalog", "", "Insert the demo catalog on startup (default: false)")
	loginRate := fs.String("login-rate-per-minute", "", "Login and signup attempts per IP per minute (default: 10)")
	trustedProxies := fs.String("trusted-proxies", "", "Comma separated proxy IPs or CIDRs whose forwarding headers are trusted (default: none)")
	corsOrigins := fs.String("cors-allowed-origins", "", "Comma separated origins allowed by the JSON API (default: *)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// A missing .env file is fine.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Path: getConfigValue(*dbPath, "DATABASE_PATH", ""),
		},
		Server: ServerConfig{
			Port:               getConfigValue(*port, "SERVER_PORT", "8080"),
			LoginRatePerMinute: getIntConfigValue(*loginRate, "LOGIN_RATE_PER_MINUTE", 10),
			CORSAllowedOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "*")),
		},
		Session: SessionConfig{
			CookieName:   getConfigValue(*cookieName, "SESSION_COOKIE_NAME", "session"),
			CookieSecure: getBoolConfigValue(*cookieSecure, "SESSION_COOKIE_SECURE", false),
		},
		Catalog: CatalogConfig{
			SeedOnStartup: getBoolConfigValue(*seedCatalog, "SEED_CATALOG", false),
		},
	}

	durations := []struct {
		flagValue, key, def string
		dst                 *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*sessionDuration, "SESSION_DURATION", "720h", &cfg.Session.Duration},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.key, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.key, raw, err)
		}
		*d.dst = parsed
	}

	rawProxies := getConfigValue(*trustedProxies, "TRUSTED_PROXIES", "")
	proxies, err := parsePrefixes(splitList(rawProxies))
	if err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES %q: %w", rawProxies, err)
	}
	cfg.Server.TrustedProxies = proxies

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Database.Path == "" {
		return errors.New("database path cannot be empty after expansion")
	}
	if c.Session.Duration <= 0 {
		return errors.New("SESSION_DURATION must be positive")
	}
	if c.Session.CookieName == "" {
		return errors.New("SESSION_COOKIE_NAME cannot be empty")
	}
	if c.Server.LoginRatePerMinute < 0 {
		return errors.New("LOGIN_RATE_PER_MINUTE cannot be negative")
	}

	return nil
}

// InMemory reports whether the database lives only in process memory.
func (c *Config) InMemory() bool {
	return c.Database.Path == MemoryDatabase
}

func (c *Config) expandPaths() error {
	if c.App.DataPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.App.DataPath = filepath.Join(home, "BooksServer")
	}

	expanded, err := expandPath(c.App.DataPath)
	if err != nil {
		return err
	}
	c.App.DataPath = expanded

	switch c.Database.Path {
	case MemoryDatabase:
	case "":
		c.Database.Path = filepath.Join(c.App.DataPath, "books.db")
	default:
		dbPath, err := expandPath(c.Database.Path)
		if err != nil {
			return err
		}
		c.Database.Path = dbPath
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = abs
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1" and "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	switch strings.ToLower(raw) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	raw := getConfigValue(flagValue, envKey, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parsePrefixes accepts CIDRs and bare addresses. A bare address is a
// single-host prefix.
func parsePrefixes(items []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(items))
	for _, item := range items {
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		ip, err := netip.ParseAddr(item)
		if err != nil {
			return nil, err
		}
		ip = ip.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(ip, ip.BitLen()))
	}
	return prefixes, nil
}

// loadEnvFile loads KEY=value lines from path. Variables already present in
// the environment are left alone.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- operator supplied path
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}
