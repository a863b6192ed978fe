package config

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Environment: "development", DataPath: "/data"},
		Logger:   LoggerConfig{Level: "info"},
		Database: DatabaseConfig{Path: MemoryDatabase},
		Session:  SessionConfig{Duration: time.Hour, CookieName: "session"},
	}
}

// noEnvFile points Load at a .env path that does not exist.
func noEnvFile(t *testing.T) string {
	t.Helper()
	return "-env-file=" + filepath.Join(t.TempDir(), "missing.env")
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_LogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
		cfg := validConfig()
		cfg.Logger.Level = level
		assert.NoError(t, cfg.Validate(), level)
	}

	cfg := validConfig()
	cfg.Logger.Level = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestValidate_SessionSettings(t *testing.T) {
	cfg := validConfig()
	cfg.Session.Duration = 0
	assert.ErrorContains(t, cfg.Validate(), "SESSION_DURATION")

	cfg = validConfig()
	cfg.Session.CookieName = ""
	assert.ErrorContains(t, cfg.Validate(), "SESSION_COOKIE_NAME")

	cfg = validConfig()
	cfg.Server.LoginRatePerMinute = -1
	assert.ErrorContains(t, cfg.Validate(), "LOGIN_RATE_PER_MINUTE")
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load([]string{noEnvFile(t), "-data-path", dataDir})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 720*time.Hour, cfg.Session.Duration)
	assert.Equal(t, "session", cfg.Session.CookieName)
	assert.False(t, cfg.Session.CookieSecure)
	assert.Equal(t, 10, cfg.Server.LoginRatePerMinute)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.Equal(t, filepath.Join(dataDir, "books.db"), cfg.Database.Path)
	assert.False(t, cfg.InMemory())
}

func TestLoad_FlagBeatsEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load([]string{noEnvFile(t), "-data-path", t.TempDir(), "-port", "7000"})
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoad_MemoryDatabase(t *testing.T) {
	t.Setenv("DATABASE_PATH", MemoryDatabase)

	cfg, err := Load([]string{noEnvFile(t), "-data-path", t.TempDir()})
	require.NoError(t, err)
	assert.True(t, cfg.InMemory())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("SESSION_DURATION", "forever")

	_, err := Load([]string{noEnvFile(t), "-data-path", t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_DURATION")
}

func TestLoad_CORSOriginsList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,,")

	cfg, err := Load([]string{noEnvFile(t), "-data-path", t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.7,::1")

	cfg, err := Load([]string{noEnvFile(t), "-data-path", t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.7/32"),
		netip.MustParsePrefix("::1/128"),
	}, cfg.Server.TrustedProxies)

	cfg, err = Load([]string{noEnvFile(t), "-data-path", t.TempDir(), "-trusted-proxies", "172.16.0.9/12"})
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{netip.MustParsePrefix("172.16.0.0/12")}, cfg.Server.TrustedProxies)
}

func TestLoad_InvalidTrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,proxy.internal")

	_, err := Load([]string{noEnvFile(t), "-data-path", t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRUSTED_PROXIES")
}

func TestGetBoolConfigValue(t *testing.T) {
	t.Setenv("BOOKS_TEST_BOOL", "YES")
	assert.True(t, getBoolConfigValue("", "BOOKS_TEST_BOOL", false))
	assert.False(t, getBoolConfigValue("off", "BOOKS_TEST_BOOL", true))
	assert.True(t, getBoolConfigValue("", "BOOKS_TEST_UNSET", true))
}

func TestGetIntConfigValue(t *testing.T) {
	assert.Equal(t, 5, getIntConfigValue("5", "UNUSED", 1))
	assert.Equal(t, 1, getIntConfigValue("five", "UNUSED", 1))
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n\nBOOKS_TEST_A=\"from-file\"\nBOOKS_TEST_B = 'kept'\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("BOOKS_TEST_A", "from-env")
	t.Setenv("BOOKS_TEST_B", "")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "from-env", os.Getenv("BOOKS_TEST_A"))
	assert.Equal(t, "kept", os.Getenv("BOOKS_TEST_B"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NOT_A_PAIR\n"), 0o600))

	err := loadEnvFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}
