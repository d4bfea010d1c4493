package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// clearEnv blanks every variable LoadFrom reads so the host cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DEBUG", "IS_LAMBDA", "AWS_LAMBDA_FUNCTION_NAME", "SERVER_ADDRESS", "DB_DRIVER", "DATABASE_URL",
		"JWT_SECRET", "JWT_AUDIENCE", "LOG_LEVEL", "ENABLE_EVENTS", "EVENT_BUS_NAME", "AWS_REGION",
		"RATE_LIMIT_IP_RPM", "RATE_LIMIT_USER_RPM", "CORS_ALLOWED_ORIGINS", "METADATA_TIMEOUT",
		"METADATA_ALLOW_PRIVATE_NETWORKS",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoadFrom_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFrom(t.TempDir(), Development)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Metadata.AllowPrivateNetworks)
	assert.Equal(t, []string{"defaults", "environment"}, cfg.LoadedFrom)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFrom_LayersFilesThenEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	writeFile(t, dir, "base.yaml", `
server:
  address: ":9000"
logging:
  level: warn
metadata:
  timeout: 3s
cors:
  allowedOrigins: ["https://app.example.com"]
`)
	writeFile(t, dir, "development.yaml", `
logging:
  level: debug
database:
  dsn: dev.db
`)
	writeFile(t, dir, "local.yml", `
database:
  logQueries: true
metadata:
  allowPrivateNetworks: true
`)
	t.Setenv("SERVER_ADDRESS", ":7000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadFrom(dir, Development)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Address, "environment wins")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "dev.db", cfg.Database.DSN)
	assert.True(t, cfg.Database.LogQueries)
	assert.True(t, cfg.Metadata.AllowPrivateNetworks)
	assert.Equal(t, 3*time.Second, cfg.Metadata.Timeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Len(t, cfg.LoadedFrom, 5)
}

func TestLoadFrom_LocalOnlyInDevelopment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "local.yaml", "logging:\n  level: debug\n")

	cfg, err := LoadFrom(dir, Staging)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFrom_Errors(t *testing.T) {
	t.Run("malformed yaml", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		writeFile(t, dir, "base.yaml", "server: [unterminated")

		_, err := LoadFrom(dir, Development)
		assert.ErrorContains(t, err, "failed to parse")
	})

	t.Run("production without secret", func(t *testing.T) {
		clearEnv(t)
		_, err := LoadFrom(t.TempDir(), Production)
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("production with secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("JWT_SECRET", "s3cret")
		cfg, err := LoadFrom(t.TempDir(), Production)
		require.NoError(t, err)
		assert.False(t, cfg.Database.AutoMigrate)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "unsupported database driver"},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }, "DATABASE_URL"},
		{"zero rate limit", func(c *Config) { c.Auth.IPRateLimit = 0 }, "rate limits"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"events without bus", func(c *Config) { c.Events.Enabled = true; c.Events.BusName = "" }, "EVENT_BUS_NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults(Development)
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}

	assert.NoError(t, Defaults(Development).Validate())
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "logging:\n  level: info\n")

	initial, err := LoadFrom(dir, Development)
	require.NoError(t, err)

	w, err := NewWatcher(dir, Development, initial, zap.NewNop())
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond

	levels := make(chan string, 4)
	w.OnChange(func(c *Config) { levels <- c.Logging.Level })
	w.Start()
	defer w.Stop()

	// unrelated files are ignored
	writeFile(t, dir, "notes.txt", "hello")
	writeFile(t, dir, "base.yaml", "logging:\n  level: debug\n")

	select {
	case level := <-levels:
		assert.Equal(t, "debug", level)
	case <-time.After(5 * time.Second):
		t.Fatal("configuration was not reloaded")
	}
	assert.Equal(t, "debug", w.Current().Logging.Level)
}

func TestWatcher_KeepsCurrentOnInvalidReload(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "logging:\n  level: info\n")

	initial, err := LoadFrom(dir, Development)
	require.NoError(t, err)

	w, err := NewWatcher(dir, Development, initial, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	writeFile(t, dir, "base.yaml", "logging:\n  level: loud\n")
	w.reload()
	assert.Equal(t, "info", w.Current().Logging.Level)
}

func TestSigningSecret(t *testing.T) {
	cfg := Defaults(Development)
	assert.Equal(t, DevelopmentJWTSecret, cfg.SigningSecret())

	cfg.Auth.JWTSecret = "s3cret"
	assert.Equal(t, "s3cret", cfg.SigningSecret())

	prod := Defaults(Production)
	assert.Empty(t, prod.SigningSecret())
}
