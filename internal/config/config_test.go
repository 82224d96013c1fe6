package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	ConfigFileEnv, "PORT", "ENVIRONMENT", "STORAGE_DRIVER",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"CACHE_ENABLED", "CACHE_TTL", "LOG_LEVEL", "LOG_FILE",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL.Duration)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 30, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window.Duration)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.StartTime.IsZero())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "10s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL.Duration)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window.Duration)
}

func TestLoad_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")
	t.Setenv("CACHE_ENABLED", "maybe")
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("RATE_LIMIT_WINDOW", "later")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "CACHE_ENABLED")
	assert.Contains(t, err.Error(), "CACHE_TTL")
	assert.Contains(t, err.Error(), "RATE_LIMIT_WINDOW")
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "userdir.toml")
	content := `
port = 7000
environment = "staging"

[storage]
driver = "postgres"

[database]
host = "pg"
name = "people"

[cache]
enabled = true
ttl = "90s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Port, "env wins over file")
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "pg", cfg.Database.Host)
	assert.Equal(t, "people", cfg.Database.Name)
	assert.Equal(t, 5432, cfg.Database.Port, "unset keys keep defaults")
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL.Duration)
}

func TestLoad_FileErrors(t *testing.T) {
	clearEnv(t)

	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.toml"))
	_, err := Load()
	assert.ErrorContains(t, err, "failed to read config file")

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("port = [unterminated"), 0o600))
	t.Setenv(ConfigFileEnv, bad)
	_, err = Load()
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLoadFile_ExplicitPath(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "explicit.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = 9100\n"), 0o600))
	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "ignored.toml"))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)

	cfg, err = LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "port zero", mutate: func(c *Config) { c.Port = 0 }, wantErr: "invalid port"},
		{name: "port too large", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "invalid port"},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "mongo" }, wantErr: "unknown storage driver"},
		{
			name: "cache without ttl",
			mutate: func(c *Config) {
				c.Cache.Enabled = true
				c.Cache.TTL = Duration{}
			},
			wantErr: "cache ttl must be positive",
		},
		{
			name: "cache without redis",
			mutate: func(c *Config) {
				c.Cache.Enabled = true
				c.Redis.Addr = ""
			},
			wantErr: "redis address is required",
		},
		{
			name: "rate limit without budget",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = true
				c.RateLimit.Requests = 0
			},
			wantErr: "rate limit requests and window must be positive",
		},
		{
			name: "rate limit without redis",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = true
				c.Redis.Addr = ""
			},
			wantErr: "redis address is required when rate limiting is enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
