package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileEnv names the environment variable holding an optional TOML config path
const ConfigFileEnv = "USERDIR_CONFIG"

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds the application configuration
type Config struct {
	// Server settings
	Port        int       `toml:"port"`
	Environment string    `toml:"environment"`
	Version     string    `toml:"version"`
	StartTime   time.Time `toml:"-"`

	// CORS settings
	CORS CORSConfig `toml:"cors"`

	Storage   StorageConfig   `toml:"storage"`
	Database  DatabaseConfig  `toml:"database"`
	Redis     RedisConfig     `toml:"redis"`
	Cache     CacheConfig     `toml:"cache"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Log       LogConfig       `toml:"log"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `toml:"allowed_origins"`
	AllowCredentials bool     `toml:"allow_credentials"`
	MaxAge           Duration `toml:"max_age"`
}

// StorageConfig selects the user store
type StorageConfig struct {
	Driver string `toml:"driver"`
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	SSLMode  string `toml:"sslmode"`
	MaxConns int    `toml:"max_conns"`
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// CacheConfig controls the read-through user cache
type CacheConfig struct {
	Enabled bool     `toml:"enabled"`
	TTL     Duration `toml:"ttl"`
}

// RateLimitConfig limits user creation per client IP using Redis
type RateLimitConfig struct {
	Enabled  bool     `toml:"enabled"`
	Requests int      `toml:"requests"`
	Window   Duration `toml:"window"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSize    int    `toml:"max_size"`
	MaxBackups int    `toml:"max_backups"`
	MaxAge     int    `toml:"max_age"`
}

// Duration is a time.Duration written as a string such as "5m" in config files
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration as a Go duration string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Port:        8080,
		Environment: "development",
		Version:     "1.0.0",
		CORS: CORSConfig{
			AllowedOrigins:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           Duration{12 * time.Hour},
		},
		Storage: StorageConfig{Driver: DriverMemory},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Name:     "userdir",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Cache: CacheConfig{TTL: Duration{5 * time.Minute}},
		RateLimit: RateLimitConfig{
			Requests: 30,
			Window:   Duration{time.Minute},
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Load builds the configuration from defaults, the optional TOML file named by
// USERDIR_CONFIG, and environment overrides, in that order
func Load() (*Config, error) {
	return LoadFile(os.Getenv(ConfigFileEnv))
}

// LoadFile is Load with an explicit config file path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.StartTime = time.Now()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)

	c.Port, errs = getEnvInt("PORT", c.Port, errs)
	c.Database.Port, errs = getEnvInt("DB_PORT", c.Database.Port, errs)
	c.Redis.DB, errs = getEnvInt("REDIS_DB", c.Redis.DB, errs)
	c.RateLimit.Requests, errs = getEnvInt("RATE_LIMIT_REQUESTS", c.RateLimit.Requests, errs)

	c.Cache.Enabled, errs = getEnvBool("CACHE_ENABLED", c.Cache.Enabled, errs)
	c.RateLimit.Enabled, errs = getEnvBool("RATE_LIMIT_ENABLED", c.RateLimit.Enabled, errs)

	c.Cache.TTL, errs = getEnvDuration("CACHE_TTL", c.Cache.TTL, errs)
	c.RateLimit.Window, errs = getEnvDuration("RATE_LIMIT_WINDOW", c.RateLimit.Window, errs)

	return errors.Join(errs...)
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}

	switch c.Storage.Driver {
	case DriverMemory, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	if c.Cache.Enabled {
		if c.Cache.TTL.Duration <= 0 {
			errs = append(errs, fmt.Errorf("cache ttl must be positive"))
		}
		if c.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("redis address is required when cache is enabled"))
		}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Requests <= 0 || c.RateLimit.Window.Duration <= 0 {
			errs = append(errs, fmt.Errorf("rate limit requests and window must be positive"))
		}
		if c.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("redis address is required when rate limiting is enabled"))
		}
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs []error) (int, []error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, errs
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, append(errs, fmt.Errorf("%s: %w", key, err))
	}
	return n, errs
}

func getEnvBool(key string, defaultValue bool, errs []error) (bool, []error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, errs
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue, append(errs, fmt.Errorf("%s: %w", key, err))
	}
	return b, errs
}

func getEnvDuration(key string, defaultValue Duration, errs []error) (Duration, []error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, errs
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, append(errs, fmt.Errorf("%s: %w", key, err))
	}
	return Duration{d}, errs
}
