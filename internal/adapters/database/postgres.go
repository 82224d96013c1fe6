package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds database configuration
type Config struct {
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	ConnectionString string
	MaxConns         int
	MinConns         int
	MaxLifetime      time.Duration
}

// Querier is the subset of pgxpool.Pool used by the repositories
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DSN returns the connection string, building it from the discrete fields when unset
func (c Config) DSN() (string, error) {
	if c.ConnectionString != "" {
		return c.ConnectionString, nil
	}
	if c.Host == "" {
		return "", fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return "", fmt.Errorf("invalid port")
	}
	if c.User == "" {
		return "", fmt.Errorf("user is required")
	}
	if c.Database == "" {
		return "", fmt.Errorf("database is required")
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode,
	), nil
}

// NewPool creates a PostgreSQL connection pool and verifies it with a ping
func NewPool(ctx context.Context, config Config) (*pgxpool.Pool, error) {
	dsn, err := config.DSN()
	if err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if config.MaxConns > 0 {
		poolConfig.MaxConns = int32(config.MaxConns)
	}
	if config.MinConns > 0 {
		poolConfig.MinConns = int32(config.MinConns)
	}
	if config.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = config.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
