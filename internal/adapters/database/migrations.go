package database

import (
	"context"
	"fmt"
)

// Migration is a single forward schema change
type Migration struct {
	Version int64
	Name    string
	Up      string
}

// Migrations lists the schema changes in the order they are applied
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create_users",
		Up: `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			role VARCHAR(20) NOT NULL DEFAULT 'member',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
}

// MigrationRunner applies Migrations and records them in schema_migrations
type MigrationRunner struct {
	db         Querier
	migrations []Migration
}

// NewMigrationRunner creates a new migration runner
func NewMigrationRunner(db Querier, migrations []Migration) *MigrationRunner {
	return &MigrationRunner{
		db:         db,
		migrations: migrations,
	}
}

// Validate checks that versions are positive and strictly increasing
func (m *MigrationRunner) Validate() error {
	var last int64
	for _, mig := range m.migrations {
		if mig.Version <= last {
			return fmt.Errorf("migration %q: version %d must be greater than %d", mig.Name, mig.Version, last)
		}
		if mig.Up == "" {
			return fmt.Errorf("migration %q: empty statement", mig.Name)
		}
		last = mig.Version
	}
	return nil
}

// Up runs all pending migrations and returns how many were applied
func (m *MigrationRunner) Up(ctx context.Context) (int, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}

	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	if _, err := m.db.Exec(ctx, query); err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var current int64
	if err := m.db.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}

	applied := 0
	for _, mig := range m.migrations {
		if mig.Version <= current {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return applied, err
		}
		applied++
	}

	return applied, nil
}

// apply runs one migration and records it in the same transaction
func (m *MigrationRunner) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", mig.Version, err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, mig.Up); err != nil {
		return fmt.Errorf("failed to apply migration %d (%s): %w", mig.Version, mig.Name, err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
		mig.Version, mig.Name,
	); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", mig.Version, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", mig.Version, err)
	}
	return nil
}

// RunMigrations applies the built-in schema to db
func RunMigrations(ctx context.Context, db Querier) error {
	_, err := NewMigrationRunner(db, Migrations).Up(ctx)
	return err
}
