// Package db persists the API error journal in Postgres via pgx.
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const logPrefix = "db:pool"

// journalTable is created by the first migration.
const journalTable = "api_errors"

// NewPool creates a new pgx connection pool from the given database URL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to database", logPrefix))

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to parse database URL: %w", logPrefix, err)
	}

	// The journal is append-mostly; a small pool is enough.
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create pool: %w", logPrefix, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to ping database: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Database connection established", logPrefix))
	return pool, nil
}

// RunMigrations applies SQL migration files in order. Migrations are idempotent.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, migrationFiles []string) error {
	slog.Info(fmt.Sprintf("%s - Running %d migrations", logPrefix, len(migrationFiles)))

	for i, sql := range migrationFiles {
		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("%s - migration %d failed: %w", logPrefix, i+1, err)
		}
	}

	slog.Info(fmt.Sprintf("%s - Migrations complete", logPrefix))
	return nil
}

// MigrationState describes whether the journal schema is present.
type MigrationState struct {
	Applied bool
	Files   int
	Source  string
}

func (s MigrationState) String() string {
	if s.Applied {
		return fmt.Sprintf("applied (schema present, %d migration files in %s)", s.Files, s.Source)
	}
	return fmt.Sprintf("not applied (run 'playfab migrate up'). %d migration files in %s", s.Files, s.Source)
}

// MigrationStatus reports whether migrations have been applied by checking for the journal table.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, migrationPath string) (*MigrationState, error) {
	const statusLogPrefix = "db:MigrationStatus"

	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`,
		journalTable).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to check schema: %w", statusLogPrefix, err)
	}

	files, err := LoadMigrationFiles(migrationPath)
	if err != nil {
		return nil, fmt.Errorf("%s - load migration list: %w", statusLogPrefix, err)
	}

	return &MigrationState{Applied: exists, Files: len(files), Source: migrationSource(migrationPath)}, nil
}
