package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearJournal removes every recorded API error. The schema is preserved.
func ClearJournal(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info(fmt.Sprintf("%s - Clearing API error journal", clearLogPrefix))

	if _, err := pool.Exec(ctx, `TRUNCATE TABLE `+journalTable); err != nil {
		return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Journal cleared", clearLogPrefix))
	return nil
}
