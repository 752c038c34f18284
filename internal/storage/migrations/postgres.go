package migrations

import (
	"context"
	"fmt"

	"blue-railroad-bot/internal/storage/postgres"
)

// RunPostgresMigrations creates the run_summaries and page_results tables.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := load(PostgresFS, "postgres")
	if err != nil {
		return err
	}
	for _, m := range files {
		// pgx runs multi-statement text through the simple protocol.
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
	}
	return nil
}
