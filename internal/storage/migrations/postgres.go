package migrations

import (
	"context"
	"fmt"

	"solana-launchpad/internal/storage/postgres"
)

// RunPostgresMigrations creates the journal schema. Every script uses
// IF NOT EXISTS, so running it against an existing journal is a no-op.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	files, err := scripts("postgres")
	if err != nil {
		return err
	}
	for _, f := range files {
		if _, err := pool.Exec(ctx, f.sql); err != nil {
			return fmt.Errorf("journal schema %s: %w", f.name, err)
		}
	}
	return nil
}
