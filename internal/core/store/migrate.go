package store

import (
	"context"
	"errors"
	"fmt"
)

// migrations are applied in order; a migration's index+1 is the schema
// version it produces. Append only.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS rate_limits (
			endpoint TEXT PRIMARY KEY,
			hit INTEGER NOT NULL DEFAULT 0,
			until_ms INTEGER,
			last_hit_ms INTEGER,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rate_limits_until ON rate_limits(until_ms);`,
	},
	{
		`ALTER TABLE rate_limits ADD COLUMN hit_count INTEGER NOT NULL DEFAULT 0;`,
	},
}

// SchemaVersion is the version Migrate brings a store to.
func SchemaVersion() int {
	return len(migrations)
}

// Migrate applies pending migrations, each in its own transaction, tracking
// progress in PRAGMA user_version.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	current, err := s.Version(ctx)
	if err != nil {
		return err
	}
	for version := current + 1; version <= len(migrations); version++ {
		if err := s.applyMigration(ctx, version); err != nil {
			return err
		}
	}
	return nil
}

// Version reports the store's current schema version.
func (s *Store) Version(ctx context.Context) (int, error) {
	var version int
	if err := s.DB.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func (s *Store) applyMigration(ctx context.Context, version int) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", version, err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	for _, stmt := range migrations[version-1] {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration %d failed: %w", version, err)
		}
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("record schema version %d: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", version, err)
	}
	return nil
}
