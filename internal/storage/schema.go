package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	return createSpecSnapshotsTable(ctx, db)
}

func createSpecSnapshotsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS spec_snapshots (
		host TEXT NOT NULL,
		version TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,
		document BLOB NOT NULL,
		PRIMARY KEY (host, version)
	);
	CREATE INDEX IF NOT EXISTS idx_spec_snapshots_fetched_at ON spec_snapshots(fetched_at);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create spec_snapshots table: %w", err)
	}

	return nil
}
