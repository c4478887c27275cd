package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/esi/esi-bot/internal/esi"
)

var _ esi.Snapshotter = (*DB)(nil)

// SaveSpec stores a swagger document, replacing an older one for the same
// host and version. A snapshot older than the stored one is ignored.
func (db *DB) SaveSpec(ctx context.Context, snap esi.Snapshot) error {
	query := `
	INSERT INTO spec_snapshots (host, version, fetched_at, document)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(host, version) DO UPDATE SET
		fetched_at = excluded.fetched_at,
		document = excluded.document
	WHERE excluded.fetched_at >= spec_snapshots.fetched_at
	`
	if _, err := db.conn.ExecContext(ctx, query,
		snap.Host, snap.Version, snap.FetchedAt.UnixNano(), snap.Raw,
	); err != nil {
		return fmt.Errorf("failed to save spec %s %s: %w", snap.Host, snap.Version, err)
	}
	return nil
}

// LoadSpecs returns every stored document for host, ordered by version.
func (db *DB) LoadSpecs(ctx context.Context, host string) ([]esi.Snapshot, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT version, fetched_at, document FROM spec_snapshots WHERE host = ? ORDER BY version`, host)
	if err != nil {
		return nil, fmt.Errorf("failed to load specs for %s: %w", host, err)
	}
	defer func() { _ = rows.Close() }()

	var snaps []esi.Snapshot
	for rows.Next() {
		snap := esi.Snapshot{Host: host}
		var fetched int64
		if err := rows.Scan(&snap.Version, &fetched, &snap.Raw); err != nil {
			return nil, fmt.Errorf("failed to scan spec row: %w", err)
		}
		snap.FetchedAt = time.Unix(0, fetched)
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate spec rows: %w", err)
	}
	return snaps, nil
}

// CountSpecs returns the number of stored documents.
func (db *DB) CountSpecs(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM spec_snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count specs: %w", err)
	}
	return n, nil
}
