package clickhouse

import (
	"context"
	"fmt"

	"blue-railroad-bot/internal/domain"
	"blue-railroad-bot/internal/storage"
)

// OwnershipSnapshotStore implements storage.OwnershipSnapshotStore using ClickHouse.
type OwnershipSnapshotStore struct {
	conn *Conn
}

// NewOwnershipSnapshotStore creates a new OwnershipSnapshotStore.
func NewOwnershipSnapshotStore(conn *Conn) *OwnershipSnapshotStore {
	return &OwnershipSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.OwnershipSnapshotStore = (*OwnershipSnapshotStore)(nil)

// InsertSnapshot appends one run's rows in a single batch.
// Returns ErrDuplicateKey if the run already has rows.
func (s *OwnershipSnapshotStore) InsertSnapshot(ctx context.Context, records []domain.OwnershipRecord) error {
	if len(records) == 0 {
		return nil
	}
	runID := records[0].RunID
	for _, r := range records {
		if r.RunID == "" || r.RunID != runID {
			return storage.ErrInvalidInput
		}
	}

	// MergeTree does not enforce keys; snapshots are append-only per run.
	exists, err := s.exists(ctx, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO ownership_snapshots (
			run_id, observed_at, source_key, token_id, version,
			owner, ordering_kind, ordering_value, video_cid
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		err = batch.Append(
			r.RunID,
			r.ObservedAt,
			r.SourceKey,
			r.TokenID,
			string(r.Version),
			r.Owner,
			string(r.OrderingKind),
			r.OrderingValue,
			r.VideoCID,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetSnapshot returns a run's rows ordered by (source_key, token_id).
func (s *OwnershipSnapshotStore) GetSnapshot(ctx context.Context, runID string) ([]domain.OwnershipRecord, error) {
	query := `
		SELECT run_id, observed_at, source_key, token_id, version,
			owner, ordering_kind, ordering_value, video_cid
		FROM ownership_snapshots
		WHERE run_id = ?
		ORDER BY source_key ASC, token_id ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	var records []domain.OwnershipRecord
	for rows.Next() {
		var r domain.OwnershipRecord
		var version, kind string
		if err := rows.Scan(
			&r.RunID, &r.ObservedAt, &r.SourceKey, &r.TokenID, &version,
			&r.Owner, &kind, &r.OrderingValue, &r.VideoCID,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		r.Version = domain.Version(version)
		r.OrderingKind = domain.OrderingKind(kind)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return records, nil
}

// HolderCounts returns token counts per non-empty owner for a run.
func (s *OwnershipSnapshotStore) HolderCounts(ctx context.Context, runID string) (map[string]int, error) {
	query := `
		SELECT owner, count() AS tokens
		FROM ownership_snapshots
		WHERE run_id = ? AND owner != ''
		GROUP BY owner
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query holder counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var owner string
		var n uint64
		if err := rows.Scan(&owner, &n); err != nil {
			return nil, fmt.Errorf("scan holder count: %w", err)
		}
		counts[owner] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holder counts: %w", err)
	}
	return counts, nil
}

func (s *OwnershipSnapshotStore) exists(ctx context.Context, runID string) (bool, error) {
	var n uint64
	row := s.conn.QueryRow(ctx, `SELECT count() FROM ownership_snapshots WHERE run_id = ?`, runID)
	if err := row.Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
