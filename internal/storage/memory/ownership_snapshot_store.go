package memory

import (
	"context"
	"sort"
	"sync"

	"blue-railroad-bot/internal/domain"
	"blue-railroad-bot/internal/storage"
)

// OwnershipSnapshotStore is an in-memory implementation of storage.OwnershipSnapshotStore.
type OwnershipSnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]domain.OwnershipRecord // keyed by run_id
}

// NewOwnershipSnapshotStore creates a new in-memory snapshot store.
func NewOwnershipSnapshotStore() *OwnershipSnapshotStore {
	return &OwnershipSnapshotStore{
		data: make(map[string][]domain.OwnershipRecord),
	}
}

// Compile-time interface check.
var _ storage.OwnershipSnapshotStore = (*OwnershipSnapshotStore)(nil)

// InsertSnapshot appends one run's rows. All rows must share a run id.
func (s *OwnershipSnapshotStore) InsertSnapshot(_ context.Context, records []domain.OwnershipRecord) error {
	if len(records) == 0 {
		return nil
	}
	runID := records[0].RunID
	for _, r := range records {
		if r.RunID == "" || r.RunID != runID {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[runID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[runID] = append([]domain.OwnershipRecord(nil), records...)
	return nil
}

// GetSnapshot returns a run's rows ordered by (source_key, token_id).
func (s *OwnershipSnapshotStore) GetSnapshot(_ context.Context, runID string) ([]domain.OwnershipRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := append([]domain.OwnershipRecord(nil), s.data[runID]...)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SourceKey != rows[j].SourceKey {
			return rows[i].SourceKey < rows[j].SourceKey
		}
		return rows[i].TokenID < rows[j].TokenID
	})
	return rows, nil
}

// HolderCounts returns token counts per non-empty owner for a run.
func (s *OwnershipSnapshotStore) HolderCounts(_ context.Context, runID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, r := range s.data[runID] {
		if r.Owner != "" {
			counts[r.Owner]++
		}
	}
	return counts, nil
}
