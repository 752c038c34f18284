package memory

import (
	"context"
	"sort"
	"sync"

	"blue-railroad-bot/internal/domain"
	"blue-railroad-bot/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RunSummary // keyed by run_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.RunSummary),
	}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// SaveRun stores a run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) SaveRun(_ context.Context, r *domain.RunSummary) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[r.RunID] = copyRun(r, true)
	return nil
}

// GetRun retrieves a run by id. Returns ErrNotFound if not exists.
func (s *RunStore) GetRun(_ context.Context, runID string) (*domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyRun(r, true), nil
}

// ListRuns returns the most recent runs, newest first, without page results.
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]*domain.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.RunSummary, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, copyRun(r, false))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].StartedAt.After(result[j].StartedAt)
		}
		return result[i].RunID < result[j].RunID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func copyRun(r *domain.RunSummary, withPages bool) *domain.RunSummary {
	c := *r
	c.Pages = nil
	if withPages && len(r.Pages) > 0 {
		c.Pages = append([]domain.PageResult(nil), r.Pages...)
	}
	c.Warnings = append([]string(nil), r.Warnings...)
	return &c
}
