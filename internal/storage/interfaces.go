package storage

import (
	"context"

	"blue-railroad-bot/internal/domain"
)

// PageStore reads and writes wiki pages.
type PageStore interface {
	// ReadPage returns the current content of a page. exists is false for missing pages.
	ReadPage(ctx context.Context, name string) (content string, exists bool, err error)

	// WritePage creates or replaces a page. Failures wrap ErrPageWriteFailed, or
	// ErrWriteAccessDenied when the store rejects the bot's credentials.
	WritePage(ctx context.Context, name, content, summary string) error
}

// WriteAuthorizer is implemented by page stores that need a session to write.
type WriteAuthorizer interface {
	// AuthorizeWrites establishes write access. Failures wrap ErrWriteAccessDenied.
	AuthorizeWrites(ctx context.Context) error
}

// ConfigSource provides the raw bot configuration document.
type ConfigSource interface {
	// FetchConfigDocument returns the page text. Returns ErrConfigPageMissing if the page does not exist.
	FetchConfigDocument(ctx context.Context, page string) (string, error)
}

// RunStore keeps the history of import runs.
type RunStore interface {
	// SaveRun stores a finished run with its page results. Returns ErrDuplicateKey if run_id exists.
	SaveRun(ctx context.Context, s *domain.RunSummary) error

	// GetRun retrieves a run by id. Returns ErrNotFound if not exists.
	GetRun(ctx context.Context, runID string) (*domain.RunSummary, error)

	// ListRuns returns the most recent runs, newest first, without page results.
	ListRuns(ctx context.Context, limit int) ([]*domain.RunSummary, error)
}

// OwnershipSnapshotStore keeps per-run ownership snapshots for analytics.
type OwnershipSnapshotStore interface {
	// InsertSnapshot appends the ownership rows of one run. Returns ErrDuplicateKey if the run already has a snapshot.
	InsertSnapshot(ctx context.Context, records []domain.OwnershipRecord) error

	// GetSnapshot returns a run's rows ordered by (source_key, token_id).
	GetSnapshot(ctx context.Context, runID string) ([]domain.OwnershipRecord, error)

	// HolderCounts returns token counts per owner for a run.
	HolderCounts(ctx context.Context, runID string) (map[string]int, error)
}
