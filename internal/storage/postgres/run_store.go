package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"blue-railroad-bot/internal/domain"
	"blue-railroad-bot/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// SaveRun stores a run and its page results atomically. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) SaveRun(ctx context.Context, r *domain.RunSummary) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO run_summaries (
			run_id, started_at, finished_at, dry_run, tokens_loaded, malformed_records,
			token_created, token_updated, token_skipped, token_failed,
			leaderboard_created, leaderboard_updated, leaderboard_skipped, leaderboard_failed,
			warnings
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		r.RunID, r.StartedAt, r.FinishedAt, r.DryRun, r.TokensLoaded, r.MalformedRecords,
		r.TokenPages.Created, r.TokenPages.Updated, r.TokenPages.Skipped, r.TokenPages.Failed,
		r.LeaderboardPages.Created, r.LeaderboardPages.Updated, r.LeaderboardPages.Skipped, r.LeaderboardPages.Failed,
		warnings,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run summary: %w", err)
	}

	if len(r.Pages) > 0 {
		rows := make([][]any, 0, len(r.Pages))
		for i, p := range r.Pages {
			rows = append(rows, []any{r.RunID, i, p.PageName, string(p.Kind), string(p.Action), p.Applied, p.Error, p.Digest})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"page_results"},
			[]string{"run_id", "seq", "page_name", "kind", "action", "applied", "error", "digest"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("copy page results: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const runColumns = `
	run_id, started_at, finished_at, dry_run, tokens_loaded, malformed_records,
	token_created, token_updated, token_skipped, token_failed,
	leaderboard_created, leaderboard_updated, leaderboard_skipped, leaderboard_failed,
	warnings
`

// GetRun retrieves a run with its page results. Returns ErrNotFound if not exists.
func (s *RunStore) GetRun(ctx context.Context, runID string) (*domain.RunSummary, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM run_summaries WHERE run_id = $1`, runID)
	r, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT page_name, kind, action, applied, error, digest
		FROM page_results
		WHERE run_id = $1
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("get page results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.PageResult
		var kind, action string
		if err := rows.Scan(&p.PageName, &kind, &action, &p.Applied, &p.Error, &p.Digest); err != nil {
			return nil, fmt.Errorf("scan page result row: %w", err)
		}
		p.Kind = domain.PageKind(kind)
		p.Action = domain.PageAction(action)
		r.Pages = append(r.Pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate page results: %w", err)
	}

	return r, nil
}

// ListRuns returns the most recent runs, newest first, without page results.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]*domain.RunSummary, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+runColumns+`
		FROM run_summaries
		ORDER BY started_at DESC, run_id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (*domain.RunSummary, error) {
	var r domain.RunSummary
	err := row.Scan(
		&r.RunID, &r.StartedAt, &r.FinishedAt, &r.DryRun, &r.TokensLoaded, &r.MalformedRecords,
		&r.TokenPages.Created, &r.TokenPages.Updated, &r.TokenPages.Skipped, &r.TokenPages.Failed,
		&r.LeaderboardPages.Created, &r.LeaderboardPages.Updated, &r.LeaderboardPages.Skipped, &r.LeaderboardPages.Failed,
		&r.Warnings,
	)
	if err != nil {
		return nil, err
	}
	if len(r.Warnings) == 0 {
		r.Warnings = nil
	}
	return &r, nil
}
