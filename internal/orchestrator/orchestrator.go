// Package orchestrator runs one import pass.
// It coordinates: configuration → normalization → ranking → rendering → page writes
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blue-railroad-bot/internal/chaindata"
	"blue-railroad-bot/internal/config"
	"blue-railroad-bot/internal/domain"
	"blue-railroad-bot/internal/idhash"
	"blue-railroad-bot/internal/normalization"
	"blue-railroad-bot/internal/observability"
	"blue-railroad-bot/internal/reporting"
	"blue-railroad-bot/internal/storage"
)

// Orchestrator coordinates one import run.
// Flow: load config → load tokens → plan pages → apply writes → record summary
type Orchestrator struct {
	// Collaborators
	configSource storage.ConfigSource
	chainData    chaindata.Source
	pages        storage.PageStore

	// Optional sinks
	runStore      storage.RunStore
	snapshotStore storage.OwnershipSnapshotStore
	metrics       *observability.Metrics

	// Options
	configPage string
	dryRun     bool
	logger     *zap.Logger
	clock      func() time.Time
	newRunID   func() string
}

// Options for creating Orchestrator.
type Options struct {
	// Required collaborators
	ConfigSource storage.ConfigSource
	ChainData    chaindata.Source
	Pages        storage.PageStore

	// Optional sinks; failures become warnings
	RunStore      storage.RunStore
	SnapshotStore storage.OwnershipSnapshotStore
	Metrics       *observability.Metrics

	// Options
	ConfigPage string // defaults to config.DefaultConfigPage
	DryRun     bool   // log intended writes only
	Logger     *zap.Logger
	Clock      func() time.Time
	NewRunID   func() string
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		configSource:  opts.ConfigSource,
		chainData:     opts.ChainData,
		pages:         opts.Pages,
		runStore:      opts.RunStore,
		snapshotStore: opts.SnapshotStore,
		metrics:       opts.Metrics,
		configPage:    opts.ConfigPage,
		dryRun:        opts.DryRun,
		logger:        opts.Logger,
		clock:         opts.Clock,
		newRunID:      opts.NewRunID,
	}
	if o.configPage == "" {
		o.configPage = config.DefaultConfigPage
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	o.logger = o.logger.With(zap.String("component", "orchestrator"))
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.newRunID == nil {
		o.newRunID = func() string { return uuid.NewString() }
	}
	return o
}

// Run executes one import pass.
// Phases:
//  1. Load and parse the configuration document
//  2. Fetch and normalize every declared source
//  3. Render token and leaderboard pages, read their current content
//  4. Authorize writes, then write pages that differ
//  5. Record the run in the optional sinks
//
// Fatal errors happen before the first write, except a page store that stops
// accepting the bot's credentials mid-run, which stops further writes. Other
// page write failures are recorded in the summary and do not stop the run.
func (o *Orchestrator) Run(ctx context.Context) (*domain.RunSummary, error) {
	summary := &domain.RunSummary{
		RunID:     o.newRunID(),
		StartedAt: o.clock().UTC(),
		DryRun:    o.dryRun,
	}
	log := o.logger.With(zap.String("run_id", summary.RunID), zap.Bool("dry_run", o.dryRun))

	s, err := o.run(ctx, log, summary)
	if err != nil {
		log.Error("import run failed", zap.Error(err))
		o.metrics.RecordRun(nil, err, o.clock().Sub(summary.StartedAt))
		return nil, err
	}
	return s, nil
}

func (o *Orchestrator) run(ctx context.Context, log *zap.Logger, summary *domain.RunSummary) (*domain.RunSummary, error) {
	// Phase 1: configuration
	log.Info("loading configuration", zap.String("page", o.configPage))
	cfg, err := o.loadConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (load config) failed: %w", err)
	}
	log.Info("configuration loaded",
		zap.Int("sources", len(cfg.Sources)),
		zap.Int("leaderboards", len(cfg.Leaderboards)))

	// Phase 2: tokens
	tokens, err := o.loadTokens(ctx, log, cfg, summary)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (load tokens) failed: %w", err)
	}
	summary.TokensLoaded = len(tokens)
	log.Info("tokens loaded",
		zap.Int("tokens", len(tokens)),
		zap.Int("malformed", summary.MalformedRecords))

	// Phase 3: plan
	plan, err := o.buildPlan(ctx, cfg, tokens)
	if err != nil {
		return nil, fmt.Errorf("phase 3 (plan) failed: %w", err)
	}
	log.Info("pages planned", zap.Int("pages", len(plan)))

	// Phase 4: apply
	if err := o.authorizeWrites(ctx, plan); err != nil {
		return nil, fmt.Errorf("phase 4 (apply) failed: %w", err)
	}
	for _, w := range plan {
		result, err := o.apply(ctx, log, w)
		if err != nil {
			return nil, fmt.Errorf("phase 4 (apply) failed after %d writes: %w", summary.Writes(), err)
		}
		summary.Record(result)
	}

	summary.FinishedAt = o.clock().UTC()

	// Phase 5: sinks
	o.recordSinks(ctx, log, summary, tokens)

	log.Info("import run completed",
		zap.Int("tokens", summary.TokensLoaded),
		zap.Int("writes", summary.Writes()),
		zap.Int("failures", summary.Failures()),
		zap.Int("warnings", len(summary.Warnings)))
	o.metrics.RecordRun(summary, nil, summary.FinishedAt.Sub(summary.StartedAt))

	return summary, nil
}

func (o *Orchestrator) loadConfig(ctx context.Context) (*config.BotConfig, error) {
	doc, err := o.configSource.FetchConfigDocument(ctx, o.configPage)
	if err != nil {
		return nil, err
	}
	return config.Parse(doc)
}

// loadTokens normalizes every declared source, in declaration order.
// Malformed records are skipped and reported as warnings.
func (o *Orchestrator) loadTokens(ctx context.Context, log *zap.Logger, cfg *config.BotConfig, summary *domain.RunSummary) ([]*domain.Token, error) {
	var tokens []*domain.Token
	for _, src := range cfg.Sources {
		records, err := o.chainData.Fetch(ctx, src.Key)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src.Key, err)
		}

		normalized, errs := normalization.NormalizeSource(src, records)
		for _, e := range errs {
			log.Warn("skipping malformed record", zap.String("source", src.Key), zap.Error(e))
			summary.Warnings = append(summary.Warnings, e.Error())
		}
		summary.MalformedRecords += len(errs)

		log.Debug("source normalized",
			zap.String("source", src.Key),
			zap.String("version", src.Version.String()),
			zap.Int("records", len(records)),
			zap.Int("tokens", len(normalized)))
		tokens = append(tokens, normalized...)
	}
	return tokens, nil
}

// authorizeWrites checks write access before the first write of a live run
// that has something to write.
func (o *Orchestrator) authorizeWrites(ctx context.Context, plan []*plannedPage) error {
	auth, ok := o.pages.(storage.WriteAuthorizer)
	if !ok || o.dryRun {
		return nil
	}
	for _, w := range plan {
		if w.NeedsWrite() {
			return auth.AuthorizeWrites(ctx)
		}
	}
	return nil
}

// apply writes one planned page, or only logs it in dry-run mode.
// Only storage.ErrWriteAccessDenied is returned as an error; other write
// failures are recorded in the result.
func (o *Orchestrator) apply(ctx context.Context, log *zap.Logger, w *plannedPage) (domain.PageResult, error) {
	result := domain.PageResult{
		PageName: w.PageName,
		Kind:     w.Kind,
		Action:   w.Action,
		Digest:   w.digest,
	}
	fields := []zap.Field{
		zap.String("page", w.PageName),
		zap.String("kind", string(w.Kind)),
		zap.String("action", string(w.Action)),
		zap.String("digest", idhash.Short(w.digest)),
	}
	if w.Action == domain.PageActionUpdate && w.Kind == domain.PageKindToken {
		fields = append(fields, zap.Strings("changed", reporting.ChangedFields(w.CurrentContent, w.DesiredContent)))
	}

	if !w.NeedsWrite() {
		log.Debug("page unchanged", fields...)
		return result, nil
	}
	if o.dryRun {
		log.Info("dry run: would write page", fields...)
		return result, nil
	}

	if err := o.pages.WritePage(ctx, w.PageName, w.DesiredContent, w.Summary); err != nil {
		if errors.Is(err, storage.ErrWriteAccessDenied) {
			return result, err
		}
		if !errors.Is(err, storage.ErrPageWriteFailed) {
			err = fmt.Errorf("%w: %s: %w", storage.ErrPageWriteFailed, w.PageName, err)
		}
		log.Warn("page write failed", append(fields, zap.Error(err))...)
		result.Error = err.Error()
		return result, nil
	}

	log.Info("page written", fields...)
	result.Applied = true
	return result, nil
}

// recordSinks stores the run and its ownership snapshot. Failures are warnings.
func (o *Orchestrator) recordSinks(ctx context.Context, log *zap.Logger, summary *domain.RunSummary, tokens []*domain.Token) {
	if o.snapshotStore != nil && len(tokens) > 0 {
		records := make([]domain.OwnershipRecord, 0, len(tokens))
		for _, t := range tokens {
			records = append(records, domain.NewOwnershipRecord(summary.RunID, summary.FinishedAt, t))
		}
		if err := o.snapshotStore.InsertSnapshot(ctx, records); err != nil {
			o.sinkWarning(log, summary, "snapshots", err)
		}
	}

	// Saved last so the stored run carries the snapshot warning.
	if o.runStore != nil {
		if err := o.runStore.SaveRun(ctx, summary); err != nil {
			o.sinkWarning(log, summary, "runs", err)
		}
	}
}

func (o *Orchestrator) sinkWarning(log *zap.Logger, summary *domain.RunSummary, sink string, err error) {
	log.Warn("sink write failed", zap.String("sink", sink), zap.Error(err))
	summary.Warnings = append(summary.Warnings, fmt.Sprintf("%s sink: %v", sink, err))
	o.metrics.RecordSinkError(sink)
}
