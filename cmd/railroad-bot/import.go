package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blue-railroad-bot/internal/chaindata"
	"blue-railroad-bot/internal/config"
	"blue-railroad-bot/internal/domain"
	"blue-railroad-bot/internal/observability"
	"blue-railroad-bot/internal/orchestrator"
	"blue-railroad-bot/internal/reporting"
	"blue-railroad-bot/internal/storage"
	"blue-railroad-bot/internal/storage/clickhouse"
	"blue-railroad-bot/internal/storage/migrations"
	"blue-railroad-bot/internal/storage/postgres"
)

var (
	chainDataPath string
	configPage    string
	postgresDSN   string
	clickhouseDSN string
	csvPath       string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Run one import pass",
	Long: `Run one import pass: read the bot configuration page and the chain data
snapshot, render token and leaderboard pages, and write the pages that changed.

Fatal errors (missing configuration, invalid configuration, unavailable chain
data or wiki) stop the run before any page is written.`,
	PreRunE: requireCredentials,
	RunE:    runImport,
}

func init() {
	addImportFlags(importCmd)
	importCmd.Flags().StringVar(&csvPath, "csv", "", "Write per-page results as CSV to this file")
}

func addImportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&chainDataPath, "chain-data", env("CHAIN_DATA", ""), "Path to the chain data JSON snapshot (or set CHAIN_DATA)")
	cmd.Flags().StringVar(&configPage, "config-page", config.DefaultConfigPage, "Wiki page holding the bot configuration")
	cmd.Flags().StringVar(&postgresDSN, "postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string for run history (optional)")
	cmd.Flags().StringVar(&clickhouseDSN, "clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string for ownership snapshots (optional)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sinks := openSinks(ctx)
	defer sinks.Close()

	summary, err := importOnce(ctx, sinks, observability.NewMetrics("", nil))
	if err != nil {
		return err
	}

	fmt.Print(reporting.RenderRunSummary(summary))

	if csvPath != "" {
		if err := os.WriteFile(csvPath, []byte(reporting.RenderPageResultsCSV(summary.Pages)), 0o644); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	return nil
}

// importOnce loads the chain data snapshot and runs the orchestrator once.
func importOnce(ctx context.Context, s *sinks, metrics *observability.Metrics) (*domain.RunSummary, error) {
	if chainDataPath == "" {
		return nil, errors.New("--chain-data is required")
	}
	snapshot, err := chaindata.LoadFile(chainDataPath)
	if err != nil {
		return nil, err
	}

	client := newWikiClient()
	orch := orchestrator.New(orchestrator.Options{
		ConfigSource:  client,
		ChainData:     snapshot,
		Pages:         client,
		RunStore:      s.runs,
		SnapshotStore: s.snapshots,
		Metrics:       metrics,
		ConfigPage:    configPage,
		DryRun:        dryRun,
		Logger:        logger,
	})
	return orch.Run(ctx)
}

// sinks holds the optional run history and ownership snapshot stores.
type sinks struct {
	runs      storage.RunStore
	snapshots storage.OwnershipSnapshotStore
	closers   []func()
}

// openSinks connects the stores configured by DSN flags. A store that cannot
// be opened is skipped with a warning; sinks never fail a run.
func openSinks(ctx context.Context) *sinks {
	s := &sinks{}

	if postgresDSN != "" {
		pool, err := postgres.NewPool(ctx, postgresDSN)
		if err != nil {
			logger.Warn("postgres unavailable, run history disabled", zap.Error(err))
		} else if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Warn("postgres migrations failed, run history disabled", zap.Error(err))
			pool.Close()
		} else {
			s.runs = postgres.NewRunStore(pool)
			s.closers = append(s.closers, pool.Close)
		}
	}

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			logger.Warn("clickhouse unavailable, ownership snapshots disabled", zap.Error(err))
		} else {
			s.snapshots = clickhouse.NewOwnershipSnapshotStore(conn)
			s.closers = append(s.closers, func() { _ = conn.Close() })
		}
	}

	return s
}

// Close releases every opened store.
func (s *sinks) Close() {
	for _, c := range s.closers {
		c()
	}
}
