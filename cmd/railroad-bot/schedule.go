package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blue-railroad-bot/internal/domain"
	"blue-railroad-bot/internal/observability"
	"blue-railroad-bot/internal/scheduler"
)

var (
	cronSpec   string
	listenAddr string
	runTimeout time.Duration
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run imports on a cron schedule",
	Long: `Run an import on every cron tick until interrupted. The chain data file is
re-read on each tick. Ticks arriving while an import is still running are skipped.

Serves /healthz, /readyz, /status and /metrics on --listen. With --postgres-dsn
/status lists recent runs and /runs/{id} shows one run; with --clickhouse-dsn
/runs/{id}/holders shows the run's holder counts.`,
	PreRunE: requireCredentials,
	RunE:    runSchedule,
}

func init() {
	addImportFlags(scheduleCmd)
	scheduleCmd.Flags().StringVar(&cronSpec, "cron", env("CRON_SPEC", scheduler.DefaultCronSpec), "Cron spec with seconds field, or a descriptor such as @every 30m")
	scheduleCmd.Flags().StringVar(&listenAddr, "listen", env("ADDR", ":9090"), "Health and metrics listen address (empty to disable)")
	scheduleCmd.Flags().DurationVar(&runTimeout, "run-timeout", 30*time.Minute, "Upper bound of one import run")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sinks := openSinks(ctx)
	defer sinks.Close()

	metrics := observability.NewMetrics("", nil)
	run := func(ctx context.Context) (*domain.RunSummary, error) {
		return importOnce(ctx, sinks, metrics)
	}

	s, err := scheduler.New(ctx, run, scheduler.Options{
		CronSpec:  cronSpec,
		Addr:      listenAddr,
		Timeout:   runTimeout,
		Logger:    logger,
		Runs:      sinks.runs,
		Snapshots: sinks.snapshots,
	})
	if err != nil {
		return err
	}
	if err := s.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		logger.Warn("scheduler stop", zap.Error(err))
	}
	return nil
}
