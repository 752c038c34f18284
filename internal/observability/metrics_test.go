package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zapcore"

	"blue-railroad-bot/internal/domain"
)

func TestMetrics_RecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	s := &domain.RunSummary{TokensLoaded: 4, MalformedRecords: 1, FinishedAt: time.Unix(1767225600, 0)}
	s.Record(domain.PageResult{Kind: domain.PageKindToken, Action: domain.PageActionCreate})
	s.Record(domain.PageResult{Kind: domain.PageKindToken, Action: domain.PageActionSkip})
	s.Record(domain.PageResult{Kind: domain.PageKindToken, Action: domain.PageActionUpdate, Error: "boom"})
	s.Record(domain.PageResult{Kind: domain.PageKindLeaderboard, Action: domain.PageActionUpdate})

	m.RecordRun(s, nil, 2*time.Second)
	m.RecordRun(nil, errors.New("config"), time.Second)

	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("success runs = %v", got)
	}
	if got := testutil.ToFloat64(m.RunsTotal.WithLabelValues("fatal")); got != 1 {
		t.Errorf("fatal runs = %v", got)
	}
	if got := testutil.ToFloat64(m.TokensLoaded); got != 4 {
		t.Errorf("tokens loaded = %v", got)
	}
	if got := testutil.ToFloat64(m.MalformedRecords); got != 1 {
		t.Errorf("malformed = %v", got)
	}
	if got := testutil.ToFloat64(m.PagesTotal.WithLabelValues("token", "failed")); got != 1 {
		t.Errorf("failed token pages = %v", got)
	}
	if got := testutil.ToFloat64(m.PagesTotal.WithLabelValues("leaderboard", "update")); got != 1 {
		t.Errorf("updated leaderboards = %v", got)
	}
	if got := testutil.ToFloat64(m.LastSuccessfulRun); got != 1767225600 {
		t.Errorf("last successful run = %v", got)
	}
	if n := testutil.CollectAndCount(m.RunDuration); n != 1 {
		t.Errorf("expected one duration histogram, got %d", n)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRun(&domain.RunSummary{}, nil, time.Second)
	m.RecordSinkError("runs")
}

func TestMetrics_SinkErrors(t *testing.T) {
	m := NewMetrics("", prometheus.NewRegistry())
	m.RecordSinkError("snapshots")
	m.RecordSinkError("snapshots")
	if got := testutil.ToFloat64(m.SinkErrors.WithLabelValues("snapshots")); got != 2 {
		t.Errorf("sink errors = %v", got)
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(true)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("verbose logger should enable debug")
	}

	quiet, err := NewLogger(false)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if quiet.Core().Enabled(zapcore.DebugLevel) {
		t.Error("default logger should not enable debug")
	}
}
