// Package scheduler runs import passes on a cron schedule and serves
// health and metrics endpoints while doing so.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"blue-railroad-bot/internal/domain"
	"blue-railroad-bot/internal/observability"
	"blue-railroad-bot/internal/storage"
)

// DefaultCronSpec runs an import every hour, on the hour.
const DefaultCronSpec = "0 0 * * * *"

// RunFunc performs one import pass.
type RunFunc func(ctx context.Context) (*domain.RunSummary, error)

// Options configures a Scheduler.
type Options struct {
	CronSpec string        // six-field spec (with seconds) or descriptor such as "@every 10m"
	Addr     string        // health/metrics listen address, "" disables the server
	Timeout  time.Duration // bound of one run, 0 means none
	Logger   *zap.Logger
	Gatherer prometheus.Gatherer // served on /metrics, defaults to the global registry

	// Optional history stores served on /status and /runs/{id}.
	Runs      storage.RunStore
	Snapshots storage.OwnershipSnapshotStore
}

// recentRuns is the number of stored runs listed on /status.
const recentRuns = 10

// Status describes the most recent run.
type Status struct {
	Running    bool      `json:"running"`
	Runs       int       `json:"runs"`
	LastRunID  string    `json:"last_run_id,omitempty"`
	LastRunAt  time.Time `json:"last_run_at,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
	LastWrites int       `json:"last_writes"`
}

// Scheduler triggers import runs every cron tick, one at a time.
type Scheduler struct {
	// Cron triggers runs according to CronSpec. A tick that arrives while a run
	// is still in progress is skipped.
	Cron     *cron.Cron
	CronSpec string

	// Server serves /healthz, /readyz, /status and /metrics.
	Server *http.Server

	Logger *zap.Logger

	run       RunFunc
	runs      storage.RunStore
	snapshots storage.OwnershipSnapshotStore
	timeout   time.Duration
	addr      string
	listener  net.Listener
	serveErr  chan error

	mu     sync.Mutex
	status Status
}

// New creates a scheduler; ctx bounds every scheduled run.
func New(ctx context.Context, run RunFunc, opts Options) (*Scheduler, error) {
	if run == nil {
		return nil, errors.New("scheduler: nil run func")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	spec := opts.CronSpec
	if spec == "" {
		spec = DefaultCronSpec
	}

	s := &Scheduler{
		CronSpec:  spec,
		Logger:    logger.With(zap.String("component", "scheduler")),
		run:       run,
		runs:      opts.Runs,
		snapshots: opts.Snapshots,
		timeout:   opts.Timeout,
		addr:      opts.Addr,
	}

	cl := cronLogger{s.Logger.Sugar()}
	s.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := s.Cron.AddFunc(spec, func() { s.RunOnce(ctx) }); err != nil {
		return nil, err
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s.Server = &http.Server{Handler: s.router(gatherer), ReadHeaderTimeout: 5 * time.Second}

	return s, nil
}

// RunOnce performs a single run and records its outcome.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.mu.Lock()
	s.status.Running = true
	s.mu.Unlock()

	summary, err := s.run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Running = false
	s.status.Runs++
	s.status.LastRunAt = time.Now().UTC()
	s.status.LastError = ""
	s.status.LastRunID = ""
	s.status.LastWrites = 0
	if err != nil {
		s.status.LastError = err.Error()
		s.Logger.Error("scheduled run failed", zap.Error(err))
		return
	}
	s.status.LastRunID = summary.RunID
	s.status.LastWrites = summary.Writes()
	s.Logger.Info("scheduled run finished",
		zap.String("run_id", summary.RunID),
		zap.Int("writes", summary.Writes()),
		zap.Int("failures", summary.Failures()))
}

// Status returns a copy of the current status.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start starts the HTTP server (when an address is set) and the cron scheduler.
func (s *Scheduler) Start() error {
	if s.addr != "" {
		ln, err := net.Listen("tcp", s.addr)
		if err != nil {
			return err
		}
		s.listener = ln
		s.serveErr = make(chan error, 1)
		go func() {
			err := s.Server.Serve(ln)
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			s.serveErr <- err
		}()
		s.Logger.Info("http server started", zap.String("addr", ln.Addr().String()))
	}

	s.Cron.Start()
	s.Logger.Info("cron started", zap.String("cronSpec", s.CronSpec))
	return nil
}

// Addr returns the address the server listens on, or "" when not serving.
func (s *Scheduler) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop waits for a running import to finish, then shuts the server down.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.Cron.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	if s.listener == nil {
		return nil
	}
	if err := s.Server.Shutdown(ctx); err != nil {
		return err
	}
	return <-s.serveErr
}

func (s *Scheduler) router(g prometheus.Gatherer) http.Handler {
	r := mux.NewRouter()

	r.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })).Methods("GET")
	r.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if s.Status().LastError == "" {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})).Methods("GET")
	r.HandleFunc("/status", s.handleStatus).Methods("GET")
	if s.runs != nil {
		r.HandleFunc("/runs/{id}", s.handleRun).Methods("GET")
	}
	if s.snapshots != nil {
		r.HandleFunc("/runs/{id}/holders", s.handleHolders).Methods("GET")
	}
	r.Handle("/metrics", observability.HandlerFor(g)).Methods("GET")

	return r
}

type statusResponse struct {
	Status
	RecentRuns   []runView `json:"recent_runs,omitempty"`
	HistoryError string    `json:"history_error,omitempty"`
}

type runView struct {
	RunID      string     `json:"run_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	DryRun     bool       `json:"dry_run"`
	Tokens     int        `json:"tokens"`
	Malformed  int        `json:"malformed"`
	Writes     int        `json:"writes"`
	Failures   int        `json:"failures"`
	Warnings   []string   `json:"warnings,omitempty"`
	Pages      []pageView `json:"pages,omitempty"`
}

type pageView struct {
	Page    string `json:"page"`
	Kind    string `json:"kind"`
	Action  string `json:"action"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

func newRunView(r *domain.RunSummary) runView {
	v := runView{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		DryRun:     r.DryRun,
		Tokens:     r.TokensLoaded,
		Malformed:  r.MalformedRecords,
		Writes:     r.Writes(),
		Failures:   r.Failures(),
		Warnings:   r.Warnings,
	}
	for _, p := range r.Pages {
		v.Pages = append(v.Pages, pageView{
			Page:    p.PageName,
			Kind:    string(p.Kind),
			Action:  string(p.Action),
			Applied: p.Applied,
			Error:   p.Error,
		})
	}
	return v
}

// handleStatus serves the scheduler status plus the latest stored runs.
// A failing run store is reported in the body, not as an error status.
func (s *Scheduler) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Status: s.Status()}
	if s.runs != nil {
		runs, err := s.runs.ListRuns(r.Context(), recentRuns)
		if err != nil {
			s.Logger.Warn("list runs failed", zap.Error(err))
			resp.HistoryError = err.Error()
		}
		for _, run := range runs {
			resp.RecentRuns = append(resp.RecentRuns, newRunView(run))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Scheduler) handleRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.GetRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newRunView(run))
}

func (s *Scheduler) handleHolders(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rows, err := s.snapshots.GetSnapshot(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if len(rows) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no snapshot for run " + id})
		return
	}
	counts, err := s.snapshots.HolderCounts(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": id, "tokens": len(rows), "holders": counts})
}

func (s *Scheduler) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	s.Logger.Warn("history lookup failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
