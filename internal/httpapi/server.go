// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httpapi serves review submission and polling over HTTP.
// Implements: prd011-api (R1-R5);
//
//	docs/ARCHITECTURE § HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/archive"
	"github.com/pdiddy/litreview/internal/workflow"
	"github.com/pdiddy/litreview/pkg/types"
)

// Runner executes one review workflow and reports state transitions to
// the observer registered before Run.
type Runner interface {
	Observe(fn func(workflow.State))
	Run(ctx context.Context, query types.ResearchQuery) (types.ResearchReport, error)
}

// RunnerFactory builds a fresh Runner per submission. Observers are
// per-runner, so runners are never shared between submissions.
type RunnerFactory func() Runner

// Lister reads archived review entries.
type Lister interface {
	List(ctx context.Context, limit int) ([]archive.Entry, error)
}

// reviewRun is the registry record for one submission.
type reviewRun struct {
	state  workflow.State
	report *types.ResearchReport
}

// Server exposes review submission, state polling, report retrieval,
// and the archive listing. Every submission runs as an independent
// workflow goroutine; the registry map is the only shared state.
type Server struct {
	cfg     types.ServerConfig
	runners RunnerFactory
	store   Lister
	log     *zap.Logger

	active chan struct{} // bounds concurrently running reviews

	mu     sync.RWMutex
	runs   map[string]*reviewRun
	runCtx context.Context
}

// New builds a Server. store may be nil when no archive is configured;
// the listing endpoint then reports 503.
func New(cfg types.ServerConfig, runners RunnerFactory, store Lister, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MaxActive <= 0 {
		cfg.MaxActive = types.DefaultMaxActive
	}
	return &Server{
		cfg:     cfg,
		runners: runners,
		store:   store,
		log:     log,
		active:  make(chan struct{}, cfg.MaxActive),
		runs:    make(map[string]*reviewRun),
		runCtx:  context.Background(),
	}
}

// Router builds the handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/reviews", func(r chi.Router) {
		r.Post("/", s.handleSubmit)
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleState)
		r.Get("/{id}/report", s.handleReport)
	})
	return r
}

// ListenAndServe runs the API until ctx is canceled, then drains with a
// grace period. In-flight workflows run under ctx and abort with it.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("api listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("api shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// handleSubmit accepts a research query and starts one workflow for it.
// Responds 202 with the run ID, 400 on an invalid query, and 429 when
// MaxActive workflows are already running.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var query types.ResearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("parsing request body: %w", err))
		return
	}
	query = query.WithDefaults()
	if err := query.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	select {
	case s.active <- struct{}{}:
	default:
		s.writeError(w, http.StatusTooManyRequests,
			fmt.Errorf("%d reviews already running", cap(s.active)))
		return
	}

	id, err := s.start(query)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

// start launches the workflow goroutine and waits for its first state
// snapshot, which carries the run ID and guarantees the registry knows
// the run before the client can poll it. The goroutine releases the
// semaphore slot when the workflow ends.
func (s *Server) start(query types.ResearchQuery) (string, error) {
	runner := s.runners()
	ids := make(chan string, 1)
	var once sync.Once
	runner.Observe(func(st workflow.State) {
		s.record(st)
		once.Do(func() { ids <- st.ID })
	})

	ctx := s.runContext()
	go func() {
		defer func() { <-s.active }()
		rep, err := runner.Run(ctx, query)
		if err != nil {
			once.Do(func() { ids <- "" })
			return
		}
		s.attach(rep)
	}()

	id := <-ids
	if id == "" {
		return "", errors.New("review failed to start")
	}
	return id, nil
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	run, ok := s.runs[id]
	var state workflow.State
	if ok {
		state = run.state
	}
	s.mu.RUnlock()

	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("review %s not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// handleReport serves the finished report. A run that is still between
// its final state transition and report hand-off reads as running.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	run, ok := s.runs[id]
	var (
		rep    *types.ResearchReport
		status workflow.Status
		errMsg string
	)
	if ok {
		rep = run.report
		status = run.state.Status
		errMsg = run.state.Err
	}
	s.mu.RUnlock()

	switch {
	case !ok:
		s.writeError(w, http.StatusNotFound, fmt.Errorf("review %s not found", id))
	case status == workflow.StatusFailed:
		s.writeError(w, http.StatusConflict, fmt.Errorf("review failed: %s", errMsg))
	case rep == nil:
		s.writeError(w, http.StatusConflict, errors.New("review is still running"))
	default:
		s.writeJSON(w, http.StatusOK, rep)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("archive not configured"))
		return
	}
	entries, err := s.store.List(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) record(st workflow.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[st.ID]
	if !ok {
		run = &reviewRun{}
		s.runs[st.ID] = run
	}
	run.state = st
}

func (s *Server) attach(rep types.ResearchReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[rep.ID]; ok {
		run.report = &rep
	}
}

func (s *Server) runContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runCtx
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("writing response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
