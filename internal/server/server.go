// Package server exposes the reconciliation engine over HTTP: a JSON
// API for the dashboard frontend plus an xlsx download endpoint.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/yamagen-seiki/plantrack/internal/export"
	"github.com/yamagen-seiki/plantrack/internal/model"
	"github.com/yamagen-seiki/plantrack/internal/reconcile"
	"github.com/yamagen-seiki/plantrack/internal/stats"
	"github.com/yamagen-seiki/plantrack/internal/store"
)

// Server serves the dashboard API. The latest reconciliation result is
// cached in memory; dataset and export reads serve the cache, and a
// POST to /api/reconcile refreshes it.
type Server struct {
	st     store.Store
	engine *reconcile.Engine
	now    func() time.Time

	mu   sync.RWMutex
	last *reconcile.Result
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a Server around a store and engine.
func New(st store.Store, engine *reconcile.Engine, opts ...Option) *Server {
	s := &Server{st: st, engine: engine, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/reconcile", s.handleReconcile)
		r.Get("/dataset", s.handleDataset)
		r.Get("/stats", s.handleStats)
		r.Get("/runs", s.handleRuns)
		r.Get("/export", s.handleExport)
	})
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Run(r.Context())
	if err != nil {
		zap.L().Error("reconciliation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "reconciliation failed")
		return
	}

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":          res.RunID,
		"records":         len(res.Records),
		"snapshots":       res.Snapshots,
		"new_completions": res.NewCompletions,
	})
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	res := s.lastResult()
	if res == nil {
		writeError(w, http.StatusNotFound, "no reconciliation run yet")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	entries, err := s.st.ListCompletionHistory(r.Context())
	if err != nil {
		zap.L().Error("completion history read failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "completion history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats.Compute(entries, model.DateOf(s.now())))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.st.ListRuns(r.Context(), 20)
	if err != nil {
		zap.L().Error("run ledger read failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "run ledger unavailable")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	res := s.lastResult()
	if res == nil {
		writeError(w, http.StatusNotFound, "no reconciliation run yet")
		return
	}

	filename := fmt.Sprintf("production_plan_%s.xlsx", s.now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.Write(w, res.Records); err != nil {
		// Headers are gone at this point; log and give up on the response.
		zap.L().Error("xlsx export failed", zap.Error(err))
	}
}

func (s *Server) lastResult() *reconcile.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("response encoding failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
