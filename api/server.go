// Package api provides the HTTP REST API server for FilingLens.
//
// It exposes endpoints for filing analysis, metric snapshots, revenue
// forecasts, the concept catalogue, and WebSocket batch streaming.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/filinglens/internal/analyze"
	"github.com/seenimoa/filinglens/internal/config"
	"github.com/seenimoa/filinglens/internal/infra"
	"github.com/seenimoa/filinglens/internal/resolve"
	"github.com/seenimoa/filinglens/internal/retrieval"
	"github.com/seenimoa/filinglens/pkg/models"
)

// analysisCacheTTL caps how long a finished batch answer is reused. Filings
// are immutable, so the only staleness risk is a brand-new filing appearing.
const analysisCacheTTL = 15 * time.Minute

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	analyzer *analyze.Analyzer
	source   string // active retrieval source name, reported by /health
	version  string
	cache    *infra.Cache[*models.BatchReport]
	started  time.Time
}

// NewServer wires the retrieval stack and analyzer from configuration and
// builds the router.
func NewServer(cfg *config.Config, version string) (*Server, error) {
	reg, err := analyze.BuildRegistry(cfg.Retrieval)
	if err != nil {
		return nil, err
	}
	src, err := reg.Default()
	if err != nil {
		return nil, err
	}
	analyzer, err := analyze.New(cfg, src)
	if err != nil {
		return nil, err
	}
	return NewServerWithAnalyzer(cfg, analyzer, src.Name(), version), nil
}

// NewServerWithAnalyzer builds a server around an existing analyzer. Tests
// and embedders use it to supply their own retrieval source.
func NewServerWithAnalyzer(cfg *config.Config, a *analyze.Analyzer, sourceName, version string) *Server {
	srv := &Server{
		cfg:      cfg,
		analyzer: a,
		source:   sourceName,
		version:  version,
		cache:    infra.NewCache[*models.BatchReport](analysisCacheTTL),
		started:  time.Now(),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server and blocks until SIGINT/SIGTERM,
// then drains in-flight requests before returning.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Analysis
		r.Get("/analyze/{ticker}", s.handleAnalyze)
		r.Get("/metrics/{ticker}", s.handleMetrics)
		r.Get("/forecast/{ticker}", s.handleForecast)

		// Capabilities
		r.Get("/concepts", s.handleConcepts)
		r.Get("/strategies", s.handleStrategies)

		// Configuration
		r.Get("/config", s.handleGetConfig)

		// WebSocket batch streaming
		r.Get("/ws/analyze", s.handleAnalyzeWS)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ConceptInfo describes one canonical concept and the label patterns the
// resolver matches for it.
type ConceptInfo struct {
	Concept  string   `json:"concept"`
	Patterns []string `json:"patterns"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": s.version,
			"source":  s.source,
			"uptime":  time.Since(s.started).Round(time.Second).String(),
		},
	})
}

// handleAnalyze runs the full pipeline for a ticker and optional peers.
// Query parameters: form (10-K/10-Q, default both), periods (history depth),
// peers (comma-separated), strategy (forecast strategy name).
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	q := r.URL.Query()

	form, err := parseForm(q.Get("form"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	periods, err := parsePeriods(q.Get("periods"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	years, quarters := historyDepths(form, periods)

	analyzer, err := s.analyzer.Tune(years, quarters, q.Get("strategy"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	peers := splitList(q.Get("peers"))

	key := cacheKey("analyze", ticker, q.Get("form"), q.Get("periods"),
		q.Get("strategy"), strings.Join(peers, ","))
	if batch, ok := s.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: batch})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	batch, err := analyzer.Run(ctx, ticker, peers...)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.cache.Set(key, batch)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: batch})
}

// handleMetrics returns the metric snapshot of the ticker's most recent
// filing. form defaults to 10-K.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	form, err := parseForm(r.URL.Query().Get("form"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if form == "" {
		form = models.FormAnnual
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	snap, err := s.analyzer.SnapshotLatest(ctx, ticker, form)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: snap})
}

// handleForecast returns the revenue trend and one-step forecast over the
// ticker's filing history. form defaults to 10-K.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	q := r.URL.Query()

	form, err := parseForm(q.Get("form"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if form == "" {
		form = models.FormAnnual
	}
	periods, err := parsePeriods(q.Get("periods"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	analyzer := s.analyzer
	if st := q.Get("strategy"); st != "" {
		analyzer, err = s.analyzer.Tune(0, 0, st)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	bundle, err := analyzer.ForecastRevenue(ctx, ticker, form, periods)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: bundle})
}

// handleConcepts lists the canonical concepts with the label patterns the
// resolver matches for each, in resolution order.
func (s *Server) handleConcepts(w http.ResponseWriter, r *http.Request) {
	patterns := s.analyzer.Resolver().Patterns()

	out := make([]ConceptInfo, 0, len(patterns))
	for _, c := range resolve.AllConcepts() {
		out = append(out, ConceptInfo{
			Concept:  string(c),
			Patterns: patterns[c],
		})
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: out})
}

// ============================================================
// Parameter parsing
// ============================================================

// parseForm accepts the SEC form names and their aliases. Empty means both
// bases where a handler supports that.
func parseForm(s string) (models.FormType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "10-K", "10K", "ANNUAL":
		return models.FormAnnual, nil
	case "10-Q", "10Q", "QUARTERLY":
		return models.FormQuarterly, nil
	default:
		return "", fmt.Errorf("unknown form %q (10-K, 10-Q)", s)
	}
}

func parsePeriods(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("periods must be a positive integer")
	}
	return n, nil
}

// historyDepths maps a form filter and history depth onto Analyzer.Tune
// arguments: the unselected basis is disabled, zero depth keeps defaults.
func historyDepths(form models.FormType, periods int) (years, quarters int) {
	switch form {
	case models.FormAnnual:
		return periods, -1
	case models.FormQuarterly:
		return -1, periods
	default:
		return periods, periods
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, "|")
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, analyze.ErrInvalidTicker):
		return http.StatusBadRequest
	case errors.Is(err, retrieval.ErrTickerNotFound), errors.Is(err, retrieval.ErrNoFilings):
		return http.StatusNotFound
	case errors.Is(err, retrieval.ErrRateLimited):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ============================================================
// Response helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
