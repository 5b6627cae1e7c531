// Package server exposes the market intelligence engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/rasoi-group/market-intel/internal/catalog"
	"github.com/rasoi-group/market-intel/internal/config"
	"github.com/rasoi-group/market-intel/internal/dish"
	"github.com/rasoi-group/market-intel/internal/model"
	"github.com/rasoi-group/market-intel/internal/resolve"
	"github.com/rasoi-group/market-intel/internal/scheduler"
	"github.com/rasoi-group/market-intel/internal/store"
)

// SchedulerStatus reports the background loop's last run for /health.
type SchedulerStatus interface {
	LastOutcome() scheduler.Outcome
}

// Server wires the engine's components behind a chi router.
type Server struct {
	store    store.Store
	cache    *catalog.Cache
	resolver *resolve.Resolver
	analyzer *dish.Analyzer
	sched    SchedulerStatus
	log      *zap.Logger
}

func New(st store.Store, cache *catalog.Cache, resolver *resolve.Resolver, analyzer *dish.Analyzer, sched SchedulerStatus) *Server {
	return &Server{
		store:    st,
		cache:    cache,
		resolver: resolver,
		analyzer: analyzer,
		sched:    sched,
		log:      zap.L().With(zap.String("component", "server")),
	}
}

// Router builds the HTTP handler with the full middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/prices", s.handlePriceTable)
		r.Post("/prices/resolve", s.handleResolve)
		r.Post("/dishes/analyze", s.handleAnalyzeDish)
		r.Post("/maintenance/dedupe", s.handleDedupe)
		r.Post("/catalog/callback", s.handleCatalogCallback)
	})

	return r
}

// Run serves the router on the configured port until ctx is cancelled,
// then drains in-flight requests.
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
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
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type healthResponse struct {
	Status    string            `json:"status"`
	Scheduler scheduler.Outcome `json:"scheduler"`
	Timestamp time.Time         `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Scheduler: s.sched.LastOutcome(),
		Timestamp: time.Now().UTC(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePriceTable(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListPrices(r.Context())
	if err != nil {
		s.log.Error("list prices failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read price table")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(records),
		"prices": records,
	})
}

type resolveRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	res, err := s.resolver.Resolve(r.Context(), req.Name)
	if err != nil {
		s.log.Error("resolve failed", zap.String("name", req.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "resolution failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type analyzeRequest struct {
	Dish string `json:"dish"`
}

func (s *Server) handleAnalyzeDish(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Dish == "" {
		writeError(w, http.StatusBadRequest, "dish is required")
		return
	}

	analysis, err := s.analyzer.Analyze(r.Context(), req.Dish)
	if err != nil {
		s.log.Error("dish analysis failed", zap.String("dish", req.Dish), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleDedupe(w http.ResponseWriter, r *http.Request) {
	removed, err := s.store.Deduplicate(r.Context())
	if err != nil {
		s.log.Error("deduplication failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "deduplication failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

type catalogCallbackRequest struct {
	Platform model.Platform       `json:"platform"`
	Items    []model.CatalogEntry `json:"items"`
}

func (s *Server) handleCatalogCallback(w http.ResponseWriter, r *http.Request) {
	var req catalogCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	valid := false
	for _, p := range model.RetailPlatforms {
		if req.Platform == p {
			valid = true
			break
		}
	}
	if !valid {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown platform %q", req.Platform))
		return
	}

	s.cache.Append(req.Platform, req.Items)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"accepted": len(req.Items),
		"platform": req.Platform,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
