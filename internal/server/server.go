// Package server exposes the analysis backend over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samvad-hq/codereview/internal/llm"
	"github.com/samvad-hq/codereview/internal/logger"
	"github.com/samvad-hq/codereview/internal/review"
)

// maxBodyBytes caps /api/analyze request bodies.
const maxBodyBytes = 4 << 20

// Analyzer is the review service as seen by the HTTP layer.
type Analyzer interface {
	Analyze(ctx context.Context, code, language string) (review.Result, error)
	Model() string
}

// Options configures a Server.
type Options struct {
	AllowedOrigins []string
	Registry       *prometheus.Registry
}

// Server holds the routes and their dependencies.
type Server struct {
	analyzer Analyzer
	origins  []string
	metrics  *metrics
	log      logger.Logger
	router   *mux.Router
	handler  http.Handler
}

// New builds the router.
func New(analyzer Analyzer, opts Options, log logger.Logger) (*Server, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer must not be nil")
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		analyzer: analyzer,
		origins:  opts.AllowedOrigins,
		metrics:  newMetrics(reg),
		log:      logger.Ensure(log),
	}

	root := mux.NewRouter()
	root.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	root.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	root.HandleFunc("/api/analyze", s.handleAnalyze).Methods(http.MethodPost)
	root.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.router = root
	// Both sit outside the router: preflights for POST-only routes are answered,
	// and 404/405 responses are still logged and counted.
	s.handler = s.recoverPanics(s.cors(s.instrument(root)))
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "AI Code Review & Documentation API",
		"status":  "online",
		"model":   s.analyzer.Model(),
		"endpoints": map[string]string{
			"analyze": "/api/analyze",
			"health":  "/health",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"model":  s.analyzer.Model(),
	})
}

type analyzeRequest struct {
	Code     *string `json:"code"`
	Language *string `json:"language"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body too large (limit %d MiB)", maxBodyBytes>>20))
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "request body must be a JSON object with code and language")
		return
	}
	if req.Code == nil || req.Language == nil {
		writeError(w, http.StatusUnprocessableEntity, "code and language are required")
		return
	}

	res, err := s.analyzer.Analyze(r.Context(), *req.Code, *req.Language)
	lang := languageLabel(*req.Language)
	if err != nil {
		status, detail := errorResponse(err)
		s.metrics.analyses.WithLabelValues(lang, "error").Inc()
		s.log.WarnObj("analysis failed", "analysis_error", map[string]any{
			"status": status,
			"error":  err.Error(),
		})
		writeError(w, status, detail)
		return
	}

	s.metrics.analyses.WithLabelValues(lang, "ok").Inc()
	writeJSON(w, http.StatusOK, res)
}

// errorResponse maps service errors to a status and a client-facing detail.
func errorResponse(err error) (int, string) {
	if errors.Is(err, review.ErrEmptyCode) {
		return http.StatusBadRequest, "Code cannot be empty"
	}
	var se *llm.StatusError
	if errors.As(err, &se) && se.StatusCode >= 400 {
		return se.StatusCode, se.Detail
	}
	return http.StatusInternalServerError, "Analysis failed: " + err.Error()
}
