package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"licitasearch/searchservice/internal/domain"
	"licitasearch/searchservice/internal/search"
)

// SearchService is the pipeline behind the boundary: resolve facets, fetch,
// merge, filter.
type SearchService interface {
	Search(ctx context.Context, filters domain.Filters) (domain.ResultSet, error)
	ModalityDiagnostics() []domain.ModalityDiagnostics
}

// ExtractorService turns a free-text question into structured filters. It
// is an external black box; only its failure mode matters here.
type ExtractorService interface {
	Enabled() bool
	Extract(ctx context.Context, question string) (domain.Filters, error)
}

type Server struct {
	search    SearchService
	extractor ExtractorService
	limiter   ClientLimiter
	logger    *slog.Logger
}

const maxQuestionLength = 500

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithExtractor(extractor ExtractorService) ServerOption {
	return func(s *Server) {
		s.extractor = extractor
	}
}

func WithClientLimiter(limiter ClientLimiter) ServerOption {
	return func(s *Server) {
		s.limiter = limiter
	}
}

func NewServer(searchService SearchService, options ...ServerOption) *Server {
	server := &Server{
		search: searchService,
		logger: slog.Default(),
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/search/modalities/health", s.handleModalitiesHealth)
	mux.HandleFunc("/search/modalities", s.handleModalities)
	mux.HandleFunc("/search", s.handleSearch)
	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "licita-search",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(s.limiter, s.logger, metricsMiddleware(traced)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/search" {
		http.NotFound(w, r)
		return
	}
	if s.search == nil {
		writeErrorEnvelope(w, http.StatusInternalServerError, "search service is not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleQuestionSearch(w, r)
	case http.MethodPost:
		s.handleFilterSearch(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleQuestionSearch serves GET /search?q=: the question goes through the
// extraction service first. Extraction failure is fatal to the request,
// unlike per-facet fetch failures downstream.
func (s *Server) handleQuestionSearch(w http.ResponseWriter, r *http.Request) {
	question := strings.TrimSpace(r.URL.Query().Get("q"))
	if question == "" {
		writeErrorEnvelope(w, http.StatusBadRequest, "query is required")
		return
	}
	if len(question) > maxQuestionLength {
		writeErrorEnvelope(w, http.StatusBadRequest, "query too long (max 500 characters)")
		return
	}
	if s.extractor == nil || !s.extractor.Enabled() {
		writeErrorEnvelope(w, http.StatusServiceUnavailable, "extraction service is not configured")
		return
	}

	filters, err := s.extractor.Extract(r.Context(), question)
	if err != nil {
		s.logger.Warn("filter extraction failed",
			slog.String("question", truncate(question, 80)),
			slog.String("error", err.Error()),
		)
		writeEnvelope(w, search.Classify(err))
		return
	}

	s.runSearch(w, r, filters)
}

// handleFilterSearch serves POST /search with a structured filter body,
// bypassing extraction.
func (s *Server) handleFilterSearch(w http.ResponseWriter, r *http.Request) {
	var filters domain.Filters
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&filters); err != nil {
		writeErrorEnvelope(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.runSearch(w, r, filters)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, filters domain.Filters) {
	result, err := s.search.Search(r.Context(), filters)
	if err != nil {
		s.logger.Warn("search request failed",
			slog.Any("keywords", filters.Keywords),
			slog.String("error", err.Error()),
		)
		switch {
		case errors.Is(err, search.ErrInvalidDate), errors.Is(err, search.ErrInvalidDateRange):
			writeErrorEnvelope(w, http.StatusBadRequest, err.Error())
		default:
			writeEnvelope(w, search.Classify(err))
		}
		return
	}

	writeJSON(w, http.StatusOK, domain.SearchResponse{
		Success: true,
		Data:    &result,
	})
}

func (s *Server) handleModalities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, search.Modalities())
}

func (s *Server) handleModalitiesHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.search == nil {
		writeErrorEnvelope(w, http.StatusInternalServerError, "search service is not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.search.ModalityDiagnostics())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeEnvelope writes a classified error envelope, using its status as the
// HTTP status as well.
func writeEnvelope(w http.ResponseWriter, envelope domain.SearchResponse) {
	status := envelope.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, envelope)
}

func writeErrorEnvelope(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, domain.SearchResponse{
		Success: false,
		Error:   message,
		Status:  status,
	})
}
