package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/request"
	domusage "github.com/kailas-cloud/shopdex/internal/domain/usage"
	logpkg "github.com/kailas-cloud/shopdex/internal/logger"
	"github.com/kailas-cloud/shopdex/internal/metrics"
	healthuc "github.com/kailas-cloud/shopdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/shopdex/internal/usecase/search"
	usageuc "github.com/kailas-cloud/shopdex/internal/usecase/usage"
)

// maxBodyBytes bounds a search request body; an embedding of a few thousand
// floats fits comfortably.
const maxBodyBytes = 1 << 20

// Server serves the shopdex HTTP API.
type Server struct {
	search *searchuc.Service
	health *healthuc.Service
	usage  *usageuc.Service
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	usage *usageuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{search: search, health: health, usage: usage, logger: logger}
}

// SearchProducts handles POST /v1/search.
func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.runSearch(w, r, &req)
}

// SearchProductsByQuery handles GET /v1/search.
func (s *Server) SearchProductsByQuery(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequestFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	s.runSearch(w, r, &req)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, dto *SearchRequest) {
	p, err := dto.params()
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	req, err := request.New(p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := s.search.Search(r.Context(), &req)
	writeJSON(w, http.StatusOK, searchResponseFromDomain(&resp))
}

// ClassifyQuery handles GET /v1/classify. It never touches the backend.
func (s *Server) ClassifyQuery(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, true, "q", r.URL.Query(), &q); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if len(q) > request.MaxQueryLength {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("query too long (max %d chars)", request.MaxQueryLength))
		return
	}

	concepts := s.search.Concepts(q)
	alternatives := s.search.Alternatives(concepts)
	if alternatives == nil {
		alternatives = []string{}
	}
	writeJSON(w, http.StatusOK, ClassifyResponse{
		Query:        q,
		Analysis:     s.search.Analyze(r.Context(), q),
		Concepts:     concepts,
		Alternatives: alternatives,
	})
}

// GetUsage handles GET /v1/usage: intent analyzer token usage for a period.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var name *string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &name); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	period, err := domusage.ParsePeriod(derefString(name))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	b := report.Budget()

	writeJSON(w, http.StatusOK, UsageResponse{
		Period:        string(report.Period()),
		PeriodStartAt: time.UnixMilli(report.PeriodStart()).UTC(),
		PeriodEndAt:   time.UnixMilli(report.PeriodEnd()).UTC(),
		TokensUsed:    report.TokensUsed(),
		Budget: BudgetStatus{
			TokensLimit:     b.TokensLimit(),
			TokensRemaining: b.TokensRemaining(),
			IsExhausted:     b.IsExhausted(),
			ResetsAt:        time.UnixMilli(b.ResetsAt()).UTC(),
		},
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics.Handler().ServeHTTP(w, r)
}

func searchRequestFromQuery(values url.Values) (SearchRequest, error) {
	// Optional parameters bind through a pointer to a nil pointer.
	var (
		req           SearchRequest
		q             *string
		collection    *string
		stockPriority *bool
	)
	bindings := []struct {
		name string
		dest any
	}{
		{"q", &q},
		{"limit", &req.Limit},
		{"top_k", &req.TopK},
		{"sales_boost", &req.SalesBoost},
		{"stock_priority", &stockPriority},
		{"collection", &collection},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, values, b.dest); err != nil {
			return SearchRequest{}, fmt.Errorf("invalid format for parameter %s: %w", b.name, err)
		}
	}
	req.Query = derefString(q)
	req.Collection = derefString(collection)
	if stockPriority != nil {
		req.StockPriority = *stockPriority
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	if errors.Is(err, domain.ErrInvalidQuery) {
		log.Debug("Invalid search request", zap.Error(err))
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	log.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
