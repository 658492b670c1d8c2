// Package httpapi exposes one Session over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"OAIHealthCheck/internal/domain"
	"OAIHealthCheck/internal/metrics"
	"OAIHealthCheck/internal/report"
	"OAIHealthCheck/internal/usecase"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest         = "bad_request"
	CodeConfirmationFailed = "confirmation_failed"
	CodeNoSample           = "no_sample"
	CodeUpstreamFailed     = "upstream_failed"
	CodeInternalError      = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HarvestRequest is the body of POST /api/harvest. A missing limit means
// the configured default.
type HarvestRequest struct {
	Endpoint     string `json:"endpoint"`
	Limit        *int   `json:"limit,omitempty"`
	Confirmation string `json:"confirmation,omitempty"`
}

// HarvestResponse summarizes a harvest run.
type HarvestResponse struct {
	RunID       string    `json:"runId"`
	Endpoint    string    `json:"endpoint"`
	Limit       int       `json:"limit"`
	Records     int       `json:"records"`
	Columns     []string  `json:"columns"`
	Cached      bool      `json:"cached"`
	HarvestedAt time.Time `json:"harvestedAt"`
}

// Options configures a Server.
type Options struct {
	Report       report.Options
	DefaultLimit int
	// Resolve maps configured endpoint names to URLs.
	Resolve func(string) string
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the health-check API.
type Server struct {
	session       *usecase.Session
	opts          Options
	logger        *slog.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(session *usecase.Session, opts Options, logger *slog.Logger) *Server {
	if opts.Resolve == nil {
		opts.Resolve = strings.TrimSpace
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{session: session, opts: opts, logger: logger}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyEndpoint, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrInvalidLimit, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrIdentityRequired, http.StatusForbidden, CodeConfirmationFailed),
		sentinelHandler(domain.ErrConfirmationRequired, http.StatusForbidden, CodeConfirmationFailed),
		sentinelHandler(domain.ErrConfirmationMismatch, http.StatusForbidden, CodeConfirmationFailed),
		sentinelHandler(domain.ErrConfirmationUnavailable, http.StatusForbidden, CodeConfirmationFailed),
		sentinelHandler(domain.ErrNoSample, http.StatusConflict, CodeNoSample),
		sentinelHandler(domain.ErrTransport, http.StatusBadGateway, CodeUpstreamFailed),
	}
	return s
}

// Router builds the chi router with request IDs, panic recovery and metrics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.Health)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Route("/api", func(r chi.Router) {
		r.Get("/identify", s.Identify)
		r.Post("/harvest", s.Harvest)
		r.Get("/report", s.Report)
		r.Get("/export.csv", s.ExportCSV)
	})
	return r
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	_, ok := s.session.Current()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sample": ok})
}

// Identify handles GET /api/identify?endpoint=.
func (s *Server) Identify(w http.ResponseWriter, r *http.Request) {
	endpoint := s.opts.Resolve(r.URL.Query().Get("endpoint"))
	id, err := s.session.Identify(r.Context(), endpoint)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.NewIdentity(id))
}

// Harvest handles POST /api/harvest.
func (s *Server) Harvest(w http.ResponseWriter, r *http.Request) {
	var req HarvestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	limit := s.opts.DefaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	res, err := s.session.Harvest(r.Context(), usecase.HarvestRequest{
		Endpoint:     s.opts.Resolve(req.Endpoint),
		Limit:        limit,
		Confirmation: req.Confirmation,
	}, nil)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	info := res.Sample.Info
	writeJSON(w, http.StatusOK, HarvestResponse{
		RunID:       info.RunID.String(),
		Endpoint:    info.Endpoint,
		Limit:       info.Limit,
		Records:     res.Sample.Len(),
		Columns:     res.Sample.Columns(),
		Cached:      res.Cached,
		HarvestedAt: info.HarvestedAt,
	})
}

// Report handles GET /api/report with filter query parameters; output
// selects json (default), yaml or text.
func (s *Server) Report(w http.ResponseWriter, r *http.Request) {
	sample, ok := s.session.Current()
	if !ok {
		s.handleDomainError(w, domain.ErrNoSample)
		return
	}

	format := r.URL.Query().Get("output")
	if format == "" {
		format = report.FormatJSON
	}
	if !report.ValidFormat(format) {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "unknown output "+strconv.Quote(format))
		return
	}

	spec, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	rep := s.session.Report(sample, spec, s.opts.Report)
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	if err := report.Render(w, rep, format); err != nil {
		s.logger.Error("render report", "error", err)
	}
}

// ExportCSV handles GET /api/export.csv with filter query parameters.
func (s *Server) ExportCSV(w http.ResponseWriter, r *http.Request) {
	sample, ok := s.session.Current()
	if !ok {
		s.handleDomainError(w, domain.ErrNoSample)
		return
	}

	spec, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="oai_export.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := s.session.ExportCSV(w, sample, spec); err != nil {
		s.logger.Error("export csv", "error", err)
	}
}

// ParseFilter reads year, type, lang and format (repeatable or comma
// separated) and the missing_description / missing_rights flags.
func ParseFilter(q url.Values) (domain.FilterSpec, error) {
	spec := domain.FilterSpec{
		Years:     domain.NewSet(listParam(q, "year")...),
		Types:     domain.NewSet(listParam(q, "type")...),
		Languages: domain.NewSet(listParam(q, "lang")...),
		Formats:   domain.NewSet(listParam(q, "format")...),
	}

	var err error
	if spec.OnlyMissingDescription, err = boolParam(q, "missing_description"); err != nil {
		return domain.FilterSpec{}, err
	}
	if spec.OnlyMissingRights, err = boolParam(q, "missing_rights"); err != nil {
		return domain.FilterSpec{}, err
	}
	return spec, nil
}

func listParam(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func boolParam(q url.Values, key string) (bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.New(key + " must be a boolean")
	}
	return v, nil
}

func contentType(format string) string {
	switch format {
	case report.FormatYAML:
		return "application/yaml"
	case report.FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", "error", err)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", "error", err)
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
