package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fredesa/knowledge-registry/internal/domain"
	"github.com/fredesa/knowledge-registry/internal/domain/category"
	"github.com/fredesa/knowledge-registry/internal/domain/search/request"
	"github.com/fredesa/knowledge-registry/internal/domain/search/result"
	"github.com/fredesa/knowledge-registry/internal/domain/source"
	"github.com/fredesa/knowledge-registry/internal/domain/stats"
	"github.com/fredesa/knowledge-registry/internal/transport/dto"
	gapuc "github.com/fredesa/knowledge-registry/internal/usecase/gap"
	healthuc "github.com/fredesa/knowledge-registry/internal/usecase/health"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// Searcher answers knowledge queries.
type Searcher interface {
	Query(ctx context.Context, in request.Input) (result.Result, error)
}

// CatalogReader serves catalog lookups.
type CatalogReader interface {
	Source(ctx context.Context, id string) (source.Source, error)
	Categories(ctx context.Context) ([]category.Category, error)
	Stats(ctx context.Context) (stats.Catalog, error)
}

// GapManager lists, detects and resolves knowledge gaps.
type GapManager interface {
	Recent(ctx context.Context, limit int) ([]gapuc.Entry, error)
	Detect(ctx context.Context, query string, keywords []string) (gapuc.Detection, error)
	Resolve(ctx context.Context, key string) (gapuc.Resolution, error)
}

// errGapsDisabled answers gap writes when tracking is off.
var errGapsDisabled = fmt.Errorf("%w: knowledge gap tracking is disabled", domain.ErrUnavailable)

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the registry HTTP API.
type Server struct {
	search        Searcher
	catalog       CatalogReader
	gaps          GapManager
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. gaps can be nil when gap tracking is disabled.
func NewServer(
	search Searcher,
	catalog CatalogReader,
	gaps GapManager,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		catalog: catalog,
		gaps:    gaps,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnavailable, http.StatusServiceUnavailable, dto.CodeUnavailable),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, dto.CodeNotFound),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, dto.CodeInvalidFilter),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, dto.CodeInvalidQuery),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, dto.CodeRateLimited),
	}
	return s
}

// ListTools handles GET /tools.
func (s *Server) ListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.Tools())
}

// QueryKnowledgeBase handles POST /tools/query_knowledge_base.
func (s *Server) QueryKnowledgeBase(w http.ResponseWriter, r *http.Request) {
	var req dto.QueryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.runQuery(w, r, req)
}

// Search handles GET /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var (
		req          dto.QueryRequest
		text         *string
		dim          *string
		cat          *string
		minAuthority *int
		limit        *int
	)
	q := r.URL.Query()
	binds := []struct {
		name string
		dest any
	}{
		{"q", &text},
		{"dimension", &dim},
		{"category", &cat},
		{"min_authority", &minAuthority},
		{"limit", &limit},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			writeError(w, http.StatusBadRequest, dto.CodeBadRequest, "invalid parameter "+b.name)
			return
		}
	}
	req.Text = deref(text)
	req.Dimension = deref(dim)
	req.Category = deref(cat)
	req.MinAuthority = minAuthority
	req.Limit = limit
	s.runQuery(w, r, req)
}

func (s *Server) runQuery(w http.ResponseWriter, r *http.Request, req dto.QueryRequest) {
	res, err := s.search.Query(r.Context(), req.Input())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromResult(&res))
}

// GetSourceDetails handles POST /tools/get_source_details.
func (s *Server) GetSourceDetails(w http.ResponseWriter, r *http.Request) {
	var req dto.SourceIDRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.writeSource(w, r, req.SourceID)
}

// GetSource handles GET /api/v1/sources/{id}.
func (s *Server) GetSource(w http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, dto.CodeBadRequest, "invalid parameter id")
		return
	}
	s.writeSource(w, r, id)
}

func (s *Server) writeSource(w http.ResponseWriter, r *http.Request, id string) {
	src, err := s.catalog.Source(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSource(&src))
}

// ListCategories handles GET /tools/list_categories and GET /api/v1/categories.
func (s *Server) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.catalog.Categories(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromCategories(cats))
}

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.catalog.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromStats(st))
}

// ListGaps handles GET /api/v1/gaps.
func (s *Server) ListGaps(w http.ResponseWriter, r *http.Request) {
	if s.gaps == nil {
		writeJSON(w, http.StatusOK, dto.GapList{Gaps: []dto.Gap{}})
		return
	}
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, dto.CodeBadRequest, "invalid parameter limit")
		return
	}
	entries, err := s.gaps.Recent(r.Context(), deref(limit))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromGaps(entries))
}

// DetectKnowledgeGap handles POST /tools/detect_knowledge_gap.
func (s *Server) DetectKnowledgeGap(w http.ResponseWriter, r *http.Request) {
	var req dto.DetectGapRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if s.gaps == nil {
		s.handleDomainError(w, errGapsDisabled)
		return
	}
	d, err := s.gaps.Detect(r.Context(), req.Query, req.Keywords)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromDetection(d))
}

// ResolveGap handles DELETE /api/v1/gaps/{key}.
func (s *Server) ResolveGap(w http.ResponseWriter, r *http.Request) {
	var key string
	err := runtime.BindStyledParameterWithOptions("simple", "key", chi.URLParam(r, "key"), &key,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, dto.CodeBadRequest, "invalid parameter key")
		return
	}
	if s.gaps == nil {
		s.handleDomainError(w, errGapsDisabled)
		return
	}
	res, err := s.gaps.Resolve(r.Context(), key)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromResolution(res))
}

// healthResponse is the GET /health body.
type healthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: report.Status, Checks: report.Checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, dto.CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code dto.ErrorCode, message string) {
	writeJSON(w, status, dto.ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a client-safe message. Validation errors are
// built from request input and pass through; store failures collapse to
// their sentinel text.
func safeDomainMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrInvalidQuery),
		errors.Is(err, domain.ErrNotFound):
		if errors.Is(err, domain.ErrUnavailable) {
			return domain.ErrUnavailable.Error()
		}
		return err.Error()
	case errors.Is(err, domain.ErrRateLimited):
		return domain.ErrRateLimited.Error()
	case errors.Is(err, domain.ErrUnavailable):
		return domain.ErrUnavailable.Error()
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code dto.ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, dto.CodeInternal, "internal error")
}
