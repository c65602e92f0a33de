package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fredesa/knowledge-registry/internal/metrics"
	"github.com/fredesa/knowledge-registry/internal/transport/dto"
)

// RouterOptions configures the middleware stack and optional mounts.
type RouterOptions struct {
	APIKeys []string
	// Limiter is nil when rate limiting is disabled.
	Limiter *RateLimiter
	// MCP is served at MCPPath when non-nil.
	MCP     http.Handler
	MCPPath string
}

// NewRouter wires the middleware chain and every route onto a chi router.
func NewRouter(s *Server, opts RouterOptions, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(logger))
	r.Use(BearerAuthMiddleware(opts.APIKeys))
	if opts.Limiter != nil {
		r.Use(opts.Limiter.Middleware)
	}
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, dto.CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, dto.CodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/stats", s.Stats)

	r.Route("/tools", func(r chi.Router) {
		r.Get("/", s.ListTools)
		r.Post("/"+dto.ToolQueryKnowledgeBase, s.QueryKnowledgeBase)
		r.Post("/"+dto.ToolGetSourceDetails, s.GetSourceDetails)
		r.Get("/"+dto.ToolListCategories, s.ListCategories)
		r.Post("/"+dto.ToolDetectKnowledgeGap, s.DetectKnowledgeGap)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.Search)
		r.Get("/sources/{id}", s.GetSource)
		r.Get("/categories", s.ListCategories)
		r.Get("/gaps", s.ListGaps)
		r.Delete("/gaps/{key}", s.ResolveGap)
	})

	if opts.MCP != nil && opts.MCPPath != "" {
		r.Handle(opts.MCPPath, opts.MCP)
		r.Handle(opts.MCPPath+"/*", opts.MCP)
	}
	return r
}
