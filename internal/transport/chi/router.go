package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/metrics"
)

// RouterConfig holds the cross-cutting HTTP settings.
type RouterConfig struct {
	APIKeys           []string
	CORSOrigins       []string
	RequestsPerSecond float64
	Burst             int
}

// NewRouter mounts the API routes behind the middleware chain.
func NewRouter(s *Server, cfg RouterConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(logger))
	r.Use(CORSMiddleware(cfg.CORSOrigins))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(RateLimitMiddleware(cfg.RequestsPerSecond, cfg.Burst))
	r.Use(metrics.Middleware())

	r.Post("/redact", s.RedactText)
	r.Post("/redact/pdf", s.RedactPDF)
	r.Post("/redact/image", s.RedactImage)
	r.Post("/hash", s.Hash)
	r.Get("/stats", s.Stats)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}
