package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/AdilSaeed0347/InsightFolio/internal/middleware"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Chat handlers
	Chat       http.HandlerFunc
	ChatHealth http.HandlerFunc

	// Session handlers
	ChatStats    http.HandlerFunc
	ClearSession http.HandlerFunc

	// Recorded telemetry, optional
	ChatAnalytics http.HandlerFunc
}

// Checks are the readiness probes. A nil check is reported as not configured.
type Checks struct {
	Database      func(ctx context.Context) error
	Events        func() bool
	KnowledgeBase func(ctx context.Context) (int, error)
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	ChatRateLimiter    func(http.Handler) http.Handler
	ImagesDir          string
	Checks             Checks
}

func NewRouter(cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	readiness := readinessHandler(cfg.Checks)
	r.Get("/health/ready", readiness)
	r.Get("/health", readiness)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	if cfg.ImagesDir != "" {
		r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(cfg.ImagesDir))))
	}

	r.Route("/api/v1/chat", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if cfg.ChatRateLimiter != nil {
				r.Use(cfg.ChatRateLimiter)
			}
			r.Post("/", h.Chat)
		})
		r.Get("/health", h.ChatHealth)
		r.Get("/stats", h.ChatStats)
		r.Delete("/sessions/{sessionID}", h.ClearSession)
		if h.ChatAnalytics != nil {
			r.Get("/analytics", h.ChatAnalytics)
		}
	})

	return r
}

// readinessHandler checks the database, the event stream and the knowledge
// base. Only the database is required for the service to be ready; events
// are optional and an empty knowledge base only degrades answers.
func readinessHandler(c Checks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := map[string]any{
			"status":         "healthy",
			"database":       "healthy",
			"events":         "healthy",
			"knowledge_base": "healthy",
		}
		status := http.StatusOK

		switch {
		case c.Database == nil:
			health["database"] = "not configured"
		case c.Database(r.Context()) != nil:
			health["database"] = "unhealthy"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}

		switch {
		case c.Events == nil:
			health["events"] = "not configured"
		case !c.Events():
			health["events"] = "unhealthy"
			health["status"] = "degraded"
		}

		if c.KnowledgeBase == nil {
			health["knowledge_base"] = "not configured"
		} else if n, err := c.KnowledgeBase(r.Context()); err != nil {
			health["knowledge_base"] = "unhealthy"
			health["status"] = "degraded"
		} else {
			health["chunks"] = n
			if n == 0 {
				health["knowledge_base"] = "empty"
				health["status"] = "degraded"
			}
		}

		JSON(w, status, health)
	}
}
