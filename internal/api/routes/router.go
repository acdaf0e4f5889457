package routes

import (
	"net/http"

	"github.com/zatekoja/hospital-cost-navigator/internal/api/handlers"
	"github.com/zatekoja/hospital-cost-navigator/internal/api/middleware"
	"github.com/zatekoja/hospital-cost-navigator/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	navigatorHandler *handlers.NavigatorHandler
	metrics          *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(navigatorHandler *handlers.NavigatorHandler, metrics *observability.Metrics) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		navigatorHandler: navigatorHandler,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	r.mux.HandleFunc("GET /api/providers", r.navigatorHandler.SearchProviders)
	r.mux.HandleFunc("POST /api/ask", r.navigatorHandler.Ask)

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS is outermost so error responses also get CORS headers.
	var handler http.Handler = r.mux
	if r.metrics != nil {
		handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	}
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
