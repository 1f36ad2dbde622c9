package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"restro-pos/internal/logger"
)

// Mounter is implemented by every service handler
type Mounter interface {
	Routes(r chi.Router)
}

// HealthFunc reports whether a dependency is reachable
type HealthFunc func(ctx context.Context) error

// NewRouter builds the api-server router: /health plus every handler under /api
func NewRouter(log *logger.Logger, health HealthFunc, handlers ...Mounter) http.Handler {
	r := chi.NewRouter()
	r.Use(WithLogging(log))
	r.Use(RequireJSON)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		if health != nil {
			if err := health(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		WriteData(w, code, map[string]interface{}{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "api-server",
		})
	})

	r.Route("/api", func(api chi.Router) {
		for _, h := range handlers {
			h.Routes(api)
		}
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found", RequestID(req.Context()))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", RequestID(req.Context()))
	})
	return r
}
