package metricsapi

import "github.com/go-chi/chi/v5"

// Routes is mounted under /api/metrics.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
