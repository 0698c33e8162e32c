package dashboard

import "github.com/go-chi/chi/v5"

// Routes serves the dashboard page at the mount root and its HTMX data
// fragment under /dashboard.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServePage)
	return r
}

// DataRoutes serves the polled fragment, mounted under /dashboard.
func DataRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/data", h.ServeData)
	return r
}
