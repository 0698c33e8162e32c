package profile

import "github.com/go-chi/chi/v5"

// Routes is mounted under /profile behind RequireSignedIn.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServePage)
	r.Post("/", h.HandleUpdate)
	r.Post("/role", h.HandleSetRole)
	return r
}
