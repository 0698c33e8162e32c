package sessionapi

import "github.com/go-chi/chi/v5"

// Routes is mounted under /api/auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/session", h.Establish)
	r.Post("/signout", h.SignOut)
	return r
}
