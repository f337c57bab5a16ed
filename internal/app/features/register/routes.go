package register

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the public registration route.
// Typically: r.Mount("/register", register.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleCreate)
	return r
}
