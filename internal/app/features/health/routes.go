package health

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the public health route.
// Typically: r.Mount("/health", health.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
