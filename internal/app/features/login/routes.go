package login

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the public login routes.
// Typically: r.Mount("/login", login.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleLogin)
	r.Post("/google", h.HandleGoogleLogin)
	return r
}
