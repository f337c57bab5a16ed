package judges

import (
	"github.com/coderhub/coderhub/internal/app/system/perm"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the judge catalog routes.
// Typically: r.Mount("/v1/judges", judges.Routes(handler, gate))
func Routes(h *Handler, gate *perm.Gate) chi.Router {
	r := chi.NewRouter()
	r.With(gate.Require("fetch")).Get("/", h.HandleList)
	return r
}
