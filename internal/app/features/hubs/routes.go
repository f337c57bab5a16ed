package hubs

import (
	"github.com/coderhub/coderhub/internal/app/system/perm"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all hub routes under the path where the caller mounts
// it. Typically: r.Mount("/v1/hubs", hubs.Routes(handler, gate))
func Routes(h *Handler, gate *perm.Gate) chi.Router {
	r := chi.NewRouter()

	r.With(gate.Require("fetch")).Get("/", h.HandleList)
	r.With(gate.Require("create")).Post("/", h.HandleCreate)
	r.With(gate.Require("update")).Put("/{hub_id}", h.HandleUpdate)
	r.With(gate.Require("delete")).Delete("/{hub_id}", h.HandleDelete)
	r.With(gate.Require("show")).Get("/{hub_id}/users", h.HandleListUsers)

	return r
}
