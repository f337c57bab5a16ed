package users

import (
	"github.com/coderhub/coderhub/internal/app/system/perm"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all user routes under the path where the caller mounts
// it. Typically: r.Mount("/v1/users", users.Routes(handler, gate))
func Routes(h *Handler, gate *perm.Gate) chi.Router {
	r := chi.NewRouter()

	r.With(gate.Require("fetch")).Get("/", h.HandleList)

	r.Group(func(pr chi.Router) {
		pr.Use(gate.Require("link"))

		pr.Patch("/{user_id}/hubs/{hub_id}", h.HandleLinkHub)
		pr.Delete("/{user_id}/hubs/{hub_id}", h.HandleUnlinkHub)
		pr.Patch("/{user_id}/judges/{judge_id}", h.HandleAddJudgeAccount)
		pr.Delete("/{user_id}/judges/{judge_id}", h.HandleRemoveJudgeAccount)
	})

	return r
}
