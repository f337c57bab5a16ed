// Package perm gates handler dispatch on the caller's permission set.
//
// Each resource feature builds one Gate at route-registration time; the
// action table is immutable after construction, so nothing is mutated
// per-request.
package perm

import (
	"net/http"

	"github.com/coderhub/coderhub/internal/app/system/auth"
	"github.com/coderhub/coderhub/internal/app/system/respond"
	"go.uber.org/zap"
)

// Gate maps logical action names to required permission strings for one
// entity.
type Gate struct {
	entity   string
	required map[string]string
	logger   *zap.Logger
}

// NewGate builds a gate for entity with the default action table
// (fetch/show→see, create, update, delete) plus any extra actions,
// given as action → permission suffix.
func NewGate(entity string, extra map[string]string, logger *zap.Logger) *Gate {
	required := map[string]string{
		"fetch":  entity + ":see",
		"show":   entity + ":see",
		"create": entity + ":create",
		"update": entity + ":update",
		"delete": entity + ":delete",
	}
	for action, suffix := range extra {
		required[action] = entity + ":" + suffix
	}
	return &Gate{entity: entity, required: required, logger: logger}
}

// Require returns middleware enforcing the permission for action. An
// action with no table entry passes through unconditionally: routes are
// open by default, and protection is opted into per action.
func (g *Gate) Require(action string) func(http.Handler) http.Handler {
	permission, protected := g.required[action]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !protected {
				next.ServeHTTP(w, r)
				return
			}

			var granted []string
			if identity, ok := auth.CurrentIdentity(r); ok && identity.Permissions != nil {
				granted = identity.Permissions[g.entity]
			}
			for _, p := range granted {
				if p == permission {
					next.ServeHTTP(w, r)
					return
				}
			}

			g.logger.Warn("permission denied",
				zap.String("required", permission),
				zap.Strings("granted", granted))
			respond.Error(w, respond.Forbidden, "User not have permissions required")
		})
	}
}
