// Package respond owns the HTTP response envelope and the error
// taxonomy. Every success body is {"data": ...} and every failure body
// is {"error": "<Kind>:: <detail>"}, so clients see one shape no
// matter which handler failed.
package respond

import (
	"encoding/json"
	"net/http"
)

// Kind pairs an error name with the HTTP status it maps to.
type Kind struct {
	Name     string
	HTTPCode int
}

// The full taxonomy. NotFound is surfaced as 422 (not 404) everywhere,
// matching the validation family: a dangling reference in a request is
// a client-correctable input problem.
var (
	Validation   = Kind{Name: "ValidationError", HTTPCode: http.StatusUnprocessableEntity}
	NotFound     = Kind{Name: "NotFound", HTTPCode: http.StatusUnprocessableEntity}
	Unauthorized = Kind{Name: "Unauthorized", HTTPCode: http.StatusUnauthorized}
	Forbidden    = Kind{Name: "Forbidden", HTTPCode: http.StatusForbidden}
	Internal     = Kind{Name: "InternalError", HTTPCode: http.StatusInternalServerError}
)

type errorBody struct {
	Error string `json:"error"`
}

type dataBody struct {
	Data any `json:"data"`
}

// Error writes the uniform error envelope. Storage errors must never
// reach this function with their raw message; callers pass an opaque
// detail for Internal kinds.
func Error(w http.ResponseWriter, kind Kind, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(kind.HTTPCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: kind.Name + ":: " + detail})
}

// Data writes a success envelope with the given status.
func Data(w http.ResponseWriter, status int, data any) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dataBody{Data: data})
}
