package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coderhub/coderhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestIdentity represents caller data for testing HTTP handlers.
type TestIdentity struct {
	ID          primitive.ObjectID
	Name        string
	Email       string
	Permissions map[string][]string
}

// UserIdentity returns a TestIdentity with the standard user permission set.
func UserIdentity() TestIdentity {
	return TestIdentity{
		ID:    primitive.NewObjectID(),
		Name:  "Test User",
		Email: "user@test.com",
		Permissions: map[string][]string{
			"user":  {"user:see", "user:link"},
			"hub":   {"hub:see", "hub:create", "hub:update"},
			"judge": {"judge:see"},
		},
	}
}

// AdminIdentity returns a TestIdentity with the admin permission set.
func AdminIdentity() TestIdentity {
	id := UserIdentity()
	id.Name = "Test Admin"
	id.Email = "admin@test.com"
	id.Permissions["hub"] = append(id.Permissions["hub"], "hub:delete")
	id.Permissions["user"] = append(id.Permissions["user"], "user:admin")
	return id
}

// WithIdentity adds an identity to the request context for testing
// authenticated handlers, bypassing token verification.
func WithIdentity(r *http.Request, id TestIdentity) *http.Request {
	return auth.WithTestIdentity(r, &auth.Identity{
		ID:          id.ID,
		Name:        id.Name,
		Email:       id.Email,
		Permissions: id.Permissions,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates an HTTP request carrying a JSON body.
func NewJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with an identity in context.
func NewAuthenticatedRequest(method, target string, id TestIdentity) *http.Request {
	return WithIdentity(httptest.NewRequest(method, target, nil), id)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body %q does not contain %q", r.Body.String(), expected)
	}
}

// AssertError checks for the uniform error envelope with the given kind
// name and detail.
func (r *ResponseRecorder) AssertError(t interface{ Errorf(string, ...any) }, kind, detail string) {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(r.Body.Bytes(), &body); err != nil {
		t.Errorf("response body %q is not an error envelope: %v", r.Body.String(), err)
		return
	}
	want := kind + ":: " + detail
	if body.Error != want {
		t.Errorf("error: got %q, want %q", body.Error, want)
	}
}
