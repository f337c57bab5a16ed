package perm

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coderhub/coderhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func requestWithPermissions(perms map[string][]string) *http.Request {
	req := httptest.NewRequest("GET", "/", nil)
	return auth.WithTestIdentity(req, &auth.Identity{
		ID:          primitive.NewObjectID(),
		Permissions: perms,
	})
}

func runGate(t *testing.T, gate *Gate, action string, req *http.Request) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	gate.Require(action)(next).ServeHTTP(rec, req)
	return rec, called
}

func TestRequire_Allows(t *testing.T) {
	gate := NewGate("hub", nil, zap.NewNop())
	req := requestWithPermissions(map[string][]string{"hub": {"hub:see"}})

	rec, called := runGate(t, gate, "fetch", req)
	if !called || rec.Code != http.StatusOK {
		t.Errorf("expected pass-through, got status %d called=%v", rec.Code, called)
	}
}

func TestRequire_Denies(t *testing.T) {
	gate := NewGate("hub", nil, zap.NewNop())
	req := requestWithPermissions(map[string][]string{"hub": {"hub:see"}})

	rec, called := runGate(t, gate, "delete", req)
	if called {
		t.Error("handler should not run")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
	want := `{"error":"Forbidden:: User not have permissions required"}`
	if got := rec.Body.String(); got != want+"\n" {
		t.Errorf("body: got %q", got)
	}
}

func TestRequire_DeniesWithoutIdentity(t *testing.T) {
	gate := NewGate("hub", nil, zap.NewNop())
	req := httptest.NewRequest("GET", "/", nil)

	rec, called := runGate(t, gate, "fetch", req)
	if called || rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d called=%v", rec.Code, called)
	}
}

func TestRequire_WrongEntityDoesNotGrant(t *testing.T) {
	gate := NewGate("hub", nil, zap.NewNop())
	req := requestWithPermissions(map[string][]string{"user": {"hub:delete"}})

	rec, _ := runGate(t, gate, "delete", req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}

func TestRequire_UnprotectedActionPassesThrough(t *testing.T) {
	gate := NewGate("hub", nil, zap.NewNop())
	req := httptest.NewRequest("GET", "/", nil)

	rec, called := runGate(t, gate, "preview", req)
	if !called || rec.Code != http.StatusOK {
		t.Errorf("unlisted action should pass, got %d called=%v", rec.Code, called)
	}
}

func TestRequire_ExtraAction(t *testing.T) {
	gate := NewGate("user", map[string]string{"link": "link"}, zap.NewNop())

	req := requestWithPermissions(map[string][]string{"user": {"user:link"}})
	rec, called := runGate(t, gate, "link", req)
	if !called || rec.Code != http.StatusOK {
		t.Errorf("expected pass-through, got %d", rec.Code)
	}

	req = requestWithPermissions(map[string][]string{"user": {"user:see"}})
	rec, _ = runGate(t, gate, "link", req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}
