package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coderhub/coderhub/internal/app/system/token"
	"github.com/coderhub/coderhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeLoader struct {
	users map[primitive.ObjectID]*models.User
}

func (f *fakeLoader) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, mongo.ErrNoDocuments
}

func setup(t *testing.T) (*token.Codec, *fakeLoader, *models.User) {
	t.Helper()
	codec, err := token.New([]byte("test-secret-0123456789"), time.Hour, nil)
	if err != nil {
		t.Fatalf("token.New failed: %v", err)
	}
	user := &models.User{
		ID:    primitive.NewObjectID(),
		Name:  "Ada",
		Email: "ada@test.com",
		Permissions: map[string][]string{
			"hub": {"hub:see"},
		},
	}
	loader := &fakeLoader{users: map[primitive.ObjectID]*models.User{user.ID: user}}
	return codec, loader, user
}

func runRequire(codec *token.Codec, loader UserLoader, req *http.Request) (*httptest.ResponseRecorder, *Identity) {
	var captured *Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = CurrentIdentity(r)
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	Require(codec, loader, zap.NewNop())(next).ServeHTTP(rec, req)
	return rec, captured
}

func TestRequire_NoCredential(t *testing.T) {
	codec, loader, _ := setup(t)
	req := httptest.NewRequest("GET", "/v1/hubs", nil)

	rec, _ := runRequire(codec, loader, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Access token not Found") {
		t.Errorf("body: got %q", rec.Body.String())
	}
}

func TestRequire_NotBearer(t *testing.T) {
	codec, loader, user := setup(t)
	signed, _, _ := codec.Issue(user.ID.Hex(), user.Email)

	req := httptest.NewRequest("GET", "/v1/hubs", nil)
	req.Header.Set("Authorization", "Basic "+signed)

	rec, _ := runRequire(codec, loader, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Token must be a bearer type token") {
		t.Errorf("body: got %q", rec.Body.String())
	}
}

func TestRequire_AuthorizationHeader(t *testing.T) {
	codec, loader, user := setup(t)
	signed, _, _ := codec.Issue(user.ID.Hex(), user.Email)

	req := httptest.NewRequest("GET", "/v1/hubs", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	rec, identity := runRequire(codec, loader, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %q", rec.Code, rec.Body.String())
	}
	if identity == nil || identity.ID != user.ID {
		t.Fatalf("identity not resolved: %+v", identity)
	}
	if identity.Email != user.Email {
		t.Errorf("email: got %q", identity.Email)
	}
	if len(identity.Permissions["hub"]) != 1 {
		t.Errorf("permissions not carried: %+v", identity.Permissions)
	}
}

func TestRequire_XAccessTokenHeader(t *testing.T) {
	codec, loader, user := setup(t)
	signed, _, _ := codec.Issue(user.ID.Hex(), user.Email)

	req := httptest.NewRequest("GET", "/v1/hubs", nil)
	req.Header.Set("x-access-token", "Bearer "+signed)

	rec, _ := runRequire(codec, loader, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %q", rec.Code, rec.Body.String())
	}
}

func TestRequire_BodyFieldTakesPrecedence(t *testing.T) {
	codec, loader, user := setup(t)
	signed, _, _ := codec.Issue(user.ID.Hex(), user.Email)

	body := `{"access_token": "Bearer ` + signed + `", "name": "payload survives"}`
	req := httptest.NewRequest("POST", "/v1/hubs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer not-even-a-token")

	var seenBody string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := make([]byte, len(body)+10)
		n, _ := r.Body.Read(raw)
		seenBody = string(raw[:n])
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	Require(codec, loader, zap.NewNop())(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %q", rec.Code, rec.Body.String())
	}
	if seenBody != body {
		t.Errorf("body not restored for the handler: got %q", seenBody)
	}
}

func TestRequire_OversizedBodyReachesHandlerIntact(t *testing.T) {
	codec, loader, user := setup(t)
	signed, _, _ := codec.Issue(user.ID.Hex(), user.Email)

	filler := strings.Repeat("x", maxPeekBody)
	body := `{"name": "` + filler + `", "tail": "end-of-body"}`
	req := httptest.NewRequest("POST", "/v1/hubs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signed)

	var seenLen int
	var seenTail string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading body in handler: %v", err)
		}
		seenLen = len(raw)
		if len(raw) > 20 {
			seenTail = string(raw[len(raw)-20:])
		}
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	Require(codec, loader, zap.NewNop())(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %q", rec.Code, rec.Body.String())
	}
	if seenLen != len(body) {
		t.Fatalf("body truncated: got %d bytes, want %d", seenLen, len(body))
	}
	if !strings.Contains(seenTail, "end-of-body") {
		t.Errorf("body tail lost: got %q", seenTail)
	}
}

func TestRequire_InvalidToken(t *testing.T) {
	codec, loader, _ := setup(t)
	req := httptest.NewRequest("GET", "/v1/hubs", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")

	rec, _ := runRequire(codec, loader, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
}

func TestRequire_UnknownUser(t *testing.T) {
	codec, loader, _ := setup(t)
	signed, _, _ := codec.Issue(primitive.NewObjectID().Hex(), "ghost@test.com")

	req := httptest.NewRequest("GET", "/v1/hubs", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	rec, _ := runRequire(codec, loader, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "User not Found") {
		t.Errorf("body: got %q", rec.Body.String())
	}
}
