package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/coderhub/coderhub/internal/app/system/token"
	"github.com/coderhub/coderhub/internal/domain/models"
	"github.com/coderhub/coderhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakeVerifier struct {
	claims IdentityClaims
	err    error
}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (IdentityClaims, error) {
	return f.claims, f.err
}

func setupHandler(t *testing.T, verifier IDTokenVerifier) (*Handler, *testutil.Fixtures, *token.Codec) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	codec, err := token.New([]byte("test-secret-0123456789"), time.Hour, nil)
	if err != nil {
		t.Fatalf("token.New failed: %v", err)
	}
	return NewHandler(db, codec, verifier, zap.NewNop()), testutil.NewFixtures(t, db), codec
}

func createLoginUser(t *testing.T, fx *testutil.Fixtures, email, password string) models.User {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fx.CreateUser(ctx, email, nil)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	_, err = fx.DB().Collection("users").UpdateOne(ctx,
		bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"password": string(hash)}})
	if err != nil {
		t.Fatalf("failed to set password: %v", err)
	}
	return user
}

func TestHandleLogin_Success(t *testing.T) {
	h, fx, codec := setupHandler(t, nil)
	user := createLoginUser(t, fx, "ada@test.com", "correct-horse")

	req := testutil.NewJSONRequest(t, http.MethodPost, "/login", map[string]any{
		"email":    "ada@test.com",
		"password": "correct-horse",
	})
	rec := testutil.NewRecorder()
	h.HandleLogin(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Data sessionResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if body.Data.Email != "ada@test.com" {
		t.Errorf("email: got %q", body.Data.Email)
	}
	if body.Data.ExpiresAt <= body.Data.IssuedAt {
		t.Errorf("exp %d should be after iat %d", body.Data.ExpiresAt, body.Data.IssuedAt)
	}

	claims, err := codec.Verify(body.Data.AccessToken)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Subject != user.ID.Hex() {
		t.Errorf("subject: got %q, want %q", claims.Subject, user.ID.Hex())
	}
}

func TestHandleLogin_WrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	h, fx, _ := setupHandler(t, nil)
	createLoginUser(t, fx, "ada@test.com", "correct-horse")

	for _, payload := range []map[string]any{
		{"email": "ada@test.com", "password": "wrong-horse"},
		{"email": "ghost@test.com", "password": "correct-horse"},
	} {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/login", payload)
		rec := testutil.NewRecorder()
		h.HandleLogin(rec, req)

		rec.AssertStatus(t, http.StatusUnprocessableEntity)
		rec.AssertError(t, "NotFound", "email or password invalid")
	}
}

func TestHandleLogin_Validation(t *testing.T) {
	h, _, _ := setupHandler(t, nil)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/login", map[string]any{"email": "ada@test.com"})
	rec := testutil.NewRecorder()
	h.HandleLogin(rec, req)

	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertError(t, "ValidationError", `"password" is required`)
}

func TestHandleGoogleLogin_BySocialAccount(t *testing.T) {
	verifier := &fakeVerifier{claims: IdentityClaims{Subject: "g-123", Email: "ada@test.com"}}
	h, fx, _ := setupHandler(t, verifier)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := fx.CreateUser(ctx, "ada@test.com", nil)
	if err := h.Users.LinkSocialAccount(ctx, user.ID, models.SocialAccount{
		Provider:       ProviderGoogle,
		ProviderUserID: "g-123",
	}); err != nil {
		t.Fatalf("LinkSocialAccount failed: %v", err)
	}

	req := testutil.NewJSONRequest(t, http.MethodPost, "/login/google", map[string]any{"id_token": "raw"})
	rec := testutil.NewRecorder()
	h.HandleGoogleLogin(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "access_token")
}

func TestHandleGoogleLogin_ByEmailLinksIdentity(t *testing.T) {
	verifier := &fakeVerifier{claims: IdentityClaims{Subject: "g-456", Email: "grace@test.com"}}
	h, fx, _ := setupHandler(t, verifier)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	user := fx.CreateUser(ctx, "grace@test.com", nil)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/login/google", map[string]any{"id_token": "raw"})
	rec := testutil.NewRecorder()
	h.HandleGoogleLogin(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	// The provider identity is now linked for the next login.
	linked, err := h.Users.GetBySocialAccount(ctx, ProviderGoogle, "g-456")
	if err != nil {
		t.Fatalf("identity not linked: %v", err)
	}
	if linked.ID != user.ID {
		t.Errorf("linked wrong user")
	}
}

func TestHandleGoogleLogin_UnknownUser(t *testing.T) {
	verifier := &fakeVerifier{claims: IdentityClaims{Subject: "g-789", Email: "ghost@test.com"}}
	h, _, _ := setupHandler(t, verifier)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/login/google", map[string]any{"id_token": "raw"})
	rec := testutil.NewRecorder()
	h.HandleGoogleLogin(rec, req)

	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	rec.AssertError(t, "NotFound", "User not Found")
}

func TestHandleGoogleLogin_RejectedToken(t *testing.T) {
	verifier := &fakeVerifier{err: errors.New("oidc: token expired")}
	h, _, _ := setupHandler(t, verifier)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/login/google", map[string]any{"id_token": "raw"})
	rec := testutil.NewRecorder()
	h.HandleGoogleLogin(rec, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertError(t, "Unauthorized", "invalid google token")
}
