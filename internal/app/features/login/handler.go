package login

import (
	"errors"
	"net/http"

	userstore "github.com/coderhub/coderhub/internal/app/store/users"
	"github.com/coderhub/coderhub/internal/app/system/inputval"
	"github.com/coderhub/coderhub/internal/app/system/respond"
	"github.com/coderhub/coderhub/internal/app/system/token"
	"github.com/coderhub/coderhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler is the feature-level handler for credential and social login.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Users    *userstore.Store
	Tokens   *token.Codec
	Verifier IDTokenVerifier
}

// NewHandler constructs the login handler. verifier may be nil, in which
// case Google login responds 500 until one is configured.
func NewHandler(db *mongo.Database, codec *token.Codec, verifier IDTokenVerifier, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Users:    userstore.New(db),
		Tokens:   codec,
		Verifier: verifier,
	}
}

var loginSchema = inputval.Schema{Fields: []inputval.Field{
	{Name: "email", Type: inputval.String, Required: true, Email: true, MaxLen: 254},
	{Name: "password", Type: inputval.String, Required: true, MaxLen: 72},
}}

var googleSchema = inputval.Schema{Fields: []inputval.Field{
	{Name: "id_token", Type: inputval.String, Required: true},
}}

// sessionResponse is what both login variants return on success.
type sessionResponse struct {
	AccessToken string `json:"access_token"`
	IssuedAt    int64  `json:"iat"`
	ExpiresAt   int64  `json:"exp"`
	Email       string `json:"email"`
}

// HandleLogin handles POST /login. Unknown email and wrong password are
// indistinguishable to the caller.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	payload, err := inputval.DecodeBody(r)
	if err != nil {
		respond.Error(w, respond.Validation, err.Error())
		return
	}
	input, err := loginSchema.Validate(payload)
	if err != nil {
		respond.Error(w, respond.Validation, err.Error())
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), input["email"].(string))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, respond.NotFound, "email or password invalid")
			return
		}
		h.Log.Error("login lookup failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not log in")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input["password"].(string))) != nil {
		respond.Error(w, respond.NotFound, "email or password invalid")
		return
	}

	h.issueSession(w, user)
}

// HandleGoogleLogin handles POST /login/google. The Google-issued ID
// token is verified, then the account is resolved by the linked social
// identity first and by email second. Resolving by email links the
// identity so the next login matches directly.
func (h *Handler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.Verifier == nil {
		h.Log.Error("google login requested but no verifier is configured")
		respond.Error(w, respond.Internal, "google login is not configured")
		return
	}

	payload, err := inputval.DecodeBody(r)
	if err != nil {
		respond.Error(w, respond.Validation, err.Error())
		return
	}
	input, err := googleSchema.Validate(payload)
	if err != nil {
		respond.Error(w, respond.Validation, err.Error())
		return
	}

	claims, err := h.Verifier.Verify(r.Context(), input["id_token"].(string))
	if err != nil {
		h.Log.Warn("google id token rejected", zap.Error(err))
		respond.Error(w, respond.Unauthorized, "invalid google token")
		return
	}

	user, err := h.Users.GetBySocialAccount(r.Context(), ProviderGoogle, claims.Subject)
	if errors.Is(err, mongo.ErrNoDocuments) {
		user, err = h.resolveByEmail(r, claims)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, respond.NotFound, "User not Found")
			return
		}
		h.Log.Error("google login lookup failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not log in")
		return
	}

	h.issueSession(w, user)
}

func (h *Handler) resolveByEmail(r *http.Request, claims IdentityClaims) (*models.User, error) {
	user, err := h.Users.GetByEmail(r.Context(), claims.Email)
	if err != nil {
		return nil, err
	}
	account := models.SocialAccount{Provider: ProviderGoogle, ProviderUserID: claims.Subject}
	if err := h.Users.LinkSocialAccount(r.Context(), user.ID, account); err != nil {
		return nil, err
	}
	return user, nil
}

func (h *Handler) issueSession(w http.ResponseWriter, user *models.User) {
	signed, claims, err := h.Tokens.Issue(user.ID.Hex(), user.Email)
	if err != nil {
		h.Log.Error("token issue failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not log in")
		return
	}

	h.Log.Info("user logged in", zap.String("user_id", user.ID.Hex()))
	respond.Data(w, http.StatusOK, sessionResponse{
		AccessToken: signed,
		IssuedAt:    claims.IssuedAt.Unix(),
		ExpiresAt:   claims.ExpiresAt.Unix(),
		Email:       user.Email,
	})
}
