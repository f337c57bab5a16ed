// Package auth resolves the caller's identity from a bearer token and
// makes it available to downstream handlers through the request
// context.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/coderhub/coderhub/internal/app/system/respond"
	"github.com/coderhub/coderhub/internal/app/system/token"
	"github.com/coderhub/coderhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxPeekBody bounds how much of a request body the resolver inspects
// while looking for the compatibility token fields. The rest of the
// body stays unread and reaches the handler intact.
const maxPeekBody = 1 << 20

// Identity is the resolved caller attached to the request context.
type Identity struct {
	ID          primitive.ObjectID
	Name        string
	Email       string
	Permissions map[string][]string
}

// UserLoader loads the account a verified token refers to.
type UserLoader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type ctxKey string

const identityKey ctxKey = "identity"

// CurrentIdentity returns the resolved identity and a found flag.
func CurrentIdentity(r *http.Request) (*Identity, bool) {
	id, ok := r.Context().Value(identityKey).(*Identity)
	return id, ok
}

// WithTestIdentity injects an identity directly, bypassing token
// verification. Test helper only.
func WithTestIdentity(r *http.Request, id *Identity) *http.Request {
	return withIdentity(r, id)
}

func withIdentity(r *http.Request, id *Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), identityKey, id))
}

// Require verifies the bearer credential on every request and loads the
// referenced user before the handler runs. Credential sources, in order
// of precedence: an "authorization"/"access_token" body field, the
// Authorization header, the x-access-token header.
func Require(codec *token.Codec, loader UserLoader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := extractCredential(r)
			if credential == "" {
				msg := "Access token not Found"
				logger.Warn(msg, zap.String("path", r.URL.Path))
				respond.Error(w, respond.Unauthorized, msg)
				return
			}

			parts := strings.Fields(credential)
			if len(parts) != 2 || parts[0] != "Bearer" {
				msg := "Token must be a bearer type token"
				logger.Warn(msg, zap.String("path", r.URL.Path))
				respond.Error(w, respond.Unauthorized, msg)
				return
			}

			claims, err := codec.Verify(parts[1])
			if err != nil {
				logger.Warn("token verification failed", zap.Error(err))
				respond.Error(w, respond.Unauthorized, err.Error())
				return
			}

			uid, err := primitive.ObjectIDFromHex(claims.Subject)
			if err != nil {
				logger.Warn("token subject is not a valid id", zap.String("sub", claims.Subject))
				respond.Error(w, respond.Unauthorized, "User not Found")
				return
			}

			user, err := loader.GetByID(r.Context(), uid)
			if err != nil {
				if errors.Is(err, mongo.ErrNoDocuments) {
					logger.Warn("token user not found", zap.String("user_id", claims.Subject))
					respond.Error(w, respond.Unauthorized, "User not Found")
					return
				}
				logger.Error("identity lookup failed", zap.Error(err))
				respond.Error(w, respond.Internal, "database error")
				return
			}

			identity := &Identity{
				ID:          user.ID,
				Name:        user.Name,
				Email:       user.Email,
				Permissions: user.Permissions,
			}
			next.ServeHTTP(w, withIdentity(r, identity))
		})
	}
}

// extractCredential pulls the raw credential string from the request.
// Body fields are a compatibility fallback for clients that cannot set
// headers; the body is restored so handlers can still decode it.
func extractCredential(r *http.Request) string {
	if cred := credentialFromBody(r); cred != "" {
		return cred
	}
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		return h
	}
	return strings.TrimSpace(r.Header.Get("x-access-token"))
}

func credentialFromBody(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		return ""
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody))
	// Stitch the inspected prefix back onto whatever was not read so
	// the handler sees the full body.
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))
	if err != nil {
		return ""
	}

	var fields struct {
		Authorization string `json:"authorization"`
		AccessToken   string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}
	if fields.Authorization != "" {
		return strings.TrimSpace(fields.Authorization)
	}
	return strings.TrimSpace(fields.AccessToken)
}
