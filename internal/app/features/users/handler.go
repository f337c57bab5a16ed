package users

import (
	"errors"
	"net/http"

	hubstore "github.com/coderhub/coderhub/internal/app/store/hubs"
	judgestore "github.com/coderhub/coderhub/internal/app/store/judges"
	userstore "github.com/coderhub/coderhub/internal/app/store/users"
	"github.com/coderhub/coderhub/internal/app/system/auth"
	"github.com/coderhub/coderhub/internal/app/system/inputval"
	"github.com/coderhub/coderhub/internal/app/system/respond"
	"github.com/coderhub/coderhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// adminOverride lets holders manage other users' hub and judge links.
const adminOverride = "user:admin"

// Handler is the feature-level handler for Users.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Users  *userstore.Store
	Hubs   *hubstore.Store
	Judges *judgestore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Users:  userstore.New(db),
		Hubs:   hubstore.New(db),
		Judges: judgestore.New(db),
	}
}

var judgeAccountSchema = inputval.Schema{Fields: []inputval.Field{
	{Name: "username", Type: inputval.String, Required: true, MaxLen: 100},
	{Name: "user_id", Type: inputval.String, MaxLen: 100},
}}

// HandleList handles GET /v1/users.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Users.List(r.Context())
	if err != nil {
		h.Log.Error("user list failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not list users")
		return
	}
	if list == nil {
		list = []models.User{}
	}
	respond.Data(w, http.StatusOK, list)
}

// HandleLinkHub handles PATCH /v1/users/{user_id}/hubs/{hub_id}.
// Linking is idempotence-guarded: a second link of the same hub fails
// with a validation error rather than growing the set.
func (h *Handler) HandleLinkHub(w http.ResponseWriter, r *http.Request) {
	userID, hubID, ok := h.hubLinkIDs(w, r, "You can only add a Hub to yourself")
	if !ok {
		return
	}

	if _, err := h.Hubs.GetByID(r.Context(), hubID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, respond.NotFound, "Hub not Found")
			return
		}
		h.Log.Error("hub lookup failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not link hub")
		return
	}

	if err := h.Users.AddHub(r.Context(), userID, hubID); err != nil {
		if errors.Is(err, userstore.ErrAlreadyInHub) {
			// The filtered update also matches nothing when the user
			// document itself is missing.
			if !h.userExists(w, r, userID) {
				return
			}
			respond.Error(w, respond.Validation, "User is already in the hub")
			return
		}
		h.Log.Error("hub link failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not link hub")
		return
	}

	respond.Data(w, http.StatusNoContent, nil)
}

// HandleUnlinkHub handles DELETE /v1/users/{user_id}/hubs/{hub_id}.
// Removing a hub the user is not in succeeds as a no-op.
func (h *Handler) HandleUnlinkHub(w http.ResponseWriter, r *http.Request) {
	userID, hubID, ok := h.hubLinkIDs(w, r, "You can only remove a Hub from yourself")
	if !ok {
		return
	}

	if err := h.Users.RemoveHub(r.Context(), userID, hubID); err != nil {
		h.Log.Error("hub unlink failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not unlink hub")
		return
	}

	respond.Data(w, http.StatusNoContent, nil)
}

// HandleAddJudgeAccount handles PATCH /v1/users/{user_id}/judges/{judge_id}.
func (h *Handler) HandleAddJudgeAccount(w http.ResponseWriter, r *http.Request) {
	userID, judgeID, ok := h.judgeLinkIDs(w, r, "You can only add a Judge account to yourself")
	if !ok {
		return
	}

	payload, err := inputval.DecodeBody(r)
	if err != nil {
		respond.Error(w, respond.Validation, err.Error())
		return
	}
	input, err := judgeAccountSchema.Validate(payload)
	if err != nil {
		respond.Error(w, respond.Validation, err.Error())
		return
	}

	if _, err := h.Judges.GetByID(r.Context(), judgeID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, respond.NotFound, "Judge not Found")
			return
		}
		h.Log.Error("judge lookup failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not add judge account")
		return
	}

	account := models.JudgeAccount{
		Username: input["username"].(string),
		JudgeID:  judgeID,
	}
	if v, ok := input["user_id"].(string); ok {
		account.UserID = v
	}

	if err := h.Users.AddJudgeAccount(r.Context(), userID, account); err != nil {
		if errors.Is(err, userstore.ErrDuplicateJudgeAccount) {
			if !h.userExists(w, r, userID) {
				return
			}
			respond.Error(w, respond.Validation, "You can only add one account for each Judge")
			return
		}
		h.Log.Error("judge account add failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not add judge account")
		return
	}

	h.respondWithUser(w, r, userID, http.StatusCreated)
}

// HandleRemoveJudgeAccount handles DELETE /v1/users/{user_id}/judges/{judge_id}.
// Removing an absent account succeeds as a no-op.
func (h *Handler) HandleRemoveJudgeAccount(w http.ResponseWriter, r *http.Request) {
	userID, judgeID, ok := h.judgeLinkIDs(w, r, "You can only remove a Judge account from yourself")
	if !ok {
		return
	}

	if err := h.Users.RemoveJudgeAccount(r.Context(), userID, judgeID); err != nil {
		h.Log.Error("judge account remove failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not remove judge account")
		return
	}

	h.respondWithUser(w, r, userID, http.StatusOK)
}

// hubLinkIDs validates the path ids for hub linking and enforces the
// self-or-admin rule. Writes the response itself on failure.
func (h *Handler) hubLinkIDs(w http.ResponseWriter, r *http.Request, denyMsg string) (userID, hubID primitive.ObjectID, ok bool) {
	return h.linkIDs(w, r, "hub_id", denyMsg)
}

func (h *Handler) judgeLinkIDs(w http.ResponseWriter, r *http.Request, denyMsg string) (userID, otherID primitive.ObjectID, ok bool) {
	return h.linkIDs(w, r, "judge_id", denyMsg)
}

func (h *Handler) linkIDs(w http.ResponseWriter, r *http.Request, otherName, denyMsg string) (userID, otherID primitive.ObjectID, ok bool) {
	params := map[string]any{
		"user_id": chi.URLParam(r, "user_id"),
		otherName: chi.URLParam(r, otherName),
	}
	if err := inputval.ValidateIDs(params, "user_id", otherName); err != nil {
		respond.Error(w, respond.Validation, err.Error())
		return primitive.NilObjectID, primitive.NilObjectID, false
	}

	userID, _ = primitive.ObjectIDFromHex(params["user_id"].(string))
	otherID, _ = primitive.ObjectIDFromHex(params[otherName].(string))

	// Managing another user's links is an identity violation, not a
	// permission one, so it reports 401 rather than 403.
	if !h.canManage(r, userID) {
		respond.Error(w, respond.Unauthorized, denyMsg)
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return userID, otherID, true
}

// canManage reports whether the caller is the target user or holds the
// admin override.
func (h *Handler) canManage(r *http.Request, target primitive.ObjectID) bool {
	identity, ok := auth.CurrentIdentity(r)
	if !ok {
		return false
	}
	if identity.ID == target {
		return true
	}
	for _, p := range identity.Permissions["user"] {
		if p == adminOverride {
			return true
		}
	}
	return false
}

// userExists distinguishes a missing user from a no-match on a filtered
// update. Writes the response and returns false when the user is absent
// or the lookup fails.
func (h *Handler) userExists(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) bool {
	if _, err := h.Users.GetByID(r.Context(), userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, respond.NotFound, "User not Found")
			return false
		}
		h.Log.Error("user lookup failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not load user")
		return false
	}
	return true
}

func (h *Handler) respondWithUser(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID, status int) {
	user, err := h.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, respond.NotFound, "User not Found")
			return
		}
		h.Log.Error("user reload failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not load user")
		return
	}
	respond.Data(w, status, user)
}
