package register

import (
	"errors"
	"net/http"

	rolestore "github.com/coderhub/coderhub/internal/app/store/roles"
	userstore "github.com/coderhub/coderhub/internal/app/store/users"
	"github.com/coderhub/coderhub/internal/app/system/inputval"
	"github.com/coderhub/coderhub/internal/app/system/respond"
	"github.com/coderhub/coderhub/internal/app/system/seed"
	"github.com/coderhub/coderhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler is the feature-level handler for self-registration.
type Handler struct {
	DB    *mongo.Database
	Log   *zap.Logger
	Users *userstore.Store
	Roles *rolestore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Log:   logger,
		Users: userstore.New(db),
		Roles: rolestore.New(db),
	}
}

var registerSchema = inputval.Schema{Fields: []inputval.Field{
	{Name: "name", Type: inputval.String, Required: true, MaxLen: 100},
	{Name: "lastname", Type: inputval.String, Required: true, MaxLen: 100},
	{Name: "email", Type: inputval.String, Required: true, Email: true, MaxLen: 254},
	{Name: "password", Type: inputval.String, Required: true, MinLen: 8, MaxLen: 72},
}}

// HandleCreate handles POST /register. New accounts start inactive with
// the permission set copied from the "user" role template.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := inputval.DecodeBody(r)
	if err != nil {
		respond.Error(w, respond.Validation, err.Error())
		return
	}
	input, err := registerSchema.Validate(payload)
	if err != nil {
		respond.Error(w, respond.Validation, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input["password"].(string)), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("password hash failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not register user")
		return
	}

	role, err := h.Roles.GetByName(r.Context(), seed.RoleUser)
	if err != nil {
		h.Log.Error("user role template missing", zap.Error(err))
		respond.Error(w, respond.Internal, "could not register user")
		return
	}

	user := models.User{
		Name:              input["name"].(string),
		Lastname:          input["lastname"].(string),
		Email:             input["email"].(string),
		Password:          string(hash),
		VerificationToken: uuid.NewString(),
		IsActive:          false,
		RegistrationStep:  1,
		Permissions:       role.Permissions,
	}

	created, err := h.Users.Create(r.Context(), user)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			respond.Error(w, respond.Validation, "The email is already registered")
			return
		}
		h.Log.Error("user insert failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not register user")
		return
	}

	h.Log.Info("user registered", zap.String("user_id", created.ID.Hex()))
	respond.Data(w, http.StatusCreated, created)
}
