package hubs

import (
	"errors"
	"net/http"

	hubstore "github.com/coderhub/coderhub/internal/app/store/hubs"
	userstore "github.com/coderhub/coderhub/internal/app/store/users"
	"github.com/coderhub/coderhub/internal/app/system/inputval"
	"github.com/coderhub/coderhub/internal/app/system/respond"
	"github.com/coderhub/coderhub/internal/app/system/uniquekey"
	"github.com/coderhub/coderhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for Hubs.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Hubs     *hubstore.Store
	Users    *userstore.Store
	sanitize *bluemonday.Policy
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Hubs:     hubstore.New(db),
		Users:    userstore.New(db),
		sanitize: bluemonday.StrictPolicy(),
	}
}

// Create requires the full contact sheet; update accepts any subset of
// the same fields, with the format constraints still enforced.
var hubCreateSchema = inputval.Schema{Fields: []inputval.Field{
	{Name: "name", Type: inputval.String, Required: true, MaxLen: 150},
	{Name: "description", Type: inputval.String, Required: true, MaxLen: 2000},
	{Name: "institution", Type: inputval.String, Required: true, MaxLen: 150},
	{Name: "phone", Type: inputval.String, Required: true, Len: 10},
	{Name: "contact", Type: inputval.String, Required: true, Email: true, MaxLen: 254},
	{Name: "address", Type: inputval.String, Required: true, MaxLen: 300},
	{Name: "zip_code", Type: inputval.String, Required: true, Len: 5},
	{Name: "state", Type: inputval.String, Required: true, MaxLen: 100},
	{Name: "country", Type: inputval.String, Required: true, MaxLen: 100},
}}

var hubUpdateSchema = inputval.Schema{Fields: []inputval.Field{
	{Name: "name", Type: inputval.String, MaxLen: 150},
	{Name: "description", Type: inputval.String, MaxLen: 2000},
	{Name: "institution", Type: inputval.String, MaxLen: 150},
	{Name: "phone", Type: inputval.String, Len: 10},
	{Name: "contact", Type: inputval.String, Email: true, MaxLen: 254},
	{Name: "address", Type: inputval.String, MaxLen: 300},
	{Name: "zip_code", Type: inputval.String, Len: 5},
	{Name: "state", Type: inputval.String, MaxLen: 100},
	{Name: "country", Type: inputval.String, MaxLen: 100},
}}

// HandleList handles GET /v1/hubs.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Hubs.List(r.Context())
	if err != nil {
		h.Log.Error("hub list failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not list hubs")
		return
	}
	if list == nil {
		list = []models.Hub{}
	}
	respond.Data(w, http.StatusOK, list)
}

// HandleCreate handles POST /v1/hubs. The unique key is derived from the
// normalized name, so two names differing only in case or spacing
// collide.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	input, ok := h.validatedHubInput(w, r, hubCreateSchema)
	if !ok {
		return
	}

	hub := h.hubFromInput(input)
	hub.UniqueKey = uniquekey.Derive(hub.Name)

	if _, err := h.Hubs.GetByUniqueKey(r.Context(), hub.UniqueKey); err == nil {
		respond.Error(w, respond.Validation, "The hub is already registered")
		return
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		h.Log.Error("hub key lookup failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not create hub")
		return
	}

	created, err := h.Hubs.Create(r.Context(), hub)
	if err != nil {
		if errors.Is(err, hubstore.ErrDuplicateKey) {
			respond.Error(w, respond.Validation, "The hub is already registered")
			return
		}
		h.Log.Error("hub insert failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not create hub")
		return
	}

	h.Log.Info("hub created", zap.String("hub_id", created.ID.Hex()))
	respond.Data(w, http.StatusCreated, created)
}

// HandleUpdate handles PUT /v1/hubs/{hub_id}. Only the fields present
// in the payload change. A name change re-derives the unique key and
// re-checks the collision, excluding the hub itself.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	hubID, ok := h.pathHubID(w, r)
	if !ok {
		return
	}
	input, ok := h.validatedHubInput(w, r, hubUpdateSchema)
	if !ok {
		return
	}

	existing, err := h.Hubs.GetByID(r.Context(), hubID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, respond.NotFound, "Hub not Found")
			return
		}
		h.Log.Error("hub lookup failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not update hub")
		return
	}

	hub := *existing
	h.applyInput(&hub, input)

	if hub.Name != existing.Name {
		hub.UniqueKey = uniquekey.Derive(hub.Name)
		other, err := h.Hubs.GetByUniqueKey(r.Context(), hub.UniqueKey)
		if err == nil && other.ID != hub.ID {
			respond.Error(w, respond.Validation, "The hub is already registered")
			return
		}
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			h.Log.Error("hub key lookup failed", zap.Error(err))
			respond.Error(w, respond.Internal, "could not update hub")
			return
		}
	}

	updated, err := h.Hubs.Update(r.Context(), hub)
	if err != nil {
		if errors.Is(err, hubstore.ErrDuplicateKey) {
			respond.Error(w, respond.Validation, "The hub is already registered")
			return
		}
		h.Log.Error("hub update failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not update hub")
		return
	}

	respond.Data(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /v1/hubs/{hub_id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	hubID, ok := h.pathHubID(w, r)
	if !ok {
		return
	}

	deleted, err := h.Hubs.Delete(r.Context(), hubID)
	if err != nil {
		h.Log.Error("hub delete failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not delete hub")
		return
	}
	if deleted == 0 {
		respond.Error(w, respond.NotFound, "Hub not Found")
		return
	}

	h.Log.Info("hub deleted", zap.String("hub_id", hubID.Hex()))
	respond.Data(w, http.StatusNoContent, nil)
}

// HandleListUsers handles GET /v1/hubs/{hub_id}/users.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	hubID, ok := h.pathHubID(w, r)
	if !ok {
		return
	}

	if _, err := h.Hubs.GetByID(r.Context(), hubID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, respond.NotFound, "Hub not Found")
			return
		}
		h.Log.Error("hub lookup failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not list hub users")
		return
	}

	list, err := h.Users.ListByHub(r.Context(), hubID)
	if err != nil {
		h.Log.Error("hub user list failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not list hub users")
		return
	}
	if list == nil {
		list = []models.User{}
	}
	respond.Data(w, http.StatusOK, list)
}

func (h *Handler) pathHubID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	params := map[string]any{"hub_id": chi.URLParam(r, "hub_id")}
	if err := inputval.ValidateIDs(params, "hub_id"); err != nil {
		respond.Error(w, respond.Validation, err.Error())
		return primitive.NilObjectID, false
	}
	id, _ := primitive.ObjectIDFromHex(params["hub_id"].(string))
	return id, true
}

func (h *Handler) validatedHubInput(w http.ResponseWriter, r *http.Request, schema inputval.Schema) (map[string]any, bool) {
	payload, err := inputval.DecodeBody(r)
	if err != nil {
		respond.Error(w, respond.Validation, err.Error())
		return nil, false
	}
	input, err := schema.Validate(payload)
	if err != nil {
		respond.Error(w, respond.Validation, err.Error())
		return nil, false
	}
	return input, true
}

// hubFromInput builds a hub from validated create input, stripping any
// markup from the free-text fields.
func (h *Handler) hubFromInput(input map[string]any) models.Hub {
	var hub models.Hub
	h.applyInput(&hub, input)
	return hub
}

// applyInput overwrites hub fields present in the input, sanitizing
// each value. Empty strings count as absent.
func (h *Handler) applyInput(hub *models.Hub, input map[string]any) {
	apply := func(name string, dst *string) {
		if v, ok := input[name].(string); ok && v != "" {
			*dst = h.sanitize.Sanitize(v)
		}
	}
	apply("name", &hub.Name)
	apply("description", &hub.Description)
	apply("institution", &hub.Institution)
	apply("phone", &hub.Phone)
	apply("contact", &hub.Contact)
	apply("address", &hub.Address)
	apply("zip_code", &hub.ZipCode)
	apply("state", &hub.State)
	apply("country", &hub.Country)
}
