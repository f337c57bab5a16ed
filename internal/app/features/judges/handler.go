package judges

import (
	"net/http"

	judgestore "github.com/coderhub/coderhub/internal/app/store/judges"
	"github.com/coderhub/coderhub/internal/app/system/respond"
	"github.com/coderhub/coderhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level handler for the judge catalog.
type Handler struct {
	DB     *mongo.Database
	Log    *zap.Logger
	Judges *judgestore.Store
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		Judges: judgestore.New(db),
	}
}

// HandleList handles GET /v1/judges.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Judges.List(r.Context())
	if err != nil {
		h.Log.Error("judge list failed", zap.Error(err))
		respond.Error(w, respond.Internal, "could not list judges")
		return
	}
	if list == nil {
		list = []models.Judge{}
	}
	respond.Data(w, http.StatusOK, list)
}
