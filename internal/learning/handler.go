package learning

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/httpkit"
)

// Handler exposes the model endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a learning handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Train runs a training pass synchronously.
// POST /api/v1/admin/scoring-models/train
func (h *Handler) Train(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result := h.svc.Train(c.Request.Context(), identity.OrganizationID())
	switch result.Status {
	case StatusFailed:
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "training failed", result.Err))
	case StatusLocked:
		httpkit.JSON(c, http.StatusConflict, result)
	default:
		httpkit.OK(c, result)
	}
}

// List returns all model versions.
// GET /api/v1/scoring-models
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	models, err := h.svc.ListModels(c.Request.Context(), identity.OrganizationID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": models})
}

// Active returns the active model.
// GET /api/v1/scoring-models/active
func (h *Handler) Active(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	model, err := h.svc.ActiveModel(c.Request.Context(), identity.OrganizationID())
	if httpkit.HandleError(c, err) {
		return
	}
	if model == nil {
		httpkit.HandleError(c, apperr.NotFound("no scoring model trained yet"))
		return
	}
	httpkit.OK(c, model)
}

// Activate switches the active model version.
// POST /api/v1/admin/scoring-models/:version/activate
func (h *Handler) Activate(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid model version"))
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	model, err := h.svc.Activate(c.Request.Context(), identity.OrganizationID(), version)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, model)
}
