package outcomes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadscore_backend/platform/httpkit"
)

// Handler exposes the outcome endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Record handles POST /api/v1/leads/:id/outcomes
func (h *Handler) Record(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}
	var req RecordOutcomeRequest
	if !httpkit.BindJSON(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	outcome, err := h.svc.Record(c.Request.Context(), identity.OrganizationID(), leadID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, outcome)
}

// List handles GET /api/v1/leads/:id/outcomes
func (h *Handler) List(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	items, err := h.svc.List(c.Request.Context(), identity.OrganizationID(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"items": items})
}
