package qualification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadscore_backend/platform/httpkit"
)

const msgInvalidLeadID = "invalid lead id"

// Handler handles HTTP requests for lead qualification.
type Handler struct {
	svc *Service
}

// NewHandler creates a qualification handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Submit stores and qualifies a form submission.
// POST /api/v1/leads
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitLeadRequest
	if !httpkit.BindJSON(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), identity.OrganizationID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Qualify rescores a stored lead.
// POST /api/v1/leads/:id/qualify
func (h *Handler) Qualify(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Qualify(c.Request.Context(), identity.OrganizationID(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// History lists a lead's scoring events.
// GET /api/v1/leads/:id/score-history
func (h *Handler) History(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidLeadID, nil)
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	items, err := h.svc.History(c.Request.Context(), identity.OrganizationID(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, HistoryResponse{Items: items})
}
