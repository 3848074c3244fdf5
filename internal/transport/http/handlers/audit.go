package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
	"github.com/bouramah/GovTrack-sub006/internal/transport/http/middleware"
	"github.com/bouramah/GovTrack-sub006/internal/usecase"
)

// AuditHandler serves read access to the append-only audit trail.
type AuditHandler struct {
	audit *usecase.AuditRecorder
	authz *usecase.AuthzService
}

// NewAuditHandler builds an AuditHandler.
func NewAuditHandler(audit *usecase.AuditRecorder, authz *usecase.AuthzService) *AuditHandler {
	return &AuditHandler{audit: audit, authz: authz}
}

// RegisterRoutes attaches the audit endpoints to the group.
func (h *AuditHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
}

// List godoc
// @Summary List audit entries
// @Description Lists the append-only audit trail, newest first. Requires user administration rights.
// @Tags Audit
// @Produce json
// @Param actor_id query string false "Filter by acting user"
// @Param record_type query string false "Filter by record type"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} AuditEntryPayload
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	actorID := middleware.ActorID(c)
	if !h.authz.Authorize(c.Request.Context(), actorID, domain.PermManageUsers) {
		c.JSON(http.StatusForbidden, NewErrorResponse(c, "insufficient permissions"))
		return
	}

	filter := port.AuditFilter{
		ActorID:    c.Query("actor_id"),
		RecordType: c.Query("record_type"),
		Limit:      queryInt(c, "limit", 50),
		Offset:     queryInt(c, "offset", 0),
	}

	entries, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to list audit entries")
		return
	}

	payloads := make([]AuditEntryPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, AuditEntryPayload{
			ID:           entry.ID,
			Action:       string(entry.Action),
			ActionName:   entry.ActionName,
			TableName:    entry.TableName,
			RecordID:     entry.RecordID,
			RecordType:   entry.RecordType,
			ActorID:      entry.ActorID,
			HumanSummary: entry.HumanSummary,
			Metadata:     entry.Metadata,
			CreatedAt:    entry.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, payloads)
}
