package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/repository"
	"github.com/bouramah/GovTrack-sub006/internal/transport/http/middleware"
	"github.com/bouramah/GovTrack-sub006/internal/usecase"
)

// AssignmentHandler serves direct operations on assignment records.
type AssignmentHandler struct {
	assignments *usecase.AssignmentService
}

// NewAssignmentHandler builds an AssignmentHandler.
func NewAssignmentHandler(assignments *usecase.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// RegisterRoutes attaches the assignment endpoints to the group.
func (h *AssignmentHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.DELETE("/:id", h.Revoke)
}

// Revoke godoc
// @Summary End an assignment
// @Description Dates the assignment's end rather than deleting it, keeping the historical record.
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment id"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/assignments/{id} [delete]
func (h *AssignmentHandler) Revoke(c *gin.Context) {
	err := h.assignments.Revoke(c.Request.Context(), middleware.ActorID(c), c.Param("id"), time.Now().UTC())
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "assignment not found"},
		}, http.StatusInternalServerError, "failed to revoke assignment")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "assignment ended"})
}
