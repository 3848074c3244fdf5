package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/repository"
	"github.com/bouramah/GovTrack-sub006/internal/transport/http/middleware"
	"github.com/bouramah/GovTrack-sub006/internal/usecase"
)

// EntityHandler serves the organizational hierarchy and its chief
// appointments.
type EntityHandler struct {
	entities *usecase.EntityService
}

// NewEntityHandler builds an EntityHandler.
func NewEntityHandler(entities *usecase.EntityService) *EntityHandler {
	return &EntityHandler{entities: entities}
}

// RegisterRoutes attaches the entity endpoints to the group.
func (h *EntityHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Create)
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.GET("/:id/chief", h.CurrentChief)
	r.POST("/:id/chief", h.AssignChief)
}

// Create godoc
// @Summary Create an organizational unit
// @Tags Entities
// @Accept json
// @Produce json
// @Param request body EntityCreateRequest true "Entity create request"
// @Success 201 {object} EntityPayload
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/entities [post]
func (h *EntityHandler) Create(c *gin.Context) {
	var req EntityCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid entity payload"))
		return
	}

	input := usecase.CreateEntityInput{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		ParentID:    req.ParentID,
	}

	entity, err := h.entities.Create(c.Request.Context(), middleware.ActorID(c), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusBadRequest, Message: "parent entity not found"},
		}, http.StatusInternalServerError, "failed to create entity")
		return
	}

	c.JSON(http.StatusCreated, NewEntityPayload(*entity))
}

// List godoc
// @Summary List all organizational units
// @Tags Entities
// @Produce json
// @Success 200 {array} EntityPayload
// @Router /api/v1/entities [get]
func (h *EntityHandler) List(c *gin.Context) {
	entities, err := h.entities.List(c.Request.Context())
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to list entities")
		return
	}

	payloads := make([]EntityPayload, 0, len(entities))
	for _, entity := range entities {
		payloads = append(payloads, NewEntityPayload(entity))
	}
	c.JSON(http.StatusOK, payloads)
}

// Get godoc
// @Summary Fetch one organizational unit
// @Tags Entities
// @Produce json
// @Param id path string true "Entity id"
// @Success 200 {object} EntityPayload
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/entities/{id} [get]
func (h *EntityHandler) Get(c *gin.Context) {
	entity, err := h.entities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "entity not found"},
		}, http.StatusInternalServerError, "failed to fetch entity")
		return
	}

	c.JSON(http.StatusOK, NewEntityPayload(*entity))
}

// CurrentChief godoc
// @Summary Fetch the current chief of an entity
// @Tags Entities
// @Produce json
// @Param id path string true "Entity id"
// @Success 200 {object} LeadershipPayload
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/entities/{id}/chief [get]
func (h *EntityHandler) CurrentChief(c *gin.Context) {
	leadership, err := h.entities.CurrentChief(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "entity has no current chief"},
		}, http.StatusInternalServerError, "failed to fetch current chief")
		return
	}

	c.JSON(http.StatusOK, newLeadershipPayload(*leadership))
}

// AssignChief godoc
// @Summary Appoint a chief for an entity
// @Description Ends the previous appointment and starts a new dated one.
// @Tags Entities
// @Accept json
// @Produce json
// @Param id path string true "Entity id"
// @Param request body ChiefAssignRequest true "Chief assignment request"
// @Success 201 {object} LeadershipPayload
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/entities/{id}/chief [post]
func (h *EntityHandler) AssignChief(c *gin.Context) {
	var req ChiefAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid chief payload"))
		return
	}

	leadership, err := h.entities.AssignChief(c.Request.Context(), middleware.ActorID(c), c.Param("id"), strings.TrimSpace(req.UserID))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "entity or user not found"},
		}, http.StatusInternalServerError, "failed to assign chief")
		return
	}

	c.JSON(http.StatusCreated, newLeadershipPayload(*leadership))
}

func newLeadershipPayload(l domain.EntityLeadership) LeadershipPayload {
	return LeadershipPayload{
		ID:        l.ID,
		EntityID:  l.EntityID,
		UserID:    l.UserID,
		StartDate: l.StartDate,
		EndDate:   l.EndDate,
	}
}
