package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/repository"
	"github.com/bouramah/GovTrack-sub006/internal/transport/http/middleware"
	"github.com/bouramah/GovTrack-sub006/internal/usecase"
)

// InstructionHandler serves the instruction surface: CRUD, lifecycle,
// progress, bearers, and history.
type InstructionHandler struct {
	instructions *usecase.InstructionService
	lifecycle    *usecase.LifecycleService
	assignments  *usecase.AssignmentService
}

// NewInstructionHandler builds an InstructionHandler.
func NewInstructionHandler(
	instructions *usecase.InstructionService,
	lifecycle *usecase.LifecycleService,
	assignments *usecase.AssignmentService,
) *InstructionHandler {
	return &InstructionHandler{
		instructions: instructions,
		lifecycle:    lifecycle,
		assignments:  assignments,
	}
}

// RegisterRoutes attaches the instruction endpoints to the group.
func (h *InstructionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Create)
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.PATCH("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
	r.POST("/:id/restore", h.Restore)
	r.POST("/:id/status", h.ChangeStatus)
	r.POST("/:id/execution-level", h.ChangeExecutionLevel)
	r.GET("/:id/status-history", h.StatusHistory)
	r.GET("/:id/execution-level-history", h.ExecutionLevelHistory)
	r.POST("/:id/bearers", h.AssignBearer)
	r.GET("/:id/bearers", h.ListAssignments)
}

// Create godoc
// @Summary Create an instruction
// @Description Creates an instruction in the initial state and binds the initial bearers.
// @Tags Instructions
// @Accept json
// @Produce json
// @Param request body InstructionCreateRequest true "Instruction create request"
// @Success 201 {object} InstructionPayload
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/instructions [post]
func (h *InstructionHandler) Create(c *gin.Context) {
	var req InstructionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid instruction payload"))
		return
	}

	input := usecase.CreateInstructionInput{
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		OrderingUserID:   strings.TrimSpace(req.OrderingUserID),
		BearerUserIDs:    req.BearerUserIDs,
		PlannedStartDate: req.PlannedStartDate,
		PlannedEndDate:   req.PlannedEndDate,
	}

	instruction, err := h.instructions.Create(c.Request.Context(), middleware.ActorID(c), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusBadRequest, Message: "referenced user not found"},
		}, http.StatusInternalServerError, "failed to create instruction")
		return
	}

	c.JSON(http.StatusCreated, NewInstructionPayload(*instruction))
}

// List godoc
// @Summary List visible instructions
// @Description Lists instructions the actor may see under the resolved scope.
// @Tags Instructions
// @Produce json
// @Param status query string false "Lifecycle status filter"
// @Param search query string false "Title or description search"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} InstructionListResponse
// @Router /api/v1/instructions [get]
func (h *InstructionHandler) List(c *gin.Context) {
	input := usecase.ListInstructionsInput{
		Status: domain.Status(c.Query("status")),
		Search: c.Query("search"),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}

	result, err := h.instructions.List(c.Request.Context(), middleware.ActorID(c), input)
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to list instructions")
		return
	}

	payloads := make([]InstructionPayload, 0, len(result.Instructions))
	for _, instruction := range result.Instructions {
		payloads = append(payloads, NewInstructionPayload(instruction))
	}

	c.JSON(http.StatusOK, InstructionListResponse{
		Instructions: payloads,
		Total:        result.Total,
		Limit:        result.Limit,
		Offset:       result.Offset,
	})
}

// Get godoc
// @Summary Fetch one instruction
// @Tags Instructions
// @Produce json
// @Param id path string true "Instruction id"
// @Success 200 {object} InstructionPayload
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/instructions/{id} [get]
func (h *InstructionHandler) Get(c *gin.Context) {
	instruction, err := h.instructions.Get(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "instruction not visible"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "instruction not found"},
		}, http.StatusInternalServerError, "failed to fetch instruction")
		return
	}

	c.JSON(http.StatusOK, NewInstructionPayload(*instruction))
}

// Update godoc
// @Summary Update an instruction's descriptive fields
// @Tags Instructions
// @Accept json
// @Produce json
// @Param id path string true "Instruction id"
// @Param request body InstructionUpdateRequest true "Fields to update"
// @Success 200 {object} InstructionPayload
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/instructions/{id} [patch]
func (h *InstructionHandler) Update(c *gin.Context) {
	var req InstructionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid instruction payload"))
		return
	}

	input := usecase.UpdateInstructionInput{
		ID:               c.Param("id"),
		Title:            req.Title,
		Description:      req.Description,
		PlannedStartDate: req.PlannedStartDate,
		PlannedEndDate:   req.PlannedEndDate,
		ActualStartDate:  req.ActualStartDate,
		ActualEndDate:    req.ActualEndDate,
	}

	instruction, err := h.instructions.Update(c.Request.Context(), middleware.ActorID(c), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "instruction not found"},
		}, http.StatusInternalServerError, "failed to update instruction")
		return
	}

	c.JSON(http.StatusOK, NewInstructionPayload(*instruction))
}

// Delete godoc
// @Summary Soft-delete an instruction
// @Tags Instructions
// @Produce json
// @Param id path string true "Instruction id"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/instructions/{id} [delete]
func (h *InstructionHandler) Delete(c *gin.Context) {
	err := h.instructions.Delete(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "instruction not found"},
		}, http.StatusInternalServerError, "failed to delete instruction")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "instruction deleted"})
}

// Restore godoc
// @Summary Restore a soft-deleted instruction
// @Tags Instructions
// @Produce json
// @Param id path string true "Instruction id"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/instructions/{id}/restore [post]
func (h *InstructionHandler) Restore(c *gin.Context) {
	err := h.instructions.Restore(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "instruction not found"},
		}, http.StatusInternalServerError, "failed to restore instruction")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "instruction restored"})
}

// ChangeStatus godoc
// @Summary Apply a lifecycle transition
// @Description Moves the instruction along a valid lifecycle edge. Returns 409 when a concurrent writer changed the status first.
// @Tags Instructions
// @Accept json
// @Produce json
// @Param id path string true "Instruction id"
// @Param request body StatusChangeRequest true "Status change request"
// @Success 200 {object} StatusHistoryPayload
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/instructions/{id}/status [post]
func (h *InstructionHandler) ChangeStatus(c *gin.Context) {
	var req StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid status payload"))
		return
	}

	subject := usecase.SubjectRef{Type: domain.SubjectInstruction, ID: c.Param("id")}
	entry, err := h.lifecycle.Transition(c.Request.Context(), subject, domain.Status(req.NewStatus), middleware.ActorID(c), req.Comment)
	if err != nil {
		RespondWithMappedError(c, err, lifecycleErrorCases("instruction"), http.StatusInternalServerError, "failed to change status")
		return
	}

	c.JSON(http.StatusOK, newStatusHistoryPayload(*entry))
}

// ChangeExecutionLevel godoc
// @Summary Update the execution level
// @Description Records a progress change in [0,100]. Returns 409 when a concurrent writer changed the level first.
// @Tags Instructions
// @Accept json
// @Produce json
// @Param id path string true "Instruction id"
// @Param request body ExecutionLevelRequest true "Execution level request"
// @Success 200 {object} ExecutionLevelHistoryPayload
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/instructions/{id}/execution-level [post]
func (h *InstructionHandler) ChangeExecutionLevel(c *gin.Context) {
	var req ExecutionLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid execution level payload"))
		return
	}

	subject := usecase.SubjectRef{Type: domain.SubjectInstruction, ID: c.Param("id")}
	entry, err := h.lifecycle.UpdateExecutionLevel(c.Request.Context(), subject, req.NewLevel, middleware.ActorID(c), req.Comment)
	if err != nil {
		RespondWithMappedError(c, err, lifecycleErrorCases("instruction"), http.StatusInternalServerError, "failed to update execution level")
		return
	}

	c.JSON(http.StatusOK, newExecutionLevelHistoryPayload(*entry))
}

// StatusHistory godoc
// @Summary List the lifecycle history
// @Tags Instructions
// @Produce json
// @Param id path string true "Instruction id"
// @Success 200 {array} StatusHistoryPayload
// @Router /api/v1/instructions/{id}/status-history [get]
func (h *InstructionHandler) StatusHistory(c *gin.Context) {
	subject := usecase.SubjectRef{Type: domain.SubjectInstruction, ID: c.Param("id")}
	entries, err := h.lifecycle.StatusHistory(c.Request.Context(), subject)
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to list status history")
		return
	}

	payloads := make([]StatusHistoryPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, newStatusHistoryPayload(entry))
	}
	c.JSON(http.StatusOK, payloads)
}

// ExecutionLevelHistory godoc
// @Summary List the progress history
// @Tags Instructions
// @Produce json
// @Param id path string true "Instruction id"
// @Success 200 {array} ExecutionLevelHistoryPayload
// @Router /api/v1/instructions/{id}/execution-level-history [get]
func (h *InstructionHandler) ExecutionLevelHistory(c *gin.Context) {
	subject := usecase.SubjectRef{Type: domain.SubjectInstruction, ID: c.Param("id")}
	entries, err := h.lifecycle.ExecutionLevelHistory(c.Request.Context(), subject)
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to list execution level history")
		return
	}

	payloads := make([]ExecutionLevelHistoryPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, newExecutionLevelHistoryPayload(entry))
	}
	c.JSON(http.StatusOK, payloads)
}

// AssignBearer godoc
// @Summary Bind a bearer to the instruction
// @Tags Instructions
// @Accept json
// @Produce json
// @Param id path string true "Instruction id"
// @Param request body AssignRequest true "Assignment request"
// @Success 201 {object} AssignResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/instructions/{id}/bearers [post]
func (h *InstructionHandler) AssignBearer(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid assignment payload"))
		return
	}

	input := usecase.AssignInput{
		SubjectType: domain.SubjectInstruction,
		SubjectID:   c.Param("id"),
		UserID:      strings.TrimSpace(req.UserID),
		Role:        domain.RoleBearer,
	}

	assignmentID, err := h.assignments.Assign(c.Request.Context(), middleware.ActorID(c), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "instruction or user not found"},
			{Err: domain.ErrConflict, Status: http.StatusConflict, Message: "user already assigned"},
		}, http.StatusInternalServerError, "failed to assign bearer")
		return
	}

	c.JSON(http.StatusCreated, AssignResponse{AssignmentID: assignmentID})
}

// ListAssignments godoc
// @Summary List assignment history for the instruction
// @Tags Instructions
// @Produce json
// @Param id path string true "Instruction id"
// @Success 200 {array} AssignmentPayload
// @Router /api/v1/instructions/{id}/bearers [get]
func (h *InstructionHandler) ListAssignments(c *gin.Context) {
	assignments, err := h.assignments.History(c.Request.Context(), domain.SubjectInstruction, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to list assignments")
		return
	}

	payloads := make([]AssignmentPayload, 0, len(assignments))
	for _, assignment := range assignments {
		payloads = append(payloads, NewAssignmentPayload(assignment))
	}
	c.JSON(http.StatusOK, payloads)
}

// lifecycleErrorCases maps the shared lifecycle failures for instructions
// and tasks.
func lifecycleErrorCases(subject string) []ErrorCase {
	return []ErrorCase{
		{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "actor may not act on this " + subject},
		{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: subject + " not found"},
		{Err: domain.ErrInvalidTransition, Status: http.StatusUnprocessableEntity, Message: "invalid status transition"},
		{Err: domain.ErrInvalidExecutionLevel, Status: http.StatusUnprocessableEntity, Message: "execution level must be between 0 and 100"},
		{Err: domain.ErrConflict, Status: http.StatusConflict, Message: "concurrent modification, retry with fresh state"},
	}
}

func newStatusHistoryPayload(entry domain.StatusHistoryEntry) StatusHistoryPayload {
	return StatusHistoryPayload{
		ID:             entry.ID,
		ActorID:        entry.ActorID,
		PreviousStatus: string(entry.PreviousStatus),
		NewStatus:      string(entry.NewStatus),
		Comment:        entry.Comment,
		CreatedAt:      entry.CreatedAt,
	}
}

func newExecutionLevelHistoryPayload(entry domain.ExecutionLevelHistoryEntry) ExecutionLevelHistoryPayload {
	return ExecutionLevelHistoryPayload{
		ID:            entry.ID,
		ActorID:       entry.ActorID,
		PreviousLevel: entry.PreviousLevel,
		NewLevel:      entry.NewLevel,
		Comment:       entry.Comment,
		CreatedAt:     entry.CreatedAt,
	}
}

// queryInt parses an integer query parameter with a fallback.
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
