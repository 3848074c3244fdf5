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

// TaskHandler serves the task surface under instructions.
type TaskHandler struct {
	tasks       *usecase.TaskService
	lifecycle   *usecase.LifecycleService
	assignments *usecase.AssignmentService
}

// NewTaskHandler builds a TaskHandler.
func NewTaskHandler(
	tasks *usecase.TaskService,
	lifecycle *usecase.LifecycleService,
	assignments *usecase.AssignmentService,
) *TaskHandler {
	return &TaskHandler{
		tasks:       tasks,
		lifecycle:   lifecycle,
		assignments: assignments,
	}
}

// RegisterRoutes attaches the task endpoints to the group.
func (h *TaskHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.PATCH("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
	r.POST("/:id/status", h.ChangeStatus)
	r.POST("/:id/execution-level", h.ChangeExecutionLevel)
	r.GET("/:id/status-history", h.StatusHistory)
	r.GET("/:id/execution-level-history", h.ExecutionLevelHistory)
	r.POST("/:id/responsibles", h.AssignResponsible)
	r.GET("/:id/responsibles", h.ListAssignments)
}

// CreateUnderInstruction godoc
// @Summary Create a task under an instruction
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Instruction id"
// @Param request body TaskCreateRequest true "Task create request"
// @Success 201 {object} TaskPayload
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/instructions/{id}/tasks [post]
func (h *TaskHandler) CreateUnderInstruction(c *gin.Context) {
	var req TaskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid task payload"))
		return
	}

	input := usecase.CreateTaskInput{
		InstructionID:      c.Param("id"),
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		ResponsibleUserIDs: req.ResponsibleUserIDs,
	}

	task, err := h.tasks.Create(c.Request.Context(), middleware.ActorID(c), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "instruction not found"},
		}, http.StatusInternalServerError, "failed to create task")
		return
	}

	c.JSON(http.StatusCreated, NewTaskPayload(*task))
}

// ListUnderInstruction godoc
// @Summary List tasks of an instruction
// @Tags Tasks
// @Produce json
// @Param id path string true "Instruction id"
// @Param status query string false "Lifecycle status filter"
// @Success 200 {array} TaskPayload
// @Router /api/v1/instructions/{id}/tasks [get]
func (h *TaskHandler) ListUnderInstruction(c *gin.Context) {
	input := usecase.ListTasksInput{
		InstructionID: c.Param("id"),
		Status:        domain.Status(c.Query("status")),
		Limit:         queryInt(c, "limit", 50),
		Offset:        queryInt(c, "offset", 0),
	}
	h.list(c, input)
}

// List godoc
// @Summary List visible tasks
// @Tags Tasks
// @Produce json
// @Param status query string false "Lifecycle status filter"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} TaskPayload
// @Router /api/v1/tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	input := usecase.ListTasksInput{
		Status: domain.Status(c.Query("status")),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	h.list(c, input)
}

func (h *TaskHandler) list(c *gin.Context, input usecase.ListTasksInput) {
	tasks, err := h.tasks.List(c.Request.Context(), middleware.ActorID(c), input)
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to list tasks")
		return
	}

	payloads := make([]TaskPayload, 0, len(tasks))
	for _, task := range tasks {
		payloads = append(payloads, NewTaskPayload(task))
	}
	c.JSON(http.StatusOK, payloads)
}

// Get godoc
// @Summary Fetch one task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task id"
// @Success 200 {object} TaskPayload
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "task not visible"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "task not found"},
		}, http.StatusInternalServerError, "failed to fetch task")
		return
	}

	c.JSON(http.StatusOK, NewTaskPayload(*task))
}

// Update godoc
// @Summary Update a task's descriptive fields
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task id"
// @Param request body TaskUpdateRequest true "Fields to update"
// @Success 200 {object} TaskPayload
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/tasks/{id} [patch]
func (h *TaskHandler) Update(c *gin.Context) {
	var req TaskUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid task payload"))
		return
	}

	input := usecase.UpdateTaskInput{
		ID:          c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
	}

	task, err := h.tasks.Update(c.Request.Context(), middleware.ActorID(c), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "task not found"},
		}, http.StatusInternalServerError, "failed to update task")
		return
	}

	c.JSON(http.StatusOK, NewTaskPayload(*task))
}

// Delete godoc
// @Summary Soft-delete a task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task id"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	err := h.tasks.Delete(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "task not found"},
		}, http.StatusInternalServerError, "failed to delete task")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "task deleted"})
}

// ChangeStatus godoc
// @Summary Apply a lifecycle transition to a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task id"
// @Param request body StatusChangeRequest true "Status change request"
// @Success 200 {object} StatusHistoryPayload
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/tasks/{id}/status [post]
func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	var req StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid status payload"))
		return
	}

	subject := usecase.SubjectRef{Type: domain.SubjectTask, ID: c.Param("id")}
	entry, err := h.lifecycle.Transition(c.Request.Context(), subject, domain.Status(req.NewStatus), middleware.ActorID(c), req.Comment)
	if err != nil {
		RespondWithMappedError(c, err, lifecycleErrorCases("task"), http.StatusInternalServerError, "failed to change status")
		return
	}

	c.JSON(http.StatusOK, newStatusHistoryPayload(*entry))
}

// ChangeExecutionLevel godoc
// @Summary Update a task's execution level
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task id"
// @Param request body ExecutionLevelRequest true "Execution level request"
// @Success 200 {object} ExecutionLevelHistoryPayload
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/tasks/{id}/execution-level [post]
func (h *TaskHandler) ChangeExecutionLevel(c *gin.Context) {
	var req ExecutionLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid execution level payload"))
		return
	}

	subject := usecase.SubjectRef{Type: domain.SubjectTask, ID: c.Param("id")}
	entry, err := h.lifecycle.UpdateExecutionLevel(c.Request.Context(), subject, req.NewLevel, middleware.ActorID(c), req.Comment)
	if err != nil {
		RespondWithMappedError(c, err, lifecycleErrorCases("task"), http.StatusInternalServerError, "failed to update execution level")
		return
	}

	c.JSON(http.StatusOK, newExecutionLevelHistoryPayload(*entry))
}

// StatusHistory godoc
// @Summary List a task's lifecycle history
// @Tags Tasks
// @Produce json
// @Param id path string true "Task id"
// @Success 200 {array} StatusHistoryPayload
// @Router /api/v1/tasks/{id}/status-history [get]
func (h *TaskHandler) StatusHistory(c *gin.Context) {
	subject := usecase.SubjectRef{Type: domain.SubjectTask, ID: c.Param("id")}
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
// @Summary List a task's progress history
// @Tags Tasks
// @Produce json
// @Param id path string true "Task id"
// @Success 200 {array} ExecutionLevelHistoryPayload
// @Router /api/v1/tasks/{id}/execution-level-history [get]
func (h *TaskHandler) ExecutionLevelHistory(c *gin.Context) {
	subject := usecase.SubjectRef{Type: domain.SubjectTask, ID: c.Param("id")}
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

// AssignResponsible godoc
// @Summary Bind a responsible to the task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task id"
// @Param request body AssignRequest true "Assignment request"
// @Success 201 {object} AssignResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/tasks/{id}/responsibles [post]
func (h *TaskHandler) AssignResponsible(c *gin.Context) {
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid assignment payload"))
		return
	}

	input := usecase.AssignInput{
		SubjectType: domain.SubjectTask,
		SubjectID:   c.Param("id"),
		UserID:      strings.TrimSpace(req.UserID),
		Role:        domain.RoleResponsible,
	}

	assignmentID, err := h.assignments.Assign(c.Request.Context(), middleware.ActorID(c), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "task or user not found"},
			{Err: domain.ErrConflict, Status: http.StatusConflict, Message: "user already assigned"},
		}, http.StatusInternalServerError, "failed to assign responsible")
		return
	}

	c.JSON(http.StatusCreated, AssignResponse{AssignmentID: assignmentID})
}

// ListAssignments godoc
// @Summary List assignment history for the task
// @Tags Tasks
// @Produce json
// @Param id path string true "Task id"
// @Success 200 {array} AssignmentPayload
// @Router /api/v1/tasks/{id}/responsibles [get]
func (h *TaskHandler) ListAssignments(c *gin.Context) {
	assignments, err := h.assignments.History(c.Request.Context(), domain.SubjectTask, c.Param("id"))
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
