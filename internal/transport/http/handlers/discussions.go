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

// DiscussionHandler serves threaded messages on instructions and tasks.
type DiscussionHandler struct {
	discussions *usecase.DiscussionService
}

// NewDiscussionHandler builds a DiscussionHandler.
func NewDiscussionHandler(discussions *usecase.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{discussions: discussions}
}

// PostOnInstruction godoc
// @Summary Post a message on an instruction
// @Tags Discussions
// @Accept json
// @Produce json
// @Param id path string true "Instruction id"
// @Param request body DiscussionCreateRequest true "Message payload"
// @Success 201 {object} DiscussionPayload
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/instructions/{id}/discussions [post]
func (h *DiscussionHandler) PostOnInstruction(c *gin.Context) {
	h.post(c, domain.SubjectInstruction)
}

// PostOnTask godoc
// @Summary Post a message on a task
// @Tags Discussions
// @Accept json
// @Produce json
// @Param id path string true "Task id"
// @Param request body DiscussionCreateRequest true "Message payload"
// @Success 201 {object} DiscussionPayload
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/tasks/{id}/discussions [post]
func (h *DiscussionHandler) PostOnTask(c *gin.Context) {
	h.post(c, domain.SubjectTask)
}

func (h *DiscussionHandler) post(c *gin.Context, subjectType domain.SubjectType) {
	var req DiscussionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid message payload"))
		return
	}

	input := usecase.CreateDiscussionInput{
		SubjectType: subjectType,
		SubjectID:   c.Param("id"),
		ParentID:    req.ParentID,
		Body:        strings.TrimSpace(req.Body),
	}

	message, err := h.discussions.Create(c.Request.Context(), middleware.ActorID(c), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "subject or parent message not found"},
		}, http.StatusInternalServerError, "failed to post message")
		return
	}

	c.JSON(http.StatusCreated, newDiscussionPayload(*message))
}

// ListOnInstruction godoc
// @Summary List messages on an instruction
// @Tags Discussions
// @Produce json
// @Param id path string true "Instruction id"
// @Success 200 {array} DiscussionPayload
// @Router /api/v1/instructions/{id}/discussions [get]
func (h *DiscussionHandler) ListOnInstruction(c *gin.Context) {
	h.list(c, domain.SubjectInstruction)
}

// ListOnTask godoc
// @Summary List messages on a task
// @Tags Discussions
// @Produce json
// @Param id path string true "Task id"
// @Success 200 {array} DiscussionPayload
// @Router /api/v1/tasks/{id}/discussions [get]
func (h *DiscussionHandler) ListOnTask(c *gin.Context) {
	h.list(c, domain.SubjectTask)
}

func (h *DiscussionHandler) list(c *gin.Context, subjectType domain.SubjectType) {
	messages, err := h.discussions.ListBySubject(c.Request.Context(), subjectType, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to list messages")
		return
	}

	payloads := make([]DiscussionPayload, 0, len(messages))
	for _, message := range messages {
		payloads = append(payloads, newDiscussionPayload(message))
	}
	c.JSON(http.StatusOK, payloads)
}

func newDiscussionPayload(d domain.Discussion) DiscussionPayload {
	return DiscussionPayload{
		ID:        d.ID,
		AuthorID:  d.AuthorID,
		ParentID:  d.ParentID,
		Body:      d.Body,
		CreatedAt: d.CreatedAt,
	}
}
