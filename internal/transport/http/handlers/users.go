package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
	"github.com/bouramah/GovTrack-sub006/internal/repository"
	"github.com/bouramah/GovTrack-sub006/internal/transport/http/middleware"
	"github.com/bouramah/GovTrack-sub006/internal/usecase"
)

// UserHandler serves account administration.
type UserHandler struct {
	users *usecase.UserService
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(users *usecase.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterRoutes attaches the user endpoints to the group.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Create)
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.POST("/:id/disable", h.Disable)
	r.POST("/:id/roles", h.AssignRoles)
	r.DELETE("/:id/roles", h.RevokeRoles)
}

// Create godoc
// @Summary Provision an account
// @Tags Users
// @Accept json
// @Produce json
// @Param request body UserCreateRequest true "User create request"
// @Success 201 {object} UserPayload
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid user payload"))
		return
	}

	input := usecase.CreateUserInput{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		FullName: req.FullName,
		EntityID: req.EntityID,
		RoleIDs:  req.RoleIDs,
	}

	user, err := h.users.Create(c.Request.Context(), middleware.ActorID(c), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrUserExists, Status: http.StatusConflict, Message: "username already taken"},
			{Err: repository.ErrNotFound, Status: http.StatusBadRequest, Message: "referenced role not found"},
		}, http.StatusInternalServerError, "failed to create user")
		return
	}

	c.JSON(http.StatusCreated, NewUserPayload(*user))
}

// List godoc
// @Summary List accounts
// @Tags Users
// @Produce json
// @Param status query string false "Account status filter"
// @Param search query string false "Username, email, or name search"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} UserPayload
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := port.UserFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}

	users, err := h.users.List(c.Request.Context(), middleware.ActorID(c), filter)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
		}, http.StatusInternalServerError, "failed to list users")
		return
	}

	payloads := make([]UserPayload, 0, len(users))
	for _, user := range users {
		payloads = append(payloads, NewUserPayload(user))
	}
	c.JSON(http.StatusOK, payloads)
}

// Get godoc
// @Summary Fetch one account
// @Tags Users
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} UserPayload
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, NewUserPayload(*user))
}

// Disable godoc
// @Summary Disable an account
// @Description Accounts referenced by history are disabled rather than deleted.
// @Tags Users
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/users/{id}/disable [post]
func (h *UserHandler) Disable(c *gin.Context) {
	err := h.users.Disable(c.Request.Context(), middleware.ActorID(c), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to disable user")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user disabled"})
}

// AssignRoles godoc
// @Summary Grant roles to an account
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Param request body RoleIDsRequest true "Role ids to grant"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/users/{id}/roles [post]
func (h *UserHandler) AssignRoles(c *gin.Context) {
	var req RoleIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid roles payload"))
		return
	}

	err := h.users.AssignRoles(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req.RoleIDs)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "user or role not found"},
		}, http.StatusInternalServerError, "failed to assign roles")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "roles assigned"})
}

// RevokeRoles godoc
// @Summary Revoke roles from an account
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User id"
// @Param request body RoleIDsRequest true "Role ids to revoke"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/users/{id}/roles [delete]
func (h *UserHandler) RevokeRoles(c *gin.Context) {
	var req RoleIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid roles payload"))
		return
	}

	err := h.users.RevokeRoles(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req.RoleIDs)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "user or role not found"},
		}, http.StatusInternalServerError, "failed to revoke roles")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "roles revoked"})
}
