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

// RoleCreateRequest defines the payload for creating a role.
type RoleCreateRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   *string  `json:"description"`
	PermissionIDs []string `json:"permission_ids"`
}

// RolePayload describes a role returned by the API.
type RolePayload struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// PermissionPayload describes a permission returned by the API.
type PermissionPayload struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// PermissionCreateRequest defines the payload for creating a permission.
type PermissionCreateRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// PermissionIDsRequest carries a set of permission ids.
type PermissionIDsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

// RoleDetailResponse wraps a role and its permission set.
type RoleDetailResponse struct {
	Role        RolePayload         `json:"role"`
	Permissions []PermissionPayload `json:"permissions"`
}

// RoleHandler serves the role and permission catalog.
type RoleHandler struct {
	roles *usecase.RoleService
}

// NewRoleHandler builds a RoleHandler.
func NewRoleHandler(roles *usecase.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

// RegisterRoutes attaches the role endpoints to the group.
func (h *RoleHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Create)
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.POST("/:id/permissions", h.GrantPermissions)
	r.DELETE("/:id/permissions", h.RevokePermissions)
}

// Create godoc
// @Summary Create a role
// @Tags Roles
// @Accept json
// @Produce json
// @Param request body RoleCreateRequest true "Role create request"
// @Success 201 {object} RolePayload
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/roles [post]
func (h *RoleHandler) Create(c *gin.Context) {
	var req RoleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid role payload"))
		return
	}

	input := usecase.CreateRoleInput{
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		PermissionIDs: req.PermissionIDs,
	}

	role, err := h.roles.Create(c.Request.Context(), middleware.ActorID(c), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrRoleExists, Status: http.StatusConflict, Message: "role already exists"},
		}, http.StatusInternalServerError, "failed to create role")
		return
	}

	c.JSON(http.StatusCreated, newRolePayload(*role))
}

// List godoc
// @Summary List roles
// @Tags Roles
// @Produce json
// @Success 200 {array} RolePayload
// @Router /api/v1/roles [get]
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.roles.List(c.Request.Context())
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to list roles")
		return
	}

	payloads := make([]RolePayload, 0, len(roles))
	for _, role := range roles {
		payloads = append(payloads, newRolePayload(role))
	}
	c.JSON(http.StatusOK, payloads)
}

// Get godoc
// @Summary Fetch one role with its permissions
// @Tags Roles
// @Produce json
// @Param id path string true "Role id"
// @Success 200 {object} RoleDetailResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/roles/{id} [get]
func (h *RoleHandler) Get(c *gin.Context) {
	role, perms, err := h.roles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "role not found"},
		}, http.StatusInternalServerError, "failed to fetch role")
		return
	}

	payloads := make([]PermissionPayload, 0, len(perms))
	for _, perm := range perms {
		payloads = append(payloads, PermissionPayload{ID: perm.ID, Name: perm.Name, Description: perm.Description})
	}

	c.JSON(http.StatusOK, RoleDetailResponse{
		Role:        newRolePayload(*role),
		Permissions: payloads,
	})
}

// GrantPermissions godoc
// @Summary Attach permissions to a role
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path string true "Role id"
// @Param request body PermissionIDsRequest true "Permission ids to attach"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/roles/{id}/permissions [post]
func (h *RoleHandler) GrantPermissions(c *gin.Context) {
	var req PermissionIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid permissions payload"))
		return
	}

	_, err := h.roles.GrantPermissions(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req.PermissionIDs)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "role not found"},
		}, http.StatusInternalServerError, "failed to grant permissions")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "permissions granted"})
}

// RevokePermissions godoc
// @Summary Detach permissions from a role
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path string true "Role id"
// @Param request body PermissionIDsRequest true "Permission ids to detach"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/roles/{id}/permissions [delete]
func (h *RoleHandler) RevokePermissions(c *gin.Context) {
	var req PermissionIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid permissions payload"))
		return
	}

	_, err := h.roles.RevokePermissions(c.Request.Context(), middleware.ActorID(c), c.Param("id"), req.PermissionIDs)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
		}, http.StatusInternalServerError, "failed to revoke permissions")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "permissions revoked"})
}

// ListPermissions godoc
// @Summary List the permission catalog
// @Tags Roles
// @Produce json
// @Success 200 {array} PermissionPayload
// @Router /api/v1/permissions [get]
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, err := h.roles.ListPermissions(c.Request.Context())
	if err != nil {
		RespondWithMappedError(c, err, nil, http.StatusInternalServerError, "failed to list permissions")
		return
	}

	payloads := make([]PermissionPayload, 0, len(perms))
	for _, perm := range perms {
		payloads = append(payloads, PermissionPayload{ID: perm.ID, Name: perm.Name, Description: perm.Description})
	}
	c.JSON(http.StatusOK, payloads)
}

// CreatePermission godoc
// @Summary Add a permission to the catalog
// @Tags Roles
// @Accept json
// @Produce json
// @Param request body PermissionCreateRequest true "Permission create request"
// @Success 201 {object} PermissionPayload
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/permissions [post]
func (h *RoleHandler) CreatePermission(c *gin.Context) {
	var req PermissionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid permission payload"))
		return
	}

	permission, err := h.roles.CreatePermission(c.Request.Context(), middleware.ActorID(c), req.Name, req.Description)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: domain.ErrConflict, Status: http.StatusConflict, Message: "permission already exists"},
		}, http.StatusInternalServerError, "failed to create permission")
		return
	}

	c.JSON(http.StatusCreated, PermissionPayload{ID: permission.ID, Name: permission.Name, Description: permission.Description})
}

func newRolePayload(role domain.Role) RolePayload {
	return RolePayload{ID: role.ID, Name: role.Name, Description: role.Description}
}
