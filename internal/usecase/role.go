package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
	"github.com/bouramah/GovTrack-sub006/internal/repository"
)

// ErrRoleExists indicates a role with the provided name already exists.
var ErrRoleExists = errors.New("role already exists")

// CreateRoleInput captures the payload for creating a role.
type CreateRoleInput struct {
	Name          string
	Description   *string
	PermissionIDs []string
}

// RoleService manages the role and permission catalog.
type RoleService struct {
	roles       port.RoleRepository
	permissions port.PermissionRepository
	authz       *AuthzService
	audit       *AuditRecorder
	logger      *zap.Logger
}

// NewRoleService constructs a RoleService.
func NewRoleService(
	roles port.RoleRepository,
	permissions port.PermissionRepository,
	authz *AuthzService,
	audit *AuditRecorder,
	logger *zap.Logger,
) *RoleService {
	return &RoleService{
		roles:       roles,
		permissions: permissions,
		authz:       authz,
		audit:       audit,
		logger:      logger,
	}
}

// Create adds a role, optionally seeding its permission set.
func (s *RoleService) Create(ctx context.Context, actorID string, input CreateRoleInput) (*domain.Role, error) {
	if !s.authz.Authorize(ctx, actorID, domain.PermManageRoles) {
		return nil, domain.ErrForbidden
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("role name is required")
	}

	if _, err := s.roles.GetByName(ctx, name); err == nil {
		return nil, ErrRoleExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup role by name: %w", err)
	}

	role := domain.Role{
		ID:          uuid.NewString(),
		Name:        name,
		Description: input.Description,
	}

	if err := s.roles.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}

	if len(input.PermissionIDs) > 0 {
		if _, err := s.roles.AssignPermissions(ctx, role.ID, input.PermissionIDs); err != nil {
			return nil, fmt.Errorf("seed role permissions: %w", err)
		}
	}

	s.audit.RecordAction(ctx, "role.created", "roles", role.ID, actorID, map[string]any{
		"name": role.Name,
	})

	s.logger.Info("role created",
		zap.String("role_id", role.ID),
		zap.String("name", role.Name),
	)

	return &role, nil
}

// Get fetches one role with its permission set.
func (s *RoleService) Get(ctx context.Context, id string) (*domain.Role, []domain.Permission, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get role: %w", err)
	}

	perms, err := s.permissions.ListByRole(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list role permissions: %w", err)
	}

	return role, perms, nil
}

// List returns every role.
func (s *RoleService) List(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// GrantPermissions attaches permissions to the role. Already attached
// permissions are skipped.
func (s *RoleService) GrantPermissions(ctx context.Context, actorID, roleID string, permissionIDs []string) (int, error) {
	if !s.authz.Authorize(ctx, actorID, domain.PermManageRoles) {
		return 0, domain.ErrForbidden
	}

	if _, err := s.roles.GetByID(ctx, roleID); err != nil {
		return 0, fmt.Errorf("get role: %w", err)
	}

	added, err := s.roles.AssignPermissions(ctx, roleID, permissionIDs)
	if err != nil {
		return 0, fmt.Errorf("assign permissions: %w", err)
	}

	s.audit.RecordAction(ctx, "role.permissions_granted", "roles", roleID, actorID, map[string]any{
		"added": added,
	})

	return added, nil
}

// RevokePermissions detaches permissions from the role.
func (s *RoleService) RevokePermissions(ctx context.Context, actorID, roleID string, permissionIDs []string) (int, error) {
	if !s.authz.Authorize(ctx, actorID, domain.PermManageRoles) {
		return 0, domain.ErrForbidden
	}

	removed, err := s.roles.RevokePermissions(ctx, roleID, permissionIDs)
	if err != nil {
		return 0, fmt.Errorf("revoke permissions: %w", err)
	}

	s.audit.RecordAction(ctx, "role.permissions_revoked", "roles", roleID, actorID, map[string]any{
		"removed": removed,
	})

	return removed, nil
}

// ListPermissions returns the full permission catalog.
func (s *RoleService) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	perms, err := s.permissions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return perms, nil
}

// CreatePermission adds a named capability to the catalog.
func (s *RoleService) CreatePermission(ctx context.Context, actorID, name string, description *string) (*domain.Permission, error) {
	if !s.authz.Authorize(ctx, actorID, domain.PermManageRoles) {
		return nil, domain.ErrForbidden
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, fmt.Errorf("permission name is required")
	}

	if _, err := s.permissions.GetByName(ctx, trimmed); err == nil {
		return nil, domain.ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup permission by name: %w", err)
	}

	permission := domain.Permission{
		ID:          uuid.NewString(),
		Name:        trimmed,
		Description: description,
	}

	if err := s.permissions.Create(ctx, permission); err != nil {
		return nil, fmt.Errorf("create permission: %w", err)
	}

	return &permission, nil
}
