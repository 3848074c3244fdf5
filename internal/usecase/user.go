package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
	"github.com/bouramah/GovTrack-sub006/internal/repository"
)

// ErrUserExists indicates a user with the provided username already exists.
var ErrUserExists = errors.New("user already exists")

// CreateUserInput captures the payload for provisioning an account.
type CreateUserInput struct {
	Username string
	Email    string
	FullName *string
	EntityID *string
	RoleIDs  []string
}

// UserService manages accounts. Accounts are created by administrators and
// disabled rather than deleted while referenced by history.
type UserService struct {
	users  port.UserRepository
	roles  port.RoleRepository
	authz  *AuthzService
	audit  *AuditRecorder
	logger *zap.Logger
	now    func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(
	users port.UserRepository,
	roles port.RoleRepository,
	authz *AuthzService,
	audit *AuditRecorder,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:  users,
		roles:  roles,
		authz:  authz,
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create provisions an account and its initial dated role assignments.
func (s *UserService) Create(ctx context.Context, actorID string, input CreateUserInput) (*domain.User, error) {
	if !s.authz.Authorize(ctx, actorID, domain.PermManageUsers) {
		return nil, domain.ErrForbidden
	}

	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, ErrUserExists
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user by username: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     strings.TrimSpace(input.Email),
		FullName:  input.FullName,
		EntityID:  input.EntityID,
		Status:    domain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	for _, roleID := range input.RoleIDs {
		if err := s.roles.AssignToUser(ctx, user.ID, roleID, now); err != nil {
			s.logger.Error("initial role assignment failed",
				zap.String("user_id", user.ID),
				zap.String("role_id", roleID),
				zap.Error(err),
			)
		}
	}

	s.audit.RecordAction(ctx, "user.created", "users", user.ID, actorID, map[string]any{
		"username": username,
	})

	return &user, nil
}

// Get returns a single account.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// List returns accounts matching the filter.
func (s *UserService) List(ctx context.Context, actorID string, filter port.UserFilter) ([]domain.User, error) {
	scope := s.authz.ScopeFor(ctx, actorID, domain.ResourceUsers)
	if !scope.Visible() {
		return nil, domain.ErrForbidden
	}

	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Disable marks the account disabled instead of deleting it.
func (s *UserService) Disable(ctx context.Context, actorID, userID string) error {
	if !s.authz.Authorize(ctx, actorID, domain.PermManageUsers) {
		return domain.ErrForbidden
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if err := s.users.UpdateStatus(ctx, userID, domain.UserStatusDisabled); err != nil {
		return fmt.Errorf("disable user: %w", err)
	}

	s.audit.RecordAction(ctx, "user.disabled", "users", userID, actorID, map[string]any{
		"username": user.Username,
	})

	return nil
}

// AssignRoles adds dated role assignments to the account.
func (s *UserService) AssignRoles(ctx context.Context, actorID, userID string, roleIDs []string) error {
	if !s.authz.Authorize(ctx, actorID, domain.PermManageRoles) {
		return domain.ErrForbidden
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	now := s.now()
	for _, roleID := range roleIDs {
		if err := s.roles.AssignToUser(ctx, userID, roleID, now); err != nil {
			return fmt.Errorf("assign role %s: %w", roleID, err)
		}
	}

	s.audit.RecordAction(ctx, "user.roles_assigned", "user_roles", userID, actorID, map[string]any{
		"role_ids": roleIDs,
	})

	return nil
}

// RevokeRoles ends the dated role assignments without deleting them.
func (s *UserService) RevokeRoles(ctx context.Context, actorID, userID string, roleIDs []string) error {
	if !s.authz.Authorize(ctx, actorID, domain.PermManageRoles) {
		return domain.ErrForbidden
	}

	now := s.now()
	for _, roleID := range roleIDs {
		if err := s.roles.RevokeFromUser(ctx, userID, roleID, now); err != nil {
			return fmt.Errorf("revoke role %s: %w", roleID, err)
		}
	}

	s.audit.RecordAction(ctx, "user.roles_revoked", "user_roles", userID, actorID, map[string]any{
		"role_ids": roleIDs,
	})

	return nil
}
