package port

import (
	"context"
	"time"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

// RoleRepository persists roles and their dated user assignments.
type RoleRepository interface {
	Create(ctx context.Context, role domain.Role) error
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Update(ctx context.Context, role domain.Role) error
	Delete(ctx context.Context, id string) error

	AssignPermissions(ctx context.Context, roleID string, permissionIDs []string) (int, error)
	RevokePermissions(ctx context.Context, roleID string, permissionIDs []string) (int, error)

	// AssignToUser inserts a dated user-role row.
	AssignToUser(ctx context.Context, userID, roleID string, assignedAt time.Time) error
	// RevokeFromUser ends the current user-role row without deleting it.
	RevokeFromUser(ctx context.Context, userID, roleID string, revokedAt time.Time) error
	// ListByUser returns roles from non-revoked assignments only.
	ListByUser(ctx context.Context, userID string) ([]domain.Role, error)
	GetUserRoles(ctx context.Context, userID string) ([]domain.UserRole, error)
}
