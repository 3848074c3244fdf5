package port

import (
	"context"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

// PermissionRepository persists permissions and resolves effective sets.
type PermissionRepository interface {
	Create(ctx context.Context, permission domain.Permission) error
	GetByID(ctx context.Context, id string) (*domain.Permission, error)
	GetByName(ctx context.Context, name string) (*domain.Permission, error)
	List(ctx context.Context) ([]domain.Permission, error)
	// Delete removes a permission; implementations must refuse while any
	// role still references it.
	Delete(ctx context.Context, id string) error

	ListByRole(ctx context.Context, roleID string) ([]domain.Permission, error)
	// ListByUser returns the distinct union of permissions reachable via
	// non-revoked role assignments plus direct grants.
	ListByUser(ctx context.Context, userID string) ([]domain.Permission, error)

	// Grant adds a direct user permission override.
	Grant(ctx context.Context, userID, permissionID string) error
	RevokeGrant(ctx context.Context, userID, permissionID string) error
}
