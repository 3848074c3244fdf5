package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
	"github.com/bouramah/GovTrack-sub006/internal/repository"
)

// PermissionRepository implements port.PermissionRepository using PostgreSQL.
type PermissionRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPermissionRepository wires a PostgreSQL-backed permission repository.
func NewPermissionRepository(pool *pgxpool.Pool) *PermissionRepository {
	return &PermissionRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *PermissionRepository) WithTx(tx pgx.Tx) *PermissionRepository {
	if tx == nil {
		return r
	}
	return &PermissionRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a permission row.
func (r *PermissionRepository) Create(ctx context.Context, permission domain.Permission) error {
	sql, args, err := r.builder.Insert("govtrack.permissions").
		Columns("id", "name", "description").
		Values(permission.ID, permission.Name, permission.Description).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert permission sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert permission: %w", err)
	}

	return nil
}

// GetByID retrieves a permission by identifier.
func (r *PermissionRepository) GetByID(ctx context.Context, id string) (*domain.Permission, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, "by id")
}

// GetByName retrieves a permission by its unique name.
func (r *PermissionRepository) GetByName(ctx context.Context, name string) (*domain.Permission, error) {
	return r.getOne(ctx, squirrel.Eq{"name": name}, "by name")
}

func (r *PermissionRepository) getOne(ctx context.Context, pred squirrel.Eq, label string) (*domain.Permission, error) {
	sql, args, err := r.builder.
		Select("id", "name", "description").
		From("govtrack.permissions").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select permission %s sql: %w", label, err)
	}

	var permission domain.Permission
	if err := r.exec.QueryRow(ctx, sql, args...).Scan(&permission.ID, &permission.Name, &permission.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan permission %s: %w", label, err)
	}

	return &permission, nil
}

// List returns all permissions, name ascending.
func (r *PermissionRepository) List(ctx context.Context) ([]domain.Permission, error) {
	sql, args, err := r.builder.
		Select("id", "name", "description").
		From("govtrack.permissions").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list permissions sql: %w", err)
	}

	return r.queryPermissions(ctx, sql, args)
}

// Delete removes a permission, refusing while any role still references it.
func (r *PermissionRepository) Delete(ctx context.Context, id string) error {
	var references int
	if err := r.exec.QueryRow(ctx,
		"SELECT COUNT(*) FROM govtrack.role_permissions WHERE permission_id = $1", id,
	).Scan(&references); err != nil {
		return fmt.Errorf("count permission references: %w", err)
	}
	if references > 0 {
		return repository.ErrConflict
	}

	sql, args, err := r.builder.Delete("govtrack.permissions").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete permission sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListByRole returns permissions linked to a role.
func (r *PermissionRepository) ListByRole(ctx context.Context, roleID string) ([]domain.Permission, error) {
	sql, args, err := r.builder.
		Select("p.id", "p.name", "p.description").
		From("govtrack.permissions p").
		Join("govtrack.role_permissions rp ON rp.permission_id = p.id").
		Where(squirrel.Eq{"rp.role_id": roleID}).
		OrderBy("p.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list permissions by role sql: %w", err)
	}

	return r.queryPermissions(ctx, sql, args)
}

// ListByUser returns the distinct union of permissions reachable through
// non-revoked role assignments plus direct grants.
func (r *PermissionRepository) ListByUser(ctx context.Context, userID string) ([]domain.Permission, error) {
	const query = `
		SELECT DISTINCT p.id, p.name, p.description
		FROM govtrack.permissions p
		JOIN govtrack.role_permissions rp ON rp.permission_id = p.id
		JOIN govtrack.user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = $1 AND ur.revoked_at IS NULL
		UNION
		SELECT p.id, p.name, p.description
		FROM govtrack.permissions p
		JOIN govtrack.user_permissions up ON up.permission_id = p.id
		WHERE up.user_id = $1
		ORDER BY name ASC`

	return r.queryPermissions(ctx, query, []any{userID})
}

// Grant adds a direct user permission override. Granting twice is a no-op.
func (r *PermissionRepository) Grant(ctx context.Context, userID, permissionID string) error {
	sql, args, err := r.builder.Insert("govtrack.user_permissions").
		Columns("user_id", "permission_id", "granted_at").
		Values(userID, permissionID, squirrel.Expr("now()")).
		Suffix("ON CONFLICT (user_id, permission_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build grant permission sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}

	return nil
}

// RevokeGrant removes a direct user permission override.
func (r *PermissionRepository) RevokeGrant(ctx context.Context, userID, permissionID string) error {
	sql, args, err := r.builder.Delete("govtrack.user_permissions").
		Where(squirrel.Eq{"user_id": userID, "permission_id": permissionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke permission grant sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("revoke permission grant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *PermissionRepository) queryPermissions(ctx context.Context, sql string, args []any) ([]domain.Permission, error) {
	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	var permissions []domain.Permission
	for rows.Next() {
		var permission domain.Permission
		if err := rows.Scan(&permission.ID, &permission.Name, &permission.Description); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		permissions = append(permissions, permission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}

	return permissions, nil
}

var _ port.PermissionRepository = (*PermissionRepository)(nil)
