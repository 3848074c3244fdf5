package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
	"github.com/bouramah/GovTrack-sub006/internal/repository"
)

// RoleRepository implements port.RoleRepository using PostgreSQL.
type RoleRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewRoleRepository wires a PostgreSQL-backed role repository.
func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository configured to execute within the provided transaction.
func (r *RoleRepository) WithTx(tx pgx.Tx) *RoleRepository {
	if tx == nil {
		return r
	}
	return &RoleRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a role row.
func (r *RoleRepository) Create(ctx context.Context, role domain.Role) error {
	sql, args, err := r.builder.Insert("govtrack.roles").
		Columns("id", "name", "description").
		Values(role.ID, role.Name, role.Description).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert role sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert role: %w", err)
	}

	return nil
}

// GetByID retrieves a role by identifier.
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, "by id")
}

// GetByName retrieves a role by its unique name.
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	return r.getOne(ctx, squirrel.Eq{"name": name}, "by name")
}

func (r *RoleRepository) getOne(ctx context.Context, pred squirrel.Eq, label string) (*domain.Role, error) {
	sql, args, err := r.builder.
		Select("id", "name", "description").
		From("govtrack.roles").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select role %s sql: %w", label, err)
	}

	var role domain.Role
	if err := r.exec.QueryRow(ctx, sql, args...).Scan(&role.ID, &role.Name, &role.Description); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan role %s: %w", label, err)
	}

	return &role, nil
}

// List returns all roles, name ascending.
func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	sql, args, err := r.builder.
		Select("id", "name", "description").
		From("govtrack.roles").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list roles sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}

	return roles, nil
}

// Update rewrites a role's name and description.
func (r *RoleRepository) Update(ctx context.Context, role domain.Role) error {
	sql, args, err := r.builder.Update("govtrack.roles").
		Set("name", role.Name).
		Set("description", role.Description).
		Where(squirrel.Eq{"id": role.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update role sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a role. The role_permissions and user_roles foreign keys
// cascade in the schema.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	sql, args, err := r.builder.Delete("govtrack.roles").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete role sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AssignPermissions links permissions to the role, skipping existing links.
func (r *RoleRepository) AssignPermissions(ctx context.Context, roleID string, permissionIDs []string) (int, error) {
	if len(permissionIDs) == 0 {
		return 0, nil
	}

	query := r.builder.Insert("govtrack.role_permissions").
		Columns("role_id", "permission_id").
		Suffix("ON CONFLICT (role_id, permission_id) DO NOTHING")
	for _, permissionID := range permissionIDs {
		query = query.Values(roleID, permissionID)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build assign role permissions sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("assign role permissions: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// RevokePermissions unlinks permissions from the role.
func (r *RoleRepository) RevokePermissions(ctx context.Context, roleID string, permissionIDs []string) (int, error) {
	if len(permissionIDs) == 0 {
		return 0, nil
	}

	sql, args, err := r.builder.Delete("govtrack.role_permissions").
		Where(squirrel.Eq{"role_id": roleID, "permission_id": permissionIDs}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke role permissions sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke role permissions: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// AssignToUser inserts a dated user-role row.
func (r *RoleRepository) AssignToUser(ctx context.Context, userID, roleID string, assignedAt time.Time) error {
	sql, args, err := r.builder.Insert("govtrack.user_roles").
		Columns("user_id", "role_id", "assigned_at", "revoked_at").
		Values(userID, roleID, assignedAt, nil).
		ToSql()
	if err != nil {
		return fmt.Errorf("build assign role to user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("assign role to user: %w", err)
	}

	return nil
}

// RevokeFromUser dates out the current user-role row. The row stays as the
// historical record of the assignment interval.
func (r *RoleRepository) RevokeFromUser(ctx context.Context, userID, roleID string, revokedAt time.Time) error {
	sql, args, err := r.builder.Update("govtrack.user_roles").
		Set("revoked_at", revokedAt).
		Where(squirrel.Eq{"user_id": userID, "role_id": roleID}).
		Where("revoked_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke role from user sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("revoke role from user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListByUser returns roles reachable through non-revoked assignments.
func (r *RoleRepository) ListByUser(ctx context.Context, userID string) ([]domain.Role, error) {
	sql, args, err := r.builder.
		Select("r.id", "r.name", "r.description").
		From("govtrack.roles r").
		Join("govtrack.user_roles ur ON ur.role_id = r.id").
		Where(squirrel.Eq{"ur.user_id": userID}).
		Where("ur.revoked_at IS NULL").
		OrderBy("r.name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list roles by user sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query roles by user: %w", err)
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, fmt.Errorf("scan role by user: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles by user: %w", err)
	}

	return roles, nil
}

// GetUserRoles returns the dated assignment rows themselves, including
// revoked ones.
func (r *RoleRepository) GetUserRoles(ctx context.Context, userID string) ([]domain.UserRole, error) {
	sql, args, err := r.builder.
		Select("user_id", "role_id", "assigned_at", "revoked_at").
		From("govtrack.user_roles").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("assigned_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get user roles sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query user roles: %w", err)
	}
	defer rows.Close()

	var userRoles []domain.UserRole
	for rows.Next() {
		var ur domain.UserRole
		if err := rows.Scan(&ur.UserID, &ur.RoleID, &ur.AssignedAt, &ur.RevokedAt); err != nil {
			return nil, fmt.Errorf("scan user role: %w", err)
		}
		userRoles = append(userRoles, ur)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user roles: %w", err)
	}

	return userRoles, nil
}

var _ port.RoleRepository = (*RoleRepository)(nil)
