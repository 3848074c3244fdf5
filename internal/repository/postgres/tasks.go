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

var taskColumns = []string{
	"i.id",
	"i.instruction_id",
	"i.title",
	"i.description",
	"i.status",
	"i.execution_level",
	"i.created_by",
	"i.created_at",
	"i.updated_at",
	"i.deleted_at",
}

// TaskRepository implements port.TaskRepository using PostgreSQL.
type TaskRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTaskRepository wires a PostgreSQL-backed task repository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *TaskRepository) WithTx(tx pgx.Tx) *TaskRepository {
	if tx == nil {
		return r
	}
	return &TaskRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a task row.
func (r *TaskRepository) Create(ctx context.Context, task domain.Task) error {
	sql, args, err := r.builder.Insert("govtrack.tasks").
		Columns(
			"id",
			"instruction_id",
			"title",
			"description",
			"status",
			"execution_level",
			"created_by",
			"created_at",
			"updated_at",
			"deleted_at",
		).
		Values(
			task.ID,
			task.InstructionID,
			task.Title,
			task.Description,
			task.Status,
			task.ExecutionLevel,
			task.CreatedBy,
			task.CreatedAt,
			task.UpdatedAt,
			task.DeletedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert task sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	return nil
}

// GetByID retrieves a non-deleted task by identifier.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	sql, args, err := r.builder.
		Select(taskColumns...).
		From("govtrack.tasks i").
		Where(squirrel.Eq{"i.id": id}).
		Where("i.deleted_at IS NULL").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select task sql: %w", err)
	}

	task, err := scanTask(r.exec.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	return task, nil
}

// List returns tasks visible under the filter's scope, newest first.
func (r *TaskRepository) List(ctx context.Context, filter port.TaskFilter) ([]domain.Task, error) {
	query := r.applyFilter(r.builder.Select(taskColumns...).From("govtrack.tasks i"), filter).
		OrderBy("i.created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list tasks sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

// Count returns the number of tasks visible under the filter's scope.
func (r *TaskRepository) Count(ctx context.Context, filter port.TaskFilter) (int, error) {
	sql, args, err := r.applyFilter(r.builder.Select("COUNT(*)").From("govtrack.tasks i"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count tasks sql: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}

	return count, nil
}

// Update rewrites the descriptive columns of a task.
func (r *TaskRepository) Update(ctx context.Context, task domain.Task) error {
	sql, args, err := r.builder.Update("govtrack.tasks").
		Set("title", task.Title).
		Set("description", task.Description).
		Set("updated_at", task.UpdatedAt).
		Where(squirrel.Eq{"id": task.ID}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update task sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SoftDelete marks the task deleted without removing the row.
func (r *TaskRepository) SoftDelete(ctx context.Context, id string) error {
	sql, args, err := r.builder.Update("govtrack.tasks").
		Set("deleted_at", squirrel.Expr("now()")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build soft delete task sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("soft delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// VisibleTo checks a single task against the resolved scope with the same
// predicate List applies, so direct reads and listings cannot diverge.
func (r *TaskRepository) VisibleTo(ctx context.Context, id string, scope domain.Scope) (bool, error) {
	sql, args, err := r.builder.
		Select("1").
		From("govtrack.tasks i").
		Where(squirrel.Eq{"i.id": id}).
		Where("i.deleted_at IS NULL").
		Where(taskScopePredicate(scope)).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build task visibility sql: %w", err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query task visibility: %w", err)
	}

	return true, nil
}

func (r *TaskRepository) applyFilter(query squirrel.SelectBuilder, filter port.TaskFilter) squirrel.SelectBuilder {
	query = query.Where("i.deleted_at IS NULL")

	if filter.InstructionID != "" {
		query = query.Where(squirrel.Eq{"i.instruction_id": filter.InstructionID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"i.status": filter.Status})
	}

	return query.Where(taskScopePredicate(filter.Scope))
}

// taskScopePredicate translates a resolved scope into a SQL predicate.
// Own scope matches tasks where the user holds a current responsible
// assignment; entity scope matches tasks whose responsibles belong to the
// scoped entities.
func taskScopePredicate(scope domain.Scope) squirrel.Sqlizer {
	switch scope.Kind {
	case domain.ScopeGlobal:
		return squirrel.Expr("TRUE")
	case domain.ScopeEntity:
		if len(scope.EntityIDs) == 0 {
			return squirrel.Expr("FALSE")
		}
		return squirrel.Expr(`EXISTS (
			SELECT 1 FROM govtrack.assignments a
			JOIN govtrack.users u ON u.id = a.user_id
			WHERE `+currentAssignmentPredicate+` AND u.entity_id = ANY(?))`,
			domain.SubjectTask, domain.RoleResponsible, scope.EntityIDs)
	case domain.ScopeOwn:
		return squirrel.Expr(`EXISTS (
			SELECT 1 FROM govtrack.assignments a
			WHERE `+currentAssignmentPredicate+` AND a.user_id = ?)`,
			domain.SubjectTask, domain.RoleResponsible, scope.UserID)
	default:
		return squirrel.Expr("FALSE")
	}
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.InstructionID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.ExecutionLevel,
		&task.CreatedBy,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}

var _ port.TaskRepository = (*TaskRepository)(nil)
