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

var instructionColumns = []string{
	"i.id",
	"i.title",
	"i.description",
	"i.status",
	"i.execution_level",
	"i.ordering_user_id",
	"i.planned_start_date",
	"i.planned_end_date",
	"i.actual_start_date",
	"i.actual_end_date",
	"i.created_by",
	"i.created_at",
	"i.updated_at",
	"i.deleted_at",
}

// currentAssignmentPredicate matches assignment rows in force now for the
// aliased subject row. Kept as one fragment so listing and scoping share the
// same definition of "current".
const currentAssignmentPredicate = `a.subject_type = ? AND a.subject_id = i.id
	AND a.role = ? AND a.active AND (a.ended_at IS NULL OR a.ended_at >= now())`

// InstructionRepository implements port.InstructionRepository using PostgreSQL.
type InstructionRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewInstructionRepository wires a PostgreSQL-backed instruction repository.
func NewInstructionRepository(pool *pgxpool.Pool) *InstructionRepository {
	return &InstructionRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *InstructionRepository) WithTx(tx pgx.Tx) *InstructionRepository {
	if tx == nil {
		return r
	}
	return &InstructionRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts an instruction row.
func (r *InstructionRepository) Create(ctx context.Context, instruction domain.Instruction) error {
	sql, args, err := r.builder.Insert("govtrack.instructions").
		Columns(
			"id",
			"title",
			"description",
			"status",
			"execution_level",
			"ordering_user_id",
			"planned_start_date",
			"planned_end_date",
			"actual_start_date",
			"actual_end_date",
			"created_by",
			"created_at",
			"updated_at",
			"deleted_at",
		).
		Values(
			instruction.ID,
			instruction.Title,
			instruction.Description,
			instruction.Status,
			instruction.ExecutionLevel,
			instruction.OrderingUserID,
			instruction.PlannedStartDate,
			instruction.PlannedEndDate,
			instruction.ActualStartDate,
			instruction.ActualEndDate,
			instruction.CreatedBy,
			instruction.CreatedAt,
			instruction.UpdatedAt,
			instruction.DeletedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert instruction sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert instruction: %w", err)
	}

	return nil
}

// GetByID retrieves a non-deleted instruction by identifier.
func (r *InstructionRepository) GetByID(ctx context.Context, id string) (*domain.Instruction, error) {
	sql, args, err := r.builder.
		Select(instructionColumns...).
		From("govtrack.instructions i").
		Where(squirrel.Eq{"i.id": id}).
		Where("i.deleted_at IS NULL").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select instruction sql: %w", err)
	}

	instruction, err := scanInstruction(r.exec.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan instruction: %w", err)
	}

	return instruction, nil
}

// List returns instructions visible under the filter's scope, newest first.
func (r *InstructionRepository) List(ctx context.Context, filter port.InstructionFilter) ([]domain.Instruction, error) {
	query := r.applyFilter(r.builder.Select(instructionColumns...).From("govtrack.instructions i"), filter).
		OrderBy("i.created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list instructions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query instructions: %w", err)
	}
	defer rows.Close()

	var instructions []domain.Instruction
	for rows.Next() {
		instruction, err := scanInstruction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan instruction: %w", err)
		}
		instructions = append(instructions, *instruction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instructions: %w", err)
	}

	return instructions, nil
}

// Count returns the number of instructions visible under the filter's scope.
func (r *InstructionRepository) Count(ctx context.Context, filter port.InstructionFilter) (int, error) {
	sql, args, err := r.applyFilter(r.builder.Select("COUNT(*)").From("govtrack.instructions i"), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count instructions sql: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count instructions: %w", err)
	}

	return count, nil
}

// Update rewrites the descriptive and lifecycle columns of an instruction.
func (r *InstructionRepository) Update(ctx context.Context, instruction domain.Instruction) error {
	sql, args, err := r.builder.Update("govtrack.instructions").
		Set("title", instruction.Title).
		Set("description", instruction.Description).
		Set("ordering_user_id", instruction.OrderingUserID).
		Set("planned_start_date", instruction.PlannedStartDate).
		Set("planned_end_date", instruction.PlannedEndDate).
		Set("actual_start_date", instruction.ActualStartDate).
		Set("actual_end_date", instruction.ActualEndDate).
		Set("updated_at", instruction.UpdatedAt).
		Where(squirrel.Eq{"id": instruction.ID}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update instruction sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update instruction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SoftDelete marks the instruction deleted without removing the row.
func (r *InstructionRepository) SoftDelete(ctx context.Context, id string) error {
	sql, args, err := r.builder.Update("govtrack.instructions").
		Set("deleted_at", squirrel.Expr("now()")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build soft delete instruction sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("soft delete instruction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Restore reverses a soft delete.
func (r *InstructionRepository) Restore(ctx context.Context, id string) error {
	sql, args, err := r.builder.Update("govtrack.instructions").
		Set("deleted_at", nil).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Where("deleted_at IS NOT NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build restore instruction sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("restore instruction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// VisibleTo checks a single instruction against the resolved scope with the
// same predicate List applies, so direct reads and listings cannot diverge.
func (r *InstructionRepository) VisibleTo(ctx context.Context, id string, scope domain.Scope) (bool, error) {
	sql, args, err := r.builder.
		Select("1").
		From("govtrack.instructions i").
		Where(squirrel.Eq{"i.id": id}).
		Where("i.deleted_at IS NULL").
		Where(instructionScopePredicate(scope)).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build instruction visibility sql: %w", err)
	}

	var one int
	if err := r.exec.QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query instruction visibility: %w", err)
	}

	return true, nil
}

func (r *InstructionRepository) applyFilter(query squirrel.SelectBuilder, filter port.InstructionFilter) squirrel.SelectBuilder {
	query = query.Where("i.deleted_at IS NULL")

	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"i.status": filter.Status})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"i.title": pattern},
			squirrel.ILike{"i.description": pattern},
		})
	}

	return query.Where(instructionScopePredicate(filter.Scope))
}

// instructionScopePredicate translates a resolved scope into a SQL predicate.
// Entity scope matches instructions carried by members of the scoped
// entities, or ordered by one. Own scope matches instructions where the user
// is a current bearer or the ordering user.
func instructionScopePredicate(scope domain.Scope) squirrel.Sqlizer {
	switch scope.Kind {
	case domain.ScopeGlobal:
		return squirrel.Expr("TRUE")
	case domain.ScopeEntity:
		if len(scope.EntityIDs) == 0 {
			return squirrel.Expr("FALSE")
		}
		return squirrel.Or{
			squirrel.Expr(`EXISTS (
				SELECT 1 FROM govtrack.assignments a
				JOIN govtrack.users u ON u.id = a.user_id
				WHERE `+currentAssignmentPredicate+` AND u.entity_id = ANY(?))`,
				domain.SubjectInstruction, domain.RoleBearer, scope.EntityIDs),
			squirrel.Expr(`EXISTS (
				SELECT 1 FROM govtrack.users ou
				WHERE ou.id = i.ordering_user_id AND ou.entity_id = ANY(?))`,
				scope.EntityIDs),
		}
	case domain.ScopeOwn:
		return squirrel.Or{
			squirrel.Eq{"i.ordering_user_id": scope.UserID},
			squirrel.Expr(`EXISTS (
				SELECT 1 FROM govtrack.assignments a
				WHERE `+currentAssignmentPredicate+` AND a.user_id = ?)`,
				domain.SubjectInstruction, domain.RoleBearer, scope.UserID),
		}
	default:
		return squirrel.Expr("FALSE")
	}
}

func scanInstruction(row pgx.Row) (*domain.Instruction, error) {
	var instruction domain.Instruction
	if err := row.Scan(
		&instruction.ID,
		&instruction.Title,
		&instruction.Description,
		&instruction.Status,
		&instruction.ExecutionLevel,
		&instruction.OrderingUserID,
		&instruction.PlannedStartDate,
		&instruction.PlannedEndDate,
		&instruction.ActualStartDate,
		&instruction.ActualEndDate,
		&instruction.CreatedBy,
		&instruction.CreatedAt,
		&instruction.UpdatedAt,
		&instruction.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &instruction, nil
}

var _ port.InstructionRepository = (*InstructionRepository)(nil)
