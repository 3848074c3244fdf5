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

var assignmentColumns = []string{
	"id",
	"subject_type",
	"subject_id",
	"user_id",
	"role",
	"assigned_by",
	"assigned_at",
	"ended_at",
	"active",
}

// AssignmentRepository implements port.AssignmentRepository using PostgreSQL.
// Rows are soft-ended, never deleted, so the table doubles as the assignment
// history.
type AssignmentRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAssignmentRepository wires a PostgreSQL-backed assignment repository.
func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *AssignmentRepository) WithTx(tx pgx.Tx) *AssignmentRepository {
	if tx == nil {
		return r
	}
	return &AssignmentRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts an assignment row.
func (r *AssignmentRepository) Create(ctx context.Context, assignment domain.Assignment) error {
	sql, args, err := r.builder.Insert("govtrack.assignments").
		Columns(assignmentColumns...).
		Values(
			assignment.ID,
			assignment.SubjectType,
			assignment.SubjectID,
			assignment.UserID,
			assignment.Role,
			assignment.AssignedBy,
			assignment.AssignedAt,
			assignment.EndedAt,
			assignment.Active,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert assignment sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}

	return nil
}

// GetByID retrieves an assignment by identifier.
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*domain.Assignment, error) {
	sql, args, err := r.builder.
		Select(assignmentColumns...).
		From("govtrack.assignments").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select assignment sql: %w", err)
	}

	assignment, err := scanAssignment(r.exec.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan assignment: %w", err)
	}

	return assignment, nil
}

// FindCurrent returns assignments in force for the subject and role at the
// given time.
func (r *AssignmentRepository) FindCurrent(ctx context.Context, subjectType domain.SubjectType, subjectID string, role domain.AssignmentRole, now time.Time) ([]domain.Assignment, error) {
	query := r.currentBase(now).
		Where(squirrel.Eq{
			"subject_type": subjectType,
			"subject_id":   subjectID,
			"role":         role,
		})

	return r.queryAssignments(ctx, query)
}

// FindCurrentForUser returns the subject-side view: assignments making the
// user a current bearer or responsible.
func (r *AssignmentRepository) FindCurrentForUser(ctx context.Context, userID string, role domain.AssignmentRole, now time.Time) ([]domain.Assignment, error) {
	query := r.currentBase(now).
		Where(squirrel.Eq{
			"user_id": userID,
			"role":    role,
		})

	return r.queryAssignments(ctx, query)
}

func (r *AssignmentRepository) currentBase(now time.Time) squirrel.SelectBuilder {
	return r.builder.
		Select(assignmentColumns...).
		From("govtrack.assignments").
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.Or{
			squirrel.Eq{"ended_at": nil},
			squirrel.GtOrEq{"ended_at": now},
		}).
		OrderBy("assigned_at ASC")
}

// End sets the termination date and clears the active flag. The row stays.
func (r *AssignmentRepository) End(ctx context.Context, id string, at time.Time) error {
	sql, args, err := r.builder.Update("govtrack.assignments").
		Set("ended_at", at).
		Set("active", false).
		Where(squirrel.Eq{"id": id, "active": true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build end assignment sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("end assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// History returns every assignment row ever created for the subject,
// including ended ones.
func (r *AssignmentRepository) History(ctx context.Context, subjectType domain.SubjectType, subjectID string) ([]domain.Assignment, error) {
	query := r.builder.
		Select(assignmentColumns...).
		From("govtrack.assignments").
		Where(squirrel.Eq{
			"subject_type": subjectType,
			"subject_id":   subjectID,
		}).
		OrderBy("assigned_at ASC")

	return r.queryAssignments(ctx, query)
}

func (r *AssignmentRepository) queryAssignments(ctx context.Context, query squirrel.SelectBuilder) ([]domain.Assignment, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build assignments sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []domain.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *assignment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}

	return assignments, nil
}

func scanAssignment(row pgx.Row) (*domain.Assignment, error) {
	var assignment domain.Assignment
	if err := row.Scan(
		&assignment.ID,
		&assignment.SubjectType,
		&assignment.SubjectID,
		&assignment.UserID,
		&assignment.Role,
		&assignment.AssignedBy,
		&assignment.AssignedAt,
		&assignment.EndedAt,
		&assignment.Active,
	); err != nil {
		return nil, err
	}
	return &assignment, nil
}

var _ port.AssignmentRepository = (*AssignmentRepository)(nil)
