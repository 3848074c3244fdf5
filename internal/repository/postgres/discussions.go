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

var discussionColumns = []string{
	"id",
	"subject_type",
	"subject_id",
	"author_id",
	"parent_id",
	"body",
	"created_at",
}

// DiscussionRepository implements port.DiscussionRepository using PostgreSQL.
type DiscussionRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewDiscussionRepository wires a PostgreSQL-backed discussion repository.
func NewDiscussionRepository(pool *pgxpool.Pool) *DiscussionRepository {
	return &DiscussionRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a discussion message.
func (r *DiscussionRepository) Create(ctx context.Context, discussion domain.Discussion) error {
	sql, args, err := r.builder.Insert("govtrack.discussions").
		Columns(discussionColumns...).
		Values(
			discussion.ID,
			discussion.SubjectType,
			discussion.SubjectID,
			discussion.AuthorID,
			discussion.ParentID,
			discussion.Body,
			discussion.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert discussion sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert discussion: %w", err)
	}

	return nil
}

// GetByID retrieves a discussion message by identifier.
func (r *DiscussionRepository) GetByID(ctx context.Context, id string) (*domain.Discussion, error) {
	sql, args, err := r.builder.
		Select(discussionColumns...).
		From("govtrack.discussions").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select discussion sql: %w", err)
	}

	var discussion domain.Discussion
	if err := r.exec.QueryRow(ctx, sql, args...).Scan(
		&discussion.ID,
		&discussion.SubjectType,
		&discussion.SubjectID,
		&discussion.AuthorID,
		&discussion.ParentID,
		&discussion.Body,
		&discussion.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan discussion: %w", err)
	}

	return &discussion, nil
}

// ListBySubject returns the subject's messages, oldest first.
func (r *DiscussionRepository) ListBySubject(ctx context.Context, subjectType domain.SubjectType, subjectID string) ([]domain.Discussion, error) {
	sql, args, err := r.builder.
		Select(discussionColumns...).
		From("govtrack.discussions").
		Where(squirrel.Eq{"subject_type": subjectType, "subject_id": subjectID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list discussions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query discussions: %w", err)
	}
	defer rows.Close()

	var discussions []domain.Discussion
	for rows.Next() {
		var discussion domain.Discussion
		if err := rows.Scan(
			&discussion.ID,
			&discussion.SubjectType,
			&discussion.SubjectID,
			&discussion.AuthorID,
			&discussion.ParentID,
			&discussion.Body,
			&discussion.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan discussion: %w", err)
		}
		discussions = append(discussions, discussion)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discussions: %w", err)
	}

	return discussions, nil
}

var _ port.DiscussionRepository = (*DiscussionRepository)(nil)
