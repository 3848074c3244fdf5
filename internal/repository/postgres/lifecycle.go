package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
	"github.com/bouramah/GovTrack-sub006/internal/repository"
)

// txBeginner is satisfied by *pgxpool.Pool and by pgxmock pools in tests.
type txBeginner interface {
	pgExecutor
	Begin(ctx context.Context) (pgx.Tx, error)
}

// LifecycleStore implements port.LifecycleStore. Each accepted change applies
// the subject column update and the history insert inside one transaction,
// keyed to the state the caller observed: the UPDATE carries the expected
// previous value in its WHERE clause, and zero affected rows on an existing
// subject means a concurrent writer won.
type LifecycleStore struct {
	db      txBeginner
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// NewLifecycleStore wires a PostgreSQL-backed lifecycle store.
func NewLifecycleStore(db txBeginner) *LifecycleStore {
	return &LifecycleStore{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func subjectTable(subjectType domain.SubjectType) (string, error) {
	switch subjectType {
	case domain.SubjectInstruction:
		return "govtrack.instructions", nil
	case domain.SubjectTask:
		return "govtrack.tasks", nil
	default:
		return "", fmt.Errorf("unknown subject type %q", subjectType)
	}
}

// ApplyStatusChange performs the compare-and-set status update and appends
// the history row atomically.
func (s *LifecycleStore) ApplyStatusChange(ctx context.Context, change port.StatusChange) (*domain.StatusHistoryEntry, error) {
	table, err := subjectTable(change.SubjectType)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin status change tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	updateSQL, updateArgs, err := s.builder.Update(table).
		Set("status", change.NewStatus).
		Set("updated_at", s.now()).
		Where(squirrel.Eq{"id": change.SubjectID, "status": change.PreviousStatus}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build status update sql: %w", err)
	}

	tag, err := tx.Exec(ctx, updateSQL, updateArgs...)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, s.staleWriteError(ctx, tx, table, change.SubjectID)
	}

	entry := domain.StatusHistoryEntry{
		ID:             uuid.NewString(),
		SubjectType:    change.SubjectType,
		SubjectID:      change.SubjectID,
		ActorID:        change.ActorID,
		PreviousStatus: change.PreviousStatus,
		NewStatus:      change.NewStatus,
		Comment:        change.Comment,
		EvidenceRef:    change.EvidenceRef,
		CreatedAt:      s.now(),
	}

	insertSQL, insertArgs, err := s.builder.Insert("govtrack.status_history").
		Columns(
			"id",
			"subject_type",
			"subject_id",
			"actor_id",
			"previous_status",
			"new_status",
			"comment",
			"evidence_ref",
			"created_at",
		).
		Values(
			entry.ID,
			entry.SubjectType,
			entry.SubjectID,
			entry.ActorID,
			entry.PreviousStatus,
			entry.NewStatus,
			entry.Comment,
			entry.EvidenceRef,
			entry.CreatedAt,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build status history sql: %w", err)
	}

	if _, err := tx.Exec(ctx, insertSQL, insertArgs...); err != nil {
		return nil, fmt.Errorf("insert status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit status change: %w", err)
	}

	return &entry, nil
}

// ApplyExecutionLevelChange performs the compare-and-set progress update and
// appends the history row atomically.
func (s *LifecycleStore) ApplyExecutionLevelChange(ctx context.Context, change port.ExecutionLevelChange) (*domain.ExecutionLevelHistoryEntry, error) {
	table, err := subjectTable(change.SubjectType)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin execution level tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	updateSQL, updateArgs, err := s.builder.Update(table).
		Set("execution_level", change.NewLevel).
		Set("updated_at", s.now()).
		Where(squirrel.Eq{"id": change.SubjectID, "execution_level": change.PreviousLevel}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build execution level update sql: %w", err)
	}

	tag, err := tx.Exec(ctx, updateSQL, updateArgs...)
	if err != nil {
		return nil, fmt.Errorf("update execution level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, s.staleWriteError(ctx, tx, table, change.SubjectID)
	}

	entry := domain.ExecutionLevelHistoryEntry{
		ID:            uuid.NewString(),
		SubjectType:   change.SubjectType,
		SubjectID:     change.SubjectID,
		ActorID:       change.ActorID,
		PreviousLevel: change.PreviousLevel,
		NewLevel:      change.NewLevel,
		Comment:       change.Comment,
		CreatedAt:     s.now(),
	}

	insertSQL, insertArgs, err := s.builder.Insert("govtrack.execution_level_history").
		Columns(
			"id",
			"subject_type",
			"subject_id",
			"actor_id",
			"previous_level",
			"new_level",
			"comment",
			"created_at",
		).
		Values(
			entry.ID,
			entry.SubjectType,
			entry.SubjectID,
			entry.ActorID,
			entry.PreviousLevel,
			entry.NewLevel,
			entry.Comment,
			entry.CreatedAt,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build execution level history sql: %w", err)
	}

	if _, err := tx.Exec(ctx, insertSQL, insertArgs...); err != nil {
		return nil, fmt.Errorf("insert execution level history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit execution level change: %w", err)
	}

	return &entry, nil
}

// staleWriteError distinguishes a missing subject from a lost compare-and-set
// race once the guarded UPDATE touched no rows.
func (s *LifecycleStore) staleWriteError(ctx context.Context, tx pgx.Tx, table, subjectID string) error {
	existsSQL, existsArgs, err := s.builder.
		Select("1").
		From(table).
		Where(squirrel.Eq{"id": subjectID}).
		Where("deleted_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build subject existence sql: %w", err)
	}

	var one int
	if err := tx.QueryRow(ctx, existsSQL, existsArgs...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("check subject existence: %w", err)
	}

	return repository.ErrConflict
}

// StatusHistory returns the subject's transitions, oldest first.
func (s *LifecycleStore) StatusHistory(ctx context.Context, subjectType domain.SubjectType, subjectID string) ([]domain.StatusHistoryEntry, error) {
	sql, args, err := s.builder.
		Select(
			"id",
			"subject_type",
			"subject_id",
			"actor_id",
			"previous_status",
			"new_status",
			"comment",
			"evidence_ref",
			"created_at",
		).
		From("govtrack.status_history").
		Where(squirrel.Eq{"subject_type": subjectType, "subject_id": subjectID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build status history sql: %w", err)
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	var entries []domain.StatusHistoryEntry
	for rows.Next() {
		var entry domain.StatusHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.SubjectType,
			&entry.SubjectID,
			&entry.ActorID,
			&entry.PreviousStatus,
			&entry.NewStatus,
			&entry.Comment,
			&entry.EvidenceRef,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan status history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status history: %w", err)
	}

	return entries, nil
}

// ExecutionLevelHistory returns the subject's progress changes, oldest first.
func (s *LifecycleStore) ExecutionLevelHistory(ctx context.Context, subjectType domain.SubjectType, subjectID string) ([]domain.ExecutionLevelHistoryEntry, error) {
	sql, args, err := s.builder.
		Select(
			"id",
			"subject_type",
			"subject_id",
			"actor_id",
			"previous_level",
			"new_level",
			"comment",
			"created_at",
		).
		From("govtrack.execution_level_history").
		Where(squirrel.Eq{"subject_type": subjectType, "subject_id": subjectID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build execution level history sql: %w", err)
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query execution level history: %w", err)
	}
	defer rows.Close()

	var entries []domain.ExecutionLevelHistoryEntry
	for rows.Next() {
		var entry domain.ExecutionLevelHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.SubjectType,
			&entry.SubjectID,
			&entry.ActorID,
			&entry.PreviousLevel,
			&entry.NewLevel,
			&entry.Comment,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan execution level history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate execution level history: %w", err)
	}

	return entries, nil
}

var _ port.LifecycleStore = (*LifecycleStore)(nil)
