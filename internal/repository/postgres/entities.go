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

// EntityRepository implements port.EntityRepository using PostgreSQL.
type EntityRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewEntityRepository wires a PostgreSQL-backed entity repository.
func NewEntityRepository(pool *pgxpool.Pool) *EntityRepository {
	return &EntityRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance executing within the provided transaction.
func (r *EntityRepository) WithTx(tx pgx.Tx) *EntityRepository {
	if tx == nil {
		return r
	}
	return &EntityRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts an entity row.
func (r *EntityRepository) Create(ctx context.Context, entity domain.Entity) error {
	sql, args, err := r.builder.Insert("govtrack.entities").
		Columns("id", "name", "description", "parent_id", "created_at").
		Values(entity.ID, entity.Name, entity.Description, entity.ParentID, entity.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert entity sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert entity: %w", err)
	}

	return nil
}

// GetByID retrieves an entity by identifier.
func (r *EntityRepository) GetByID(ctx context.Context, id string) (*domain.Entity, error) {
	sql, args, err := r.builder.
		Select("id", "name", "description", "parent_id", "created_at").
		From("govtrack.entities").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select entity sql: %w", err)
	}

	var entity domain.Entity
	if err := r.exec.QueryRow(ctx, sql, args...).Scan(
		&entity.ID,
		&entity.Name,
		&entity.Description,
		&entity.ParentID,
		&entity.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan entity: %w", err)
	}

	return &entity, nil
}

// ListAll returns the full hierarchy, name ascending.
func (r *EntityRepository) ListAll(ctx context.Context) ([]domain.Entity, error) {
	return r.list(ctx, nil)
}

// ListChildren returns the direct children of an entity.
func (r *EntityRepository) ListChildren(ctx context.Context, parentID string) ([]domain.Entity, error) {
	return r.list(ctx, squirrel.Eq{"parent_id": parentID})
}

func (r *EntityRepository) list(ctx context.Context, pred squirrel.Eq) ([]domain.Entity, error) {
	query := r.builder.
		Select("id", "name", "description", "parent_id", "created_at").
		From("govtrack.entities").
		OrderBy("name ASC")
	if pred != nil {
		query = query.Where(pred)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list entities sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var entities []domain.Entity
	for rows.Next() {
		var entity domain.Entity
		if err := rows.Scan(
			&entity.ID,
			&entity.Name,
			&entity.Description,
			&entity.ParentID,
			&entity.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}

	return entities, nil
}

// CurrentChief returns the leadership row in force for the entity at the
// given time, or repository.ErrNotFound when leadership is vacant.
func (r *EntityRepository) CurrentChief(ctx context.Context, entityID string, now time.Time) (*domain.EntityLeadership, error) {
	sql, args, err := r.builder.
		Select("id", "entity_id", "user_id", "start_date", "end_date").
		From("govtrack.entity_leaderships").
		Where(squirrel.Eq{"entity_id": entityID}).
		Where(squirrel.LtOrEq{"start_date": now}).
		Where(squirrel.Or{
			squirrel.Eq{"end_date": nil},
			squirrel.GtOrEq{"end_date": now},
		}).
		OrderBy("start_date DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build current chief sql: %w", err)
	}

	var leadership domain.EntityLeadership
	if err := r.exec.QueryRow(ctx, sql, args...).Scan(
		&leadership.ID,
		&leadership.EntityID,
		&leadership.UserID,
		&leadership.StartDate,
		&leadership.EndDate,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan current chief: %w", err)
	}

	return &leadership, nil
}

// ChiefedEntityIDs returns ids of entities the user currently chiefs.
func (r *EntityRepository) ChiefedEntityIDs(ctx context.Context, userID string, now time.Time) ([]string, error) {
	sql, args, err := r.builder.
		Select("entity_id").
		From("govtrack.entity_leaderships").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.LtOrEq{"start_date": now}).
		Where(squirrel.Or{
			squirrel.Eq{"end_date": nil},
			squirrel.GtOrEq{"end_date": now},
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build chiefed entities sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query chiefed entities: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chiefed entity id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chiefed entities: %w", err)
	}

	return ids, nil
}

// AssignChief inserts a leadership row.
func (r *EntityRepository) AssignChief(ctx context.Context, leadership domain.EntityLeadership) error {
	sql, args, err := r.builder.Insert("govtrack.entity_leaderships").
		Columns("id", "entity_id", "user_id", "start_date", "end_date").
		Values(
			leadership.ID,
			leadership.EntityID,
			leadership.UserID,
			leadership.StartDate,
			leadership.EndDate,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build assign chief sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("assign chief: %w", err)
	}

	return nil
}

// EndLeadership dates out the leadership row without deleting it.
func (r *EntityRepository) EndLeadership(ctx context.Context, leadershipID string, at time.Time) error {
	sql, args, err := r.builder.Update("govtrack.entity_leaderships").
		Set("end_date", at).
		Where(squirrel.Eq{"id": leadershipID}).
		Where("end_date IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build end leadership sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("end leadership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.EntityRepository = (*EntityRepository)(nil)
