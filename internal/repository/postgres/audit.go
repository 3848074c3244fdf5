package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
)

// AuditLogRepository implements port.AuditLogRepository using PostgreSQL.
// The table is append-only; there is deliberately no update or delete.
type AuditLogRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAuditLogRepository wires a PostgreSQL-backed audit log repository.
func NewAuditLogRepository(pool *pgxpool.Pool) *AuditLogRepository {
	return &AuditLogRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert appends an audit entry.
func (r *AuditLogRepository) Insert(ctx context.Context, entry domain.AuditLogEntry) error {
	snapshot, err := marshalJSONField(entry.Snapshot, "snapshot")
	if err != nil {
		return err
	}
	metadata, err := marshalJSONField(entry.Metadata, "metadata")
	if err != nil {
		return err
	}

	sql, args, err := r.builder.Insert("govtrack.audit_logs").
		Columns(
			"id",
			"action",
			"action_name",
			"table_name",
			"record_id",
			"record_type",
			"actor_id",
			"snapshot",
			"human_summary",
			"request_id",
			"ip",
			"user_agent",
			"metadata",
			"created_at",
		).
		Values(
			entry.ID,
			entry.Action,
			entry.ActionName,
			entry.TableName,
			entry.RecordID,
			entry.RecordType,
			entry.ActorID,
			snapshot,
			entry.HumanSummary,
			entry.RequestID,
			entry.IP,
			entry.UserAgent,
			metadata,
			entry.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit entry sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// List returns audit entries matching the filter, newest first.
func (r *AuditLogRepository) List(ctx context.Context, filter port.AuditFilter) ([]domain.AuditLogEntry, error) {
	query := r.builder.
		Select(
			"id",
			"action",
			"action_name",
			"table_name",
			"record_id",
			"record_type",
			"actor_id",
			"snapshot",
			"human_summary",
			"request_id",
			"ip",
			"user_agent",
			"metadata",
			"created_at",
		).
		From("govtrack.audit_logs").
		OrderBy("created_at DESC")
	if filter.ActorID != "" {
		query = query.Where(squirrel.Eq{"actor_id": filter.ActorID})
	}
	if filter.RecordType != "" {
		query = query.Where(squirrel.Eq{"record_type": filter.RecordType})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list audit entries sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditLogEntry
	for rows.Next() {
		var entry domain.AuditLogEntry
		var snapshot, metadata []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.ActionName,
			&entry.TableName,
			&entry.RecordID,
			&entry.RecordType,
			&entry.ActorID,
			&snapshot,
			&entry.HumanSummary,
			&entry.RequestID,
			&entry.IP,
			&entry.UserAgent,
			&metadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(snapshot) > 0 {
			if err := json.Unmarshal(snapshot, &entry.Snapshot); err != nil {
				return nil, fmt.Errorf("unmarshal audit snapshot: %w", err)
			}
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}

func marshalJSONField(value map[string]any, label string) ([]byte, error) {
	if value == nil {
		return nil, nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal audit %s: %w", label, err)
	}
	return payload, nil
}

var _ port.AuditLogRepository = (*AuditLogRepository)(nil)
