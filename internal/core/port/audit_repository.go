package port

import (
	"context"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

// AuditFilter narrows audit trail listings.
type AuditFilter struct {
	ActorID    string
	RecordType string
	Limit      int
	Offset     int
}

// AuditLogRepository persists the append-only audit trail. There is
// deliberately no update or delete operation.
type AuditLogRepository interface {
	Insert(ctx context.Context, entry domain.AuditLogEntry) error
	List(ctx context.Context, filter AuditFilter) ([]domain.AuditLogEntry, error)
}
