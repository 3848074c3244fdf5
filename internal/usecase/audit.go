package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
)

type auditCtxKey struct{}

// WithRequestContext attaches inbound request attributes for audit capture.
func WithRequestContext(ctx context.Context, rc domain.RequestContext) context.Context {
	return context.WithValue(ctx, auditCtxKey{}, rc)
}

func requestContextFrom(ctx context.Context) domain.RequestContext {
	if rc, ok := ctx.Value(auditCtxKey{}).(domain.RequestContext); ok {
		return rc
	}
	return domain.RequestContext{}
}

// AuditRecorder writes the append-only audit trail. Audit persistence failure
// never fails the triggering business operation: errors are logged out-of-band
// and swallowed, trading audit completeness for availability of the primary
// action.
type AuditRecorder struct {
	entries port.AuditLogRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuditRecorder constructs an AuditRecorder.
func NewAuditRecorder(entries port.AuditLogRepository, logger *zap.Logger) *AuditRecorder {
	return &AuditRecorder{
		entries: entries,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RecordDeletion captures a destructive delete with a reconstructable
// snapshot of the removed record.
func (r *AuditRecorder) RecordDeletion(ctx context.Context, tableName, recordType, recordID, actorID string, snapshot map[string]any) {
	r.record(ctx, domain.AuditActionDelete, "deleted", tableName, recordType, recordID, actorID, snapshot, nil)
}

// RecordRestore captures a soft-delete reversal.
func (r *AuditRecorder) RecordRestore(ctx context.Context, tableName, recordType, recordID, actorID string, snapshot map[string]any) {
	r.record(ctx, domain.AuditActionRestore, "restored", tableName, recordType, recordID, actorID, snapshot, nil)
}

// RecordAction captures a named administrative action with free-form metadata.
func (r *AuditRecorder) RecordAction(ctx context.Context, actionName, tableName, recordID, actorID string, metadata map[string]any) {
	r.record(ctx, domain.AuditActionCustom, actionName, tableName, tableName, recordID, actorID, nil, metadata)
}

func (r *AuditRecorder) record(ctx context.Context, action domain.AuditAction, actionName, tableName, recordType, recordID, actorID string, snapshot, metadata map[string]any) {
	rc := requestContextFrom(ctx)

	entry := domain.AuditLogEntry{
		ID:           uuid.NewString(),
		Action:       action,
		ActionName:   actionName,
		TableName:    tableName,
		RecordID:     recordID,
		RecordType:   recordType,
		ActorID:      actorID,
		Snapshot:     snapshot,
		HumanSummary: domain.SummarizeRecord(recordType, recordID, snapshot),
		Metadata:     metadata,
		CreatedAt:    r.now(),
	}
	if rc.RequestID != "" {
		entry.RequestID = &rc.RequestID
	}
	if rc.IP != "" {
		entry.IP = &rc.IP
	}
	if rc.UserAgent != "" {
		entry.UserAgent = &rc.UserAgent
	}

	if err := r.entries.Insert(ctx, entry); err != nil {
		r.logger.Error("audit record insert failed",
			zap.String("action", actionName),
			zap.String("record_type", recordType),
			zap.String("record_id", recordID),
			zap.Error(err),
		)
	}
}

// List returns audit entries matching the filter, newest first.
func (r *AuditRecorder) List(ctx context.Context, filter port.AuditFilter) ([]domain.AuditLogEntry, error) {
	return r.entries.List(ctx, filter)
}

// HandleEvent records lifecycle events from the bus. Registered once as an
// event subscriber; always returns nil per the containment contract.
func (r *AuditRecorder) HandleEvent(ctx context.Context, event domain.Event) error {
	subjectType, subjectID := event.Subject()

	switch ev := event.(type) {
	case domain.StatusChangedEvent:
		r.RecordAction(ctx, "status.changed", string(subjectType)+"s", subjectID, ev.ActorID, map[string]any{
			"previous_status": string(ev.PreviousStatus),
			"new_status":      string(ev.NewStatus),
		})
	case domain.ExecutionLevelChangedEvent:
		r.RecordAction(ctx, "execution_level.changed", string(subjectType)+"s", subjectID, ev.ActorID, map[string]any{
			"previous_level": ev.PreviousLevel,
			"new_level":      ev.NewLevel,
		})
	case domain.InstructionCreatedEvent:
		r.RecordAction(ctx, "instruction.created", "instructions", subjectID, ev.ActorID, map[string]any{
			"title": ev.Title,
		})
	}

	return nil
}
