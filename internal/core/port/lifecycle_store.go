package port

import (
	"context"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

// StatusChange describes an intended lifecycle transition keyed to the status
// the caller observed. Implementations must apply the status column update
// and the history insert in one atomic unit, and fail with
// repository.ErrConflict when PreviousStatus no longer matches.
type StatusChange struct {
	SubjectType    domain.SubjectType
	SubjectID      string
	ActorID        string
	PreviousStatus domain.Status
	NewStatus      domain.Status
	Comment        *string
	EvidenceRef    *string
}

// ExecutionLevelChange describes an intended progress update with the same
// compare-and-set and atomicity contract as StatusChange.
type ExecutionLevelChange struct {
	SubjectType   domain.SubjectType
	SubjectID     string
	ActorID       string
	PreviousLevel int
	NewLevel      int
	Comment       *string
}

// LifecycleStore applies lifecycle mutations transactionally.
type LifecycleStore interface {
	ApplyStatusChange(ctx context.Context, change StatusChange) (*domain.StatusHistoryEntry, error)
	ApplyExecutionLevelChange(ctx context.Context, change ExecutionLevelChange) (*domain.ExecutionLevelHistoryEntry, error)

	StatusHistory(ctx context.Context, subjectType domain.SubjectType, subjectID string) ([]domain.StatusHistoryEntry, error)
	ExecutionLevelHistory(ctx context.Context, subjectType domain.SubjectType, subjectID string) ([]domain.ExecutionLevelHistoryEntry, error)
}
