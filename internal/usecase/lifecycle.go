package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
	"github.com/bouramah/GovTrack-sub006/internal/eventbus"
	"github.com/bouramah/GovTrack-sub006/internal/repository"
)

// SubjectRef identifies a lifecycle subject.
type SubjectRef struct {
	Type domain.SubjectType
	ID   string
}

// LifecycleService validates and applies status transitions and execution
// level updates. Every accepted change persists the subject column and its
// history row in one atomic unit, then publishes the corresponding domain
// event strictly after commit.
type LifecycleService struct {
	store        port.LifecycleStore
	instructions port.InstructionRepository
	tasks        port.TaskRepository
	authz        *AuthzService
	bus          *eventbus.Bus
	logger       *zap.Logger
	now          func() time.Time
}

// NewLifecycleService constructs a LifecycleService.
func NewLifecycleService(
	store port.LifecycleStore,
	instructions port.InstructionRepository,
	tasks port.TaskRepository,
	authz *AuthzService,
	bus *eventbus.Bus,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		store:        store,
		instructions: instructions,
		tasks:        tasks,
		authz:        authz,
		bus:          bus,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Transition moves the subject to newStatus on behalf of the actor. It fails
// with domain.ErrForbidden when the actor may not act on the subject,
// domain.ErrInvalidTransition when (current, new) is not a lifecycle edge,
// and domain.ErrConflict when a concurrent writer changed the status first;
// the caller retries against the fresh state.
func (s *LifecycleService) Transition(ctx context.Context, subject SubjectRef, newStatus domain.Status, actorID string, comment *string) (*domain.StatusHistoryEntry, error) {
	if !domain.ValidStatus(newStatus) {
		return nil, domain.ErrInvalidTransition
	}

	currentStatus, err := s.currentStatus(ctx, subject)
	if err != nil {
		return nil, err
	}

	allowed, err := s.canActOn(ctx, actorID, subject)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.ErrForbidden
	}

	if !domain.CanTransition(currentStatus, newStatus) {
		return nil, domain.ErrInvalidTransition
	}

	entry, err := s.store.ApplyStatusChange(ctx, port.StatusChange{
		SubjectType:    subject.Type,
		SubjectID:      subject.ID,
		ActorID:        actorID,
		PreviousStatus: currentStatus,
		NewStatus:      newStatus,
		Comment:        comment,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("apply status change: %w", err)
	}

	s.bus.Publish(ctx, domain.StatusChangedEvent{
		EventID:        uuid.NewString(),
		SubjectType:    subject.Type,
		SubjectID:      subject.ID,
		ActorID:        actorID,
		PreviousStatus: currentStatus,
		NewStatus:      newStatus,
		Comment:        comment,
		ChangedAt:      entry.CreatedAt,
	})

	return entry, nil
}

// UpdateExecutionLevel records a progress change. The level may decrease;
// every accepted change produces exactly one history entry. Reaching done
// via Transition never forces the level to 100, and vice versa.
func (s *LifecycleService) UpdateExecutionLevel(ctx context.Context, subject SubjectRef, newLevel int, actorID string, comment *string) (*domain.ExecutionLevelHistoryEntry, error) {
	if !domain.ValidExecutionLevel(newLevel) {
		return nil, domain.ErrInvalidExecutionLevel
	}

	currentLevel, err := s.currentExecutionLevel(ctx, subject)
	if err != nil {
		return nil, err
	}

	allowed, err := s.canActOn(ctx, actorID, subject)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.ErrForbidden
	}

	entry, err := s.store.ApplyExecutionLevelChange(ctx, port.ExecutionLevelChange{
		SubjectType:   subject.Type,
		SubjectID:     subject.ID,
		ActorID:       actorID,
		PreviousLevel: currentLevel,
		NewLevel:      newLevel,
		Comment:       comment,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("apply execution level change: %w", err)
	}

	s.bus.Publish(ctx, domain.ExecutionLevelChangedEvent{
		EventID:       uuid.NewString(),
		SubjectType:   subject.Type,
		SubjectID:     subject.ID,
		ActorID:       actorID,
		PreviousLevel: currentLevel,
		NewLevel:      newLevel,
		Comment:       comment,
		ChangedAt:     entry.CreatedAt,
	})

	return entry, nil
}

// StatusHistory returns the subject's transition trail, oldest first.
func (s *LifecycleService) StatusHistory(ctx context.Context, subject SubjectRef) ([]domain.StatusHistoryEntry, error) {
	return s.store.StatusHistory(ctx, subject.Type, subject.ID)
}

// ExecutionLevelHistory returns the subject's progress trail, oldest first.
func (s *LifecycleService) ExecutionLevelHistory(ctx context.Context, subject SubjectRef) ([]domain.ExecutionLevelHistoryEntry, error) {
	return s.store.ExecutionLevelHistory(ctx, subject.Type, subject.ID)
}

func (s *LifecycleService) currentStatus(ctx context.Context, subject SubjectRef) (domain.Status, error) {
	switch subject.Type {
	case domain.SubjectInstruction:
		instruction, err := s.instructions.GetByID(ctx, subject.ID)
		if err != nil {
			return "", fmt.Errorf("get instruction: %w", err)
		}
		return instruction.Status, nil
	case domain.SubjectTask:
		task, err := s.tasks.GetByID(ctx, subject.ID)
		if err != nil {
			return "", fmt.Errorf("get task: %w", err)
		}
		return task.Status, nil
	default:
		return "", fmt.Errorf("unknown subject type %q", subject.Type)
	}
}

func (s *LifecycleService) currentExecutionLevel(ctx context.Context, subject SubjectRef) (int, error) {
	switch subject.Type {
	case domain.SubjectInstruction:
		instruction, err := s.instructions.GetByID(ctx, subject.ID)
		if err != nil {
			return 0, fmt.Errorf("get instruction: %w", err)
		}
		return instruction.ExecutionLevel, nil
	case domain.SubjectTask:
		task, err := s.tasks.GetByID(ctx, subject.ID)
		if err != nil {
			return 0, fmt.Errorf("get task: %w", err)
		}
		return task.ExecutionLevel, nil
	default:
		return 0, fmt.Errorf("unknown subject type %q", subject.Type)
	}
}

// canActOn allows the change when the actor holds the status-change
// permission for the subject kind or is a current bearer/responsible.
func (s *LifecycleService) canActOn(ctx context.Context, actorID string, subject SubjectRef) (bool, error) {
	switch subject.Type {
	case domain.SubjectInstruction:
		if s.authz.Authorize(ctx, actorID, domain.PermChangeInstructionStatus) {
			return true, nil
		}
		return s.authz.IsCurrentAssignee(ctx, actorID, subject.Type, subject.ID, domain.RoleBearer)
	case domain.SubjectTask:
		if s.authz.Authorize(ctx, actorID, domain.PermChangeTaskStatus) {
			return true, nil
		}
		return s.authz.IsCurrentAssignee(ctx, actorID, subject.Type, subject.ID, domain.RoleResponsible)
	default:
		return false, nil
	}
}
