package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
)

// NotificationFanOut computes, for each domain event, the exact recipient set
// and produces one delivery intent per recipient. Recipients are deduplicated
// by user id and the triggering actor is always excluded. Delivery itself is
// the publisher's concern.
type NotificationFanOut struct {
	assignments  port.AssignmentRepository
	instructions port.InstructionRepository
	tasks        port.TaskRepository
	discussions  port.DiscussionRepository
	publisher    port.NotificationPublisher
	logger       *zap.Logger
	now          func() time.Time
}

// NewNotificationFanOut constructs a NotificationFanOut.
func NewNotificationFanOut(
	assignments port.AssignmentRepository,
	instructions port.InstructionRepository,
	tasks port.TaskRepository,
	discussions port.DiscussionRepository,
	publisher port.NotificationPublisher,
	logger *zap.Logger,
) *NotificationFanOut {
	return &NotificationFanOut{
		assignments:  assignments,
		instructions: instructions,
		tasks:        tasks,
		discussions:  discussions,
		publisher:    publisher,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch computes the delivery intents for the event. The returned slice
// contains exactly one intent per distinct recipient, never including the
// actor who triggered the event.
func (f *NotificationFanOut) Dispatch(ctx context.Context, event domain.Event) ([]domain.NotificationEvent, error) {
	recipients, payload, err := f.recipients(ctx, event)
	if err != nil {
		return nil, err
	}

	subjectType, subjectID := event.Subject()
	actor := event.Actor()

	seen := make(map[string]struct{}, len(recipients))
	ordered := make([]string, 0, len(recipients))
	for _, id := range recipients {
		if id == "" || id == actor {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)

	intents := make([]domain.NotificationEvent, 0, len(ordered))
	for _, recipientID := range ordered {
		intents = append(intents, domain.NotificationEvent{
			EventID:     uuid.NewString(),
			Kind:        event.Kind(),
			SubjectType: subjectType,
			SubjectID:   subjectID,
			ActorID:     actor,
			RecipientID: recipientID,
			Payload:     payload,
			CreatedAt:   f.now(),
		})
	}

	return intents, nil
}

// HandleEvent is the bus subscriber: it fans the event out and forwards each
// intent to the delivery publisher. Failures are logged and contained; a
// failed intent never invalidates the underlying state change.
func (f *NotificationFanOut) HandleEvent(ctx context.Context, event domain.Event) error {
	intents, err := f.Dispatch(ctx, event)
	if err != nil {
		return fmt.Errorf("compute recipients: %w", err)
	}

	for _, intent := range intents {
		if err := f.publisher.PublishNotification(ctx, intent); err != nil {
			f.logger.Error("notification intent publish failed",
				zap.String("kind", string(intent.Kind)),
				zap.String("recipient_id", intent.RecipientID),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (f *NotificationFanOut) recipients(ctx context.Context, event domain.Event) ([]string, map[string]any, error) {
	subjectType, subjectID := event.Subject()

	switch ev := event.(type) {
	case domain.InstructionCreatedEvent:
		ids, err := f.instructionAudience(ctx, ev.InstructionID)
		if err != nil {
			return nil, nil, err
		}
		return ids, map[string]any{"title": ev.Title}, nil

	case domain.StatusChangedEvent:
		ids, err := f.subjectAudience(ctx, subjectType, subjectID)
		if err != nil {
			return nil, nil, err
		}
		return ids, map[string]any{
			"previous_status": string(ev.PreviousStatus),
			"new_status":      string(ev.NewStatus),
		}, nil

	case domain.ExecutionLevelChangedEvent:
		ids, err := f.subjectAudience(ctx, subjectType, subjectID)
		if err != nil {
			return nil, nil, err
		}
		return ids, map[string]any{
			"previous_level": ev.PreviousLevel,
			"new_level":      ev.NewLevel,
		}, nil

	case domain.DiscussionCreatedEvent:
		ids, err := f.discussionAudience(ctx, subjectType, subjectID)
		if err != nil {
			return nil, nil, err
		}
		// Replies additionally notify the author of the parent message.
		if ev.ParentID != nil {
			parent, err := f.discussions.GetByID(ctx, *ev.ParentID)
			if err != nil {
				return nil, nil, fmt.Errorf("get parent discussion: %w", err)
			}
			ids = append(ids, parent.AuthorID)
		}
		return ids, map[string]any{"discussion_id": ev.DiscussionID}, nil

	default:
		return nil, nil, nil
	}
}

// instructionAudience is the instruction's current bearers plus its ordering
// user.
func (f *NotificationFanOut) instructionAudience(ctx context.Context, instructionID string) ([]string, error) {
	instruction, err := f.instructions.GetByID(ctx, instructionID)
	if err != nil {
		return nil, fmt.Errorf("get instruction: %w", err)
	}

	bearers, err := f.assignments.FindCurrent(ctx, domain.SubjectInstruction, instructionID, domain.RoleBearer, f.now())
	if err != nil {
		return nil, fmt.Errorf("find current bearers: %w", err)
	}

	ids := make([]string, 0, len(bearers)+1)
	for _, a := range bearers {
		ids = append(ids, a.UserID)
	}
	ids = append(ids, instruction.OrderingUserID)
	return ids, nil
}

// discussionAudience is the subject's current assignees only: bearers for an
// instruction, responsibles for a task. The ordering user is not part of the
// discussion thread unless they hold an assignment.
func (f *NotificationFanOut) discussionAudience(ctx context.Context, subjectType domain.SubjectType, subjectID string) ([]string, error) {
	role := domain.RoleBearer
	if subjectType == domain.SubjectTask {
		role = domain.RoleResponsible
	}

	assignees, err := f.assignments.FindCurrent(ctx, subjectType, subjectID, role, f.now())
	if err != nil {
		return nil, fmt.Errorf("find current assignees: %w", err)
	}

	ids := make([]string, 0, len(assignees))
	for _, a := range assignees {
		ids = append(ids, a.UserID)
	}
	return ids, nil
}

// subjectAudience resolves the base recipient set: for an instruction its
// bearers plus ordering user, for a task its responsibles plus the bearers
// of the parent instruction.
func (f *NotificationFanOut) subjectAudience(ctx context.Context, subjectType domain.SubjectType, subjectID string) ([]string, error) {
	switch subjectType {
	case domain.SubjectInstruction:
		return f.instructionAudience(ctx, subjectID)

	case domain.SubjectTask:
		task, err := f.tasks.GetByID(ctx, subjectID)
		if err != nil {
			return nil, fmt.Errorf("get task: %w", err)
		}

		responsibles, err := f.assignments.FindCurrent(ctx, domain.SubjectTask, subjectID, domain.RoleResponsible, f.now())
		if err != nil {
			return nil, fmt.Errorf("find current responsibles: %w", err)
		}

		bearers, err := f.assignments.FindCurrent(ctx, domain.SubjectInstruction, task.InstructionID, domain.RoleBearer, f.now())
		if err != nil {
			return nil, fmt.Errorf("find parent bearers: %w", err)
		}

		ids := make([]string, 0, len(responsibles)+len(bearers))
		for _, a := range responsibles {
			ids = append(ids, a.UserID)
		}
		for _, a := range bearers {
			ids = append(ids, a.UserID)
		}
		return ids, nil

	default:
		return nil, nil
	}
}
