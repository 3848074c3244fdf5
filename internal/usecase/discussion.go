package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
	"github.com/bouramah/GovTrack-sub006/internal/eventbus"
)

// CreateDiscussionInput captures the payload for posting a message.
type CreateDiscussionInput struct {
	SubjectType domain.SubjectType
	SubjectID   string
	ParentID    *string
	Body        string
}

// DiscussionService manages discussion threads on instructions and tasks.
type DiscussionService struct {
	discussions port.DiscussionRepository
	authz       *AuthzService
	bus         *eventbus.Bus
	logger      *zap.Logger
	now         func() time.Time
}

// NewDiscussionService constructs a DiscussionService.
func NewDiscussionService(
	discussions port.DiscussionRepository,
	authz *AuthzService,
	bus *eventbus.Bus,
	logger *zap.Logger,
) *DiscussionService {
	return &DiscussionService{
		discussions: discussions,
		authz:       authz,
		bus:         bus,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create posts a top-level message or a reply and publishes
// DiscussionCreated after the write.
func (s *DiscussionService) Create(ctx context.Context, actorID string, input CreateDiscussionInput) (*domain.Discussion, error) {
	if !s.authz.Authorize(ctx, actorID, domain.PermCreateDiscussion) {
		return nil, domain.ErrForbidden
	}

	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, fmt.Errorf("message body is required")
	}

	if input.ParentID != nil {
		parent, err := s.discussions.GetByID(ctx, *input.ParentID)
		if err != nil {
			return nil, fmt.Errorf("get parent message: %w", err)
		}
		if parent.SubjectType != input.SubjectType || parent.SubjectID != input.SubjectID {
			return nil, fmt.Errorf("parent message belongs to another subject")
		}
	}

	discussion := domain.Discussion{
		ID:          uuid.NewString(),
		SubjectType: input.SubjectType,
		SubjectID:   input.SubjectID,
		AuthorID:    actorID,
		ParentID:    input.ParentID,
		Body:        body,
		CreatedAt:   s.now(),
	}

	if err := s.discussions.Create(ctx, discussion); err != nil {
		return nil, fmt.Errorf("create discussion: %w", err)
	}

	s.bus.Publish(ctx, domain.DiscussionCreatedEvent{
		EventID:      uuid.NewString(),
		DiscussionID: discussion.ID,
		SubjectType:  discussion.SubjectType,
		SubjectID:    discussion.SubjectID,
		ActorID:      actorID,
		ParentID:     discussion.ParentID,
		CreatedAt:    discussion.CreatedAt,
	})

	return &discussion, nil
}

// ListBySubject returns the subject's messages, oldest first.
func (s *DiscussionService) ListBySubject(ctx context.Context, subjectType domain.SubjectType, subjectID string) ([]domain.Discussion, error) {
	rows, err := s.discussions.ListBySubject(ctx, subjectType, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list discussions: %w", err)
	}
	return rows, nil
}
