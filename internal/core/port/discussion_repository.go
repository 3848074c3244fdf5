package port

import (
	"context"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

// DiscussionRepository persists discussion messages.
type DiscussionRepository interface {
	Create(ctx context.Context, discussion domain.Discussion) error
	GetByID(ctx context.Context, id string) (*domain.Discussion, error)
	ListBySubject(ctx context.Context, subjectType domain.SubjectType, subjectID string) ([]domain.Discussion, error)
}
