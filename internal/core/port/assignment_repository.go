package port

import (
	"context"
	"time"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

// AssignmentRepository persists temporal user↔subject bindings. Rows are
// soft-ended, never deleted.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment domain.Assignment) error
	GetByID(ctx context.Context, id string) (*domain.Assignment, error)
	// FindCurrent returns assignments in force for the subject and role at
	// the given time (active=true and end date null or in the future).
	FindCurrent(ctx context.Context, subjectType domain.SubjectType, subjectID string, role domain.AssignmentRole, now time.Time) ([]domain.Assignment, error)
	// FindCurrentForUser returns the subject-side view: assignments making
	// the user a current bearer/responsible.
	FindCurrentForUser(ctx context.Context, userID string, role domain.AssignmentRole, now time.Time) ([]domain.Assignment, error)
	// End sets the termination date and clears the active flag.
	End(ctx context.Context, id string, at time.Time) error
	// History returns every assignment row ever created for the subject.
	History(ctx context.Context, subjectType domain.SubjectType, subjectID string) ([]domain.Assignment, error)
}
