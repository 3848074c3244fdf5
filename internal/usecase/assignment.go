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
	"github.com/bouramah/GovTrack-sub006/internal/repository"
)

// AssignInput captures the payload for binding a user to a subject.
type AssignInput struct {
	SubjectType domain.SubjectType
	SubjectID   string
	UserID      string
	Role        domain.AssignmentRole
}

// AssignmentService manages the temporal bindings between users and
// instructions or tasks.
type AssignmentService struct {
	assignments port.AssignmentRepository
	users       port.UserRepository
	authz       *AuthzService
	audit       *AuditRecorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(
	assignments port.AssignmentRepository,
	users port.UserRepository,
	authz *AuthzService,
	audit *AuditRecorder,
	logger *zap.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignments: assignments,
		users:       users,
		authz:       authz,
		audit:       audit,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CurrentBearers returns user ids of the instruction's current bearers.
func (s *AssignmentService) CurrentBearers(ctx context.Context, instructionID string) ([]string, error) {
	return s.currentUserIDs(ctx, domain.SubjectInstruction, instructionID, domain.RoleBearer)
}

// CurrentResponsibles returns user ids of the task's current responsibles.
func (s *AssignmentService) CurrentResponsibles(ctx context.Context, taskID string) ([]string, error) {
	return s.currentUserIDs(ctx, domain.SubjectTask, taskID, domain.RoleResponsible)
}

func (s *AssignmentService) currentUserIDs(ctx context.Context, subjectType domain.SubjectType, subjectID string, role domain.AssignmentRole) ([]string, error) {
	current, err := s.assignments.FindCurrent(ctx, subjectType, subjectID, role, s.now())
	if err != nil {
		return nil, fmt.Errorf("find current assignments: %w", err)
	}

	ids := make([]string, 0, len(current))
	for _, a := range current {
		ids = append(ids, a.UserID)
	}
	return ids, nil
}

// Assign binds the user to the subject. The operation is idempotent per
// (subject, user, role): assigning an already-current assignee returns the
// existing assignment id without creating a duplicate row.
func (s *AssignmentService) Assign(ctx context.Context, actorID string, input AssignInput) (string, error) {
	if !s.authz.Authorize(ctx, actorID, assignPermission(input.Role)) {
		return "", domain.ErrForbidden
	}

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return "", fmt.Errorf("get assignee: %w", err)
	}
	if !user.IsActive() {
		return "", fmt.Errorf("assignee %s: %w", input.UserID, errors.New("account is disabled"))
	}

	now := s.now()
	current, err := s.assignments.FindCurrent(ctx, input.SubjectType, input.SubjectID, input.Role, now)
	if err != nil {
		return "", fmt.Errorf("find current assignments: %w", err)
	}
	for _, a := range current {
		if a.UserID == input.UserID {
			return a.ID, nil
		}
	}

	assignment := domain.Assignment{
		ID:          uuid.NewString(),
		SubjectType: input.SubjectType,
		SubjectID:   input.SubjectID,
		UserID:      input.UserID,
		Role:        input.Role,
		AssignedBy:  actorID,
		AssignedAt:  now,
		Active:      true,
	}

	if err := s.assignments.Create(ctx, assignment); err != nil {
		return "", fmt.Errorf("create assignment: %w", err)
	}

	s.audit.RecordAction(ctx, "assignment.created", string(input.SubjectType)+"_assignments", assignment.ID, actorID, map[string]any{
		"subject_id": input.SubjectID,
		"user_id":    input.UserID,
		"role":       string(input.Role),
	})

	return assignment.ID, nil
}

// Revoke ends the assignment at the given time. The row is kept as the
// historical record of who held the role and when.
func (s *AssignmentService) Revoke(ctx context.Context, actorID, assignmentID string, at time.Time) error {
	assignment, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("get assignment: %w", err)
	}

	if !s.authz.Authorize(ctx, actorID, assignPermission(assignment.Role)) {
		return domain.ErrForbidden
	}

	if at.IsZero() {
		at = s.now()
	}

	if err := s.assignments.End(ctx, assignmentID, at); err != nil {
		return fmt.Errorf("end assignment: %w", err)
	}

	s.audit.RecordAction(ctx, "assignment.revoked", string(assignment.SubjectType)+"_assignments", assignmentID, actorID, map[string]any{
		"subject_id": assignment.SubjectID,
		"user_id":    assignment.UserID,
		"role":       string(assignment.Role),
	})

	return nil
}

// History returns every assignment row ever created for the subject.
func (s *AssignmentService) History(ctx context.Context, subjectType domain.SubjectType, subjectID string) ([]domain.Assignment, error) {
	rows, err := s.assignments.History(ctx, subjectType, subjectID)
	if err != nil {
		return nil, fmt.Errorf("assignment history: %w", err)
	}
	return rows, nil
}

func assignPermission(role domain.AssignmentRole) string {
	if role == domain.RoleResponsible {
		return domain.PermAssignResponsibles
	}
	return domain.PermAssignBearers
}
