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

// CreateInstructionInput captures the payload for creating an instruction.
type CreateInstructionInput struct {
	Title            string
	Description      *string
	OrderingUserID   string
	BearerUserIDs    []string
	PlannedStartDate *time.Time
	PlannedEndDate   *time.Time
}

// UpdateInstructionInput captures the payload for updating an instruction.
type UpdateInstructionInput struct {
	ID               string
	Title            *string
	Description      *string
	PlannedStartDate *time.Time
	PlannedEndDate   *time.Time
	ActualStartDate  *time.Time
	ActualEndDate    *time.Time
}

// ListInstructionsInput captures filters for listing instructions.
type ListInstructionsInput struct {
	Status domain.Status
	Search string
	Limit  int
	Offset int
}

// ListInstructionsResult includes instructions and pagination metadata.
type ListInstructionsResult struct {
	Instructions []domain.Instruction
	Total        int
	Limit        int
	Offset       int
}

// InstructionService manages instructions and their visibility.
type InstructionService struct {
	instructions port.InstructionRepository
	assignments  *AssignmentService
	authz        *AuthzService
	audit        *AuditRecorder
	bus          *eventbus.Bus
	logger       *zap.Logger
	now          func() time.Time
}

// NewInstructionService constructs an InstructionService.
func NewInstructionService(
	instructions port.InstructionRepository,
	assignments *AssignmentService,
	authz *AuthzService,
	audit *AuditRecorder,
	bus *eventbus.Bus,
	logger *zap.Logger,
) *InstructionService {
	return &InstructionService{
		instructions: instructions,
		assignments:  assignments,
		authz:        authz,
		audit:        audit,
		bus:          bus,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create persists a new instruction in the initial to_do state, binds the
// initial bearers, and publishes InstructionCreated after the write.
func (s *InstructionService) Create(ctx context.Context, actorID string, input CreateInstructionInput) (*domain.Instruction, error) {
	if !s.authz.Authorize(ctx, actorID, domain.PermCreateInstruction) {
		return nil, domain.ErrForbidden
	}
	// Binding initial bearers needs the assignment permission too; checking
	// it before the write avoids persisting an instruction with no bearers.
	if len(input.BearerUserIDs) > 0 && !s.authz.Authorize(ctx, actorID, domain.PermAssignBearers) {
		return nil, domain.ErrForbidden
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if input.OrderingUserID == "" {
		return nil, fmt.Errorf("ordering user is required")
	}

	now := s.now()
	instruction := domain.Instruction{
		ID:               uuid.NewString(),
		Title:            title,
		Description:      input.Description,
		Status:           domain.StatusToDo,
		ExecutionLevel:   0,
		OrderingUserID:   input.OrderingUserID,
		PlannedStartDate: input.PlannedStartDate,
		PlannedEndDate:   input.PlannedEndDate,
		CreatedBy:        actorID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.instructions.Create(ctx, instruction); err != nil {
		return nil, fmt.Errorf("create instruction: %w", err)
	}

	for _, userID := range input.BearerUserIDs {
		if _, err := s.assignments.Assign(ctx, actorID, AssignInput{
			SubjectType: domain.SubjectInstruction,
			SubjectID:   instruction.ID,
			UserID:      userID,
			Role:        domain.RoleBearer,
		}); err != nil {
			return nil, fmt.Errorf("assign initial bearer %s: %w", userID, err)
		}
	}

	s.bus.Publish(ctx, domain.InstructionCreatedEvent{
		EventID:       uuid.NewString(),
		InstructionID: instruction.ID,
		Title:         instruction.Title,
		ActorID:       actorID,
		CreatedAt:     now,
	})

	return &instruction, nil
}

// Get returns the instruction when the actor's scope covers it.
func (s *InstructionService) Get(ctx context.Context, actorID, instructionID string) (*domain.Instruction, error) {
	scope := s.authz.ScopeFor(ctx, actorID, domain.ResourceInstructions)
	if !scope.Visible() {
		return nil, domain.ErrForbidden
	}

	instruction, err := s.instructions.GetByID(ctx, instructionID)
	if err != nil {
		return nil, fmt.Errorf("get instruction: %w", err)
	}

	visible, err := s.scopeCovers(ctx, scope, instruction)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, domain.ErrForbidden
	}

	return instruction, nil
}

// List returns the instructions the actor may see, narrowed by the resolved
// scope applied as a repository filter.
func (s *InstructionService) List(ctx context.Context, actorID string, input ListInstructionsInput) (*ListInstructionsResult, error) {
	scope := s.authz.ScopeFor(ctx, actorID, domain.ResourceInstructions)
	if !scope.Visible() {
		return &ListInstructionsResult{Instructions: []domain.Instruction{}, Limit: input.Limit, Offset: input.Offset}, nil
	}

	filter := port.InstructionFilter{
		Scope:  scope,
		Status: input.Status,
		Search: strings.TrimSpace(input.Search),
		Limit:  input.Limit,
		Offset: input.Offset,
	}

	instructions, err := s.instructions.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list instructions: %w", err)
	}

	total, err := s.instructions.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count instructions: %w", err)
	}

	return &ListInstructionsResult{
		Instructions: instructions,
		Total:        total,
		Limit:        input.Limit,
		Offset:       input.Offset,
	}, nil
}

// Update modifies the descriptive fields of an instruction.
func (s *InstructionService) Update(ctx context.Context, actorID string, input UpdateInstructionInput) (*domain.Instruction, error) {
	if !s.authz.Authorize(ctx, actorID, domain.PermEditInstruction) {
		return nil, domain.ErrForbidden
	}

	instruction, err := s.instructions.GetByID(ctx, input.ID)
	if err != nil {
		return nil, fmt.Errorf("get instruction: %w", err)
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("title is required")
		}
		instruction.Title = title
	}
	if input.Description != nil {
		instruction.Description = input.Description
	}
	if input.PlannedStartDate != nil {
		instruction.PlannedStartDate = input.PlannedStartDate
	}
	if input.PlannedEndDate != nil {
		instruction.PlannedEndDate = input.PlannedEndDate
	}
	if input.ActualStartDate != nil {
		instruction.ActualStartDate = input.ActualStartDate
	}
	if input.ActualEndDate != nil {
		instruction.ActualEndDate = input.ActualEndDate
	}
	instruction.UpdatedAt = s.now()

	if err := s.instructions.Update(ctx, *instruction); err != nil {
		return nil, fmt.Errorf("update instruction: %w", err)
	}

	return instruction, nil
}

// Delete soft-deletes the instruction and records the deletion on the audit
// trail with a reconstructable snapshot.
func (s *InstructionService) Delete(ctx context.Context, actorID, instructionID string) error {
	if !s.authz.Authorize(ctx, actorID, domain.PermDeleteInstruction) {
		return domain.ErrForbidden
	}

	instruction, err := s.instructions.GetByID(ctx, instructionID)
	if err != nil {
		return fmt.Errorf("get instruction: %w", err)
	}

	if err := s.instructions.SoftDelete(ctx, instructionID); err != nil {
		return fmt.Errorf("delete instruction: %w", err)
	}

	s.audit.RecordDeletion(ctx, "instructions", "instruction", instructionID, actorID, map[string]any{
		"title":  instruction.Title,
		"status": string(instruction.Status),
	})

	return nil
}

// Restore reverses a soft delete.
func (s *InstructionService) Restore(ctx context.Context, actorID, instructionID string) error {
	if !s.authz.Authorize(ctx, actorID, domain.PermDeleteInstruction) {
		return domain.ErrForbidden
	}

	if err := s.instructions.Restore(ctx, instructionID); err != nil {
		return fmt.Errorf("restore instruction: %w", err)
	}

	s.audit.RecordRestore(ctx, "instructions", "instruction", instructionID, actorID, nil)
	return nil
}

// scopeCovers checks a single instruction against an already-resolved scope.
func (s *InstructionService) scopeCovers(ctx context.Context, scope domain.Scope, instruction *domain.Instruction) (bool, error) {
	switch scope.Kind {
	case domain.ScopeGlobal:
		return true, nil
	case domain.ScopeEntity:
		// Direct gets go through the same membership predicate List uses,
		// so an entity chief cannot fetch by id what the listing would hide.
		return s.instructions.VisibleTo(ctx, instruction.ID, scope)
	case domain.ScopeOwn:
		bearers, err := s.assignments.CurrentBearers(ctx, instruction.ID)
		if err != nil {
			return false, err
		}
		for _, id := range bearers {
			if id == scope.UserID {
				return true, nil
			}
		}
		return instruction.OrderingUserID == scope.UserID, nil
	default:
		return false, nil
	}
}
