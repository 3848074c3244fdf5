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
)

// CreateTaskInput captures the payload for creating a task.
type CreateTaskInput struct {
	InstructionID      string
	Title              string
	Description        *string
	ResponsibleUserIDs []string
}

// UpdateTaskInput captures the payload for updating a task.
type UpdateTaskInput struct {
	ID          string
	Title       *string
	Description *string
}

// ListTasksInput captures filters for listing tasks.
type ListTasksInput struct {
	InstructionID string
	Status        domain.Status
	Limit         int
	Offset        int
}

// TaskService manages tasks under instructions.
type TaskService struct {
	tasks        port.TaskRepository
	instructions port.InstructionRepository
	assignments  *AssignmentService
	authz        *AuthzService
	audit        *AuditRecorder
	logger       *zap.Logger
	now          func() time.Time
}

// NewTaskService constructs a TaskService.
func NewTaskService(
	tasks port.TaskRepository,
	instructions port.InstructionRepository,
	assignments *AssignmentService,
	authz *AuthzService,
	audit *AuditRecorder,
	logger *zap.Logger,
) *TaskService {
	return &TaskService{
		tasks:        tasks,
		instructions: instructions,
		assignments:  assignments,
		authz:        authz,
		audit:        audit,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create persists a new task in the initial to_do state under its parent
// instruction and binds the initial responsibles.
func (s *TaskService) Create(ctx context.Context, actorID string, input CreateTaskInput) (*domain.Task, error) {
	if !s.authz.Authorize(ctx, actorID, domain.PermCreateTask) {
		return nil, domain.ErrForbidden
	}
	if len(input.ResponsibleUserIDs) > 0 && !s.authz.Authorize(ctx, actorID, domain.PermAssignResponsibles) {
		return nil, domain.ErrForbidden
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	if _, err := s.instructions.GetByID(ctx, input.InstructionID); err != nil {
		return nil, fmt.Errorf("get parent instruction: %w", err)
	}

	now := s.now()
	task := domain.Task{
		ID:             uuid.NewString(),
		InstructionID:  input.InstructionID,
		Title:          title,
		Description:    input.Description,
		Status:         domain.StatusToDo,
		ExecutionLevel: 0,
		CreatedBy:      actorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	for _, userID := range input.ResponsibleUserIDs {
		if _, err := s.assignments.Assign(ctx, actorID, AssignInput{
			SubjectType: domain.SubjectTask,
			SubjectID:   task.ID,
			UserID:      userID,
			Role:        domain.RoleResponsible,
		}); err != nil {
			return nil, fmt.Errorf("assign initial responsible %s: %w", userID, err)
		}
	}

	return &task, nil
}

// Get returns the task when the actor's scope covers it.
func (s *TaskService) Get(ctx context.Context, actorID, taskID string) (*domain.Task, error) {
	scope := s.authz.ScopeFor(ctx, actorID, domain.ResourceTasks)
	if !scope.Visible() {
		return nil, domain.ErrForbidden
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	switch scope.Kind {
	case domain.ScopeEntity:
		// Direct gets go through the same membership predicate List uses.
		visible, err := s.tasks.VisibleTo(ctx, taskID, scope)
		if err != nil {
			return nil, err
		}
		if !visible {
			return nil, domain.ErrForbidden
		}
	case domain.ScopeOwn:
		responsibles, err := s.assignments.CurrentResponsibles(ctx, taskID)
		if err != nil {
			return nil, err
		}
		mine := false
		for _, id := range responsibles {
			if id == scope.UserID {
				mine = true
				break
			}
		}
		if !mine {
			return nil, domain.ErrForbidden
		}
	}

	return task, nil
}

// List returns the tasks the actor may see.
func (s *TaskService) List(ctx context.Context, actorID string, input ListTasksInput) ([]domain.Task, error) {
	scope := s.authz.ScopeFor(ctx, actorID, domain.ResourceTasks)
	if !scope.Visible() {
		return []domain.Task{}, nil
	}

	tasks, err := s.tasks.List(ctx, port.TaskFilter{
		Scope:         scope,
		InstructionID: input.InstructionID,
		Status:        input.Status,
		Limit:         input.Limit,
		Offset:        input.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

// Update modifies the descriptive fields of a task.
func (s *TaskService) Update(ctx context.Context, actorID string, input UpdateTaskInput) (*domain.Task, error) {
	if !s.authz.Authorize(ctx, actorID, domain.PermEditTask) {
		return nil, domain.ErrForbidden
	}

	task, err := s.tasks.GetByID(ctx, input.ID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("title is required")
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = input.Description
	}
	task.UpdatedAt = s.now()

	if err := s.tasks.Update(ctx, *task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	return task, nil
}

// Delete soft-deletes the task and records the deletion.
func (s *TaskService) Delete(ctx context.Context, actorID, taskID string) error {
	if !s.authz.Authorize(ctx, actorID, domain.PermEditTask) {
		return domain.ErrForbidden
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("get task: %w", err)
	}

	if err := s.tasks.SoftDelete(ctx, taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	s.audit.RecordDeletion(ctx, "tasks", "task", taskID, actorID, map[string]any{
		"title":  task.Title,
		"status": string(task.Status),
	})

	return nil
}
