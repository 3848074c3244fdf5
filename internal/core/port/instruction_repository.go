package port

import (
	"context"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

// InstructionFilter narrows instruction listings. Scope carries the resolved
// visibility of the requesting actor and is applied as a query predicate.
type InstructionFilter struct {
	Scope  domain.Scope
	Status domain.Status
	Search string
	Limit  int
	Offset int
}

// InstructionRepository persists instructions.
type InstructionRepository interface {
	Create(ctx context.Context, instruction domain.Instruction) error
	GetByID(ctx context.Context, id string) (*domain.Instruction, error)
	List(ctx context.Context, filter InstructionFilter) ([]domain.Instruction, error)
	Count(ctx context.Context, filter InstructionFilter) (int, error)
	Update(ctx context.Context, instruction domain.Instruction) error
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	// VisibleTo reports whether the instruction falls inside the resolved
	// scope, using the same predicate List applies.
	VisibleTo(ctx context.Context, id string, scope domain.Scope) (bool, error)
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	Scope         domain.Scope
	InstructionID string
	Status        domain.Status
	Limit         int
	Offset        int
}

// TaskRepository persists tasks.
type TaskRepository interface {
	Create(ctx context.Context, task domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int, error)
	Update(ctx context.Context, task domain.Task) error
	SoftDelete(ctx context.Context, id string) error
	// VisibleTo reports whether the task falls inside the resolved scope,
	// using the same predicate List applies.
	VisibleTo(ctx context.Context, id string, scope domain.Scope) (bool, error)
}
