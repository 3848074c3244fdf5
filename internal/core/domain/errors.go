package domain

import "errors"

var (
	// ErrForbidden indicates the actor lacks the required permission. It
	// deliberately carries no detail beyond the denial itself.
	ErrForbidden = errors.New("insufficient permission")
	// ErrInvalidTransition indicates the requested status edge is not part
	// of the lifecycle graph.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidExecutionLevel indicates a progress value outside [0,100].
	ErrInvalidExecutionLevel = errors.New("execution level must be between 0 and 100")
	// ErrConflict indicates a concurrent mutation won the race; the caller
	// may retry against the fresh state.
	ErrConflict = errors.New("concurrent modification conflict")
)
