package domain

import "time"

// Status enumerates the lifecycle states shared by instructions and tasks.
type Status string

const (
	StatusToDo             Status = "to_do"
	StatusInProgress       Status = "in_progress"
	StatusBlocked          Status = "blocked"
	StatusClosureRequested Status = "closure_requested"
	StatusDone             Status = "done"
)

// transitions is the directed edge set of the lifecycle graph. StatusDone is
// terminal. Blocked work must return through in_progress before a closure
// can be requested.
var transitions = map[Status][]Status{
	StatusToDo:             {StatusInProgress},
	StatusInProgress:       {StatusBlocked, StatusClosureRequested},
	StatusBlocked:          {StatusInProgress},
	StatusClosureRequested: {StatusInProgress, StatusDone},
	StatusDone:             {},
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether (from, to) is an edge of the lifecycle graph.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidExecutionLevel reports whether the progress value is within [0,100].
func ValidExecutionLevel(level int) bool {
	return level >= 0 && level <= 100
}

// Instruction is the top-level trackable unit of government work.
type Instruction struct {
	ID               string
	Title            string
	Description      *string
	Status           Status
	ExecutionLevel   int
	OrderingUserID   string
	PlannedStartDate *time.Time
	PlannedEndDate   *time.Time
	ActualStartDate  *time.Time
	ActualEndDate    *time.Time
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

// Task belongs to exactly one instruction and follows the same lifecycle.
type Task struct {
	ID             string
	InstructionID  string
	Title          string
	Description    *string
	Status         Status
	ExecutionLevel int
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}
