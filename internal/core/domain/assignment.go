package domain

import "time"

// SubjectType discriminates lifecycle subjects.
type SubjectType string

const (
	SubjectInstruction SubjectType = "instruction"
	SubjectTask        SubjectType = "task"
)

// AssignmentRole names the relationship an assignment grants.
type AssignmentRole string

const (
	// RoleBearer marks a user as porteur of an instruction.
	RoleBearer AssignmentRole = "bearer"
	// RoleResponsible marks a user as responsable of a task.
	RoleResponsible AssignmentRole = "responsible"
)

// Assignment is a temporal binding between a user and an instruction or task.
// Rows are never deleted: revoking sets EndedAt and clears Active, keeping the
// row as the historical record of who held the role and when.
type Assignment struct {
	ID          string
	SubjectType SubjectType
	SubjectID   string
	UserID      string
	Role        AssignmentRole
	AssignedBy  string
	AssignedAt  time.Time
	EndedAt     *time.Time
	Active      bool
}

// Current reports whether the assignment is in force at the given time. This
// predicate is the single definition of "current" used by both authorization
// scoping and notification recipient computation.
func (a Assignment) Current(now time.Time) bool {
	if !a.Active {
		return false
	}
	return a.EndedAt == nil || !a.EndedAt.Before(now)
}
