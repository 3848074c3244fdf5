package domain

import "time"

// EventKind discriminates domain events on the bus.
type EventKind string

const (
	EventInstructionCreated    EventKind = "instruction.created"
	EventStatusChanged         EventKind = "status.changed"
	EventExecutionLevelChanged EventKind = "execution_level.changed"
	EventDiscussionCreated     EventKind = "discussion.created"
)

// Event is the tagged union of domain events published on the event bus after
// the mutating transaction commits.
type Event interface {
	Kind() EventKind
	Subject() (SubjectType, string)
	Actor() string
	OccurredAt() time.Time
}

// InstructionCreatedEvent is published once a new instruction is persisted.
type InstructionCreatedEvent struct {
	EventID       string
	InstructionID string
	Title         string
	ActorID       string
	CreatedAt     time.Time
}

func (e InstructionCreatedEvent) Kind() EventKind                { return EventInstructionCreated }
func (e InstructionCreatedEvent) Subject() (SubjectType, string) { return SubjectInstruction, e.InstructionID }
func (e InstructionCreatedEvent) Actor() string                  { return e.ActorID }
func (e InstructionCreatedEvent) OccurredAt() time.Time          { return e.CreatedAt }

// StatusChangedEvent is published after a lifecycle transition commits.
type StatusChangedEvent struct {
	EventID        string
	SubjectType    SubjectType
	SubjectID      string
	ActorID        string
	PreviousStatus Status
	NewStatus      Status
	Comment        *string
	ChangedAt      time.Time
}

func (e StatusChangedEvent) Kind() EventKind                { return EventStatusChanged }
func (e StatusChangedEvent) Subject() (SubjectType, string) { return e.SubjectType, e.SubjectID }
func (e StatusChangedEvent) Actor() string                  { return e.ActorID }
func (e StatusChangedEvent) OccurredAt() time.Time          { return e.ChangedAt }

// ExecutionLevelChangedEvent is published after a progress update commits.
type ExecutionLevelChangedEvent struct {
	EventID       string
	SubjectType   SubjectType
	SubjectID     string
	ActorID       string
	PreviousLevel int
	NewLevel      int
	Comment       *string
	ChangedAt     time.Time
}

func (e ExecutionLevelChangedEvent) Kind() EventKind                { return EventExecutionLevelChanged }
func (e ExecutionLevelChangedEvent) Subject() (SubjectType, string) { return e.SubjectType, e.SubjectID }
func (e ExecutionLevelChangedEvent) Actor() string                  { return e.ActorID }
func (e ExecutionLevelChangedEvent) OccurredAt() time.Time          { return e.ChangedAt }

// DiscussionCreatedEvent is published once a discussion message is persisted.
type DiscussionCreatedEvent struct {
	EventID      string
	DiscussionID string
	SubjectType  SubjectType
	SubjectID    string
	ActorID      string
	ParentID     *string
	CreatedAt    time.Time
}

func (e DiscussionCreatedEvent) Kind() EventKind                { return EventDiscussionCreated }
func (e DiscussionCreatedEvent) Subject() (SubjectType, string) { return e.SubjectType, e.SubjectID }
func (e DiscussionCreatedEvent) Actor() string                  { return e.ActorID }
func (e DiscussionCreatedEvent) OccurredAt() time.Time          { return e.CreatedAt }

// NotificationEvent is a delivery intent produced by the notification fan-out.
// One intent is emitted per recipient per domain event; actual transport and
// retries belong to the delivery collaborator.
type NotificationEvent struct {
	EventID     string
	Kind        EventKind
	SubjectType SubjectType
	SubjectID   string
	ActorID     string
	RecipientID string
	Payload     map[string]any
	CreatedAt   time.Time
}
