package domain

import "time"

// StatusHistoryEntry records a single lifecycle transition. Append-only.
type StatusHistoryEntry struct {
	ID             string
	SubjectType    SubjectType
	SubjectID      string
	ActorID        string
	PreviousStatus Status
	NewStatus      Status
	Comment        *string
	EvidenceRef    *string
	CreatedAt      time.Time
}

// ExecutionLevelHistoryEntry records a single progress change. Append-only.
type ExecutionLevelHistoryEntry struct {
	ID            string
	SubjectType   SubjectType
	SubjectID     string
	ActorID       string
	PreviousLevel int
	NewLevel      int
	Comment       *string
	CreatedAt     time.Time
}
