package domain

import "time"

// AuditAction enumerates recorded administrative actions.
type AuditAction string

const (
	AuditActionDelete  AuditAction = "delete"
	AuditActionRestore AuditAction = "restore"
	AuditActionCreate  AuditAction = "create"
	AuditActionUpdate  AuditAction = "update"
	AuditActionCustom  AuditAction = "custom"
)

// RequestContext carries the inbound request attributes captured on audit rows.
type RequestContext struct {
	RequestID string
	IP        string
	UserAgent string
}

// AuditLogEntry is the append-only record of a destructive or administrative
// action. Entries are only ever inserted, never updated or deleted.
type AuditLogEntry struct {
	ID           string
	Action       AuditAction
	ActionName   string
	TableName    string
	RecordID     string
	RecordType   string
	ActorID      string
	Snapshot     map[string]any
	HumanSummary string
	RequestID    *string
	IP           *string
	UserAgent    *string
	Metadata     map[string]any
	CreatedAt    time.Time
}

// summaryFields is the priority order used to build a human-readable summary
// of an audited record, so entries stay interpretable after the referenced
// row is gone.
var summaryFields = []string{"name", "title", "email", "username", "identifier"}

// SummarizeRecord builds the denormalized human summary from a record
// snapshot, falling back to the primary key when no descriptive field exists.
func SummarizeRecord(recordType, recordID string, snapshot map[string]any) string {
	for _, field := range summaryFields {
		if v, ok := snapshot[field]; ok {
			if s, ok := v.(string); ok && s != "" {
				return recordType + " " + s
			}
		}
	}
	return recordType + " #" + recordID
}
