package domain

import "time"

// Discussion is a message attached to an instruction or task. A nil ParentID
// marks a top-level message; otherwise the row is a reply.
type Discussion struct {
	ID          string
	SubjectType SubjectType
	SubjectID   string
	AuthorID    string
	ParentID    *string
	Body        string
	CreatedAt   time.Time
}

// IsReply reports whether the message answers another one.
func (d Discussion) IsReply() bool {
	return d.ParentID != nil
}
