package domain

import "time"

// Entity is an organizational unit in the hierarchy. A nil ParentID marks a
// top-level entity.
type Entity struct {
	ID          string
	Name        string
	Description *string
	ParentID    *string
	CreatedAt   time.Time
}

// EntityLeadership records a user chiefing an entity over a dated interval.
// A nil EndDate means the leadership is current.
type EntityLeadership struct {
	ID        string
	EntityID  string
	UserID    string
	StartDate time.Time
	EndDate   *time.Time
}

// Current reports whether the leadership row is in force at the given time.
func (l EntityLeadership) Current(now time.Time) bool {
	if l.StartDate.After(now) {
		return false
	}
	return l.EndDate == nil || !l.EndDate.Before(now)
}

// SubEntityIDs returns rootIDs plus the ids of every entity transitively
// parented under them, given the full entity list.
func SubEntityIDs(all []Entity, rootIDs []string) []string {
	children := make(map[string][]string, len(all))
	for _, e := range all {
		if e.ParentID != nil {
			children[*e.ParentID] = append(children[*e.ParentID], e.ID)
		}
	}

	seen := make(map[string]struct{}, len(rootIDs))
	queue := append([]string(nil), rootIDs...)
	var result []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
		queue = append(queue, children[id]...)
	}
	return result
}
