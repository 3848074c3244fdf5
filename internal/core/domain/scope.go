package domain

// ScopeKind is the breadth of visibility a permission check grants.
type ScopeKind string

const (
	ScopeNone   ScopeKind = "none"
	ScopeOwn    ScopeKind = "own"
	ScopeEntity ScopeKind = "entity"
	ScopeGlobal ScopeKind = "global"
)

// Scope is a declarative visibility descriptor. Callers apply it as a query
// filter; the resolver itself never touches storage on the caller's behalf.
type Scope struct {
	Kind ScopeKind
	// EntityIDs bounds an entity scope to the chiefed entities and,
	// transitively, their sub-entities.
	EntityIDs []string
	// UserID bounds an own scope to assignments where the actor is a
	// current bearer or responsible.
	UserID string
}

// Visible reports whether the scope grants any visibility at all.
func (s Scope) Visible() bool {
	return s.Kind != ScopeNone
}
