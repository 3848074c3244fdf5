package domain

import "time"

// Role defines a named bundle of permissions.
type Role struct {
	ID          string
	Name        string
	Description *string
}

// Permission defines a named capability.
type Permission struct {
	ID          string
	Name        string
	Description *string
}

// RolePermission links a role with a permission.
type RolePermission struct {
	RoleID       string
	PermissionID string
}

// UserRole assigns a role to a user over a dated interval. A nil RevokedAt
// means the assignment is still in force.
type UserRole struct {
	UserID     string
	RoleID     string
	AssignedAt time.Time
	RevokedAt  *time.Time
}

// Revoked reports whether the role assignment was ended before the given time.
func (ur UserRole) Revoked(now time.Time) bool {
	return ur.RevokedAt != nil && ur.RevokedAt.Before(now)
}

// UserPermission is a direct permission grant overriding role membership.
type UserPermission struct {
	UserID       string
	PermissionID string
	GrantedAt    time.Time
}

// PermissionSet is a user's effective permission set keyed by permission name.
type PermissionSet map[string]struct{}

// Has reports whether the set contains the named permission.
func (s PermissionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// NewPermissionSet builds a set from resolved permissions.
func NewPermissionSet(perms []Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p.Name] = struct{}{}
	}
	return set
}
