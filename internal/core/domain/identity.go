package domain

import "time"

// UserStatus enumerates possible account states.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// User mirrors the persisted representation in the users table.
// Accounts are provisioned by administrators and disabled rather than
// deleted while history still references them.
type User struct {
	ID       string
	Username string
	Email    string
	FullName *string
	// EntityID is the organizational unit the user belongs to. Entity-scoped
	// visibility matches instructions through the bearers' membership.
	EntityID  *string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive reports whether the account may act on the system.
func (u User) IsActive() bool {
	return u.Status == UserStatusActive
}
