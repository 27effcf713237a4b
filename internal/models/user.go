package models

import "time"

// Role values for a user account
const (
	RoleChild  = "child"
	RoleParent = "parent"
)

// User represents an authenticable account in the system
type User struct {
	ID           int64
	Role         string // 'child' or 'parent'
	Name         string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsChild reports whether the user holds the child role
func (u *User) IsChild() bool {
	return u.Role == RoleChild
}

// ChildProfile represents the child-specific profile attached to a child user
type ChildProfile struct {
	ID        int64
	UserID    int64
	ChildID   string // public shareable identifier, e.g. "CH-9F2A7C3B"
	CreatedAt time.Time
}

// ParentProfile represents the parent-specific profile attached to a parent user.
// Currently attribute-free, kept as its own row for future extension.
type ParentProfile struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
}

// ParentChildLink associates a parent user with a child user
type ParentChildLink struct {
	ParentUserID int64
	ChildUserID  int64
	CreatedAt    time.Time
}
