package domain

import "time"

// Role is the access role assigned by the identity subsystem.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
)

// IsValid checks if the role is one of the allowed values.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleTeacher
}

// User is an authenticated identity. The engine never verifies credentials
// itself; it trusts the role resolved by the auth middleware.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	Token     string
	CreatedAt time.Time
}

// IsAdmin reports whether the user holds the coordinator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsTeacher reports whether the user holds the worker role.
func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}
