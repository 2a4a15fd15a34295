package domain

import "time"

// Role names the access level a user registered with.
type Role string

const (
	RoleStudent  Role = "student"
	RoleLecturer Role = "lecturer"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleLecturer, RoleAdmin:
		return true
	}
	return false
}

// User represents an account that can authenticate against the service.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	IsApproved   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanLogin reports whether the account is allowed to obtain a token.
func (u *User) CanLogin() bool {
	return u.IsApproved || u.Role == RoleAdmin
}
