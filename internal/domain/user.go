package domain

import "time"

// UserRole separates end-users from admin-panel identities.
type UserRole string

const (
	UserRoleUser       UserRole = "user"
	UserRoleAdmin      UserRole = "admin"
	UserRoleSuperAdmin UserRole = "super_admin"
)

// IsValid reports whether the role is one of the known values.
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleUser, UserRoleAdmin, UserRoleSuperAdmin:
		return true
	}
	return false
}

// AdminRoles lists the roles that grant admin-level privilege.
func AdminRoles() []UserRole {
	return []UserRole{UserRoleAdmin, UserRoleSuperAdmin}
}

// User is the domain model for every identity in the system: end-users who
// submit tickets and feedback, and admins who triage them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	AvatarURL    *string
	Banned       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds admin-level privilege.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin || u.Role == UserRoleSuperAdmin
}
