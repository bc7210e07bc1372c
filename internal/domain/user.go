package domain

import "time"

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleUser can read everything and manage its own reviews and comments.
	RoleUser Role = "user"
	// RoleModerator can additionally edit and delete anyone's reviews and comments.
	RoleModerator Role = "moderator"
	// RoleAdmin manages the catalog and user accounts.
	RoleAdmin Role = "admin"
)

// Roles lists every assignable role.
var Roles = []Role{RoleUser, RoleModerator, RoleAdmin}

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// ReservedUsername is rejected at signup because it collides with the /users/me route.
const ReservedUsername = "me"

// User represents an account. Accounts are created through email signup or by an admin
// and authenticate by exchanging a confirmation code for a bearer token.
type User struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Bio              string    `json:"bio"`
	Role             Role      `json:"role"`
	IsSuperuser      bool      `json:"-"`
	ConfirmationCode string    `json:"-"`
	DateJoined       time.Time `json:"date_joined"`
}

// IsAdmin returns true if the user has administrative privileges.
// Superusers are admins regardless of their role field.
func (u *User) IsAdmin() bool {
	return u.IsSuperuser || u.Role == RoleAdmin
}

// IsModerator returns true for moderators and everyone above them.
func (u *User) IsModerator() bool {
	return u.IsAdmin() || u.Role == RoleModerator
}

// EffectiveRole is the role used for permission decisions.
func (u *User) EffectiveRole() string {
	if u.IsSuperuser {
		return "superuser"
	}
	if u.Role == "" {
		return string(RoleUser)
	}
	return string(u.Role)
}
