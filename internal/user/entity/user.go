package entity

import "time"

// Role mirrors the numeric role column of auth_user.
type Role int16

const (
	RoleUser   Role = 1
	RoleAdmin  Role = 2
	RoleAgency Role = 3
)

// ParseRole maps a role name to its value.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "user":
		return RoleUser, true
	case "admin":
		return RoleAdmin, true
	case "agency":
		return RoleAgency, true
	}
	return 0, false
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	case RoleAgency:
		return "agency"
	}
	return "unknown"
}

// User represents an account row in the `auth_user` table.
// PasswordHash is nil for accounts created through SSO.
type User struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	PasswordHash *string   `db:"password"`
	Role         Role      `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// IsAdmin reports whether the account carries the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
