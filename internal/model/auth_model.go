package model

import "time"

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

// Profile is an account row. Role lives in user_roles; an absent row
// means the default role "user".
type Profile struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  *string   `json:"display_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserRole struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// ValidRole reports whether r is one of the known role names.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleModerator || r == RoleUser
}
