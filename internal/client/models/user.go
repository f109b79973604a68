// Package models defines the client-side data model of a DreamWell session.
package models

// Role is the backend's user role name.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// User mirrors the backend's user record. Field names follow the JSON the
// backend emits; CreatedAt stays a string because the backend sends a local
// date-time without zone.
type User struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Role                 Role   `json:"role"`
	IsActive             bool   `json:"isActive,omitempty"`
	IsEmailVerified      bool   `json:"isEmailVerified,omitempty"`
	Theme                string `json:"theme,omitempty"`
	NotificationsEnabled bool   `json:"notificationsEnabled,omitempty"`
	Language             string `json:"language,omitempty"`
	CreatedAt            string `json:"createdAt,omitempty"`
}

// IsAdmin reports whether the role grants access to administrative views.
func (u *User) IsAdmin() bool {
	if u == nil {
		return false
	}
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}
