package models

import "time"

// Profile is the user-facing identity record (handle, display name) kept by
// the auth service and read by the chat direct-room resolver.
type Profile struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"userId" db:"user_id"`
	Handle      *string   `json:"handle,omitempty" db:"handle"`
	DisplayName *string   `json:"displayName,omitempty" db:"display_name"`
	AvatarURL   *string   `json:"avatarUrl,omitempty" db:"avatar_url"`
	UserTypeID  *string   `json:"userTypeId,omitempty" db:"user_type_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// ProfileAccess is a profile joined with its user type, group, and page
// roles, the shape returned by register/login.
type ProfileAccess struct {
	Profile
	UserType *UserTypeAccess `json:"userType,omitempty"`
}

type UserTypeAccess struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	IsActive    bool           `json:"isActive"`
	UserGroup   *UserGroup     `json:"userGroup,omitempty"`
	PageRoles   []PageRoleView `json:"pageRoles"`
}

type PageRoleView struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Page *Page  `json:"page,omitempty"`
}
