package models

import "time"

// Page is an application page that roles can be granted on.
type Page struct {
	ID        string    `json:"id" db:"id"`
	Key       string    `json:"key" db:"key"`
	Name      string    `json:"name" db:"name"`
	Path      string    `json:"path" db:"path"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UserGroup clusters user types for reporting purposes.
type UserGroup struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// UserType is the role a profile is assigned to.
type UserType struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	UserGroupID *string   `json:"userGroupId,omitempty" db:"user_group_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// UserTypePageRole binds a user type to a page with a role string.
type UserTypePageRole struct {
	ID         string    `json:"id" db:"id"`
	UserTypeID string    `json:"userTypeId" db:"user_type_id"`
	PageID     string    `json:"pageId" db:"page_id"`
	Role       string    `json:"role" db:"role"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
