package models

import "time"

// User is an account row owned by the auth service.
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Password     string     `json:"-" db:"password_hash"` // Never expose in JSON
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	LastSignInAt *time.Time `json:"lastSignInAt,omitempty" db:"last_sign_in_at"`
}

// AuthUser is what the bearer token resolves to on authenticated routes.
type AuthUser struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Handle string `json:"handle,omitempty"`
}
