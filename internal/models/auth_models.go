package models

import "time"

// Role names used in JWT claims and route guards.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// User represents an account in the portal (student or admin).
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // '-' means don't send in JSON response
	FullName     string    `json:"full_name" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Profile is the public projection of a user shown in admin views
// (order lists, token verification).
type Profile struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile returns the display projection of the user.
func (u *User) Profile() *Profile {
	return &Profile{ID: u.ID, Name: u.FullName, Email: u.Email}
}

// Credentials for login request.
type Credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}
