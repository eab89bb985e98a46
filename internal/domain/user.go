package domain

import "time"

// Role represents the user's permission level in the system.
type Role string

const (
	// RoleAdmin grants full administrative access.
	RoleAdmin Role = "admin"
)

// LocalUserID is the fixed ID the local identity backend assigns.
// There is exactly one operator in local mode, so a stable ID keeps
// restarts from orphaning client state.
const LocalUserID = "1"

// LocalUsername is the display name the local identity backend assigns.
const LocalUsername = "Manager"

// User represents the authenticated operator account.
type User struct {
	Syncable
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	Role         Role      `json:"role"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// IsAdmin returns true if the user has administrative privileges.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Name returns the best available name to display for the user.
// Prefers Username, falls back to email.
func (u *User) Name() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// NewLocalUser builds the single operator account the local identity
// backend hands out for an allow-listed email.
func NewLocalUser(email string) *User {
	u := &User{
		Username: LocalUsername,
		Email:    email,
		Role:     RoleAdmin,
	}
	u.ID = LocalUserID
	u.InitTimestamps()
	return u
}
