package auth

import (
	"time"

	"github.com/smart-attendance/attendance/internal/access"
	"github.com/smart-attendance/attendance/internal/platform/httpx"
)

// User represents an account able to sign in.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	FullName     string      `json:"full_name"`
	Role         access.Role `json:"role"`
	NIM          *string     `json:"nim,omitempty"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Identity returns the gate identity of u.
func (u *User) Identity() access.Identity {
	return access.Identity{ID: u.ID, Role: u.Role}
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

var (
	// ErrInvalidCredentials is returned for unknown emails, wrong passwords
	// and inactive accounts alike.
	ErrInvalidCredentials = httpx.Unauthenticated("Invalid email or password")
	// ErrUserNotFound is returned when a token subject no longer exists.
	ErrUserNotFound = httpx.NotFound("User not found")
)
