package auth

import "time"

// Identity is a stored user account as seen by the authentication core.
type Identity struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Registration carries the fields accepted when creating an account.
type Registration struct {
	Username string
	Email    string
	Password string
}
