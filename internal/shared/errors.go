package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a uniqueness constraint was violated.
	ErrConflict = errors.New("resource already exists")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation marks input that failed validation.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden indicates an authenticated actor lacks the required authority.
	ErrForbidden = errors.New("forbidden")
)
