package users

import "errors"

var (
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid identifier or password")

	// ErrInvalidName is returned when the name is missing.
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidEmail is returned when the email is missing or malformed.
	ErrInvalidEmail = errors.New("a valid email is required")

	// ErrWeakPassword is returned when the password is under 8 characters.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)
