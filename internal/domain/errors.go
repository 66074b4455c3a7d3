// Package domain defines the core business entities and their validation
// rules.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// Usually wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or missing.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidPassword is returned when a password doesn't meet
	// length requirements.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrEmptyTitle is returned when a task or team is missing its title.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrInvalidStatus is returned when a task status is not one of the
	// known values.
	ErrInvalidStatus = errors.New("invalid task status")

	// ErrInvalidPriority is returned when a task priority is out of range.
	ErrInvalidPriority = errors.New("invalid task priority")

	// ErrInvalidRole is returned when a user role is not one of the known
	// values.
	ErrInvalidRole = errors.New("invalid user role")

	// ErrUnauthorized is returned when an operation is not permitted for
	// the acting user.
	ErrUnauthorized = errors.New("unauthorized operation")
)
