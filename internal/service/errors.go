// Package service provides application-level services for managing users,
// tasks, categories, teams, and notifications.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than
	// the one making the request. Maps to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrNotTeamMember indicates the acting user does not belong to the
	// team they are operating on. Maps to HTTP 403 Forbidden.
	ErrNotTeamMember = errors.New("user is not a member of the team")
)
