package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// TeamStore defines the interface for team data persistence.
type TeamStore interface {
	// Create saves a new team and records the owner as its first member.
	Create(ctx context.Context, team *domain.Team) error

	// GetByID retrieves a team by ID.
	// Returns ErrTeamNotFound if the team does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error)

	// ListByUser returns the teams the user belongs to.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Team, error)

	// AddMember adds a user to a team. Returns ErrMemberExists if the user
	// is already a member and a foreign-key error if either side is missing.
	AddMember(ctx context.Context, teamID, userID uuid.UUID) error

	// RemoveMember removes a user from a team.
	// Returns ErrNotFound if the membership does not exist.
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error

	// ListMembers returns the team's members.
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]*domain.TeamMember, error)

	// Delete removes a team and its memberships.
	// Returns ErrTeamNotFound if the team does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a TeamStore bound to the provided transaction.
	WithTx(tx *sql.Tx) TeamStore
}
