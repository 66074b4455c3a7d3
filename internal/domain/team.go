package domain

import (
	"time"

	"github.com/google/uuid"
)

// Team is a group of users sharing tasks. The owner is always a member.
type Team struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TeamMember links a user to a team.
type TeamMember struct {
	TeamID   uuid.UUID `json:"team_id"`
	UserID   uuid.UUID `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// NewTeam creates a team owned by the given user.
func NewTeam(ownerID uuid.UUID, name string) (*Team, error) {
	now := time.Now().UTC()
	team := &Team{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := team.Validate(); err != nil {
		return nil, err
	}
	return team, nil
}

// Validate checks the team's fields.
func (t *Team) Validate() error {
	if t.ID == uuid.Nil || t.OwnerID == uuid.Nil {
		return ErrInvalidID
	}
	if t.Name == "" {
		return ErrEmptyTitle
	}
	return nil
}
