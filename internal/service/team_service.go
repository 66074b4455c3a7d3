package service

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// TeamService provides team management. Only the owner may change
// membership or delete the team.
type TeamService struct {
	teamStore store.TeamStore
	notifier  Notifier
	db        *sql.DB
	logger    *slog.Logger
}

// NewTeamService creates a TeamService. notifier may be nil.
func NewTeamService(
	teamStore store.TeamStore,
	notifier Notifier,
	db *sql.DB,
	logger *slog.Logger,
) *TeamService {
	return &TeamService{
		teamStore: teamStore,
		notifier:  notifier,
		db:        db,
		logger:    logger.With("component", "team_service"),
	}
}

// Create builds and persists a new team. The creating user becomes owner and
// first member atomically.
func (s *TeamService) Create(
	ctx context.Context,
	ownerID uuid.UUID,
	name string,
) (*domain.Team, error) {
	team, err := domain.NewTeam(ownerID, name)
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.teamStore.WithTx(tx).Create(ctx, team)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("team created",
		"team_id", team.ID,
		"owner_id", ownerID)
	return team, nil
}

// Get retrieves a team the user belongs to.
func (s *TeamService) Get(ctx context.Context, userID, teamID uuid.UUID) (*domain.Team, error) {
	team, err := s.teamStore.GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMembership(ctx, teamID, userID); err != nil {
		return nil, err
	}
	return team, nil
}

// List returns the teams the user belongs to.
func (s *TeamService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Team, error) {
	return s.teamStore.ListByUser(ctx, userID)
}

// AddMember adds a user to the team. Only the owner may add members. The
// invited user is notified.
func (s *TeamService) AddMember(ctx context.Context, actorID, teamID, userID uuid.UUID) error {
	team, err := s.teamStore.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.OwnerID != actorID {
		return ErrNotOwned
	}

	if err := s.teamStore.AddMember(ctx, teamID, userID); err != nil {
		return err
	}

	if s.notifier != nil {
		n, nerr := domain.NewNotification(userID, domain.NotificationTeamInvite, teamID.String())
		if nerr == nil {
			s.notifier.Notify(ctx, n)
		}
	}
	return nil
}

// RemoveMember removes a user from the team. The owner may remove anyone but
// themselves; members may remove themselves (leave).
func (s *TeamService) RemoveMember(ctx context.Context, actorID, teamID, userID uuid.UUID) error {
	team, err := s.teamStore.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if userID == team.OwnerID {
		return ErrNotOwned
	}
	if actorID != team.OwnerID && actorID != userID {
		return ErrNotOwned
	}
	return s.teamStore.RemoveMember(ctx, teamID, userID)
}

// ListMembers returns the team's members, visible to any member.
func (s *TeamService) ListMembers(
	ctx context.Context,
	userID, teamID uuid.UUID,
) ([]*domain.TeamMember, error) {
	if err := s.requireMembership(ctx, teamID, userID); err != nil {
		return nil, err
	}
	return s.teamStore.ListMembers(ctx, teamID)
}

// Delete removes the team. Only the owner may delete it.
func (s *TeamService) Delete(ctx context.Context, actorID, teamID uuid.UUID) error {
	team, err := s.teamStore.GetByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.OwnerID != actorID {
		return ErrNotOwned
	}
	return s.teamStore.Delete(ctx, teamID)
}

func (s *TeamService) requireMembership(ctx context.Context, teamID, userID uuid.UUID) error {
	members, err := s.teamStore.ListMembers(ctx, teamID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.UserID == userID {
			return nil
		}
	}
	return ErrNotTeamMember
}
