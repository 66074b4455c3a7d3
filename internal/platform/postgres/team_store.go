package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/store"
)

// TeamStore implements store.TeamStore backed by PostgreSQL.
type TeamStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTeamStore creates a PostgreSQL implementation of store.TeamStore.
func NewTeamStore(db store.DBTX, log *slog.Logger) *TeamStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &TeamStore{
		db:     db,
		logger: log.With(slog.String("component", "team_store")),
	}
}

var _ store.TeamStore = (*TeamStore)(nil)

// Create implements store.TeamStore.Create. The owner is recorded as the
// first member in the same statement batch; callers wanting atomicity run
// this inside store.RunInTransaction via WithTx.
func (s *TeamStore) Create(ctx context.Context, team *domain.Team) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := team.Validate(); err != nil {
		log.Warn("team validation failed during create",
			slog.String("error", err.Error()),
			slog.String("team_id", team.ID.String()))
		return store.NewStoreError("team", "create", "validation failed", err)
	}

	query := `
		INSERT INTO teams (id, owner_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(
		ctx, query, team.ID, team.OwnerID, team.Name, team.CreatedAt, team.UpdatedAt,
	); err != nil {
		log.Error("failed to create team",
			slog.String("error", err.Error()),
			slog.String("team_id", team.ID.String()))
		return MapError(err)
	}

	memberQuery := `
		INSERT INTO team_members (team_id, user_id, joined_at)
		VALUES ($1, $2, $3)
	`
	if _, err := s.db.ExecContext(
		ctx, memberQuery, team.ID, team.OwnerID, team.CreatedAt,
	); err != nil {
		log.Error("failed to add owner as team member",
			slog.String("error", err.Error()),
			slog.String("team_id", team.ID.String()))
		return MapError(err)
	}

	log.Info("team created successfully",
		slog.String("team_id", team.ID.String()),
		slog.String("owner_id", team.OwnerID.String()))
	return nil
}

// GetByID implements store.TeamStore.GetByID.
func (s *TeamStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, name, created_at, updated_at
		FROM teams
		WHERE id = $1
	`
	var team domain.Team
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&team.ID, &team.OwnerID, &team.Name, &team.CreatedAt, &team.UpdatedAt,
	)
	if err != nil {
		if IsNotFoundError(err) {
			log.Debug("team not found", slog.String("team_id", id.String()))
			return nil, store.ErrTeamNotFound
		}
		log.Error("failed to get team by ID",
			slog.String("error", err.Error()),
			slog.String("team_id", id.String()))
		return nil, MapError(err)
	}
	return &team, nil
}

// ListByUser implements store.TeamStore.ListByUser.
func (s *TeamStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Team, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT t.id, t.owner_id, t.name, t.created_at, t.updated_at
		FROM teams t
		JOIN team_members m ON m.team_id = t.id
		WHERE m.user_id = $1
		ORDER BY t.name
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list teams",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var teams []*domain.Team
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, MapError(err)
		}
		teams = append(teams, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return teams, nil
}

// AddMember implements store.TeamStore.AddMember.
func (s *TeamStore) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO team_members (team_id, user_id, joined_at)
		VALUES ($1, $2, $3)
	`
	if _, err := s.db.ExecContext(ctx, query, teamID, userID, time.Now().UTC()); err != nil {
		if IsUniqueViolation(err) {
			return store.ErrMemberExists
		}
		log.Error("failed to add team member",
			slog.String("error", err.Error()),
			slog.String("team_id", teamID.String()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}

	log.Info("team member added",
		slog.String("team_id", teamID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// RemoveMember implements store.TeamStore.RemoveMember.
func (s *TeamStore) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(
		ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`,
		teamID, userID,
	)
	if err != nil {
		log.Error("failed to remove team member",
			slog.String("error", err.Error()),
			slog.String("team_id", teamID.String()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, "team member")
}

// ListMembers implements store.TeamStore.ListMembers.
func (s *TeamStore) ListMembers(ctx context.Context, teamID uuid.UUID) ([]*domain.TeamMember, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT team_id, user_id, joined_at
		FROM team_members
		WHERE team_id = $1
		ORDER BY joined_at
	`
	rows, err := s.db.QueryContext(ctx, query, teamID)
	if err != nil {
		log.Error("failed to list team members",
			slog.String("error", err.Error()),
			slog.String("team_id", teamID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var members []*domain.TeamMember
	for rows.Next() {
		var m domain.TeamMember
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.JoinedAt); err != nil {
			return nil, MapError(err)
		}
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return members, nil
}

// Delete implements store.TeamStore.Delete. Memberships are removed by the
// schema's ON DELETE CASCADE.
func (s *TeamStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete team",
			slog.String("error", err.Error()),
			slog.String("team_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "team"); err != nil {
		return store.ErrTeamNotFound
	}
	return nil
}

// WithTx implements store.TeamStore.WithTx.
func (s *TeamStore) WithTx(tx *sql.Tx) store.TeamStore {
	return &TeamStore{db: tx, logger: s.logger}
}
