package service_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/store"
)

func seedTeam(t *testing.T, teamStore *fakeTeamStore, ownerID uuid.UUID) *domain.Team {
	t.Helper()
	team, err := domain.NewTeam(ownerID, "backend")
	require.NoError(t, err)
	require.NoError(t, teamStore.Create(context.Background(), team))
	return team
}

func TestTeamServiceAddMember(t *testing.T) {
	t.Parallel()

	teamStore := newFakeTeamStore()
	notifier := &recordingNotifier{}
	svc := service.NewTeamService(teamStore, notifier, nil, slog.Default())
	ctx := context.Background()

	owner := uuid.New()
	team := seedTeam(t, teamStore, owner)
	invitee := uuid.New()

	// Only the owner may add members.
	err := svc.AddMember(ctx, invitee, team.ID, invitee)
	assert.ErrorIs(t, err, service.ErrNotOwned)

	require.NoError(t, svc.AddMember(ctx, owner, team.ID, invitee))
	assert.Equal(t, 1, notifier.count(), "invitee should be notified")

	// Adding twice reports the duplicate.
	err = svc.AddMember(ctx, owner, team.ID, invitee)
	assert.ErrorIs(t, err, store.ErrMemberExists)
}

func TestTeamServiceRemoveMember(t *testing.T) {
	t.Parallel()

	teamStore := newFakeTeamStore()
	svc := service.NewTeamService(teamStore, nil, nil, slog.Default())
	ctx := context.Background()

	owner := uuid.New()
	team := seedTeam(t, teamStore, owner)
	member := uuid.New()
	require.NoError(t, teamStore.AddMember(ctx, team.ID, member))

	// The owner cannot be removed, even by themselves.
	assert.ErrorIs(t, svc.RemoveMember(ctx, owner, team.ID, owner), service.ErrNotOwned)

	// A stranger cannot remove a member.
	assert.ErrorIs(t, svc.RemoveMember(ctx, uuid.New(), team.ID, member), service.ErrNotOwned)

	// A member may leave on their own.
	require.NoError(t, svc.RemoveMember(ctx, member, team.ID, member))

	// The owner may remove members.
	other := uuid.New()
	require.NoError(t, teamStore.AddMember(ctx, team.ID, other))
	require.NoError(t, svc.RemoveMember(ctx, owner, team.ID, other))
}

func TestTeamServiceListMembers_RequiresMembership(t *testing.T) {
	t.Parallel()

	teamStore := newFakeTeamStore()
	svc := service.NewTeamService(teamStore, nil, nil, slog.Default())
	ctx := context.Background()

	owner := uuid.New()
	team := seedTeam(t, teamStore, owner)

	_, err := svc.ListMembers(ctx, uuid.New(), team.ID)
	assert.ErrorIs(t, err, service.ErrNotTeamMember)

	members, err := svc.ListMembers(ctx, owner, team.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestTeamServiceDelete_OwnerOnly(t *testing.T) {
	t.Parallel()

	teamStore := newFakeTeamStore()
	svc := service.NewTeamService(teamStore, nil, nil, slog.Default())
	ctx := context.Background()

	owner := uuid.New()
	team := seedTeam(t, teamStore, owner)

	assert.ErrorIs(t, svc.Delete(ctx, uuid.New(), team.ID), service.ErrNotOwned)
	require.NoError(t, svc.Delete(ctx, owner, team.ID))
	assert.ErrorIs(t, svc.Delete(ctx, owner, team.ID), store.ErrTeamNotFound)
}
