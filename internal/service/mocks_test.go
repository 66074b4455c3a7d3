package service_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// fakeTaskStore is an in-memory TaskStore whose Create/Update/List calls can
// be scripted to fail a set number of times.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task

	createCalls int
	listCalls   int
	updateCalls int

	// failCreate pops one error per Create call until exhausted.
	failCreate []error
	failList   []error
	listDelay  time.Duration
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (f *fakeTaskStore) Create(ctx context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if len(f.failCreate) > 0 {
		err := f.failCreate[0]
		f.failCreate = f.failCreate[1:]
		return err
	}
	cp := *task
	f.tasks[task.ID] = &cp
	return nil
}

func (f *fakeTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *task
	return &cp, nil
}

func (f *fakeTaskStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
) (*store.TaskPage, error) {
	f.mu.Lock()
	f.listCalls++
	var failErr error
	if len(f.failList) > 0 {
		failErr = f.failList[0]
		f.failList = f.failList[1:]
	}
	delay := f.listDelay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failErr != nil {
		return nil, failErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var tasks []*domain.Task
	for _, task := range f.tasks {
		if task.UserID == userID {
			cp := *task
			tasks = append(tasks, &cp)
		}
	}
	return &store.TaskPage{
		Tasks:    tasks,
		Total:    len(tasks),
		Page:     1,
		PageSize: 20,
	}, nil
}

func (f *fakeTaskStore) Update(ctx context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if _, ok := f.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	cp := *task
	f.tasks[task.ID] = &cp
	return nil
}

func (f *fakeTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return f }

// fakeTeamStore is an in-memory TeamStore tracking teams and memberships.
type fakeTeamStore struct {
	mu      sync.Mutex
	teams   map[uuid.UUID]*domain.Team
	members map[uuid.UUID][]uuid.UUID // teamID -> userIDs
}

func newFakeTeamStore() *fakeTeamStore {
	return &fakeTeamStore{
		teams:   make(map[uuid.UUID]*domain.Team),
		members: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeTeamStore) Create(ctx context.Context, team *domain.Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *team
	f.teams[team.ID] = &cp
	f.members[team.ID] = []uuid.UUID{team.OwnerID}
	return nil
}

func (f *fakeTeamStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	team, ok := f.teams[id]
	if !ok {
		return nil, store.ErrTeamNotFound
	}
	cp := *team
	return &cp, nil
}

func (f *fakeTeamStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var teams []*domain.Team
	for teamID, userIDs := range f.members {
		for _, id := range userIDs {
			if id == userID {
				cp := *f.teams[teamID]
				teams = append(teams, &cp)
			}
		}
	}
	return teams, nil
}

func (f *fakeTeamStore) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.members[teamID] {
		if id == userID {
			return store.ErrMemberExists
		}
	}
	f.members[teamID] = append(f.members[teamID], userID)
	return nil
}

func (f *fakeTeamStore) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := f.members[teamID]
	for i, id := range ids {
		if id == userID {
			f.members[teamID] = append(ids[:i], ids[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeTeamStore) ListMembers(
	ctx context.Context,
	teamID uuid.UUID,
) ([]*domain.TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var members []*domain.TeamMember
	for _, id := range f.members[teamID] {
		members = append(members, &domain.TeamMember{TeamID: teamID, UserID: id})
	}
	return members, nil
}

func (f *fakeTeamStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.teams[id]; !ok {
		return store.ErrTeamNotFound
	}
	delete(f.teams, id)
	delete(f.members, id)
	return nil
}

func (f *fakeTeamStore) WithTx(tx *sql.Tx) store.TeamStore { return f }

// recordingNotifier records notifications handed to it.
type recordingNotifier struct {
	mu            sync.Mutex
	notifications []*domain.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n *domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notifications)
}
