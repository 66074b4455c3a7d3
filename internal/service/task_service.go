package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/resilience/apperror"
	"github.com/taskhub/taskhub-api/internal/resilience/fallback"
	"github.com/taskhub/taskhub-api/internal/resilience/retry"
	"github.com/taskhub/taskhub-api/internal/store"
)

// Notifier queues a notification for asynchronous delivery. The worker
// dispatcher implements this; a nil Notifier disables notifications.
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification)
}

// CreateTaskInput carries the fields for a new task. CategoryID, TeamID, and
// DueAt are optional.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    int
	CategoryID  *uuid.UUID
	TeamID      *uuid.UUID
	DueAt       *time.Time
}

// TaskUpdate carries the mutable fields of a task. Nil pointers leave the
// corresponding field unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *domain.TaskStatus
	Priority    *int
	CategoryID  *uuid.UUID
	TeamID      *uuid.UUID
	DueAt       *time.Time
}

// TaskService provides task CRUD with ownership enforcement. Storage writes
// run through the retry executor so transient database failures are absorbed;
// listings degrade to an empty page when storage is slow or down.
type TaskService struct {
	taskStore store.TaskStore
	teamStore store.TeamStore
	notifier  Notifier
	retrier   *retry.Executor
	logger    *slog.Logger

	retryOpts       retry.Options
	fallbackTimeout time.Duration
}

// TaskServiceOption customizes a TaskService.
type TaskServiceOption func(*TaskService)

// WithNotifier wires a notification dispatcher into the service.
func WithNotifier(n Notifier) TaskServiceOption {
	return func(s *TaskService) { s.notifier = n }
}

// WithRetryOptions overrides the retry policy for storage writes.
func WithRetryOptions(opts retry.Options) TaskServiceOption {
	return func(s *TaskService) { s.retryOpts = opts }
}

// WithFallbackTimeout overrides how long listings wait on storage before
// degrading.
func WithFallbackTimeout(d time.Duration) TaskServiceOption {
	return func(s *TaskService) { s.fallbackTimeout = d }
}

// NewTaskService creates a TaskService.
func NewTaskService(
	taskStore store.TaskStore,
	teamStore store.TeamStore,
	retrier *retry.Executor,
	logger *slog.Logger,
	opts ...TaskServiceOption,
) *TaskService {
	s := &TaskService{
		taskStore: taskStore,
		teamStore: teamStore,
		retrier:   retrier,
		logger:    logger.With("component", "task_service"),
		retryOpts: retry.Options{
			MaxAttempts: 3,
			Delay:       100 * time.Millisecond,
			Backoff:     true,
			Condition:   apperror.IsTransient,
		},
		fallbackTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create builds and persists a new task for the owner. Transient storage
// failures are retried; constraint violations are not.
func (s *TaskService) Create(
	ctx context.Context,
	userID uuid.UUID,
	input CreateTaskInput,
) (*domain.Task, error) {
	task, err := domain.NewTask(userID, input.Title, input.Description, input.Priority)
	if err != nil {
		return nil, err
	}
	task.CategoryID = input.CategoryID
	task.TeamID = input.TeamID
	task.DueAt = input.DueAt

	if task.TeamID != nil {
		if err := s.requireMembership(ctx, *task.TeamID, userID); err != nil {
			return nil, err
		}
	}

	opts := s.retryOpts
	opts.OperationID = "task.create"
	_, err = retry.Do(ctx, s.retrier, opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.taskStore.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil && task.TeamID != nil {
		n, nerr := domain.NewNotification(userID, domain.NotificationTaskAssigned, task.ID.String())
		if nerr == nil {
			s.notifier.Notify(ctx, n)
		}
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"user_id", userID)
	return task, nil
}

// Get retrieves a task, enforcing that the requester owns it or shares its
// team.
func (s *TaskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, task, userID); err != nil {
		return nil, err
	}
	return task, nil
}

// List returns a page of the user's tasks. When storage is slow or failing,
// an empty degraded page is returned instead of an error so clients keep
// rendering.
func (s *TaskService) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
) (*store.TaskPage, error) {
	page, err := fallback.Do(ctx,
		fallback.Options{
			Timeout:   s.fallbackTimeout,
			Condition: apperror.IsTransient,
		},
		func(ctx context.Context) (*store.TaskPage, error) {
			return s.taskStore.ListByUser(ctx, userID, filter)
		},
		func() *store.TaskPage {
			s.logger.Warn("serving degraded empty task page",
				"user_id", userID)
			return &store.TaskPage{
				Tasks:    []*domain.Task{},
				Page:     1,
				PageSize: filter.PageSize,
				Degraded: true,
			}
		},
	)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Update applies a partial update to a task the user owns.
func (s *TaskService) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	update TaskUpdate,
) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, ErrNotOwned
	}

	applyUpdate(task, update)
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if update.TeamID != nil {
		if err := s.requireMembership(ctx, *update.TeamID, userID); err != nil {
			return nil, err
		}
	}

	opts := s.retryOpts
	opts.OperationID = "task.update"
	_, err = retry.Do(ctx, s.retrier, opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.taskStore.Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task the user owns.
func (s *TaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.UserID != userID {
		return ErrNotOwned
	}
	return s.taskStore.Delete(ctx, taskID)
}

// authorize permits the owner, or any member of the task's team.
func (s *TaskService) authorize(ctx context.Context, task *domain.Task, userID uuid.UUID) error {
	if task.UserID == userID {
		return nil
	}
	if task.TeamID == nil {
		return ErrNotOwned
	}
	if err := s.requireMembership(ctx, *task.TeamID, userID); err != nil {
		return ErrNotOwned
	}
	return nil
}

func (s *TaskService) requireMembership(ctx context.Context, teamID, userID uuid.UUID) error {
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

func applyUpdate(task *domain.Task, update TaskUpdate) {
	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Status != nil {
		task.Status = *update.Status
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	if update.CategoryID != nil {
		task.CategoryID = update.CategoryID
	}
	if update.TeamID != nil {
		task.TeamID = update.TeamID
	}
	if update.DueAt != nil {
		task.DueAt = update.DueAt
	}
}
