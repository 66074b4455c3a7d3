package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// TaskFilter narrows a task listing. Zero values mean "no filter".
type TaskFilter struct {
	Status     domain.TaskStatus
	Priority   int
	CategoryID *uuid.UUID
	TeamID     *uuid.UUID

	// Page is 1-based. PageSize of 0 uses the store default.
	Page     int
	PageSize int
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Tasks    []*domain.Task
	Total    int
	Page     int
	PageSize int

	// Degraded marks a page served from a fallback instead of storage.
	Degraded bool
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task. Returns a foreign-key error if the owner,
	// category, or team does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByUser returns a page of the user's tasks matching the filter,
	// most recently created first.
	ListByUser(ctx context.Context, userID uuid.UUID, filter TaskFilter) (*TaskPage, error)

	// Update modifies an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a TaskStore bound to the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
