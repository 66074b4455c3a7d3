package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// Task priorities, low to high.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// Task is a single unit of work owned by a user, optionally grouped into a
// category and shared with a team.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	TeamID      *uuid.UUID `json:"team_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    int        `json:"priority"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates a task in the todo state for the given owner.
func NewTask(userID uuid.UUID, title, description string, priority int) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Status:      TaskStatusTodo,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks the task's fields.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil || t.UserID == uuid.Nil {
		return ErrInvalidID
	}
	if t.Title == "" {
		return ErrEmptyTitle
	}
	switch t.Status {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
	default:
		return ErrInvalidStatus
	}
	if t.Priority < PriorityLow || t.Priority > PriorityHigh {
		return ErrInvalidPriority
	}
	return nil
}

// ValidStatus reports whether s is a known task status.
func ValidStatus(s TaskStatus) bool {
	return s == TaskStatusTodo || s == TaskStatusInProgress || s == TaskStatusDone
}
