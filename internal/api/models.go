// Package api contains the HTTP handlers and request/response models.
// Handlers return errors; the middleware error handler is the single place
// that renders error envelopes.
package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID       uuid.UUID `json:"user_id"`
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    string    `json:"expires_at,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=500"`
	Description string     `json:"description" validate:"max=5000"`
	Priority    int        `json:"priority"    validate:"required,min=1,max=3"`
	CategoryID  *uuid.UUID `json:"category_id"`
	TeamID      *uuid.UUID `json:"team_id"`
	DueAt       *time.Time `json:"due_at"`
}

// UpdateTaskRequest defines the payload for a partial task update. Absent
// fields are left unchanged.
type UpdateTaskRequest struct {
	Title       *string    `json:"title"       validate:"omitempty,min=1,max=500"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Status      *string    `json:"status"      validate:"omitempty,oneof=todo in_progress done"`
	Priority    *int       `json:"priority"    validate:"omitempty,min=1,max=3"`
	CategoryID  *uuid.UUID `json:"category_id"`
	TeamID      *uuid.UUID `json:"team_id"`
	DueAt       *time.Time `json:"due_at"`
}

// TaskResponse is the JSON shape of a task.
type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	TeamID      *uuid.UUID `json:"team_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    int        `json:"priority"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskListResponse is a page of tasks. Degraded is set when a fallback page
// was served because storage was unavailable.
type TaskListResponse struct {
	Success  bool           `json:"success"`
	Tasks    []TaskResponse `json:"tasks"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Degraded bool           `json:"degraded,omitempty"`
}

// CreateCategoryRequest defines the payload for creating a category.
type CreateCategoryRequest struct {
	Name  string `json:"name"  validate:"required,max=100"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateCategoryRequest defines the payload for updating a category.
type UpdateCategoryRequest struct {
	Name  string `json:"name"  validate:"omitempty,max=100"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// CategoryResponse is the JSON shape of a category.
type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateTeamRequest defines the payload for creating a team.
type CreateTeamRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// AddMemberRequest defines the payload for adding a team member.
type AddMemberRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// TeamResponse is the JSON shape of a team.
type TeamResponse struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamMemberResponse is the JSON shape of a team membership.
type TeamMemberResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// NotificationResponse is the JSON shape of a notification.
type NotificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Payload   string     `json:"payload"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// DataResponse wraps a successful payload.
type DataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// newTaskResponse maps a domain task to its response shape.
func newTaskResponse(task *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		UserID:      task.UserID,
		CategoryID:  task.CategoryID,
		TeamID:      task.TeamID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    task.Priority,
		DueAt:       task.DueAt,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// newTaskListResponse maps a task page to its response shape.
func newTaskListResponse(page *store.TaskPage) TaskListResponse {
	tasks := make([]TaskResponse, 0, len(page.Tasks))
	for _, task := range page.Tasks {
		tasks = append(tasks, newTaskResponse(task))
	}
	return TaskListResponse{
		Success:  true,
		Tasks:    tasks,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		Degraded: page.Degraded,
	}
}

// newCategoryResponse maps a domain category to its response shape.
func newCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Color:     c.Color,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// newTeamResponse maps a domain team to its response shape.
func newTeamResponse(team *domain.Team) TeamResponse {
	return TeamResponse{
		ID:        team.ID,
		OwnerID:   team.OwnerID,
		Name:      team.Name,
		CreatedAt: team.CreatedAt,
	}
}

// newNotificationResponse maps a domain notification to its response shape.
func newNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      string(n.Type),
		Payload:   n.Payload,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
