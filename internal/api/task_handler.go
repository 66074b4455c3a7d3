package api

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/resilience/apperror"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/store"
)

// TaskHandler handles task CRUD requests.
type TaskHandler struct {
	taskService *service.TaskService
	validator   *validator.Validate
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
	}
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) error {
	userID, err := userIDFromContext(r)
	if err != nil {
		return err
	}

	var req CreateTaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	task, err := h.taskService.Create(r.Context(), userID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		CategoryID:  req.CategoryID,
		TeamID:      req.TeamID,
		DueAt:       req.DueAt,
	})
	if err != nil {
		return err
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, DataResponse{
		Success: true,
		Data:    newTaskResponse(task),
	})
	return nil
}

// List handles GET /tasks with optional status, priority, category_id,
// team_id, page and page_size query parameters.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) error {
	userID, err := userIDFromContext(r)
	if err != nil {
		return err
	}

	filter, err := taskFilterFromQuery(r)
	if err != nil {
		return err
	}

	page, err := h.taskService.List(r.Context(), userID, filter)
	if err != nil {
		return err
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newTaskListResponse(page))
	return nil
}

// Get handles GET /tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) error {
	userID, err := userIDFromContext(r)
	if err != nil {
		return err
	}
	taskID, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	task, err := h.taskService.Get(r.Context(), userID, taskID)
	if err != nil {
		return err
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DataResponse{
		Success: true,
		Data:    newTaskResponse(task),
	})
	return nil
}

// Update handles PATCH /tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) error {
	userID, err := userIDFromContext(r)
	if err != nil {
		return err
	}
	taskID, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	var req UpdateTaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	update := service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		CategoryID:  req.CategoryID,
		TeamID:      req.TeamID,
		DueAt:       req.DueAt,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		update.Status = &status
	}

	task, err := h.taskService.Update(r.Context(), userID, taskID, update)
	if err != nil {
		return err
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DataResponse{
		Success: true,
		Data:    newTaskResponse(task),
	})
	return nil
}

// Delete handles DELETE /tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	userID, err := userIDFromContext(r)
	if err != nil {
		return err
	}
	taskID, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	if err := h.taskService.Delete(r.Context(), userID, taskID); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// taskFilterFromQuery parses the list-endpoint query parameters.
func taskFilterFromQuery(r *http.Request) (store.TaskFilter, error) {
	q := r.URL.Query()
	var filter store.TaskFilter

	if status := q.Get("status"); status != "" {
		s := domain.TaskStatus(status)
		if !domain.ValidStatus(s) {
			return filter, apperror.New(apperror.CodeValidation,
				apperror.WithMessage("invalid status filter"))
		}
		filter.Status = s
	}

	if priority := q.Get("priority"); priority != "" {
		p, err := strconv.Atoi(priority)
		if err != nil || p < domain.PriorityLow || p > domain.PriorityHigh {
			return filter, apperror.New(apperror.CodeValidation,
				apperror.WithMessage("invalid priority filter"))
		}
		filter.Priority = p
	}

	for param, dst := range map[string]**uuid.UUID{
		"category_id": &filter.CategoryID,
		"team_id":     &filter.TeamID,
	} {
		if raw := q.Get(param); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return filter, apperror.New(apperror.CodeValidation,
					apperror.WithMessage("invalid "+param+" filter"),
					apperror.WithCause(err))
			}
			*dst = &id
		}
	}

	if page := q.Get("page"); page != "" {
		p, err := strconv.Atoi(page)
		if err != nil || p < 1 {
			return filter, apperror.New(apperror.CodeValidation,
				apperror.WithMessage("page must be a positive integer"))
		}
		filter.Page = p
	}
	if pageSize := q.Get("page_size"); pageSize != "" {
		ps, err := strconv.Atoi(pageSize)
		if err != nil || ps < 1 {
			return filter, apperror.New(apperror.CodeValidation,
				apperror.WithMessage("page_size must be a positive integer"))
		}
		filter.PageSize = ps
	}

	return filter, nil
}
