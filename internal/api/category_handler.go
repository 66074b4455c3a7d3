package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/service"
)

// CategoryHandler handles category CRUD requests.
type CategoryHandler struct {
	categoryService *service.CategoryService
	validator       *validator.Validate
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		validator:       validator.New(),
	}
}

// Create handles POST /categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) error {
	userID, err := userIDFromContext(r)
	if err != nil {
		return err
	}

	var req CreateCategoryRequest
	if err := DecodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	category, err := h.categoryService.Create(r.Context(), userID, req.Name, req.Color)
	if err != nil {
		return err
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, DataResponse{
		Success: true,
		Data:    newCategoryResponse(category),
	})
	return nil
}

// List handles GET /categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) error {
	userID, err := userIDFromContext(r)
	if err != nil {
		return err
	}

	categories, err := h.categoryService.List(r.Context(), userID)
	if err != nil {
		return err
	}

	responses := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		responses = append(responses, newCategoryResponse(c))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, DataResponse{
		Success: true,
		Data:    responses,
	})
	return nil
}

// Update handles PATCH /categories/{id}.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) error {
	userID, err := userIDFromContext(r)
	if err != nil {
		return err
	}
	categoryID, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	var req UpdateCategoryRequest
	if err := DecodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	category, err := h.categoryService.Update(r.Context(), userID, categoryID, req.Name, req.Color)
	if err != nil {
		return err
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DataResponse{
		Success: true,
		Data:    newCategoryResponse(category),
	})
	return nil
}

// Delete handles DELETE /categories/{id}. Tasks referencing the category are
// detached, not deleted.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	userID, err := userIDFromContext(r)
	if err != nil {
		return err
	}
	categoryID, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	if err := h.categoryService.Delete(r.Context(), userID, categoryID); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
