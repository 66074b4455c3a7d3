package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// CategoryService provides category CRUD with ownership enforcement.
type CategoryService struct {
	categoryStore store.CategoryStore
	logger        *slog.Logger
}

// NewCategoryService creates a CategoryService.
func NewCategoryService(categoryStore store.CategoryStore, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		categoryStore: categoryStore,
		logger:        logger.With("component", "category_service"),
	}
}

// Create builds and persists a new category for the owner.
func (s *CategoryService) Create(
	ctx context.Context,
	userID uuid.UUID,
	name, color string,
) (*domain.Category, error) {
	category, err := domain.NewCategory(userID, name, color)
	if err != nil {
		return nil, err
	}
	if err := s.categoryStore.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// List returns all of the user's categories.
func (s *CategoryService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error) {
	return s.categoryStore.ListByUser(ctx, userID)
}

// Update renames or recolors a category the user owns.
func (s *CategoryService) Update(
	ctx context.Context,
	userID, categoryID uuid.UUID,
	name, color string,
) (*domain.Category, error) {
	category, err := s.categoryStore.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category.UserID != userID {
		return nil, ErrNotOwned
	}

	if name != "" {
		category.Name = name
	}
	if color != "" {
		category.Color = color
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}
	if err := s.categoryStore.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category the user owns.
func (s *CategoryService) Delete(ctx context.Context, userID, categoryID uuid.UUID) error {
	category, err := s.categoryStore.GetByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if category.UserID != userID {
		return ErrNotOwned
	}
	return s.categoryStore.Delete(ctx, categoryID)
}
