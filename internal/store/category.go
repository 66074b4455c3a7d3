package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// CategoryStore defines the interface for category data persistence.
type CategoryStore interface {
	// Create saves a new category. Returns ErrDuplicate if the user already
	// has a category with the same name.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category by ID.
	// Returns ErrCategoryNotFound if the category does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)

	// ListByUser returns all of the user's categories, ordered by name.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error)

	// Update modifies an existing category.
	// Returns ErrCategoryNotFound if the category does not exist.
	Update(ctx context.Context, category *domain.Category) error

	// Delete removes a category by ID. Tasks referencing it keep existing
	// with their category cleared.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a CategoryStore bound to the provided transaction.
	WithTx(tx *sql.Tx) CategoryStore
}
