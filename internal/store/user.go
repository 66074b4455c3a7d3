package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store. It handles password hashing
	// internally. Returns ErrEmailExists if the email is already taken and
	// domain validation errors wrapped in ErrInvalidEntity if the data is
	// invalid.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user. If a new plaintext Password is set it
	// is hashed and replaces the stored hash. Returns ErrUserNotFound if the
	// user does not exist and ErrEmailExists when updating to a taken email.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user by ID. Returns ErrUserNotFound if the user does
	// not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a UserStore bound to the provided transaction so that
	// multiple operations can execute atomically. The transaction is created
	// and managed by the caller.
	WithTx(tx *sql.Tx) UserStore
}
