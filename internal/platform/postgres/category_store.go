package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/store"
)

// CategoryStore implements store.CategoryStore backed by PostgreSQL.
type CategoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewCategoryStore creates a PostgreSQL implementation of store.CategoryStore.
func NewCategoryStore(db store.DBTX, log *slog.Logger) *CategoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &CategoryStore{
		db:     db,
		logger: log.With(slog.String("component", "category_store")),
	}
}

var _ store.CategoryStore = (*CategoryStore)(nil)

// Create implements store.CategoryStore.Create.
func (s *CategoryStore) Create(ctx context.Context, category *domain.Category) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := category.Validate(); err != nil {
		log.Warn("category validation failed during create",
			slog.String("error", err.Error()),
			slog.String("category_id", category.ID.String()))
		return store.NewStoreError("category", "create", "validation failed", err)
	}

	query := `
		INSERT INTO categories (id, user_id, name, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.UserID,
		category.Name,
		category.Color,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create category",
			slog.String("error", err.Error()),
			slog.String("category_id", category.ID.String()))
		return MapError(err)
	}

	log.Info("category created successfully",
		slog.String("category_id", category.ID.String()),
		slog.String("user_id", category.UserID.String()))
	return nil
}

// GetByID implements store.CategoryStore.GetByID.
func (s *CategoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, color, created_at, updated_at
		FROM categories
		WHERE id = $1
	`
	var c domain.Category
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Color, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if IsNotFoundError(err) {
			log.Debug("category not found", slog.String("category_id", id.String()))
			return nil, store.ErrCategoryNotFound
		}
		log.Error("failed to get category by ID",
			slog.String("error", err.Error()),
			slog.String("category_id", id.String()))
		return nil, MapError(err)
	}
	return &c, nil
}

// ListByUser implements store.CategoryStore.ListByUser.
func (s *CategoryStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, name, color, created_at, updated_at
		FROM categories
		WHERE user_id = $1
		ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list categories",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var categories []*domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, MapError(err)
		}
		categories = append(categories, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return categories, nil
}

// Update implements store.CategoryStore.Update.
func (s *CategoryStore) Update(ctx context.Context, category *domain.Category) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := category.Validate(); err != nil {
		return store.NewStoreError("category", "update", "validation failed", err)
	}

	category.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE categories
		SET name = $1, color = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(
		ctx, query, category.Name, category.Color, category.UpdatedAt, category.ID,
	)
	if err != nil {
		log.Error("failed to update category",
			slog.String("error", err.Error()),
			slog.String("category_id", category.ID.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "category"); err != nil {
		return store.ErrCategoryNotFound
	}
	return nil
}

// Delete implements store.CategoryStore.Delete. Tasks referencing the
// category keep existing; the schema clears their category_id via
// ON DELETE SET NULL.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete category",
			slog.String("error", err.Error()),
			slog.String("category_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "category"); err != nil {
		return store.ErrCategoryNotFound
	}
	return nil
}

// WithTx implements store.CategoryStore.WithTx.
func (s *CategoryStore) WithTx(tx *sql.Tx) store.CategoryStore {
	return &CategoryStore{db: tx, logger: s.logger}
}
