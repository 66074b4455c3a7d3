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

// NotificationStore implements store.NotificationStore backed by PostgreSQL.
type NotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewNotificationStore creates a PostgreSQL implementation of
// store.NotificationStore.
func NewNotificationStore(db store.DBTX, log *slog.Logger) *NotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &NotificationStore{
		db:     db,
		logger: log.With(slog.String("component", "notification_store")),
	}
}

var _ store.NotificationStore = (*NotificationStore)(nil)

// Create implements store.NotificationStore.Create.
func (s *NotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := n.Validate(); err != nil {
		log.Warn("notification validation failed during create",
			slog.String("error", err.Error()),
			slog.String("notification_id", n.ID.String()))
		return store.NewStoreError("notification", "create", "validation failed", err)
	}

	query := `
		INSERT INTO notifications (id, user_id, type, payload, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.db.ExecContext(
		ctx, query, n.ID, n.UserID, n.Type, n.Payload, n.ReadAt, n.CreatedAt,
	); err != nil {
		log.Error("failed to create notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", n.ID.String()),
			slog.String("user_id", n.UserID.String()))
		return MapError(err)
	}
	return nil
}

// ListByUser implements store.NotificationStore.ListByUser.
func (s *NotificationStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
) ([]*domain.Notification, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, type, payload, read_at, created_at
		FROM notifications
		WHERE user_id = $1
	`
	if unreadOnly {
		query += " AND read_at IS NULL"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list notifications",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Payload, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, MapError(err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return notifications, nil
}

// MarkRead implements store.NotificationStore.MarkRead.
func (s *NotificationStore) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE notifications SET read_at = $1 WHERE id = $2 AND read_at IS NULL`,
		at.UTC(), id,
	)
	if err != nil {
		log.Error("failed to mark notification read",
			slog.String("error", err.Error()),
			slog.String("notification_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "notification"); err != nil {
		return store.ErrNotificationNotFound
	}
	return nil
}

// Delete implements store.NotificationStore.Delete.
func (s *NotificationStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete notification",
			slog.String("error", err.Error()),
			slog.String("notification_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "notification"); err != nil {
		return store.ErrNotificationNotFound
	}
	return nil
}

// WithTx implements store.NotificationStore.WithTx.
func (s *NotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return &NotificationStore{db: tx, logger: s.logger}
}
