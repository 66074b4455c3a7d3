package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub-api/internal/domain"
)

// NotificationStore defines the interface for notification persistence.
type NotificationStore interface {
	// Create saves a new notification.
	Create(ctx context.Context, notification *domain.Notification) error

	// ListByUser returns the user's notifications, newest first. When
	// unreadOnly is set, read notifications are skipped.
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error)

	// MarkRead stamps a notification as read at the given time.
	// Returns ErrNotificationNotFound if the notification does not exist.
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error

	// Delete removes a notification by ID.
	// Returns ErrNotificationNotFound if the notification does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a NotificationStore bound to the provided transaction.
	WithTx(tx *sql.Tx) NotificationStore
}
