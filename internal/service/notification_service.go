package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/store"
)

// NotificationService provides read access to a user's notifications.
// Creation happens through the worker dispatcher, not here.
type NotificationService struct {
	notificationStore store.NotificationStore
	logger            *slog.Logger
	now               func() time.Time
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(
	notificationStore store.NotificationStore,
	logger *slog.Logger,
) *NotificationService {
	return &NotificationService{
		notificationStore: notificationStore,
		logger:            logger.With("component", "notification_service"),
		now:               time.Now,
	}
}

// List returns the user's notifications, optionally only unread ones.
func (s *NotificationService) List(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
) ([]*domain.Notification, error) {
	return s.notificationStore.ListByUser(ctx, userID, unreadOnly)
}

// MarkRead stamps one of the user's notifications as read. Notifications
// belonging to other users are reported as not found rather than forbidden.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	notifications, err := s.notificationStore.ListByUser(ctx, userID, true)
	if err != nil {
		return err
	}
	for _, n := range notifications {
		if n.ID == id {
			return s.notificationStore.MarkRead(ctx, id, s.now())
		}
	}
	return store.ErrNotificationNotFound
}
