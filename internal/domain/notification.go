package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType identifies what event a notification describes.
type NotificationType string

const (
	NotificationTaskAssigned NotificationType = "task_assigned"
	NotificationTaskDue      NotificationType = "task_due"
	NotificationTeamInvite   NotificationType = "team_invite"
)

// Notification is a message queued for delivery to a user.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Payload   string           `json:"payload"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// NewNotification creates an unread notification for a user.
func NewNotification(userID uuid.UUID, typ NotificationType, payload string) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// Validate checks the notification's fields.
func (n *Notification) Validate() error {
	if n.ID == uuid.Nil || n.UserID == uuid.Nil {
		return ErrInvalidID
	}
	switch n.Type {
	case NotificationTaskAssigned, NotificationTaskDue, NotificationTeamInvite:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// MarkRead stamps the notification as read at the given time.
func (n *Notification) MarkRead(at time.Time) {
	t := at.UTC()
	n.ReadAt = &t
}
