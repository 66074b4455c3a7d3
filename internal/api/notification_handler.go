package api

import (
	"net/http"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/service"
)

// NotificationHandler handles notification requests.
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List handles GET /notifications. Passing unread=true limits the result to
// unread notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) error {
	userID, err := userIDFromContext(r)
	if err != nil {
		return err
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.notificationService.List(r.Context(), userID, unreadOnly)
	if err != nil {
		return err
	}

	responses := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, newNotificationResponse(n))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, DataResponse{
		Success: true,
		Data:    responses,
	})
	return nil
}

// MarkRead handles POST /notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) error {
	userID, err := userIDFromContext(r)
	if err != nil {
		return err
	}
	notificationID, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	if err := h.notificationService.MarkRead(r.Context(), userID, notificationID); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
