package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/api/middleware"
	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/store"
)

type fakeNotificationStore struct {
	notifications map[uuid.UUID]*domain.Notification
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{notifications: make(map[uuid.UUID]*domain.Notification)}
}

func (s *fakeNotificationStore) Create(_ context.Context, n *domain.Notification) error {
	s.notifications[n.ID] = n
	return nil
}

func (s *fakeNotificationStore) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error) {
	var out []*domain.Notification
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.ReadAt != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *fakeNotificationStore) MarkRead(_ context.Context, id uuid.UUID, at time.Time) error {
	n, ok := s.notifications[id]
	if !ok || n.ReadAt != nil {
		return store.ErrNotificationNotFound
	}
	n.ReadAt = &at
	return nil
}

func (s *fakeNotificationStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.notifications[id]; !ok {
		return store.ErrNotificationNotFound
	}
	delete(s.notifications, id)
	return nil
}

func (s *fakeNotificationStore) WithTx(*sql.Tx) store.NotificationStore { return s }

func newNotificationRouter(t *testing.T, notifStore *fakeNotificationStore, userID uuid.UUID) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewNotificationService(notifStore, log)
	eh := middleware.NewErrorHandler(shared.Renderer{}, log)
	handler := NewNotificationHandler(svc)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/notifications", eh.Wrap(handler.List))
	r.Post("/notifications/{id}/read", eh.Wrap(handler.MarkRead))
	return r
}

func seedNotification(t *testing.T, s *fakeNotificationStore, userID uuid.UUID) *domain.Notification {
	t.Helper()
	n, err := domain.NewNotification(userID, domain.NotificationTaskDue, uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), n))
	return n
}

func TestNotificationList_UnreadFilter(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	notifStore := newFakeNotificationStore()
	router := newNotificationRouter(t, notifStore, userID)

	unread := seedNotification(t, notifStore, userID)
	read := seedNotification(t, notifStore, userID)
	now := time.Now()
	read.ReadAt = &now
	seedNotification(t, notifStore, uuid.New()) // someone else's

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications?unread=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []NotificationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, unread.ID, resp.Data[0].ID)
}

func TestNotificationMarkRead(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	notifStore := newFakeNotificationStore()
	router := newNotificationRouter(t, notifStore, userID)
	n := seedNotification(t, notifStore, userID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/notifications/"+n.ID.String()+"/read", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotNil(t, notifStore.notifications[n.ID].ReadAt)
}

func TestNotificationMarkRead_ForeignNotificationIsNotFound(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	notifStore := newFakeNotificationStore()
	router := newNotificationRouter(t, notifStore, userID)
	foreign := seedNotification(t, notifStore, uuid.New())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/notifications/"+foreign.ID.String()+"/read", nil))

	// Ownership failures read as absence so notification IDs cannot be
	// probed across accounts.
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
