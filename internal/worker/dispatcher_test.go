package worker

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/resilience/breaker"
	"github.com/taskhub/taskhub-api/internal/resilience/retry"
	"github.com/taskhub/taskhub-api/internal/store"
)

type fakeNotificationStore struct {
	mu      sync.Mutex
	created []*domain.Notification
	failErr error
}

func (f *fakeNotificationStore) Create(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationStore) ListByUser(context.Context, uuid.UUID, bool) ([]*domain.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationStore) MarkRead(context.Context, uuid.UUID, time.Time) error { return nil }
func (f *fakeNotificationStore) Delete(context.Context, uuid.UUID) error              { return nil }
func (f *fakeNotificationStore) WithTx(*sql.Tx) store.NotificationStore               { return f }

func (f *fakeNotificationStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type fakeSender struct {
	mu       sync.Mutex
	failures []error
	sent     []*domain.Notification
}

func (f *fakeSender) Send(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.failures) > 0 {
		err := f.failures[0]
		f.failures = f.failures[1:]
		return err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type resultRecorder struct {
	mu      sync.Mutex
	results []string
	done    chan struct{}
}

func newResultRecorder() *resultRecorder {
	return &resultRecorder{done: make(chan struct{}, 16)}
}

func (r *resultRecorder) hook(result string) {
	r.mu.Lock()
	r.results = append(r.results, result)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *resultRecorder) wait(t *testing.T) string {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification result")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results[len(r.results)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(
	t *testing.T,
	notifStore *fakeNotificationStore,
	sender Sender,
	recorder *resultRecorder,
) *Dispatcher {
	t.Helper()
	log := discardLogger()
	registry := breaker.NewRegistry(breaker.DefaultConfig(), log)
	retrier := retry.NewExecutor(log,
		retry.WithSleep(func(context.Context, time.Duration) error { return nil }))

	d := NewDispatcher(notifStore, sender, registry, retrier,
		Config{WorkerCount: 1, QueueSize: 4, SendTimeout: time.Second},
		log,
		WithResultHook(recorder.hook))
	d.Start()
	t.Cleanup(d.Stop)
	return d
}

func newNotification(t *testing.T) *domain.Notification {
	t.Helper()
	n, err := domain.NewNotification(uuid.New(), domain.NotificationTaskAssigned, uuid.NewString())
	require.NoError(t, err)
	return n
}

func TestDispatcher_DeliversNotification(t *testing.T) {
	t.Parallel()

	notifStore := &fakeNotificationStore{}
	sender := &fakeSender{}
	recorder := newResultRecorder()
	d := newTestDispatcher(t, notifStore, sender, recorder)

	d.Notify(context.Background(), newNotification(t))

	assert.Equal(t, "sent", recorder.wait(t))
	assert.Equal(t, 1, notifStore.count(), "notification should be persisted")
	assert.Equal(t, 1, sender.sentCount())
}

func TestDispatcher_RetriesTransientSendFailure(t *testing.T) {
	t.Parallel()

	notifStore := &fakeNotificationStore{}
	sender := &fakeSender{failures: []error{transientError(), transientError()}}
	recorder := newResultRecorder()
	d := newTestDispatcher(t, notifStore, sender, recorder)

	d.Notify(context.Background(), newNotification(t))

	assert.Equal(t, "sent", recorder.wait(t), "delivery should succeed after retries")
	assert.Equal(t, 1, sender.sentCount())
}

func TestDispatcher_PersistFailureIsTerminal(t *testing.T) {
	t.Parallel()

	notifStore := &fakeNotificationStore{failErr: store.ErrTransactionFailed}
	sender := &fakeSender{}
	recorder := newResultRecorder()
	d := newTestDispatcher(t, notifStore, sender, recorder)

	d.Notify(context.Background(), newNotification(t))

	assert.Equal(t, "failed", recorder.wait(t))
	assert.Equal(t, 0, sender.sentCount(), "unpersisted notification must not be sent")
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	notifStore := &fakeNotificationStore{}
	sender := &fakeSender{}
	recorder := newResultRecorder()

	log := discardLogger()
	registry := breaker.NewRegistry(breaker.DefaultConfig(), log)
	retrier := retry.NewExecutor(log,
		retry.WithSleep(func(context.Context, time.Duration) error { return nil }))

	// No Start(): nothing drains the queue, so it fills immediately.
	d := NewDispatcher(notifStore, sender, registry, retrier,
		Config{WorkerCount: 1, QueueSize: 1, SendTimeout: time.Second},
		log,
		WithResultHook(recorder.hook))

	d.Notify(context.Background(), newNotification(t))
	d.Notify(context.Background(), newNotification(t))

	assert.Equal(t, "dropped", recorder.wait(t))
}

func transientError() error {
	return &pgconn.PgError{Code: "08006"}
}
