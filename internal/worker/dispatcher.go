// Package worker provides the background notification dispatcher. Services
// hand notifications to the dispatcher and return immediately; workers
// persist and deliver them with the delivery channel guarded by a circuit
// breaker and retries.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/resilience/apperror"
	"github.com/taskhub/taskhub-api/internal/resilience/breaker"
	"github.com/taskhub/taskhub-api/internal/resilience/retry"
	"github.com/taskhub/taskhub-api/internal/store"
)

// BreakerName identifies the delivery circuit in the breaker registry.
const BreakerName = "notification_sender"

// Sender delivers a notification over an external channel such as email or
// push. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, n *domain.Notification) error
}

// LogSender is the default Sender; it records deliveries in the log. It
// stands in when no external channel is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, n *domain.Notification) error {
	s.Logger.Info("notification delivered",
		"notification_id", n.ID,
		"user_id", n.UserID,
		"type", n.Type)
	return nil
}

// Config holds dispatcher tuning.
type Config struct {
	// WorkerCount determines how many concurrent workers deliver
	// notifications.
	WorkerCount int

	// QueueSize determines the buffer size of the in-memory queue. A full
	// queue drops new notifications rather than blocking request handlers.
	QueueSize int

	// SendTimeout bounds a single delivery attempt.
	SendTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		WorkerCount: 2,
		QueueSize:   256,
		SendTimeout: 5 * time.Second,
	}
}

// Dispatcher is the asynchronous notification pipeline. It implements
// service.Notifier.
type Dispatcher struct {
	store      store.NotificationStore
	sender     Sender
	circuit    *breaker.Breaker
	retrier    *retry.Executor
	retryOpts  retry.Options
	queue      chan *domain.Notification
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     Config
	logger     *slog.Logger
	onResult   func(result string)
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithResultHook installs a callback invoked with "sent", "failed", or
// "dropped" after each notification is resolved. Used for metrics.
func WithResultHook(hook func(result string)) DispatcherOption {
	return func(d *Dispatcher) { d.onResult = hook }
}

// WithRetryOptions overrides the delivery retry policy.
func WithRetryOptions(opts retry.Options) DispatcherOption {
	return func(d *Dispatcher) { d.retryOpts = opts }
}

// NewDispatcher creates a Dispatcher. The breaker registry supplies the
// circuit guarding the sender so its state shows up alongside the other
// circuits.
func NewDispatcher(
	notificationStore store.NotificationStore,
	sender Sender,
	registry *breaker.Registry,
	retrier *retry.Executor,
	config Config,
	logger *slog.Logger,
	opts ...DispatcherOption,
) *Dispatcher {
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = DefaultConfig().SendTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		store:      notificationStore,
		sender:     sender,
		circuit:    registry.Get(BreakerName),
		retrier:    retrier,
		queue:      make(chan *domain.Notification, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With(slog.String("component", "notification_dispatcher")),
		retryOpts: retry.Options{
			MaxAttempts: 3,
			Delay:       200 * time.Millisecond,
			Backoff:     true,
			Condition:   apperror.IsTransient,
		},
		onResult: func(string) {},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify queues a notification for delivery. It never blocks; when the queue
// is full the notification is dropped and counted.
func (d *Dispatcher) Notify(ctx context.Context, n *domain.Notification) {
	select {
	case d.queue <- n:
	default:
		d.logger.Warn("notification queue full, dropping",
			"notification_id", n.ID,
			"type", n.Type)
		d.onResult("dropped")
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start() {
	for i := 0; i < d.config.WorkerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Stop drains in-flight deliveries and shuts the pool down.
func (d *Dispatcher) Stop() {
	d.cancelFunc()
	d.wg.Wait()
}

// worker delivers notifications from the queue until stopped.
func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	d.logger.Debug("starting worker", "worker_id", id)
	for {
		select {
		case <-d.ctx.Done():
			d.logger.Debug("stopping worker", "worker_id", id)
			return
		case n := <-d.queue:
			d.process(n, id)
		}
	}
}

// process persists the notification and attempts delivery. Persistence
// failure is terminal for this notification; delivery failure is tolerated
// because the notification is already visible in the user's list.
func (d *Dispatcher) process(n *domain.Notification, workerID int) {
	ctx, cancel := context.WithTimeout(d.ctx, d.config.SendTimeout)
	defer cancel()

	log := d.logger.With(
		"notification_id", n.ID,
		"type", n.Type,
		"worker_id", workerID,
	)

	if err := d.store.Create(ctx, n); err != nil {
		log.Error("failed to persist notification", "error", err)
		d.onResult("failed")
		return
	}

	opts := d.retryOpts
	opts.OperationID = "notification.send:" + n.ID.String()
	_, err := retry.Do(ctx, d.retrier, opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.circuit.Do(ctx, func(ctx context.Context) error {
			return d.sender.Send(ctx, n)
		})
	})
	if err != nil {
		log.Warn("notification delivery failed", "error", err)
		d.onResult("failed")
		return
	}

	log.Debug("notification delivered")
	d.onResult("sent")
}
