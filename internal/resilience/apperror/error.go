package apperror

import (
	"fmt"
	"time"
)

// RecoveryOptions carries hints about how a failed operation can be recovered.
// They are attached by the retry/breaker executors and surfaced to clients in
// the response's recovery block.
type RecoveryOptions struct {
	// RetryAttempts is the number of attempts the caller may make, or that
	// were already made by an internal retry executor.
	RetryAttempts int

	// RetryDelay is the suggested wait before the next attempt.
	RetryDelay time.Duration

	// CircuitBreakerEnabled reports that the failure was produced (or guarded)
	// by an open circuit breaker, so retrying immediately is pointless.
	CircuitBreakerEnabled bool
}

// Error is the structured error carried from the throw site to the error
// handling middleware. UserMessage is always populated: either supplied
// explicitly via an option or derived from the code through the catalog.
//
// An Error is treated as immutable after construction except for the
// SetContext/SetRequestID enrichment the middleware performs before
// rendering.
type Error struct {
	StatusCode  int
	Code        Code
	UserMessage Message
	Context     map[string]any
	Recovery    *RecoveryOptions
	Timestamp   time.Time
	RequestID   string

	// cause is the wrapped internal error, never shown to clients outside
	// diagnostic mode.
	cause error
}

// Option customizes an Error at construction time. Options form the explicit
// override record merged over the catalog defaults.
type Option func(*Error)

// WithStatus overrides the HTTP status derived from the code.
func WithStatus(status int) Option {
	return func(e *Error) { e.StatusCode = status }
}

// WithTitle overrides the catalog title.
func WithTitle(title string) Option {
	return func(e *Error) { e.UserMessage.Title = title }
}

// WithMessage overrides the catalog user-facing message text.
func WithMessage(message string) Option {
	return func(e *Error) { e.UserMessage.Message = message }
}

// WithAction overrides the catalog suggested action.
func WithAction(action string) Option {
	return func(e *Error) { e.UserMessage.Action = action }
}

// WithSeverity overrides the catalog severity.
func WithSeverity(severity Severity) Option {
	return func(e *Error) { e.UserMessage.Severity = severity }
}

// WithRetryable overrides the catalog retryability flag.
func WithRetryable(retryable bool) Option {
	return func(e *Error) { e.UserMessage.Retryable = retryable }
}

// WithRecovery attaches recovery hints.
func WithRecovery(r *RecoveryOptions) Option {
	return func(e *Error) { e.Recovery = r }
}

// WithContext merges contextual metadata into the error. Later options win
// on key collisions.
func WithContext(ctx map[string]any) Option {
	return func(e *Error) {
		if e.Context == nil {
			e.Context = make(map[string]any, len(ctx))
		}
		for k, v := range ctx {
			e.Context[k] = v
		}
	}
}

// WithCause wraps the underlying internal error.
func WithCause(err error) Option {
	return func(e *Error) { e.cause = err }
}

// New constructs an Error for the given taxonomy code. The user message and
// status are populated from the catalog, then the options are merged on top.
func New(code Code, opts ...Option) *Error {
	e := &Error{
		StatusCode:  StatusFor(code),
		Code:        code,
		UserMessage: Lookup(code),
		Timestamp:   time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Wrap constructs an Error for the given code with err as its cause.
func Wrap(err error, code Code, opts ...Option) *Error {
	return New(code, append([]Option{WithCause(err)}, opts...)...)
}

// FromStatus constructs an Error from a bare HTTP status code, deriving the
// taxonomy code from the status.
func FromStatus(status int, opts ...Option) *Error {
	return New(CodeForStatus(status), append([]Option{WithStatus(status)}, opts...)...)
}

// Error implements the error interface. The string form is for logs only;
// clients receive the UserMessage bundle.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (%d): %v", e.Code, e.StatusCode, e.cause)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.UserMessage.Message)
}

// Unwrap returns the wrapped cause to support errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Cause returns the wrapped internal error, if any.
func (e *Error) Cause() error {
	return e.cause
}

// Retryable reports whether the error's user message marks it retryable.
func (e *Error) Retryable() bool {
	return e.UserMessage.Retryable
}

// SetRequestID records the correlation id for the request that produced the
// error. Called by the middleware before rendering.
func (e *Error) SetRequestID(id string) {
	e.RequestID = id
}

// SetContext merges request context into the error. Called by the middleware
// before rendering; existing keys set at the throw site are preserved.
func (e *Error) SetContext(ctx map[string]any) {
	if e.Context == nil {
		e.Context = make(map[string]any, len(ctx))
	}
	for k, v := range ctx {
		if _, exists := e.Context[k]; !exists {
			e.Context[k] = v
		}
	}
}
