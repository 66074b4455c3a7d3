package apperror

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPopulatesUserMessage(t *testing.T) {
	e := New(CodeNotFound)

	assert.Equal(t, http.StatusNotFound, e.StatusCode)
	assert.Equal(t, CodeNotFound, e.Code)
	assert.Equal(t, Lookup(CodeNotFound), e.UserMessage)
	assert.False(t, e.Timestamp.IsZero())
}

func TestNewOverrideMerge(t *testing.T) {
	e := New(CodeDatabaseError,
		WithMessage("We could not save your task."),
		WithSeverity(SeverityCritical),
		WithRetryable(false),
	)

	// Overridden fields change; the rest keep catalog defaults.
	assert.Equal(t, "We could not save your task.", e.UserMessage.Message)
	assert.Equal(t, SeverityCritical, e.UserMessage.Severity)
	assert.False(t, e.UserMessage.Retryable)
	assert.Equal(t, Lookup(CodeDatabaseError).Title, e.UserMessage.Title)
	assert.Equal(t, http.StatusInternalServerError, e.StatusCode)
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("pq: connection reset by peer")
	e := Wrap(cause, CodeDatabaseError)

	assert.ErrorIs(t, e, cause)
	assert.Equal(t, cause, e.Cause())
	assert.Contains(t, e.Error(), "DATABASE_ERROR")
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		code   Code
	}{
		{http.StatusUnauthorized, CodeAuthRequired},
		{http.StatusConflict, CodeConflict},
		{http.StatusTooManyRequests, CodeRateLimitExceeded},
		{http.StatusServiceUnavailable, CodeExternalServiceError},
		{http.StatusTeapot, CodeInternalError},
	}

	for _, tt := range tests {
		e := FromStatus(tt.status)
		assert.Equal(t, tt.code, e.Code)
		assert.Equal(t, tt.status, e.StatusCode)
		assert.NotEmpty(t, e.UserMessage.Message, "user message must never be empty")
	}
}

func TestSetContextPreservesThrowSiteKeys(t *testing.T) {
	e := New(CodeValidation, WithContext(map[string]any{"field": "email"}))
	e.SetContext(map[string]any{"field": "overwritten", "request_id": "abc"})

	assert.Equal(t, "email", e.Context["field"])
	assert.Equal(t, "abc", e.Context["request_id"])
}

func TestWithRecovery(t *testing.T) {
	rec := &RecoveryOptions{
		RetryAttempts:         3,
		RetryDelay:            200 * time.Millisecond,
		CircuitBreakerEnabled: true,
	}
	e := New(CodeExternalServiceError, WithRecovery(rec))

	require.NotNil(t, e.Recovery)
	assert.True(t, e.Recovery.CircuitBreakerEnabled)
	assert.Equal(t, 3, e.Recovery.RetryAttempts)
}
