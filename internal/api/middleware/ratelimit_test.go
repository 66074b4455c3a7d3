package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/resilience/ratelimit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newTestRateLimiter(
	limiters map[ratelimit.Category]ratelimit.Limiter,
	escalator *ratelimit.Escalator,
	opts ...RateLimiterOption,
) *RateLimiter {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if escalator == nil {
		escalator = ratelimit.NewEscalator(ratelimit.NewMemoryStore(), log)
	}
	return NewRateLimiter(escalator, limiters, log, opts...)
}

func TestLimit_AllowsWithinWindow(t *testing.T) {
	t.Parallel()

	limiters := map[ratelimit.Category]ratelimit.Limiter{
		ratelimit.CategoryLogin: ratelimit.NewFixedWindow(
			ratelimit.WindowConfig{Window: time.Minute, MaxRequests: 3}),
	}
	rl := newTestRateLimiter(limiters, nil)
	handler := rl.Limit(ratelimit.CategoryLogin)(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}
}

func TestLimit_RejectsOverWindow(t *testing.T) {
	t.Parallel()

	limiters := map[ratelimit.Category]ratelimit.Limiter{
		ratelimit.CategoryLogin: ratelimit.NewFixedWindow(
			ratelimit.WindowConfig{Window: time.Minute, MaxRequests: 1}),
	}
	rl := newTestRateLimiter(limiters, nil)
	handler := rl.Limit(ratelimit.CategoryLogin)(okHandler())

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	handler.ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	handler.ServeHTTP(second, req)

	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	var envelope shared.RateLimitEnvelope
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", envelope.Error.Code)
	assert.Greater(t, envelope.Error.RetryAfter, 0)
}

func TestLimit_SeparateClientsSeparateWindows(t *testing.T) {
	t.Parallel()

	limiters := map[ratelimit.Category]ratelimit.Limiter{
		ratelimit.CategoryGeneral: ratelimit.NewFixedWindow(
			ratelimit.WindowConfig{Window: time.Minute, MaxRequests: 1}),
	}
	rl := newTestRateLimiter(limiters, nil)
	handler := rl.Limit(ratelimit.CategoryGeneral)(okHandler())

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.RemoteAddr = addr
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "client %s has its own window", addr)
	}
}

func TestLimit_EscalatorBlockPrecedesWindow(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	escalator := ratelimit.NewEscalator(ratelimit.NewMemoryStore(), log)

	// Enough failures to cross the first block tier.
	key := ratelimit.ClientKey("10.0.0.9", "")
	for i := 0; i < 3; i++ {
		escalator.RecordFailure(context.Background(), key)
	}

	limiters := map[ratelimit.Category]ratelimit.Limiter{
		ratelimit.CategoryGeneral: ratelimit.NewFixedWindow(
			ratelimit.WindowConfig{Window: time.Minute, MaxRequests: 100}),
	}
	rl := newTestRateLimiter(limiters, escalator)
	handler := rl.Limit(ratelimit.CategoryGeneral)(okHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.RemoteAddr = "10.0.0.9:5000"
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code,
		"a blocked client is rejected even when the window has capacity")
}

func TestLimit_DecisionHook(t *testing.T) {
	t.Parallel()

	var decisions []bool
	limiters := map[ratelimit.Category]ratelimit.Limiter{
		ratelimit.CategoryLogin: ratelimit.NewFixedWindow(
			ratelimit.WindowConfig{Window: time.Minute, MaxRequests: 1}),
	}
	rl := newTestRateLimiter(limiters, nil,
		WithDecisionHook(func(_ ratelimit.Category, allowed bool) {
			decisions = append(decisions, allowed)
		}))
	handler := rl.Limit(ratelimit.CategoryLogin)(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		handler.ServeHTTP(rec, req)
	}

	assert.Equal(t, []bool{true, false}, decisions)
}

func TestLimit_FallsBackToGeneralLimiter(t *testing.T) {
	t.Parallel()

	limiters := map[ratelimit.Category]ratelimit.Limiter{
		ratelimit.CategoryGeneral: ratelimit.NewFixedWindow(
			ratelimit.WindowConfig{Window: time.Minute, MaxRequests: 1}),
	}
	rl := newTestRateLimiter(limiters, nil)
	// No dedicated login limiter configured; the general one applies.
	handler := rl.Limit(ratelimit.CategoryLogin)(okHandler())

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	handler.ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:4000"
	handler.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
