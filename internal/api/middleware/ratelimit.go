package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/resilience/ratelimit"
)

// RateLimiter applies the two-stage limiting policy to requests: the
// escalator's failure-based block is consulted first, then the per-category
// request window. Blocked requests get the compact 429 envelope.
type RateLimiter struct {
	escalator *ratelimit.Escalator
	limiters  map[ratelimit.Category]ratelimit.Limiter
	logger    *slog.Logger

	// onDecision is an optional hook for metrics.
	onDecision func(category ratelimit.Category, allowed bool)
}

// RateLimiterOption customizes a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithDecisionHook registers a callback invoked for every limiting decision.
func WithDecisionHook(hook func(category ratelimit.Category, allowed bool)) RateLimiterOption {
	return func(rl *RateLimiter) { rl.onDecision = hook }
}

// NewRateLimiter creates the rate-limiting middleware.
func NewRateLimiter(
	escalator *ratelimit.Escalator,
	limiters map[ratelimit.Category]ratelimit.Limiter,
	log *slog.Logger,
	opts ...RateLimiterOption,
) *RateLimiter {
	if log == nil {
		log = slog.Default()
	}
	rl := &RateLimiter{
		escalator: escalator,
		limiters:  limiters,
		logger:    log.With(slog.String("component", "ratelimit")),
	}
	for _, opt := range opts {
		opt(rl)
	}
	return rl
}

// Limit returns middleware enforcing the given category's policy. The
// escalator block is checked before the request window so a blocked client
// cannot consume window capacity.
func (rl *RateLimiter) Limit(category ratelimit.Category) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.key(r)

			if remaining := rl.escalator.Blocked(r.Context(), key); remaining > 0 {
				rl.reject(w, r, category, remaining)
				return
			}

			limiter, ok := rl.limiters[category]
			if !ok {
				limiter = rl.limiters[ratelimit.CategoryGeneral]
			}
			if limiter != nil {
				if decision := limiter.Allow(key); !decision.Allowed {
					rl.reject(w, r, category, decision.RetryAfter)
					return
				}
			}

			if rl.onDecision != nil {
				rl.onDecision(category, true)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) reject(
	w http.ResponseWriter,
	r *http.Request,
	category ratelimit.Category,
	retryAfter time.Duration,
) {
	if rl.onDecision != nil {
		rl.onDecision(category, false)
	}
	logger.FromContextOrDefault(r.Context(), rl.logger).Warn("request rate limited",
		slog.String("category", string(category)),
		slog.String("path", r.URL.Path),
		slog.Duration("retry_after", retryAfter))
	shared.RenderRateLimited(w, r, retryAfter)
}

// key identifies the client: IP plus user ID when authenticated, so users
// behind a shared NAT are not punished collectively.
func (rl *RateLimiter) key(r *http.Request) string {
	var userID string
	if id, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID); ok {
		userID = id.String()
	}
	return ratelimit.ClientKey(shared.ClientIP(r), userID)
}
