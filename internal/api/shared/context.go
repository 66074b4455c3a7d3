package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"time"
)

// ContextKey is the key type for request-scoped values.
type ContextKey string

const (
	// UserIDContextKey holds the authenticated user's UUID.
	UserIDContextKey ContextKey = "userID"

	// UserEmailContextKey holds the authenticated user's email, used for
	// error-context enrichment and rate-limit keying.
	UserEmailContextKey ContextKey = "userEmail"

	// UserRoleContextKey holds the authenticated user's role.
	UserRoleContextKey ContextKey = "userRole"

	// RequestIDKey holds the correlation id for the request.
	RequestIDKey ContextKey = "requestID"

	// requestIDLength is the number of random bytes in a generated id.
	requestIDLength = 16 // 32 hex characters
)

// SetRequestID adds a freshly generated correlation id to the context.
func SetRequestID(ctx context.Context) context.Context {
	return context.WithValue(ctx, RequestIDKey, generateRequestID())
}

// GetRequestID retrieves the correlation id from the context, or "" when
// none was set.
func GetRequestID(ctx context.Context) string {
	id, ok := ctx.Value(RequestIDKey).(string)
	if !ok {
		return ""
	}
	return id
}

// generateRequestID creates a random correlation id. If crypto/rand fails it
// falls back to a time-based id rather than returning a static value.
func generateRequestID() string {
	b := make([]byte, requestIDLength)
	n, err := rand.Read(b)
	if err != nil || n != requestIDLength {
		slog.Error("failed to generate random request id",
			"error", err,
			"bytes_read", n)
		return fallbackRequestID()
	}
	return hex.EncodeToString(b)
}

// fallbackRequestID derives an id from timestamps when the random source is
// unavailable. Less unique than the random form, never static.
func fallbackRequestID() string {
	b := make([]byte, requestIDLength)
	binary.BigEndian.PutUint64(b[:8], uint64(time.Now().UnixNano()))
	binary.BigEndian.PutUint32(b[8:12], uint32(time.Now().Nanosecond()))
	binary.BigEndian.PutUint32(b[12:16], uint32(time.Now().Unix()))
	return hex.EncodeToString(b)
}
