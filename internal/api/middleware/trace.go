package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
)

// Trace assigns a correlation id to every request and stores a
// request-scoped logger carrying it. Applied first in the chain so every
// later middleware and handler logs with the id.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetRequestID(r.Context())
		requestID := shared.GetRequestID(ctx)

		log := logger.FromContext(ctx).With(slog.String("request_id", requestID))
		ctx = logger.WithLogger(ctx, log)

		w.Header().Set("X-Request-Id", requestID)

		log.Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
