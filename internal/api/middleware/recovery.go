package middleware

import (
	"fmt"
	"net/http"

	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/resilience/apperror"
)

// Recovery converts handler panics into 500 responses through the standard
// error pipeline instead of letting the connection die.
func Recovery(errorHandler *ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						// The stdlib uses this to abort a response cleanly.
						panic(rec)
					}

					logger.FromContext(r.Context()).Error("panic recovered",
						"panic", fmt.Sprint(rec),
						"method", r.Method,
						"path", r.URL.Path)

					err := apperror.New(apperror.CodeInternalError,
						apperror.WithCause(fmt.Errorf("panic: %v", rec)))
					errorHandler.Render(w, r, err)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
