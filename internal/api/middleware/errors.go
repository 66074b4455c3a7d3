// Package middleware provides the HTTP middleware chain: tracing,
// authentication, rate limiting, panic recovery, metrics, and the single
// error-rendering authority.
package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/platform/logger"
	"github.com/taskhub/taskhub-api/internal/redact"
	"github.com/taskhub/taskhub-api/internal/resilience/apperror"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
	"github.com/taskhub/taskhub-api/internal/store"
)

// maxSnapshotBody bounds how much of a request body is captured for error
// context.
const maxSnapshotBody = 4 << 10

// ErrorHandler converts handler errors into HTTP responses. It is the only
// place in the application that renders error envelopes; handlers return
// errors and never write error bodies themselves.
type ErrorHandler struct {
	renderer shared.Renderer
	logger   *slog.Logger
}

// NewErrorHandler creates the error-rendering middleware.
func NewErrorHandler(renderer shared.Renderer, log *slog.Logger) *ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ErrorHandler{
		renderer: renderer,
		logger:   log.With(slog.String("component", "error_handler")),
	}
}

// HandlerFunc is an HTTP handler that reports failure by returning an error
// instead of writing a response.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Wrap adapts an error-returning handler to http.HandlerFunc, routing any
// returned error through the rendering pipeline.
func (eh *ErrorHandler) Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			eh.Render(w, r, err)
		}
	}
}

// Render maps err to a structured error, enriches it with request context,
// logs it, and writes the envelope.
func (eh *ErrorHandler) Render(w http.ResponseWriter, r *http.Request, err error) {
	appErr := MapError(err)
	eh.enrich(r, appErr)

	log := logger.FromContextOrDefault(r.Context(), eh.logger)
	attrs := []any{
		slog.String("code", string(appErr.Code)),
		slog.Int("status", appErr.StatusCode),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", appErr.RequestID),
	}
	if cause := appErr.Cause(); cause != nil {
		attrs = append(attrs, slog.String("error", redact.Error(cause)))
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		log.Error("request failed", attrs...)
	} else {
		log.Warn("request rejected", attrs...)
	}

	eh.renderer.RenderError(w, r, appErr)
}

// MapError converts any error into a structured error. Structured errors
// pass through; known service, store, and auth sentinels get their dedicated
// codes; everything else goes through classification.
func MapError(err error) *apperror.Error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return apperror.New(apperror.CodeValidation,
			apperror.WithMessage(describeFieldErrors(fieldErrs)),
			apperror.WithCause(err))
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperror.Wrap(err, apperror.CodeNotFound)
	case errors.Is(err, store.ErrDuplicate):
		return apperror.Wrap(err, apperror.CodeDuplicateEntry)
	case errors.Is(err, store.ErrInvalidEntity):
		return apperror.Wrap(err, apperror.CodeValidation)
	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, service.ErrNotTeamMember),
		errors.Is(err, domain.ErrUnauthorized):
		return apperror.Wrap(err, apperror.CodeInsufficientPermission)
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return apperror.Wrap(err, apperror.CodeAuthRequired)
	case errors.Is(err, auth.ErrExpiredToken):
		return apperror.Wrap(err, apperror.CodeTokenExpired)
	case isDomainValidation(err):
		return apperror.Wrap(err, apperror.CodeValidation)
	}

	return apperror.Classify(err)
}

// describeFieldErrors flattens struct-validation failures into a short
// client-facing message. Field values are never included.
func describeFieldErrors(fieldErrs validator.ValidationErrors) string {
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fe.Field()+" ("+fe.Tag()+")")
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

// isDomainValidation matches the domain package's validation sentinels.
func isDomainValidation(err error) bool {
	for _, sentinel := range []error{
		domain.ErrValidation,
		domain.ErrInvalidID,
		domain.ErrInvalidEmail,
		domain.ErrInvalidPassword,
		domain.ErrEmptyTitle,
		domain.ErrInvalidStatus,
		domain.ErrInvalidPriority,
		domain.ErrInvalidRole,
		domain.ErrInvalidColor,
		domain.ErrEmptyEmail,
		domain.ErrEmptyPassword,
		domain.ErrPasswordTooShort,
		domain.ErrPasswordTooLong,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// enrich attaches request metadata to the error: correlation id, method,
// URL, client IP, user identity, and a sanitized body snapshot. Keys already
// set at the throw site win.
func (eh *ErrorHandler) enrich(r *http.Request, appErr *apperror.Error) {
	ctx := r.Context()

	if appErr.RequestID == "" {
		appErr.SetRequestID(shared.GetRequestID(ctx))
	}

	enrichment := map[string]any{
		"method": r.Method,
		"url":    r.URL.String(),
		"ip":     shared.ClientIP(r),
	}
	if userID, ok := ctx.Value(shared.UserIDContextKey).(uuid.UUID); ok {
		enrichment["userId"] = userID.String()
	}
	if email, ok := ctx.Value(shared.UserEmailContextKey).(string); ok && email != "" {
		enrichment["userEmail"] = redact.String(email)
	}
	if body := snapshotBody(r); body != nil {
		enrichment["body"] = redact.Map(body)
	}

	appErr.SetContext(enrichment)
}

// snapshotBody returns the already-buffered request body as a generic map,
// or nil when absent or not JSON. Handlers buffer the body via
// shared-decoding helpers so it remains readable here.
func snapshotBody(r *http.Request) map[string]any {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSnapshotBody))
	if err != nil || len(raw) == 0 {
		return nil
	}
	// Restore for any downstream reader.
	r.Body = io.NopCloser(bytes.NewReader(raw))

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	return body
}
