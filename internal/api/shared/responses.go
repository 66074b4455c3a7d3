package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/taskhub/taskhub-api/internal/redact"
	"github.com/taskhub/taskhub-api/internal/resilience/apperror"
)

// ErrorBody is the error object inside the standard error envelope.
type ErrorBody struct {
	Code             string             `json:"code"`
	Message          string             `json:"message"`
	Title            string             `json:"title"`
	Severity         apperror.Severity  `json:"severity"`
	Retryable        bool               `json:"retryable"`
	RequestID        string             `json:"requestId"`
	Timestamp        time.Time          `json:"timestamp"`
	SupportInfo      string             `json:"supportInfo,omitempty"`
	TechnicalMessage string             `json:"technicalMessage,omitempty"`
	Stack            string             `json:"stack,omitempty"`
	Context          map[string]any     `json:"context,omitempty"`
}

// RecoveryBody is the optional recovery block of the error envelope.
type RecoveryBody struct {
	Retryable  bool `json:"retryable"`
	RetryAfter int  `json:"retryAfter"` // seconds
	MaxRetries int  `json:"maxRetries"`
}

// ErrorEnvelope is the JSON shape of every error response.
type ErrorEnvelope struct {
	Success  bool          `json:"success"`
	Error    ErrorBody     `json:"error"`
	Recovery *RecoveryBody `json:"recovery,omitempty"`
}

// RateLimitBody is the compact error object used by rate-limit rejections.
type RateLimitBody struct {
	Message    string `json:"message"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retryAfter"` // seconds
}

// RateLimitEnvelope is the JSON shape of a 429 rejection.
type RateLimitEnvelope struct {
	Success bool          `json:"success"`
	Error   RateLimitBody `json:"error"`
}

// Renderer converts structured errors into HTTP responses. It is the single
// rendering authority: handlers and middleware never build error bodies
// themselves.
type Renderer struct {
	// Diagnostics enables technicalMessage/stack/context in responses.
	// Set outside production; admin-role requests also get diagnostics.
	Diagnostics bool
}

// RespondWithJSON writes a JSON response with the given status code and body.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response",
			"error", err,
			"path", r.URL.Path)
	}
}

// RenderError writes the standard error envelope for a structured error.
// The request id is taken from the error (set during enrichment) or from
// the request context as a fallback.
func (rd Renderer) RenderError(w http.ResponseWriter, r *http.Request, appErr *apperror.Error) {
	requestID := appErr.RequestID
	if requestID == "" {
		requestID = GetRequestID(r.Context())
	}

	body := ErrorBody{
		Code:        string(appErr.Code),
		Message:     appErr.UserMessage.Message,
		Title:       appErr.UserMessage.Title,
		Severity:    appErr.UserMessage.Severity,
		Retryable:   appErr.UserMessage.Retryable,
		RequestID:   requestID,
		Timestamp:   appErr.Timestamp,
		SupportInfo: appErr.UserMessage.SupportInfo,
	}

	if rd.diagnosticsFor(r) {
		if cause := appErr.Cause(); cause != nil {
			body.TechnicalMessage = redact.Error(cause)
		}
		body.Stack = string(debug.Stack())
		body.Context = appErr.Context
	}

	envelope := ErrorEnvelope{Success: false, Error: body}
	if rec := appErr.Recovery; rec != nil {
		envelope.Recovery = &RecoveryBody{
			Retryable:  appErr.UserMessage.Retryable,
			RetryAfter: int(rec.RetryDelay.Round(time.Second) / time.Second),
			MaxRetries: rec.RetryAttempts,
		}
	}

	RespondWithJSON(w, r, appErr.StatusCode, envelope)
}

// RenderRateLimited writes the compact 429 envelope with a Retry-After
// header.
func RenderRateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	seconds := int(retryAfter.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	msg := apperror.Lookup(apperror.CodeRateLimitExceeded)
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	RespondWithJSON(w, r, http.StatusTooManyRequests, RateLimitEnvelope{
		Success: false,
		Error: RateLimitBody{
			Message:    msg.Message,
			Code:       string(apperror.CodeRateLimitExceeded),
			RetryAfter: seconds,
		},
	})
}

// diagnosticsFor reports whether technical details may be exposed on this
// request: globally in non-production mode, or per-request for admin users.
func (rd Renderer) diagnosticsFor(r *http.Request) bool {
	if rd.Diagnostics {
		return true
	}
	role, _ := r.Context().Value(UserRoleContextKey).(string)
	return role == "admin"
}
