// Package apperror defines the application's error taxonomy: a fixed set of
// machine-readable error codes, a catalog of user-facing message bundles for
// each code, and a structured error type that carries both alongside request
// context and recovery hints. All errors that leave the service boundary are
// expressed in terms of this package.
package apperror

import "net/http"

// Code is a machine-readable taxonomy key for an error category.
type Code string

// The full error taxonomy. Every error rendered to a client carries exactly
// one of these codes.
const (
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeAuthRequired          Code = "AUTH_REQUIRED"
	CodeTokenExpired          Code = "TOKEN_EXPIRED"
	CodeInsufficientPermission Code = "INSUFFICIENT_PERMISSION"
	CodeNotFound              Code = "NOT_FOUND"
	CodeDuplicateEntry        Code = "DUPLICATE_ENTRY"
	CodeConflict              Code = "CONFLICT"
	CodeTimeout               Code = "TIMEOUT"
	CodeRateLimitExceeded     Code = "RATE_LIMIT_EXCEEDED"
	CodeForeignKeyViolation   Code = "FOREIGN_KEY_VIOLATION"
	CodeMissingRequiredFields Code = "MISSING_REQUIRED_FIELDS"
	CodeDatabaseError         Code = "DATABASE_ERROR"
	CodeExternalServiceError  Code = "EXTERNAL_SERVICE_ERROR"
	CodeInternalError         Code = "INTERNAL_ERROR"
)

// Severity ranks how serious an error is for operators and support staff.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Message is the curated, user-facing message bundle for an error code.
// Clients only ever see catalog text, never raw internal error strings.
type Message struct {
	Title       string   `json:"title"`
	Message     string   `json:"message"`
	Action      string   `json:"action,omitempty"`
	SupportInfo string   `json:"supportInfo,omitempty"`
	Retryable   bool     `json:"retryable"`
	Severity    Severity `json:"severity"`
}

// catalog maps every taxonomy code to its default message bundle.
// Lookup is a pure function of the code: two lookups with the same code
// always yield an identical bundle.
var catalog = map[Code]Message{
	CodeValidation: {
		Title:     "Invalid request",
		Message:   "Some of the provided data is invalid.",
		Action:    "Check the highlighted fields and try again.",
		Retryable: false,
		Severity:  SeverityLow,
	},
	CodeAuthRequired: {
		Title:     "Authentication required",
		Message:   "You need to be signed in to perform this action.",
		Action:    "Sign in and try again.",
		Retryable: false,
		Severity:  SeverityLow,
	},
	CodeTokenExpired: {
		Title:     "Session expired",
		Message:   "Your session has expired.",
		Action:    "Sign in again to continue.",
		Retryable: false,
		Severity:  SeverityLow,
	},
	CodeInsufficientPermission: {
		Title:     "Permission denied",
		Message:   "You do not have permission to perform this action.",
		Action:    "Contact the resource owner if you believe this is a mistake.",
		Retryable: false,
		Severity:  SeverityMedium,
	},
	CodeNotFound: {
		Title:     "Not found",
		Message:   "The requested resource could not be found.",
		Action:    "Check the identifier and try again.",
		Retryable: false,
		Severity:  SeverityLow,
	},
	CodeDuplicateEntry: {
		Title:     "Already exists",
		Message:   "A record with the same unique value already exists.",
		Action:    "Use a different value or update the existing record.",
		Retryable: false,
		Severity:  SeverityLow,
	},
	CodeConflict: {
		Title:     "Conflict",
		Message:   "The request conflicts with the current state of the resource.",
		Action:    "Reload the resource and retry the operation.",
		Retryable: false,
		Severity:  SeverityMedium,
	},
	CodeTimeout: {
		Title:     "Request timed out",
		Message:   "The operation took too long to complete.",
		Action:    "Try again in a moment.",
		Retryable: true,
		Severity:  SeverityMedium,
	},
	CodeRateLimitExceeded: {
		Title:     "Too many requests",
		Message:   "You have made too many requests in a short period.",
		Action:    "Wait before trying again.",
		Retryable: true,
		Severity:  SeverityMedium,
	},
	CodeForeignKeyViolation: {
		Title:     "Invalid reference",
		Message:   "The request references a record that does not exist.",
		Action:    "Check the referenced identifiers and try again.",
		Retryable: false,
		Severity:  SeverityLow,
	},
	CodeMissingRequiredFields: {
		Title:     "Missing required fields",
		Message:   "One or more required fields are missing.",
		Action:    "Provide all required fields and try again.",
		Retryable: false,
		Severity:  SeverityLow,
	},
	CodeDatabaseError: {
		Title:       "Storage error",
		Message:     "We had trouble accessing your data.",
		Action:      "Try again shortly.",
		SupportInfo: "If the problem persists, contact support with your request id.",
		Retryable:   true,
		Severity:    SeverityHigh,
	},
	CodeExternalServiceError: {
		Title:       "Service temporarily unavailable",
		Message:     "A service we depend on is currently unavailable.",
		Action:      "Try again in a few minutes.",
		SupportInfo: "The service recovers automatically once the dependency is healthy.",
		Retryable:   true,
		Severity:    SeverityHigh,
	},
	CodeInternalError: {
		Title:       "Something went wrong",
		Message:     "An unexpected error occurred while processing your request.",
		Action:      "Try again shortly.",
		SupportInfo: "If the problem persists, contact support with your request id.",
		Retryable:   true,
		Severity:    SeverityHigh,
	},
}

// defaultStatus maps each code to its HTTP status code.
var defaultStatus = map[Code]int{
	CodeValidation:             http.StatusBadRequest,
	CodeAuthRequired:           http.StatusUnauthorized,
	CodeTokenExpired:           http.StatusUnauthorized,
	CodeInsufficientPermission: http.StatusForbidden,
	CodeNotFound:               http.StatusNotFound,
	CodeDuplicateEntry:         http.StatusConflict,
	CodeConflict:               http.StatusConflict,
	CodeTimeout:                http.StatusRequestTimeout,
	CodeRateLimitExceeded:      http.StatusTooManyRequests,
	CodeForeignKeyViolation:    http.StatusBadRequest,
	CodeMissingRequiredFields:  http.StatusBadRequest,
	CodeDatabaseError:          http.StatusInternalServerError,
	CodeExternalServiceError:   http.StatusServiceUnavailable,
	CodeInternalError:          http.StatusInternalServerError,
}

// Lookup returns the catalog message bundle for the given code.
// Unknown codes fall back to the CodeInternalError bundle so the
// user message invariant holds even for codes added out of band.
func Lookup(code Code) Message {
	if msg, ok := catalog[code]; ok {
		return msg
	}
	return catalog[CodeInternalError]
}

// StatusFor returns the default HTTP status code for the given code.
// Unknown codes map to 500.
func StatusFor(code Code) int {
	if status, ok := defaultStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// CodeForStatus derives a taxonomy code from a bare HTTP status.
// Used when wrapping foreign errors that only carry a status code.
func CodeForStatus(status int) Code {
	switch status {
	case http.StatusBadRequest:
		return CodeValidation
	case http.StatusUnauthorized:
		return CodeAuthRequired
	case http.StatusForbidden:
		return CodeInsufficientPermission
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	case http.StatusRequestTimeout:
		return CodeTimeout
	case http.StatusTooManyRequests:
		return CodeRateLimitExceeded
	case http.StatusServiceUnavailable:
		return CodeExternalServiceError
	default:
		return CodeInternalError
	}
}
