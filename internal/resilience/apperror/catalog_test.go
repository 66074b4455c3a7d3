package apperror

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIsIdempotent(t *testing.T) {
	codes := []Code{
		CodeValidation, CodeAuthRequired, CodeTokenExpired,
		CodeInsufficientPermission, CodeNotFound, CodeDuplicateEntry,
		CodeConflict, CodeTimeout, CodeRateLimitExceeded,
		CodeForeignKeyViolation, CodeMissingRequiredFields,
		CodeDatabaseError, CodeExternalServiceError, CodeInternalError,
	}

	for _, code := range codes {
		t.Run(string(code), func(t *testing.T) {
			first := Lookup(code)
			second := Lookup(code)
			assert.Equal(t, first, second, "lookup must be a pure function of the code")
			assert.NotEmpty(t, first.Title)
			assert.NotEmpty(t, first.Message)
			assert.NotEmpty(t, first.Severity)
		})
	}
}

func TestLookupUnknownCodeFallsBack(t *testing.T) {
	msg := Lookup(Code("NO_SUCH_CODE"))
	assert.Equal(t, Lookup(CodeInternalError), msg)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeAuthRequired, http.StatusUnauthorized},
		{CodeTokenExpired, http.StatusUnauthorized},
		{CodeInsufficientPermission, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeDuplicateEntry, http.StatusConflict},
		{CodeTimeout, http.StatusRequestTimeout},
		{CodeRateLimitExceeded, http.StatusTooManyRequests},
		{CodeForeignKeyViolation, http.StatusBadRequest},
		{CodeMissingRequiredFields, http.StatusBadRequest},
		{CodeDatabaseError, http.StatusInternalServerError},
		{CodeExternalServiceError, http.StatusServiceUnavailable},
		{CodeInternalError, http.StatusInternalServerError},
		{Code("NO_SUCH_CODE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.status, StatusFor(tt.code))
		})
	}
}

func TestRetryabilityTaxonomy(t *testing.T) {
	retryable := []Code{CodeTimeout, CodeRateLimitExceeded, CodeDatabaseError,
		CodeExternalServiceError, CodeInternalError}
	terminal := []Code{CodeValidation, CodeAuthRequired, CodeTokenExpired,
		CodeInsufficientPermission, CodeNotFound, CodeDuplicateEntry,
		CodeForeignKeyViolation, CodeMissingRequiredFields}

	for _, code := range retryable {
		assert.True(t, Lookup(code).Retryable, "%s should be retryable", code)
	}
	for _, code := range terminal {
		assert.False(t, Lookup(code).Retryable, "%s should not be retryable", code)
	}
}
