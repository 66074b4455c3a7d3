package apperror

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPassesThroughStructuredErrors(t *testing.T) {
	original := New(CodeConflict)
	classified := Classify(fmt.Errorf("service layer: %w", original))
	assert.Same(t, original, classified)
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestClassifyPgErrors(t *testing.T) {
	tests := []struct {
		name       string
		pgCode     string
		wantCode   Code
		wantStatus int
	}{
		{"unique violation", "23505", CodeDuplicateEntry, http.StatusConflict},
		{"foreign key violation", "23503", CodeForeignKeyViolation, http.StatusBadRequest},
		{"not null violation", "23502", CodeMissingRequiredFields, http.StatusBadRequest},
		{"undefined table", "42P01", CodeDatabaseError, http.StatusInternalServerError},
		{"other driver code", "53300", CodeDatabaseError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: tt.pgCode, ConstraintName: "users_email_key"}
			e := Classify(fmt.Errorf("insert user: %w", pgErr))

			require.NotNil(t, e)
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.wantStatus, e.StatusCode)
		})
	}
}

func TestClassifyUndefinedTableIsCriticalAndTerminal(t *testing.T) {
	e := Classify(&pgconn.PgError{Code: "42P01"})
	assert.Equal(t, SeverityCritical, e.UserMessage.Severity)
	assert.False(t, e.Retryable())
}

func TestClassifyOtherPgErrorRetryableOnlyWhenTransient(t *testing.T) {
	// Disk-full style errors are not transient.
	steady := Classify(&pgconn.PgError{Code: "53100", Message: "disk full"})
	assert.False(t, steady.Retryable())

	// Connection-exception class is transient.
	conn := Classify(&pgconn.PgError{Code: "08006", Message: "connection failure"})
	assert.True(t, conn.Retryable())
}

func TestClassifyJWTErrors(t *testing.T) {
	assert.Equal(t, CodeTokenExpired, Classify(jwt.ErrTokenExpired).Code)
	assert.Equal(t, CodeAuthRequired, Classify(jwt.ErrTokenMalformed).Code)
	assert.Equal(t, CodeAuthRequired, Classify(jwt.ErrTokenSignatureInvalid).Code)
}

func TestClassifyValidationErrors(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
	}
	err := validator.New().Struct(payload{Email: "not-an-email"})
	require.Error(t, err)

	e := Classify(err)
	assert.Equal(t, CodeValidation, e.Code)
	assert.Equal(t, http.StatusBadRequest, e.StatusCode)
	assert.Contains(t, e.Context, "fields")
}

func TestClassifyTimeouts(t *testing.T) {
	assert.Equal(t, CodeTimeout, Classify(context.DeadlineExceeded).Code)
	assert.Equal(t, CodeTimeout, Classify(fmt.Errorf("query: %w", context.DeadlineExceeded)).Code)
}

func TestClassifyNoRows(t *testing.T) {
	assert.Equal(t, CodeNotFound, Classify(sql.ErrNoRows).Code)
}

func TestClassifyUnknownError(t *testing.T) {
	e := Classify(errors.New("something odd"))
	assert.Equal(t, CodeInternalError, e.Code)
	assert.True(t, e.Retryable())
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"unexpected eof", errors.New("unexpected EOF"), true},
		{"plain failure", errors.New("syntax error"), false},
		{"pg admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
