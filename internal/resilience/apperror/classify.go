package apperror

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the classifier maps to specific taxonomy codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgUndefinedTable      = "42P01"
)

// Classify normalizes an arbitrary error into a structured *Error.
// Already-structured errors are returned unchanged; known foreign error
// families (validation, JWT, database driver, timeouts) are mapped to their
// taxonomy code; everything else becomes a retryable CodeInternalError.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	// Request validation failures from go-playground/validator.
	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		return Wrap(err, CodeValidation, WithContext(map[string]any{
			"fields": validationFields(valErrs),
		}))
	}

	// JWT parse/validation failures.
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Wrap(err, CodeTokenExpired)
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenNotValidYet):
		return Wrap(err, CodeAuthRequired)
	}

	// Database driver errors.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPgError(err, pgErr)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return Wrap(err, CodeNotFound)
	}

	// Timeouts: context deadlines and network timeouts.
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, CodeTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Wrap(err, CodeTimeout)
	}

	return Wrap(err, CodeInternalError)
}

// classifyPgError applies the fixed driver-error mapping table.
func classifyPgError(err error, pgErr *pgconn.PgError) *Error {
	switch pgErr.Code {
	case pgUniqueViolation:
		return Wrap(err, CodeDuplicateEntry, WithContext(map[string]any{
			"constraint": pgErr.ConstraintName,
		}))
	case pgForeignKeyViolation:
		return Wrap(err, CodeForeignKeyViolation, WithContext(map[string]any{
			"constraint": pgErr.ConstraintName,
		}))
	case pgNotNullViolation:
		return Wrap(err, CodeMissingRequiredFields, WithContext(map[string]any{
			"column": pgErr.ColumnName,
		}))
	case pgUndefinedTable:
		// A missing table is a deployment defect, not a transient condition.
		return Wrap(err, CodeDatabaseError,
			WithRetryable(false),
			WithSeverity(SeverityCritical))
	default:
		return Wrap(err, CodeDatabaseError, WithRetryable(IsTransient(err)))
	}
}

// IsTransient reports whether a database or network error looks like a
// temporary condition worth retrying: connection resets, refused
// connections, timeouts, and abrupt EOFs.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Code == CodeTimeout {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// pg connection-exception class (08xxx) and admin shutdown codes.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P01" || pgErr.Code == "57P02" {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{
		"connection reset",
		"connection refused",
		"broken pipe",
		"timeout",
		"timed out",
		"unexpected eof",
		"no such host",
	} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// Retryable reports whether err is a structured error marked retryable.
// Foreign errors are classified first, so a bare transient driver error
// also reports true.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err).Retryable()
}

// validationFields extracts the failed field names and tags without leaking
// submitted values.
func validationFields(errs validator.ValidationErrors) []string {
	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fe.Field()+":"+fe.Tag())
	}
	return fields
}
