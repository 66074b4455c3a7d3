package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/resilience/apperror"
)

// maxRequestBody bounds request payload size.
const maxRequestBody = 1 << 20

// DecodeJSON decodes the request body into dst, leaving a replayable copy on
// the request so the error middleware can capture a sanitized snapshot.
func DecodeJSON(r *http.Request, dst any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return apperror.Wrap(err, apperror.CodeValidation)
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))

	if len(raw) == 0 {
		return apperror.New(apperror.CodeMissingRequiredFields)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperror.Wrap(err, apperror.CodeValidation,
			apperror.WithMessage("The request body is not valid JSON."))
	}
	return nil
}

// userIDFromContext extracts the authenticated user's UUID, set by the auth
// middleware.
func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, apperror.New(apperror.CodeAuthRequired)
	}
	return userID, nil
}

// pathUUID extracts and parses a UUID path parameter.
func pathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return uuid.Nil, apperror.Wrap(
			fmt.Errorf("%w: missing %s", domain.ErrValidation, paramName),
			apperror.CodeValidation,
			apperror.WithContext(map[string]any{"param": paramName}),
		)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Wrap(
			fmt.Errorf("%w: %s", domain.ErrInvalidID, paramName),
			apperror.CodeValidation,
			apperror.WithContext(map[string]any{"param": paramName}),
		)
	}
	return id, nil
}
