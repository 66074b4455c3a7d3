package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/resilience/ratelimit"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
)

// AuthHandler handles authentication-related API requests. Failed logins
// feed the escalator so repeated failures from one client earn growing
// blocks.
type AuthHandler struct {
	userService   service.UserService
	jwtService    auth.JWTService
	escalator     *ratelimit.Escalator
	validator     *validator.Validate
	tokenLifetime time.Duration
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userService service.UserService,
	jwtService auth.JWTService,
	escalator *ratelimit.Escalator,
	tokenLifetime time.Duration,
) *AuthHandler {
	return &AuthHandler{
		userService:   userService,
		jwtService:    jwtService,
		escalator:     escalator,
		validator:     validator.New(),
		tokenLifetime: tokenLifetime,
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) error {
	var req RegisterRequest
	if err := DecodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	user, err := h.userService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return h.respondWithTokens(w, r, user.ID, user.Role, http.StatusCreated)
}

// Login handles POST /auth/login. The escalator is keyed by email when
// present so an attacker rotating IPs is still slowed down, and checked
// before credentials so blocked clients learn nothing about the account.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest
	if err := DecodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	key := ratelimit.LoginKey(shared.ClientIP(r), req.Email)

	if remaining := h.escalator.Blocked(r.Context(), key); remaining > 0 {
		shared.RenderRateLimited(w, r, remaining)
		return nil
	}

	user, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.escalator.RecordFailure(r.Context(), key)
		}
		return err
	}

	h.escalator.RecordSuccess(r.Context(), key)
	return h.respondWithTokens(w, r, user.ID, user.Role, http.StatusOK)
}

// Refresh handles POST /auth/refresh, exchanging a valid refresh token for
// a new token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) error {
	var req RefreshTokenRequest
	if err := DecodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	// Re-read the user so a role change or deletion takes effect on refresh.
	user, err := h.userService.GetUser(r.Context(), claims.UserID)
	if err != nil {
		return err
	}

	return h.respondWithTokens(w, r, user.ID, user.Role, http.StatusOK)
}

func (h *AuthHandler) respondWithTokens(
	w http.ResponseWriter,
	r *http.Request,
	userID uuid.UUID,
	role string,
	status int,
) error {
	ctx := r.Context()

	accessToken, err := h.jwtService.GenerateToken(ctx, userID, role)
	if err != nil {
		return err
	}
	refreshToken, err := h.jwtService.GenerateRefreshToken(ctx, userID, role)
	if err != nil {
		return err
	}

	shared.RespondWithJSON(w, r, status, AuthResponse{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(h.tokenLifetime).UTC().Format(time.RFC3339),
	})
	return nil
}
