package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub-api/internal/api/middleware"
	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/domain"
	"github.com/taskhub/taskhub-api/internal/resilience/ratelimit"
	"github.com/taskhub/taskhub-api/internal/service/auth"
	"github.com/taskhub/taskhub-api/internal/store"
)

type fakeUserService struct {
	users       map[string]*domain.User // keyed by email
	byID        map[uuid.UUID]*domain.User
	password    string
	registerErr error
}

func newFakeUserService() *fakeUserService {
	return &fakeUserService{
		users: make(map[string]*domain.User),
		byID:  make(map[uuid.UUID]*domain.User),
	}
}

func (f *fakeUserService) seed(email, password string) *domain.User {
	user := &domain.User{
		ID:    uuid.New(),
		Email: email,
		Role:  domain.RoleMember,
	}
	f.users[email] = user
	f.byID[user.ID] = user
	f.password = password
	return user
}

func (f *fakeUserService) Register(_ context.Context, email, password string) (*domain.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	if _, exists := f.users[email]; exists {
		return nil, store.ErrEmailExists
	}
	return f.seed(email, password), nil
}

func (f *fakeUserService) Authenticate(_ context.Context, email, password string) (*domain.User, error) {
	user, ok := f.users[email]
	if !ok || password != f.password {
		return nil, auth.ErrInvalidCredentials
	}
	return user, nil
}

func (f *fakeUserService) GetUser(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	user, ok := f.byID[userID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserService) UpdateEmail(context.Context, uuid.UUID, string) error    { return nil }
func (f *fakeUserService) UpdatePassword(context.Context, uuid.UUID, string) error { return nil }
func (f *fakeUserService) DeleteUser(context.Context, uuid.UUID) error             { return nil }

type authTestEnv struct {
	users     *fakeUserService
	escalator *ratelimit.Escalator
	handler   *AuthHandler
	errors    *middleware.ErrorHandler
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                   "test-secret-test-secret-test-secret!",
		TokenLifetimeMinutes:        15,
		RefreshTokenLifetimeMinutes: 60,
	})
	require.NoError(t, err)

	users := newFakeUserService()
	escalator := ratelimit.NewEscalator(ratelimit.NewMemoryStore(), log)

	return &authTestEnv{
		users:     users,
		escalator: escalator,
		handler:   NewAuthHandler(users, jwtService, escalator, 15*time.Minute),
		errors:    middleware.NewErrorHandler(shared.Renderer{}, log),
	}
}

func postJSON(t *testing.T, handler middleware.HandlerFunc, eh *middleware.ErrorHandler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.1:4000"
	rec := httptest.NewRecorder()
	eh.Wrap(handler)(rec, req)
	return rec
}

func TestRegister_Success(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)
	rec := postJSON(t, env.handler.Register, env.errors, "/api/auth/register",
		RegisterRequest{Email: "user@example.com", Password: "a-long-enough-password"})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NotEqual(t, uuid.Nil, resp.UserID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)
	env.users.seed("user@example.com", "a-long-enough-password")

	rec := postJSON(t, env.handler.Register, env.errors, "/api/auth/register",
		RegisterRequest{Email: "user@example.com", Password: "a-long-enough-password"})

	assert.Equal(t, http.StatusConflict, rec.Code)

	var envelope shared.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "DUPLICATE_ENTRY", envelope.Error.Code)
}

func TestRegister_ShortPasswordRejected(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)
	rec := postJSON(t, env.handler.Register, env.errors, "/api/auth/register",
		RegisterRequest{Email: "user@example.com", Password: "short"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)
	env.users.seed("user@example.com", "a-long-enough-password")

	rec := postJSON(t, env.handler.Login, env.errors, "/api/auth/login",
		LoginRequest{Email: "user@example.com", Password: "a-long-enough-password"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)
	env.users.seed("user@example.com", "a-long-enough-password")

	rec := postJSON(t, env.handler.Login, env.errors, "/api/auth/login",
		LoginRequest{Email: "user@example.com", Password: "wrong-password"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var envelope shared.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "AUTH_REQUIRED", envelope.Error.Code)
}

func TestLogin_RepeatedFailuresEscalateToBlock(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)
	env.users.seed("user@example.com", "a-long-enough-password")

	login := LoginRequest{Email: "user@example.com", Password: "wrong-password"}
	for i := 0; i < 3; i++ {
		rec := postJSON(t, env.handler.Login, env.errors, "/api/auth/login", login)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "attempt %d", i+1)
	}

	// Fourth attempt is blocked before credentials are even checked, and
	// the correct password no longer helps.
	rec := postJSON(t, env.handler.Login, env.errors, "/api/auth/login",
		LoginRequest{Email: "user@example.com", Password: "a-long-enough-password"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var envelope shared.RateLimitEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", envelope.Error.Code)
}

func TestLogin_SuccessClearsFailureCount(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)
	env.users.seed("user@example.com", "a-long-enough-password")

	bad := LoginRequest{Email: "user@example.com", Password: "wrong-password"}
	good := LoginRequest{Email: "user@example.com", Password: "a-long-enough-password"}

	for i := 0; i < 2; i++ {
		postJSON(t, env.handler.Login, env.errors, "/api/auth/login", bad)
	}
	rec := postJSON(t, env.handler.Login, env.errors, "/api/auth/login", good)
	require.Equal(t, http.StatusOK, rec.Code)

	// The counter restarted: two more failures stay under the block tier.
	for i := 0; i < 2; i++ {
		rec = postJSON(t, env.handler.Login, env.errors, "/api/auth/login", bad)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestRefresh_Success(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)
	user := env.users.seed("user@example.com", "a-long-enough-password")

	loginRec := postJSON(t, env.handler.Login, env.errors, "/api/auth/login",
		LoginRequest{Email: "user@example.com", Password: "a-long-enough-password"})
	require.Equal(t, http.StatusOK, loginRec.Code)

	var loginResp AuthResponse
	require.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &loginResp))

	rec := postJSON(t, env.handler.Refresh, env.errors, "/api/auth/refresh",
		RefreshTokenRequest{RefreshToken: loginResp.RefreshToken})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, user.ID, resp.UserID)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)
	env.users.seed("user@example.com", "a-long-enough-password")

	loginRec := postJSON(t, env.handler.Login, env.errors, "/api/auth/login",
		LoginRequest{Email: "user@example.com", Password: "a-long-enough-password"})
	var loginResp AuthResponse
	require.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &loginResp))

	rec := postJSON(t, env.handler.Refresh, env.errors, "/api/auth/refresh",
		RefreshTokenRequest{RefreshToken: loginResp.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_EmptyBodyRejected(t *testing.T) {
	t.Parallel()

	env := newAuthTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	env.errors.Wrap(env.handler.Login)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope shared.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "MISSING_REQUIRED_FIELDS", envelope.Error.Code)
}
