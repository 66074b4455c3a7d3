package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taskhub/taskhub-api/internal/api"
	apimiddleware "github.com/taskhub/taskhub-api/internal/api/middleware"
	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/resilience/ratelimit"
)

// setupRouter builds the route tree and middleware chain. Order matters:
// metrics observes everything, tracing runs before anything that logs, and
// recovery wraps the rate limiter and handlers so their panics become 500s.
func (app *application) setupRouter() http.Handler {
	renderer := shared.Renderer{Diagnostics: app.config.Server.Diagnostics}
	errorHandler := apimiddleware.NewErrorHandler(renderer, app.logger)

	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService, errorHandler)
	rateLimiter := apimiddleware.NewRateLimiter(app.escalator, app.limiters, app.logger,
		apimiddleware.WithDecisionHook(app.metrics.RecordRateLimitDecision))

	tokenLifetime := time.Duration(app.config.Auth.TokenLifetimeMinutes) * time.Minute
	authHandler := api.NewAuthHandler(app.userService, app.jwtService, app.escalator, tokenLifetime)
	taskHandler := api.NewTaskHandler(app.taskService)
	categoryHandler := api.NewCategoryHandler(app.categoryService)
	teamHandler := api.NewTeamHandler(app.teamService)
	notificationHandler := api.NewNotificationHandler(app.notificationService)

	limit := func(category ratelimit.Category) func(http.Handler) http.Handler {
		if !app.config.RateLimit.Enabled {
			return func(next http.Handler) http.Handler { return next }
		}
		return rateLimiter.Limit(category)
	}

	r := chi.NewRouter()
	r.Use(apimiddleware.Metrics(app.metrics))
	r.Use(apimiddleware.Trace)
	r.Use(apimiddleware.Recovery(errorHandler))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limit(ratelimit.CategoryRegistration))
			r.Post("/auth/register", errorHandler.Wrap(authHandler.Register))
		})
		r.Group(func(r chi.Router) {
			r.Use(limit(ratelimit.CategoryLogin))
			r.Post("/auth/login", errorHandler.Wrap(authHandler.Login))
			r.Post("/auth/refresh", errorHandler.Wrap(authHandler.Refresh))
		})

		r.Group(func(r chi.Router) {
			r.Use(limit(ratelimit.CategoryGeneral))
			r.Use(authMiddleware.Authenticate)

			r.Post("/tasks", errorHandler.Wrap(taskHandler.Create))
			r.Get("/tasks", errorHandler.Wrap(taskHandler.List))
			r.Get("/tasks/{id}", errorHandler.Wrap(taskHandler.Get))
			r.Patch("/tasks/{id}", errorHandler.Wrap(taskHandler.Update))
			r.Delete("/tasks/{id}", errorHandler.Wrap(taskHandler.Delete))

			r.Post("/categories", errorHandler.Wrap(categoryHandler.Create))
			r.Get("/categories", errorHandler.Wrap(categoryHandler.List))
			r.Patch("/categories/{id}", errorHandler.Wrap(categoryHandler.Update))
			r.Delete("/categories/{id}", errorHandler.Wrap(categoryHandler.Delete))

			r.Post("/teams", errorHandler.Wrap(teamHandler.Create))
			r.Get("/teams", errorHandler.Wrap(teamHandler.List))
			r.Get("/teams/{id}", errorHandler.Wrap(teamHandler.Get))
			r.Delete("/teams/{id}", errorHandler.Wrap(teamHandler.Delete))
			r.Post("/teams/{id}/members", errorHandler.Wrap(teamHandler.AddMember))
			r.Get("/teams/{id}/members", errorHandler.Wrap(teamHandler.ListMembers))
			r.Delete("/teams/{id}/members/{userID}", errorHandler.Wrap(teamHandler.RemoveMember))

			r.Get("/notifications", errorHandler.Wrap(notificationHandler.List))
			r.Post("/notifications/{id}/read", errorHandler.Wrap(notificationHandler.MarkRead))
		})
	})

	// Metrics are admin-only.
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Use(authMiddleware.RequireAdmin)
		r.Method(http.MethodGet, "/metrics", app.metrics.Handler())
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
