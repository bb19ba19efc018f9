package routes

import (
	"net/http"
	"time"

	"github.com/templui/goalkeeper/internal/app"
	"github.com/templui/goalkeeper/internal/handler"
	"github.com/templui/goalkeeper/internal/middleware"
)

const (
	authRateLimit  = 10
	authRateWindow = 15 * time.Minute
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	goal := handler.NewGoalHandler(app.Hub)
	settings := handler.NewSettingsHandler(app.Hub)
	events := handler.NewEventsHandler(app.Hub)
	health := handler.NewHealthHandler(app.Hub, app.DB)

	// Sessions are per user in cloud mode. Local mode has one shared
	// session and no accounts.
	protect := func(h http.HandlerFunc) http.HandlerFunc { return h }
	if app.Cfg.IsCloud() {
		protect = middleware.RequireAuth
	}

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Check)
	mux.HandleFunc("GET /api/settings/currency", settings.Currency)

	// Auth (rate limited)
	if app.Cfg.IsCloud() {
		auth := handler.NewAuthHandler(app.AuthService, app.Hub)
		rateLimiter := middleware.RateLimitAuth(authRateLimit, authRateWindow)

		mux.HandleFunc("POST /api/auth/continue", rateLimiter(middleware.RequireGuest(auth.Continue)))
		mux.HandleFunc("GET /api/auth/me", auth.Me)
		mux.HandleFunc("POST /api/auth/signout", auth.SignOut)
		mux.HandleFunc("DELETE /api/account", middleware.RequireAuth(auth.DeleteAccount))
	}

	// ============================================================================
	// SESSION ROUTES
	// ============================================================================

	mux.HandleFunc("PUT /api/settings/currency", protect(settings.SetCurrency))
	mux.HandleFunc("GET /api/events", protect(events.Stream))

	// Goals
	mux.HandleFunc("GET /api/goals", protect(goal.List))
	mux.HandleFunc("GET /api/goals/export", protect(goal.Export))
	mux.HandleFunc("POST /api/goals", protect(goal.Create))
	mux.HandleFunc("PUT /api/goals/{id}", protect(goal.Update))
	mux.HandleFunc("DELETE /api/goals/{id}", protect(goal.Delete))
	mux.HandleFunc("PUT /api/goals/{id}/sort", protect(goal.SetSort))

	// Entries
	mux.HandleFunc("POST /api/goals/{id}/entries", protect(goal.AddEntry))
	mux.HandleFunc("PUT /api/goals/{id}/entries/{entryID}", protect(goal.UpdateEntry))
	mux.HandleFunc("POST /api/goals/{id}/entries/{entryID}/toggle", protect(goal.ToggleEntry))
	mux.HandleFunc("DELETE /api/goals/{id}/entries/{entryID}", protect(goal.RemoveEntry))

	// Global middleware - executed in order (top to bottom)
	middlewares := []func(http.Handler) http.Handler{
		middleware.Config(app.Cfg),
		middleware.RequestLogging,
		middleware.CSRFProtection,
	}
	if app.Cfg.IsCloud() {
		middlewares = append(middlewares, middleware.AuthMiddleware(app.AuthService))
	}

	return middleware.Chain(mux, middlewares...)
}
