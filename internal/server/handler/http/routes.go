// Package http provides HTTP routing and middleware configuration
// for the credential backend.
package http

import (
	"net/http"

	"github.com/atinyakov/thestream/internal/metrics"
	"github.com/atinyakov/thestream/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// RouterDeps bundles everything NewRouter wires together.
type RouterDeps struct {
	AuthHandler       *AuthHandler
	CredentialHandler *CredentialHandler
	Verifier          middleware.TokenVerifier
	// SignInLimiter is optional.
	SignInLimiter *middleware.RateLimiter
	// Metrics is optional; when set /metrics is served.
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// NewRouter constructs and returns an HTTP handler that serves the
// credential backend API.
//
// Routes:
//
//	GET  /health                       → liveness probe
//	GET  /metrics                      → Prometheus exposition (if enabled)
//	POST /v1/users                     → AuthHandler.SignIn (rate limited)
//	GET  /v1/users                     → AuthHandler.ListUsers (bearer)
//	POST /v1/stream-feed-credentials   → CredentialHandler.FeedCredentials (bearer)
//	POST /v1/stream-chat-credentials   → CredentialHandler.ChatCredentials (bearer)
//
// Middleware chain (applied in order):
//  1. RequestID, Recoverer
//  2. WithRequestLogging(logger)
//  3. Metrics (if enabled)
//  4. BearerAuth on the protected group
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/v1", func(r chi.Router) {
		// Public endpoint
		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.AllowContentType("application/json"))
			if deps.SignInLimiter != nil {
				r.Use(deps.SignInLimiter.Middleware)
			}
			r.Post("/users", deps.AuthHandler.SignIn)
		})

		// Protected group: requires a valid bearer token
		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(deps.Verifier))
			r.Get("/users", deps.AuthHandler.ListUsers)
			r.Post("/stream-feed-credentials", deps.CredentialHandler.FeedCredentials)
			r.Post("/stream-chat-credentials", deps.CredentialHandler.ChatCredentials)
		})
	})

	return r
}
