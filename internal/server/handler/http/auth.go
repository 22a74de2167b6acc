// Package http provides HTTP handlers for the credential backend:
// sign-in, user listing and hosted platform credential exchange.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/thestream/internal/middleware"
	"github.com/atinyakov/thestream/internal/service"
	"go.uber.org/zap"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// SignIn registers or looks up the user and returns a bearer token.
	SignIn(ctx context.Context, username string) (string, error)
	// ListUsers returns all known usernames except caller.
	ListUsers(ctx context.Context, caller string) ([]string, error)
}

// SignInRecorder observes sign-in outcomes. It is satisfied by
// *metrics.Collector.
type SignInRecorder interface {
	RecordSignIn(err error)
}

// AuthHandler handles HTTP requests for sign-in and the people list.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	// Metrics is optional.
	Metrics SignInRecorder
	Log     *zap.Logger
}

// SignInRequest represents the JSON payload for sign-in.
type SignInRequest struct {
	// User is the username to sign in as.
	User string `json:"user"`
}

// SignInResponse carries the bearer token for subsequent calls.
type SignInResponse struct {
	AuthToken string `json:"authToken"`
}

// UsersResponse lists the other known users.
type UsersResponse struct {
	Users []string `json:"users"`
}

// SignIn handles POST /v1/users.
// It expects a JSON body with a non-empty "user" field, registers or
// refreshes the user and answers with an auth token.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.User == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	authToken, err := h.AuthService.SignIn(r.Context(), req.User)
	if h.Metrics != nil {
		h.Metrics.RecordSignIn(err)
	}
	if err != nil {
		if errors.Is(err, service.ErrEmptyUsername) {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		h.logger().Error("sign-in failed", zap.String("user", req.User), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, SignInResponse{AuthToken: authToken})
}

// ListUsers handles GET /v1/users. The caller is never included.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetUserIDFromContext(r.Context())

	users, err := h.AuthService.ListUsers(r.Context(), caller)
	if err != nil {
		h.logger().Error("list users failed", zap.String("user", caller), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []string{}
	}

	writeJSON(w, UsersResponse{Users: users})
}

func (h *AuthHandler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
