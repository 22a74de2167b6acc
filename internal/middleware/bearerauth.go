// Package middleware provides HTTP middlewares for authentication,
// logging and rate limiting.
package middleware

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenVerifier resolves a bearer token to the username it was issued for.
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

// BearerAuth returns a middleware that requires an
// "Authorization: Bearer <token>" header.
//
// On successful validation the username the token was issued for is stored
// in the request context, so it can be used downstream as the
// authenticated user ID.
func BearerAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if len(header) < len("bearer ") || !strings.EqualFold(header[:len("bearer ")], "bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			user, err := verifier.Verify(header[len("bearer "):])
			if err != nil {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext extracts the authenticated username from the request
// context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}

// WithUserID stores user in ctx the same way BearerAuth does.
func WithUserID(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey, user)
}
