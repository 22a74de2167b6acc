// Package service provides the credential backend's business logic,
// delegating persistence to a UserRepository and signing to token helpers.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// ErrEmptyUsername is returned when sign-in is attempted without a name.
var ErrEmptyUsername = errors.New("username must not be empty")

// UserRepository defines the persistence operations
// required by the authentication service.
type UserRepository interface {
	// UpsertUser creates the user or refreshes its last-seen time.
	UpsertUser(ctx context.Context, login string) error
	// ListUsernames returns all known logins.
	ListUsernames(ctx context.Context) ([]string, error)
}

// TokenIssuer mints backend bearer tokens.
type TokenIssuer interface {
	Issue(username string) (string, error)
}

// AuthService implements sign-in and user listing.
type AuthService struct {
	// repo performs the data-layer operations.
	repo   UserRepository
	issuer TokenIssuer
}

// NewAuthService constructs a new AuthService using the provided repository
// and token issuer.
func NewAuthService(repo UserRepository, issuer TokenIssuer) *AuthService {
	return &AuthService{repo: repo, issuer: issuer}
}

// SignIn registers or looks up username and returns a bearer token for it.
func (s *AuthService) SignIn(ctx context.Context, username string) (string, error) {
	if username == "" {
		return "", ErrEmptyUsername
	}
	if err := s.repo.UpsertUser(ctx, username); err != nil {
		return "", fmt.Errorf("store user: %w", err)
	}
	return s.issuer.Issue(username)
}

// ListUsers returns every known username except caller, sorted.
func (s *AuthService) ListUsers(ctx context.Context, caller string) ([]string, error) {
	all, err := s.repo.ListUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	others := make([]string, 0, len(all))
	for _, u := range all {
		if u != caller {
			others = append(others, u)
		}
	}
	slices.Sort(others)
	return others, nil
}
