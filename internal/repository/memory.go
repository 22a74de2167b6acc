package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/atinyakov/thestream/internal/models"
)

// MemoryUserRepository keeps users in process memory. It is used when no
// database DSN is configured.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
	now   func() time.Time
}

// NewMemoryUserRepository returns an empty in-memory repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]models.User),
		now:   time.Now,
	}
}

// UpsertUser registers login or refreshes its last-seen timestamp.
func (r *MemoryUserRepository) UpsertUser(_ context.Context, login string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	u, ok := r.users[login]
	if !ok {
		u = models.User{Username: login, CreatedAt: now}
	}
	u.LastSeenAt = now
	r.users[login] = u
	return nil
}

// ListUsernames returns every known login ordered by name.
func (r *MemoryUserRepository) ListUsernames(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	logins := make([]string, 0, len(r.users))
	for login := range r.users {
		logins = append(logins, login)
	}
	slices.Sort(logins)
	return logins, nil
}

// Get returns the stored user record, if any.
func (r *MemoryUserRepository) Get(login string) (models.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[login]
	return u, ok
}
