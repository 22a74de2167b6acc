// Package session holds the signed-in user, their auth token and the feed
// client built from the user's feed credentials.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/thestream/internal/client/errs"
	"github.com/atinyakov/thestream/internal/client/stream"
	"github.com/atinyakov/thestream/internal/models"
)

// State of a Session.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// Backend is the credential backend as seen by the client.
type Backend interface {
	SignIn(ctx context.Context, user string) (string, error)
	FeedCredentials(ctx context.Context, authToken string) (models.StreamCredentials, error)
	ChatCredentials(ctx context.Context, authToken string) (models.ChatCredentials, error)
	ListUsers(ctx context.Context, authToken string) ([]string, error)
}

// ClientFactory builds a feed client scoped to creds and username.
type ClientFactory func(creds models.StreamCredentials, username string) (stream.Client, error)

var (
	errEmptyUsername = errors.New("username is required")
	errSuperseded    = errors.New("superseded by a newer sign-in")
)

// Session is safe for concurrent use. Feed credentials never leave it:
// they go straight into the ClientFactory.
type Session struct {
	backend   Backend
	newClient ClientFactory
	log       *zap.Logger

	mu        sync.RWMutex
	state     State
	gen       uint64
	username  string
	authToken string
	feed      stream.Client
}

// New returns an unauthenticated Session.
func New(backend Backend, newClient ClientFactory, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{backend: backend, newClient: newClient, log: log}
}

// State reports the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Username is the signed-in user, or "" before sign-in completes.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// SignIn exchanges username for an auth token. Any previous identity and
// feed client are dropped as soon as the call starts. On failure the
// session is left Unauthenticated and the error wraps errs.ErrAuthFailed.
func (s *Session) SignIn(ctx context.Context, username string) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.username, s.authToken, s.feed = "", "", nil
	if username == "" {
		s.state = Unauthenticated
		s.mu.Unlock()
		return errs.Wrap(errs.ErrAuthFailed, errEmptyUsername)
	}
	s.state = Authenticating
	s.mu.Unlock()

	token, err := s.backend.SignIn(ctx, username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return errs.Wrap(errs.ErrAuthFailed, errSuperseded)
	}
	if err != nil {
		s.state = Unauthenticated
		s.log.Debug("sign-in failed", zap.String("user", username), zap.Error(err))
		return errs.Wrap(errs.ErrAuthFailed, err)
	}

	s.state = Authenticated
	s.username = username
	s.authToken = token
	s.log.Debug("signed in", zap.String("user", username))
	return nil
}

// EstablishFeedSession fetches feed credentials and builds the feed client.
// Calling it again replaces the client. It fails with errs.ErrSessionNotReady
// when not Authenticated, or when a sign-in started while it was running.
func (s *Session) EstablishFeedSession(ctx context.Context) error {
	gen, username, token, err := s.identity()
	if err != nil {
		return err
	}

	creds, err := s.backend.FeedCredentials(ctx, token)
	if err != nil {
		return errs.Wrap(errs.ErrCredentialFetchFailed, err)
	}
	client, err := s.newClient(creds, username)
	if err != nil {
		return errs.Wrap(errs.ErrCredentialFetchFailed, err)
	}
	if client.UserID() != username {
		return errs.Wrap(errs.ErrCredentialFetchFailed,
			fmt.Errorf("feed client is scoped to %q, want %q", client.UserID(), username))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state != Authenticated {
		return errs.Wrap(errs.ErrSessionNotReady, errSuperseded)
	}
	s.feed = client
	s.log.Debug("feed session established", zap.String("user", username))
	return nil
}

// FeedClient returns the live feed client and the user it belongs to.
func (s *Session) FeedClient() (stream.Client, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Authenticated || s.feed == nil {
		return nil, "", errs.ErrSessionNotReady
	}
	return s.feed, s.username, nil
}

// ChatCredentials fetches chat credentials for the signed-in user.
func (s *Session) ChatCredentials(ctx context.Context) (models.ChatCredentials, error) {
	_, _, token, err := s.identity()
	if err != nil {
		return models.ChatCredentials{}, errs.Wrap(errs.ErrCredentialFetchFailed, err)
	}
	creds, err := s.backend.ChatCredentials(ctx, token)
	if err != nil {
		return models.ChatCredentials{}, errs.Wrap(errs.ErrCredentialFetchFailed, err)
	}
	return creds, nil
}

// ListUsers returns the other known users. The caller is removed even if
// the backend includes it.
func (s *Session) ListUsers(ctx context.Context) ([]string, error) {
	_, username, token, err := s.identity()
	if err != nil {
		return nil, errs.Wrap(errs.ErrListUsersFailed, err)
	}
	users, err := s.backend.ListUsers(ctx, token)
	if err != nil {
		return nil, errs.Wrap(errs.ErrListUsersFailed, err)
	}
	return slices.DeleteFunc(slices.Clone(users), func(u string) bool { return u == username }), nil
}

func (s *Session) identity() (gen uint64, username, token string, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != Authenticated {
		return 0, "", "", errs.ErrSessionNotReady
	}
	return s.gen, s.username, s.authToken, nil
}
