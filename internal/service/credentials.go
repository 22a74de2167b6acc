package service

import (
	"context"
	"fmt"

	"github.com/atinyakov/thestream/internal/models"
	"github.com/atinyakov/thestream/internal/token"
)

// ChatUserRegistrar registers users on the hosted chat platform.
type ChatUserRegistrar interface {
	UpsertUser(ctx context.Context, user models.ChatUser) error
}

// CredentialService mints hosted platform credentials for signed-in users.
type CredentialService struct {
	apiKey    string
	apiSecret string
	// chat may be nil, in which case chat users are not registered.
	chat ChatUserRegistrar
}

// NewCredentialService constructs a CredentialService. chat may be nil.
func NewCredentialService(apiKey, apiSecret string, chat ChatUserRegistrar) *CredentialService {
	return &CredentialService{apiKey: apiKey, apiSecret: apiSecret, chat: chat}
}

// FeedCredentials returns the feed-scoped credentials for username.
func (s *CredentialService) FeedCredentials(_ context.Context, username string) (models.StreamCredentials, error) {
	t, err := token.UserToken(s.apiSecret, username)
	if err != nil {
		return models.StreamCredentials{}, err
	}
	return models.StreamCredentials{Token: t, APIKey: s.apiKey}, nil
}

// ChatCredentials registers username on the chat platform and returns
// chat-scoped credentials together with the registered user object.
func (s *CredentialService) ChatCredentials(ctx context.Context, username string) (models.ChatCredentials, error) {
	user := models.ChatUser{
		ID:    username,
		Role:  "user",
		Image: "https://robohash.org/" + username,
	}

	t, err := token.UserToken(s.apiSecret, user.ID)
	if err != nil {
		return models.ChatCredentials{}, err
	}

	if s.chat != nil {
		if err := s.chat.UpsertUser(ctx, user); err != nil {
			return models.ChatCredentials{}, fmt.Errorf("register chat user: %w", err)
		}
	}

	return models.ChatCredentials{User: user, Token: t, APIKey: s.apiKey}, nil
}
