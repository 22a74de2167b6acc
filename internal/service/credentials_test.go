package service

import (
	"context"
	"errors"
	"testing"

	"github.com/atinyakov/thestream/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

type fakeRegistrar struct {
	got []models.ChatUser
	err error
}

func (f *fakeRegistrar) UpsertUser(ctx context.Context, user models.ChatUser) error {
	f.got = append(f.got, user)
	return f.err
}

func userIDFromToken(t *testing.T, raw, secret string) string {
	t.Helper()
	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}); err != nil {
		t.Fatalf("parse token: %v", err)
	}
	id, _ := claims["user_id"].(string)
	return id
}

func TestFeedCredentials(t *testing.T) {
	svc := NewCredentialService("key", "secret", nil)

	creds, err := svc.FeedCredentials(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FeedCredentials: %v", err)
	}
	if creds.APIKey != "key" {
		t.Errorf("APIKey = %q; want key", creds.APIKey)
	}
	if id := userIDFromToken(t, creds.Token, "secret"); id != "alice" {
		t.Errorf("token user_id = %q; want alice", id)
	}
}

func TestChatCredentials_RegistersUser(t *testing.T) {
	reg := &fakeRegistrar{}
	svc := NewCredentialService("key", "secret", reg)

	creds, err := svc.ChatCredentials(context.Background(), "bob")
	if err != nil {
		t.Fatalf("ChatCredentials: %v", err)
	}
	want := models.ChatUser{ID: "bob", Role: "user", Image: "https://robohash.org/bob"}
	if creds.User != want {
		t.Errorf("User = %+v; want %+v", creds.User, want)
	}
	if len(reg.got) != 1 || reg.got[0] != want {
		t.Errorf("registered = %+v; want [%+v]", reg.got, want)
	}
	if id := userIDFromToken(t, creds.Token, "secret"); id != "bob" {
		t.Errorf("token user_id = %q; want bob", id)
	}
}

func TestChatCredentials_RegistrationFailure(t *testing.T) {
	wantErr := errors.New("platform down")
	svc := NewCredentialService("key", "secret", &fakeRegistrar{err: wantErr})

	if _, err := svc.ChatCredentials(context.Background(), "bob"); !errors.Is(err, wantErr) {
		t.Errorf("ChatCredentials error = %v; want %v", err, wantErr)
	}
}

func TestChatCredentials_NoRegistrar(t *testing.T) {
	svc := NewCredentialService("key", "secret", nil)
	if _, err := svc.ChatCredentials(context.Background(), "bob"); err != nil {
		t.Errorf("ChatCredentials: %v", err)
	}
}
