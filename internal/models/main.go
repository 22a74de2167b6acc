// Package models defines the core data structures shared by the backend
// layers: users and the credentials handed to clients.
package models

import "time"

// User represents a signed-in identity known to the backend.
type User struct {
	// Username is the name chosen by the user at sign-in. It is the key.
	Username string
	// CreatedAt is when the user first signed in.
	CreatedAt time.Time
	// LastSeenAt is the time of the most recent sign-in.
	LastSeenAt time.Time
}

// Product identifies a hosted platform product a credential is scoped to.
type Product string

const (
	// ProductFeed scopes credentials to the activity feed product.
	ProductFeed Product = "feed"
	// ProductChat scopes credentials to the chat product.
	ProductChat Product = "chat"
)

// StreamCredentials is the pair a client needs to talk to the hosted
// platform directly.
type StreamCredentials struct {
	// Token is the platform user token signed for the caller.
	Token string `json:"token"`
	// APIKey is the public platform API key.
	APIKey string `json:"apiKey"`
}

// ChatUser is the user object registered on the hosted chat platform.
type ChatUser struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Image string `json:"image"`
}

// ChatCredentials extends StreamCredentials with the registered chat user.
type ChatCredentials struct {
	User   ChatUser `json:"user"`
	Token  string   `json:"token"`
	APIKey string   `json:"apiKey"`
}
