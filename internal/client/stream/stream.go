// Package stream is the client-side surface of the hosted activity feed
// platform: a client scoped to one user, named flat feeds, and the three
// calls the app needs (read, add, follow).
package stream

import "context"

// Client is a platform client scoped to (api key, user token, user).
type Client interface {
	// UserID is the user the client was built for.
	UserID() string
	// FlatFeed returns a handle on the feed slug:userID. An empty userID
	// means the client's own user.
	FlatFeed(slug, userID string) Feed
}

// Feed is a handle on one named feed.
type Feed interface {
	// ID is "slug:userID".
	ID() string
	// GetActivities returns up to limit activities, most recent first.
	GetActivities(ctx context.Context, limit int) ([]Activity, error)
	// AddActivity stores a and returns it as acknowledged by the platform.
	AddActivity(ctx context.Context, a Activity) (Activity, error)
	// Follow makes this feed follow target. Following twice is not an error.
	Follow(ctx context.Context, target Feed) error
}

// FeedID formats the platform's "slug:user" feed identifier.
func FeedID(slug, userID string) string {
	return slug + ":" + userID
}
