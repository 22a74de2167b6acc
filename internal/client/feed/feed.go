// Package feed exposes the four feed operations the app performs on top
// of an established session.
package feed

import (
	"context"

	"github.com/google/uuid"

	"github.com/atinyakov/thestream/internal/client/errs"
	"github.com/atinyakov/thestream/internal/client/stream"
)

const (
	// PageSize bounds timeline and profile reads.
	PageSize = 25

	TimelineSlug = "timeline"
	UserSlug     = "user"

	// ActorPrefix marks actors that are app users rather than platform
	// generated identities.
	ActorPrefix = "SU:"
	VerbPost    = "post"
)

// Session provides the live feed client.
type Session interface {
	FeedClient() (stream.Client, string, error)
}

type Facade struct {
	session Session
}

func New(session Session) *Facade {
	return &Facade{session: session}
}

// FetchTimeline reads the user's timeline feed, most recent first.
func (f *Facade) FetchTimeline(ctx context.Context) ([]stream.Activity, error) {
	return f.fetch(ctx, TimelineSlug)
}

// FetchProfile reads the user's own feed, most recent first.
func (f *Facade) FetchProfile(ctx context.Context) ([]stream.Activity, error) {
	return f.fetch(ctx, UserSlug)
}

func (f *Facade) fetch(ctx context.Context, slug string) ([]stream.Activity, error) {
	client, _, err := f.session.FeedClient()
	if err != nil {
		return nil, err
	}
	activities, err := client.FlatFeed(slug, "").GetActivities(ctx, PageSize)
	if err != nil {
		return nil, errs.Wrap(errs.ErrFeedOperationFailed, err)
	}
	if len(activities) > PageSize {
		activities = activities[:PageSize]
	}
	return activities, nil
}

// Post adds a message to the user's own feed and returns the activity as
// stored by the platform.
func (f *Facade) Post(ctx context.Context, message string) (stream.Activity, error) {
	client, username, err := f.session.FeedClient()
	if err != nil {
		return stream.Activity{}, err
	}
	activity := stream.Activity{
		Actor:  ActorPrefix + username,
		Verb:   VerbPost,
		Object: uuid.NewString(),
		Extra:  map[string]any{"message": message},
	}
	stored, err := client.FlatFeed(UserSlug, "").AddActivity(ctx, activity)
	if err != nil {
		return stream.Activity{}, errs.Wrap(errs.ErrFeedOperationFailed, err)
	}
	return stored, nil
}

// Follow makes the user's timeline follow other's own feed.
func (f *Facade) Follow(ctx context.Context, other string) error {
	client, _, err := f.session.FeedClient()
	if err != nil {
		return err
	}
	timeline := client.FlatFeed(TimelineSlug, "")
	if err := timeline.Follow(ctx, client.FlatFeed(UserSlug, other)); err != nil {
		return errs.Wrap(errs.ErrFeedOperationFailed, err)
	}
	return nil
}
